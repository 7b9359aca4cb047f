package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/equipnfc/equipment-manager/internal/middleware"
	"github.com/equipnfc/equipment-manager/internal/repository"
	"github.com/equipnfc/equipment-manager/internal/service"
)

// EquipmentHandler bundles dependencies for inventory endpoints.
type EquipmentHandler struct {
	Equipments *service.EquipmentService
}

func NewEquipmentHandler(eq *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{Equipments: eq}
}

// ----- DTOs -----

type createEquipmentReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	Location    *string `json:"location"`
	Notes       *string `json:"notes"`
}

type updateEquipmentReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	Location    *string `json:"location"`
	Notes       *string `json:"notes"`
}

type assignTagReq struct {
	TagID string `json:"tagId"`
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func intQuery(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

// List returns a filtered, sorted page of equipments.
func (h *EquipmentHandler) List(c echo.Context) error {
	opt := service.ListOptions{
		Category:  c.QueryParam("category"),
		Status:    c.QueryParam("status"),
		Search:    c.QueryParam("search"),
		Location:  c.QueryParam("location"),
		Page:      intQuery(c, "page"),
		PageSize:  intQuery(c, "pageSize"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	page, err := h.Equipments.ListEquipment(ctx, opt)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "equipments", page)
}

func (h *EquipmentHandler) Create(c echo.Context) error {
	var req createEquipmentReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	view, err := h.Equipments.CreateEquipment(ctx, service.CreateEquipmentInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Location:    req.Location,
		Notes:       req.Notes,
	}, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, "equipment created", view)
}

// Detail returns one equipment with creator, tag and recent events.
func (h *EquipmentHandler) Detail(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failDetail(c, http.StatusBadRequest, "invalid equipment id", c.Param("id"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	detail, err := h.Equipments.GetEquipmentByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "equipment", detail)
}

func (h *EquipmentHandler) Update(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failDetail(c, http.StatusBadRequest, "invalid equipment id", c.Param("id"))
	}
	var req updateEquipmentReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	view, err := h.Equipments.UpdateEquipment(ctx, id, repository.EquipmentUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Location:    req.Location,
		Notes:       req.Notes,
	}, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "equipment updated", view)
}

func (h *EquipmentHandler) Delete(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failDetail(c, http.StatusBadRequest, "invalid equipment id", c.Param("id"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Equipments.DeleteEquipment(ctx, id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "equipment deleted", res)
}

// AssignTag binds an NFC tag to an equipment. A tag already bound
// elsewhere answers 409 naming the current holder.
func (h *EquipmentHandler) AssignTag(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failDetail(c, http.StatusBadRequest, "invalid equipment id", c.Param("id"))
	}
	var req assignTagReq
	if err := c.Bind(&req); err != nil {
		return failDetail(c, http.StatusBadRequest, "invalid body", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	view, err := h.Equipments.AssignNfcTag(ctx, id, req.TagID, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "tag assigned", view)
}

func (h *EquipmentHandler) RemoveTag(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failDetail(c, http.StatusBadRequest, "invalid equipment id", c.Param("id"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	view, err := h.Equipments.RemoveNfcTag(ctx, id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "tag removed", view)
}

// Statistics returns fleet-wide aggregates for the dashboard.
func (h *EquipmentHandler) Statistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stats, err := h.Equipments.GetStatistics(ctx)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, "statistics", stats)
}

// Export streams the whole inventory as a CSV attachment. Exports can
// outlive the standard request timeout on large fleets, so this one
// runs on the raw request context.
func (h *EquipmentHandler) Export(c echo.Context) error {
	filename, content, err := h.Equipments.ExportCSV(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}
