package router

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/equipnfc/equipment-manager/internal/handler"
)

func TestRegisterRoutePaths(t *testing.T) {
	e := echo.New()
	Register(e, Deps{
		Auth:       handler.NewAuthHandler(nil, nil),
		Equipments: handler.NewEquipmentHandler(nil),
		JWTSecret:  "test-secret",
	})

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		http.MethodGet + " /healthz",
		http.MethodPost + " /api/auth/register",
		http.MethodPost + " /api/auth/login",
		http.MethodPost + " /api/auth/forgot-password",
		http.MethodPost + " /api/auth/reset-password",
		http.MethodPost + " /api/auth/logout",
		http.MethodGet + " /api/auth/me",
		http.MethodPut + " /api/auth/me",
		http.MethodPost + " /api/auth/change-password",
		http.MethodGet + " /api/equipments",
		http.MethodPost + " /api/equipments",
		http.MethodGet + " /api/equipments/statistics",
		http.MethodGet + " /api/equipments/export",
		http.MethodGet + " /api/equipments/:id",
		http.MethodPut + " /api/equipments/:id",
		http.MethodDelete + " /api/equipments/:id",
		http.MethodPost + " /api/equipments/:id/nfc-tag",
		http.MethodDelete + " /api/equipments/:id/nfc-tag",
	}
	for _, w := range want {
		assert.True(t, registered[w], "missing route %s", w)
	}
}
