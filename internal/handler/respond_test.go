package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipnfc/equipment-manager/internal/service"
)

func TestFailStatusMapping(t *testing.T) {
	e := echo.New()

	cases := []struct {
		kind service.Kind
		want int
	}{
		{service.KindValidation, http.StatusBadRequest},
		{service.KindUnauthorized, http.StatusUnauthorized},
		{service.KindForbidden, http.StatusForbidden},
		{service.KindNotFound, http.StatusNotFound},
		{service.KindConflict, http.StatusConflict},
		{service.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := fail(c, &service.Error{Kind: tc.kind, Message: "boom"})
		require.NoError(t, err)
		assert.Equal(t, tc.want, rec.Code)
	}
}

func TestFailHidesInternalCause(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, fail(c, errors.New("dsn user:pass@tcp refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dsn", "internal details must not leak to clients")
	assert.Contains(t, rec.Body.String(), "internal server error")
}
