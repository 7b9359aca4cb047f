package router // router maps the HTTP surface onto handlers and middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/equipnfc/equipment-manager/internal/handler"
	"github.com/equipnfc/equipment-manager/internal/middleware"
	"github.com/equipnfc/equipment-manager/internal/model"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth       *handler.AuthHandler
	Equipments *handler.EquipmentHandler
	JWTSecret  string
	Users      middleware.UserLoader
	RateLimit  echo.MiddlewareFunc // applied to unauthenticated auth endpoints
	Cache      echo.MiddlewareFunc // applied to hot read endpoints
}

// Register wires all routes. Unauthenticated auth operations live
// under /api/auth and are rate limited; everything else under /api
// requires a valid token and an active account.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/api/auth")
	if d.RateLimit != nil {
		pub.Use(d.RateLimit)
	}
	pub.POST("/register", d.Auth.Register)
	pub.POST("/login", d.Auth.Login)
	pub.POST("/forgot-password", d.Auth.ForgotPassword)
	pub.POST("/reset-password", d.Auth.ResetPassword)

	api := e.Group("/api")
	if d.RateLimit != nil {
		api.Use(d.RateLimit)
	}
	api.Use(middleware.JWTAuth(d.JWTSecret, d.Users))
	api.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	api.POST("/auth/logout", d.Auth.Logout)
	api.GET("/auth/me", d.Auth.Me)
	api.PUT("/auth/me", d.Auth.UpdateMe)
	api.POST("/auth/change-password", d.Auth.ChangePassword)

	eq := api.Group("/equipments")
	if d.Cache != nil {
		eq.GET("", d.Equipments.List, d.Cache)
		eq.GET("/statistics", d.Equipments.Statistics, d.Cache)
	} else {
		eq.GET("", d.Equipments.List)
		eq.GET("/statistics", d.Equipments.Statistics)
	}
	eq.POST("", d.Equipments.Create)
	// static segments before :id so "export" is never parsed as an id
	eq.GET("/export", d.Equipments.Export)
	eq.GET("/:id", d.Equipments.Detail)
	eq.PUT("/:id", d.Equipments.Update)
	eq.DELETE("/:id", d.Equipments.Delete)
	eq.POST("/:id/nfc-tag", d.Equipments.AssignTag)
	eq.DELETE("/:id/nfc-tag", d.Equipments.RemoveTag)
}
