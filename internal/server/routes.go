package server

import (
	"github.com/csmizzle/conductor/internal/server/middleware"
	"github.com/csmizzle/conductor/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Research run routes
	apiRoutes.POST("/runs", routes.CreateRunHandler, middleware.RequirePermission("run.create"))
	apiRoutes.GET("/runs/:id", routes.GetRunHandler, middleware.RequirePermission("run.view"))
	apiRoutes.GET("/runs/:id/graph", routes.GetRunGraphHandler, middleware.RequirePermission("run.view"))
	apiRoutes.DELETE("/runs/:id", routes.DeleteRunHandler, middleware.RequirePermission("run.delete"))

	// Evidence passage routes
	apiRoutes.POST("/passages", routes.AddPassageHandler, middleware.RequirePermission("passage.create"))
}
