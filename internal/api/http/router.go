package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/api/http/handlers"
	"github.com/spec-kit/sla-monitor/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sla            *handlers.SlaHandler
	TicketSla      *handlers.TicketSlaHandler
	Preferences    *handlers.PreferencesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	slaGroup := app.Group("/sla")
	slaGroup.Get("/status", cfg.Sla.Status)
	slaGroup.Post("/scan", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Sla.RunNow)

	// lifecycle hooks the ticketing system calls on its own events
	ticketGroup := slaGroup.Group("/tickets/:ticketID", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	ticketGroup.Post("/deadlines", cfg.TicketSla.InitializeDeadlines)
	ticketGroup.Post("/priority", cfg.TicketSla.ChangePriority)
	ticketGroup.Post("/first-response", cfg.TicketSla.FirstResponse)
	ticketGroup.Post("/resolve", cfg.TicketSla.Resolve)
	ticketGroup.Post("/close", cfg.TicketSla.Close)

	prefGroup := app.Group("/notifications/preferences", cfg.AuthMiddleware.Handle)
	prefGroup.Get("/:userID/:category", cfg.Preferences.Get)
	prefGroup.Put("/:userID/:category", cfg.Preferences.Update)
}
