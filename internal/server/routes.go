package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/tobilg/widget-studio/internal/handlers"
)

func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.apiRouter.Route("/api", func(r chi.Router) {
		// Widgets
		r.Get("/widgets", h.ListWidgets)
		r.Post("/widgets", h.CreateWidget)
		r.Get("/widgets/types", h.ListWidgetTypes)
		r.Get("/widgets/{id}", h.GetWidget)
		r.Put("/widgets/{id}", h.UpdateWidget)
		r.Delete("/widgets/{id}", h.DeleteWidget)
		r.Get("/widgets/{id}/configuration", h.GetConfiguration)
		r.Put("/widgets/{id}/configuration", h.SaveConfiguration)
		r.Get("/widgets/{id}/interactions", h.GetInteractionCounts)

		// Dashboards
		r.Get("/dashboards", h.ListDashboards)
		r.Post("/dashboards", h.CreateDashboard)
		r.Get("/dashboards/{id}", h.GetDashboard)
		r.Post("/dashboards/{id}/drafts", h.CreateDraft)
		r.Get("/dashboards/{id}/versions", h.ListVersions)
		r.Get("/dashboards/{id}/versions/active", h.GetActiveVersion)
		r.Get("/dashboards/{id}/layout", h.GetDashboardLayout)
		r.Get("/dashboards/{id}/render", h.RenderDashboard)

		// Drafts
		r.Get("/drafts/{id}/placements", h.GetDraftPlacements)
		r.Put("/drafts/{id}/placements", h.ReplaceDraftPlacements)
		r.Get("/drafts/{id}/layout", h.GetDraftLayout)
		r.Put("/drafts/{id}/layout", h.SaveDraftLayout)
		r.Post("/drafts/{id}/publish", h.PublishDraft)
		r.Post("/drafts/{id}/reset", h.ResetDraft)

		// Versions
		r.Get("/versions/{id}/placements", h.GetVersionPlacements)
		r.Post("/versions/{id}/restore", h.RestoreVersion)

		// Interactions
		r.Post("/interactions", h.RecordInteraction)
	})

	// WebSocket for viewer push
	s.apiRouter.Get("/ws", h.HandleWebSocket)

	// Health check
	s.apiRouter.Get("/health", h.Health)
}
