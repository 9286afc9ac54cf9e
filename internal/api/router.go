package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/roadmapservice"
	"github.com/starford/raido/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// gateEnabled controls whether the password gate is enforced; the login
// endpoint itself is always reachable. sseHandler, if non-nil, is mounted
// at GET /events inside the gated group. dataRoot is used to resolve the
// branding upload directory.
func NewRouter(svc *roadmapservice.Service, idx index.ItemIndex, sessions *session.Store, gateEnabled bool, sseHandler http.Handler, dataRoot string) chi.Router {
	h := NewHandler(svc, idx, sessions)
	bh := NewBrandingHandler(dataRoot, svc)

	r := chi.NewRouter()

	// Session login sits outside the gate.
	r.Post("/session", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(GateMiddleware(gateEnabled, sessions))

		// Whole-document operations.
		r.Get("/roadmap", h.GetRoadmap)
		r.Put("/roadmap", h.ReplaceRoadmap)
		r.Get("/roadmap/export", h.ExportRoadmap)
		r.Get("/roadmap/status", h.Status)

		// Outcome lifecycle.
		r.Post("/outcomes", h.CreateOutcome)
		r.Put("/outcomes/{id}", h.UpdateOutcome)
		r.Delete("/outcomes/{id}", h.DeleteOutcome)
		r.Post("/outcomes/{id}/toggle", h.ToggleOutcome)

		// Problem lifecycle.
		r.Post("/problems", h.CreateProblem)
		r.Put("/problems/{id}", h.UpdateProblem)
		r.Post("/problems/{id}/reattach", h.ReattachProblem)
		r.Delete("/problems/{id}", h.DeleteProblem)

		// Board and search.
		r.Get("/board", h.Board)
		r.Get("/search", h.Search)

		// Branding upload (serving happens at the app root).
		r.Post("/branding", bh.Upload)

		// SSE endpoint (protected by the same gate).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
