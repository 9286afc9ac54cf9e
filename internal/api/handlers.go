package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/board"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/roadmapservice"
	"github.com/starford/raido/internal/session"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *roadmapservice.Service
	idx      index.ItemIndex
	sessions *session.Store
}

// NewHandler creates a new Handler.
func NewHandler(svc *roadmapservice.Service, idx index.ItemIndex, sessions *session.Store) *Handler {
	return &Handler{svc: svc, idx: idx, sessions: sessions}
}

// writeServiceError maps service errors onto HTTP responses: collected
// form-validation errors become a 400 field map, a timeline mismatch
// becomes a 409 prompt payload, and unknown entities 404.
func writeServiceError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, validationBody(fieldErrs))
		return
	}
	var mismatch *roadmapservice.TimelineMismatchError
	if errors.As(err, &mismatch) {
		writeJSON(w, http.StatusConflict, mismatchResponse{Error: mismatch.Error(), Mismatch: mismatch})
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// Login handles POST /session: exchanges the shared password for a
// session token. The error detail is deliberately uniform.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	token, err := h.sessions.Login(req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// GetRoadmap handles GET /roadmap: the full document plus its checksum,
// taken as one snapshot so the pair always describes the same revision.
func (h *Handler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	doc, sum := h.svc.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, roadmapResponse{Roadmap: doc, Checksum: sum})
}

// ReplaceRoadmap handles PUT /roadmap: imports the request body as the
// whole document. The payload replaces the in-memory and persisted state
// with no structural validation beyond valid JSON.
func (h *Handler) ReplaceRoadmap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if _, err := h.svc.Import(r.Context(), body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON document"))
		return
	}
	doc, sum := h.svc.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, roadmapResponse{Roadmap: doc, Checksum: sum})
}

// ExportRoadmap handles GET /roadmap/export: pretty-printed JSON for
// manual copy.
func (h *Handler) ExportRoadmap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roadmap.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.svc.Export(r.Context())))
}

// Status handles GET /roadmap/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	doc, sum := h.svc.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{
		Title:            doc.Metadata.Title,
		LastUpdated:      doc.Metadata.LastUpdated,
		Checksum:         sum,
		Outcomes:         len(doc.Outcomes),
		OrphanedProblems: len(doc.OrphanedProblems),
		AllowedPhases:    h.svc.AllowedPhases(r.Context()),
	})
}

// CreateOutcome handles POST /outcomes.
func (h *Handler) CreateOutcome(w http.ResponseWriter, r *http.Request) {
	var form roadmapservice.OutcomeForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	o, err := h.svc.CreateOutcome(r.Context(), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// UpdateOutcome handles PUT /outcomes/{id}.
func (h *Handler) UpdateOutcome(w http.ResponseWriter, r *http.Request) {
	var form roadmapservice.OutcomeForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	o, err := h.svc.UpdateOutcome(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteOutcome handles DELETE /outcomes/{id}. The optional body selects
// which owned problems are deleted with it; the rest become orphans.
func (h *Handler) DeleteOutcome(w http.ResponseWriter, r *http.Request) {
	var req deleteOutcomeRequest
	if r.Body != nil {
		// Body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	}
	if err := h.svc.DeleteOutcome(r.Context(), chi.URLParam(r, "id"), req.DeleteProblemIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleOutcome handles POST /outcomes/{id}/toggle.
func (h *Handler) ToggleOutcome(w http.ResponseWriter, r *http.Request) {
	expanded, err := h.svc.ToggleOutcomeExpanded(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{IsExpanded: expanded})
}

// CreateProblem handles POST /problems.
func (h *Handler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var form roadmapservice.ProblemForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.svc.CreateProblem(r.Context(), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProblem handles PUT /problems/{id}.
func (h *Handler) UpdateProblem(w http.ResponseWriter, r *http.Request) {
	var form roadmapservice.ProblemForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.svc.UpdateProblem(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ReattachProblem handles POST /problems/{id}/reattach. On a timeline
// mismatch the response is a 409 carrying the suggested fix; the client
// retries with ?autoFix=true to accept it.
func (h *Handler) ReattachProblem(w http.ResponseWriter, r *http.Request) {
	var form roadmapservice.ProblemForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	autoFix, _ := strconv.ParseBool(r.URL.Query().Get("autoFix"))
	p, err := h.svc.ReattachProblem(r.Context(), chi.URLParam(r, "id"), form, autoFix)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProblem handles DELETE /problems/{id}.
func (h *Handler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProblem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Board handles GET /board with filter selections in the query string.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r.URL.Query())
	view := board.Build(h.svc.Document(r.Context()), filters)
	writeJSON(w, http.StatusOK, view)
}

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.idx.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
