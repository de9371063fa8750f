package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/martinsuchenak/connprops/internal/connman"
	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/martinsuchenak/connprops/internal/propsync"
	"github.com/martinsuchenak/connprops/internal/storage"
	"github.com/martinsuchenak/connprops/internal/validate"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests
type Handler struct {
	service propsync.PropertyService
	storage storage.Storage
	opts    []propsync.Option
}

// NewHandler creates a new API handler. s may be nil, in which case commits
// are not recorded and history is unavailable.
func NewHandler(svc propsync.PropertyService, s storage.Storage, opts ...propsync.Option) *Handler {
	return &Handler{service: svc, storage: s, opts: opts}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/services/{id}", h.getService)
	mux.HandleFunc("GET /api/services/{id}/sections/{section}", h.getSection)
	mux.HandleFunc("POST /api/services/{id}/commit", h.commitService)

	mux.HandleFunc("GET /api/history", h.listHistory)
}

// getService handles GET /api/services/{id}
func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log.Debug("Loading service", "id", id)

	engine, ok := h.open(w, r, id)
	if !ok {
		return
	}

	log.Info("Loaded service", "id", id)
	h.writeJSON(w, http.StatusOK, engine.Fields())
}

// getSection handles GET /api/services/{id}/sections/{section}
func (h *Handler) getSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	section, err := model.ParseSection(r.PathValue("section"))
	if err != nil {
		log.Warn("Unknown section requested", "id", id, "section", r.PathValue("section"))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, ok := h.open(w, r, id)
	if !ok {
		return
	}

	fields, err := engine.ResetSection(model.Fields{}, section)
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sectionValue(fields, section))
}

// commitService handles POST /api/services/{id}/commit
func (h *Handler) commitService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var edits model.Edits
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		log.Warn("Invalid commit request body", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engine, ok := h.open(w, r, id)
	if !ok {
		return
	}

	if err := validate.Changes(edits, engine.Fields()); err != nil {
		log.Warn("Rejected invalid edits", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := model.CommitResponse{
		DryRun:   r.URL.Query().Get("dry_run") == "true",
		Requests: engine.Commit(edits),
	}
	if resp.Requests == nil {
		resp.Requests = []model.UpdateRequest{}
	}

	if !resp.DryRun && len(resp.Requests) > 0 {
		var recorder propsync.Recorder
		if h.storage != nil {
			recorder = h.storage
		}
		resp.CommitID, resp.Results = propsync.Dispatch(r.Context(), h.service, id, resp.Requests, recorder)
	}

	log.Info("Committed service edits", "id", id, "requests", len(resp.Requests), "dry_run", resp.DryRun)
	h.writeJSON(w, http.StatusOK, resp)
}

// listHistory handles GET /api/history
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, http.StatusServiceUnavailable, "history is not enabled")
		return
	}

	q := r.URL.Query()
	filter := &model.UpdateFilter{
		ServiceID: q.Get("service"),
		CommitID:  q.Get("commit"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	records, err := h.storage.ListUpdates(filter)
	if err != nil {
		log.Error("Failed to list history", "error", err)
		h.internalError(w, err)
		return
	}

	log.Debug("Listed history", "count", len(records))
	h.writeJSON(w, http.StatusOK, records)
}

// open loads the baseline for id, writing an error response on failure
func (h *Handler) open(w http.ResponseWriter, r *http.Request, id string) (*propsync.Engine, bool) {
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "service ID required")
		return nil, false
	}

	engine, err := propsync.Open(r.Context(), h.service, id, h.opts...)
	if err != nil {
		if errors.Is(err, connman.ErrServiceNotFound) {
			log.Warn("Service not found", "id", id)
			h.writeError(w, http.StatusNotFound, "service not found")
			return nil, false
		}
		log.Error("Failed to load service", "error", err, "id", id)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return engine, true
}

func sectionValue(f model.Fields, s model.Section) any {
	switch s {
	case model.SectionGeneral:
		return f.General
	case model.SectionNameservers:
		return map[string]string{"nameservers": f.Nameservers}
	case model.SectionTimeservers:
		return map[string]string{"timeservers": f.Timeservers}
	case model.SectionDomains:
		return map[string]string{"domains": f.Domains}
	case model.SectionIPv4:
		return f.IPv4
	case model.SectionIPv6:
		return f.IPv6
	case model.SectionProxy:
		return f.Proxy
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}
