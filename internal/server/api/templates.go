package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultTolerance is used when a template is created without one.
const DefaultTolerance = 0.15

// TemplateHandler handles HTTP requests for template resources.
type TemplateHandler struct {
	store    *store.Store
	reloader Reloader
	logger   zerolog.Logger
}

// NewTemplateHandler creates a new TemplateHandler. reloader may be nil.
func NewTemplateHandler(s *store.Store, reloader Reloader, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		store:    s,
		reloader: reloader,
		logger:   logger.With().Str("component", "api_templates").Logger(),
	}
}

// Routes returns the template routes, to be mounted at /api/templates.
func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type templateRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Chirality *string `json:"chirality"`
	Tolerance float64 `json:"tolerance"`
}

type templateResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Chirality string  `json:"chirality,omitempty"`
	Tolerance float64 `json:"tolerance"`
	Samples   int     `json:"samples"`
	Trained   bool    `json:"trained"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

func (h *TemplateHandler) toResponse(t *store.Template) templateResponse {
	points, err := h.store.Templates().Points(t.ID)
	if err != nil {
		h.logger.Warn().Err(err).Str("template", t.ID).Msg("failed to read template points")
	}
	return templateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Type:      string(t.Type),
		Chirality: t.Chirality,
		Tolerance: t.Tolerance,
		Samples:   t.Samples,
		Trained:   len(points) > 0,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

func validChirality(c string) bool {
	return c == "" || hand.Chirality(c) == hand.Left || hand.Chirality(c) == hand.Right
}

// reload refreshes the matchers. Failures are logged; the store change stands.
func (h *TemplateHandler) reload() {
	if h.reloader == nil {
		return
	}
	if err := h.reloader.LoadTemplates(); err != nil {
		h.logger.Error().Err(err).Msg("failed to reload templates")
	}
}

// list handles GET /api/templates.
func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list templates")
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, h.toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/templates/{id}.
func (h *TemplateHandler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Templates().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(t))
}

// create handles POST /api/templates.
func (h *TemplateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	templateType := store.TemplateType(req.Type)
	if templateType == "" {
		templateType = store.TemplateTypePose
	}
	if !templateType.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid template type")
		return
	}

	chirality := ""
	if req.Chirality != nil {
		chirality = *req.Chirality
	}
	if !validChirality(chirality) {
		writeError(w, http.StatusBadRequest, "Invalid chirality")
		return
	}

	if req.Tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must not be negative")
		return
	}
	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	if _, err := h.store.Templates().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "A template with this name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check template name")
		return
	}

	t := &store.Template{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Type:      templateType,
		Chirality: chirality,
		Tolerance: tolerance,
	}
	if err := h.store.Templates().Create(t); err != nil {
		h.logger.Error().Err(err).Msg("failed to create template")
		writeError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(t))
}

// update handles PUT /api/templates/{id}. The type of a template cannot change
// once it has samples.
func (h *TemplateHandler) update(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Templates().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Type != "" {
		templateType := store.TemplateType(req.Type)
		if !templateType.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid template type")
			return
		}
		if templateType != t.Type && t.Samples > 0 {
			writeError(w, http.StatusConflict, "Cannot change the type of a template with samples")
			return
		}
		t.Type = templateType
	}
	if req.Chirality != nil {
		if !validChirality(*req.Chirality) {
			writeError(w, http.StatusBadRequest, "Invalid chirality")
			return
		}
		t.Chirality = *req.Chirality
	}
	if req.Tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must not be negative")
		return
	}
	if req.Tolerance != 0 {
		t.Tolerance = req.Tolerance
	}

	if err := h.store.Templates().Update(t); err != nil {
		h.logger.Error().Err(err).Str("template", t.ID).Msg("failed to update template")
		writeError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}
	h.reload()

	writeJSON(w, http.StatusOK, h.toResponse(t))
}

// delete handles DELETE /api/templates/{id}.
func (h *TemplateHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Templates().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	h.reload()

	w.WriteHeader(http.StatusNoContent)
}
