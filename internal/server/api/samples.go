package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/store"
)

// SamplesHandler handles HTTP requests for template samples. Adding samples
// retrains the template from all of its samples.
type SamplesHandler struct {
	store    *store.Store
	trainer  *gesture.Trainer
	reloader Reloader
	hands    HandSource
	logger   zerolog.Logger
}

// SamplesConfig holds the SamplesHandler collaborators. Reloader and Hands may be nil.
type SamplesConfig struct {
	Store    *store.Store
	Trainer  *gesture.Trainer
	Reloader Reloader
	Hands    HandSource
	Logger   zerolog.Logger
}

// NewSamplesHandler creates a new SamplesHandler.
func NewSamplesHandler(cfg SamplesConfig) *SamplesHandler {
	trainer := cfg.Trainer
	if trainer == nil {
		trainer = gesture.NewTrainer()
	}
	return &SamplesHandler{
		store:    cfg.Store,
		trainer:  trainer,
		reloader: cfg.Reloader,
		hands:    cfg.Hands,
		logger:   cfg.Logger.With().Str("component", "api_samples").Logger(),
	}
}

// Routes returns the sample routes, to be mounted at /api/templates/{id}/samples.
func (h *SamplesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/", h.clear)
	return r
}

// createSamplesRequest carries recorded samples, or asks for the current hand to be
// captured as one pose sample.
type createSamplesRequest struct {
	Samples   []json.RawMessage `json:"samples"`
	Capture   bool              `json:"capture"`
	Chirality string            `json:"chirality"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	TemplateID  string          `json:"template_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type trainResponse struct {
	Samples int `json:"samples"`
	Points  int `json:"points"`
}

func (h *SamplesHandler) template(w http.ResponseWriter, r *http.Request) (*store.Template, bool) {
	t, err := h.store.Templates().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify template")
		return nil, false
	}
	return t, true
}

// list handles GET /api/templates/{id}/samples.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	t, ok := h.template(w, r)
	if !ok {
		return
	}

	samples, err := h.store.Samples().GetByTemplateID(t.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			TemplateID:  s.TemplateID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   formatTime(s.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/templates/{id}/samples. The new samples are trained
// together with the stored ones before anything is saved, so a bad sample
// leaves the template untouched.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.template(w, r)
	if !ok {
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Capture {
		sample, err := h.capture(t, req.Chirality)
		if err != nil {
			writeError(w, http.StatusConflict, "Cannot capture sample: "+err.Error())
			return
		}
		req.Samples = append(req.Samples, sample)
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	existing, err := h.store.Samples().Data(t.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read samples")
		return
	}

	points, err := h.trainer.Train(gesture.TemplateType(t.Type), append(existing, req.Samples...))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid samples: "+err.Error())
		return
	}

	if err := h.store.Samples().Create(t.ID, req.Samples); err != nil {
		h.logger.Error().Err(err).Str("template", t.ID).Msg("failed to save samples")
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}
	if err := h.store.Templates().SetPoints(t.ID, points); err != nil {
		h.logger.Error().Err(err).Str("template", t.ID).Msg("failed to save template points")
		writeError(w, http.StatusInternalServerError, "Failed to save template points")
		return
	}
	h.reload()

	h.logger.Info().
		Str("template", t.Name).
		Int("samples", len(existing)+len(req.Samples)).
		Int("points", len(points)).
		Msg("Template trained")

	writeJSON(w, http.StatusCreated, trainResponse{
		Samples: len(existing) + len(req.Samples),
		Points:  len(points),
	})
}

// clear handles DELETE /api/templates/{id}/samples and untrains the template.
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request) {
	t, ok := h.template(w, r)
	if !ok {
		return
	}

	if err := h.store.Samples().DeleteByTemplateID(t.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	if err := h.store.Templates().SetPoints(t.ID, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear template points")
		return
	}
	h.reload()

	w.WriteHeader(http.StatusNoContent)
}

// capture turns the currently tracked hand into a pose sample.
func (h *SamplesHandler) capture(t *store.Template, chirality string) (json.RawMessage, error) {
	if h.hands == nil {
		return nil, fmt.Errorf("hand tracking is not available")
	}
	if t.Type != store.TemplateTypePose {
		return nil, fmt.Errorf("only pose templates can be captured from a single frame")
	}

	c := hand.Chirality(chirality)
	if c == "" {
		c = hand.Chirality(t.Chirality)
	}
	if c == "" {
		c = hand.Right
	}

	frame := h.hands.Hands()
	tracked := frame.Hand(c)
	if tracked == nil {
		return nil, fmt.Errorf("no %s hand is tracked", c)
	}

	sample, err := gesture.PoseSampleFromHand(tracked, frame.Timestamp.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%s hand: %w", c, err)
	}
	return json.Marshal(sample)
}

func (h *SamplesHandler) reload() {
	if h.reloader == nil {
		return
	}
	if err := h.reloader.LoadTemplates(); err != nil {
		h.logger.Error().Err(err).Msg("failed to reload templates")
	}
}
