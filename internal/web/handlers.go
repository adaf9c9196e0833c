// Package web exposes the avatar pipeline as a JSON API for a browser form.
// It owns session state; rendering the form is left to the client.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/basel-ax/avatargen/internal/domain"
	"github.com/basel-ax/avatargen/internal/service"
	"github.com/basel-ax/avatargen/internal/session"
)

const (
	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	signalCelebrate = "celebrate"
	signalAttention = "attention"
)

// Handlers serves the form host API
type Handlers struct {
	avatars    *service.AvatarService
	sessions   *session.Store
	catalogErr error
}

// NewHandlers creates the handlers. catalogErr is the error from loading the
// catalog, reported while the catalog is empty.
func NewHandlers(avatars *service.AvatarService, sessions *session.Store, catalogErr error) *Handlers {
	return &Handlers{avatars: avatars, sessions: sessions, catalogErr: catalogErr}
}

// Router builds the chi router for the API
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.HealthCheck)
	r.Get("/catalog", h.Catalog)
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/generate", h.Generate)
		r.Get("/image", h.DownloadImage)
	})
	return r
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type attributeView struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Multi   bool     `json:"multi"`
	Options []string `json:"options"`
	Default string   `json:"default,omitempty"`
}

type catalogView struct {
	Resolutions       []domain.Resolution `json:"resolutions"`
	DefaultResolution domain.Resolution   `json:"default_resolution"`
	Attributes        []attributeView     `json:"attributes"`
}

// Catalog lists the selectable values for every attribute
func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	c := h.avatars.Catalog()
	if c.Empty() {
		err := h.catalogErr
		if domain.KindOf(err) != domain.KindConfiguration {
			err = domain.NewConfigurationError("attribute catalog is empty", err)
		}
		writeError(w, err)
		return
	}

	view := catalogView{
		Resolutions:       domain.Resolutions,
		DefaultResolution: domain.Resolutions[0],
	}
	for _, a := range domain.Attributes {
		av := attributeView{Key: a.Key, Label: a.Label, Multi: a.Multi, Options: c.Options(a)}
		if !a.Multi {
			av.Default = c.DefaultFor(a)
		}
		view.Attributes = append(view.Attributes, av)
	}
	writeJSON(w, http.StatusOK, view)
}

type createSessionRequest struct {
	APIKey string `json:"api_key"`
}

// CreateSession starts a session for the supplied credential
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}
	if req.APIKey == "" {
		writeError(w, domain.NewValidationError("OpenAI API key is required to generate avatars", nil))
		return
	}

	sess := h.sessions.Create(req.APIKey)
	log.Printf("Session %s created", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

type imageView struct {
	SessionID     string `json:"session_id"`
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt"`
	Path          string `json:"path"`
	Format        string `json:"format"`
	DownloadURL   string `json:"download_url"`
	Message       string `json:"message"`
	Signal        string `json:"signal,omitempty"`
}

func newImageView(sessionID string, img *domain.GeneratedImage) *imageView {
	return &imageView{
		SessionID:     sessionID,
		URL:           img.URL,
		RevisedPrompt: img.RevisedPrompt,
		Path:          img.Path,
		Format:        img.Format,
		DownloadURL:   fmt.Sprintf("/sessions/%s/image", sessionID),
		Message:       "Image saved to: " + img.Path,
	}
}

type sessionView struct {
	ID         string     `json:"id"`
	Generating bool       `json:"generating"`
	Image      *imageView `json:"image,omitempty"`
}

// GetSession reports the session state and its latest image
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view := sessionView{ID: sess.ID, Generating: sess.Generating()}
	if img := sess.Image(); img != nil {
		view.Image = newImageView(sess.ID, img)
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSession ends a session
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	Prompt      string            `json:"prompt"`
	Resolution  string            `json:"resolution"`
	Selection   map[string]string `json:"selection"`
	Accessories []string          `json:"accessories"`
	// Include holds per-field toggles; when absent every attribute is included
	Include map[string]bool `json:"include"`
}

// Generate runs the pipeline for the session
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}

	resolution := domain.Resolution(body.Resolution)
	if resolution == "" {
		resolution = domain.Resolutions[0]
	}

	var policy domain.InclusionPolicy = domain.IncludeAll
	if body.Include != nil {
		for key := range body.Include {
			if _, ok := domain.LookupAttribute(key); !ok {
				writeError(w, domain.NewValidationError(fmt.Sprintf("unknown attribute %q", key), nil))
				return
			}
		}
		policy = domain.Toggles(body.Include)
	}

	sel := domain.FieldSelection{Values: body.Selection, Accessories: body.Accessories}
	req := domain.NewGenerationRequest(body.Prompt, resolution, sel.WithDefaults(h.avatars.Catalog()), policy)

	img, err := h.avatars.Generate(r.Context(), sess, req)
	if err != nil {
		writeError(w, err)
		return
	}

	view := newImageView(sess.ID, img)
	view.Signal = signalCelebrate
	writeJSON(w, http.StatusOK, view)
}

// DownloadImage serves the bytes of the latest image from memory
func (h *Handlers) DownloadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	img := sess.Image()
	if img == nil {
		writeJSON(w, http.StatusNotFound, errorView{Error: "no image generated yet", Signal: signalAttention})
		return
	}

	w.Header().Set("Content-Type", img.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=avatar.%s", img.Extension()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		log.Printf("Error writing image for session %s: %v", sess.ID, err)
	}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorView{Error: "session not found", Signal: signalAttention})
		return nil, false
	}
	return sess, true
}

type errorView struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Signal string `json:"signal"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable
	case domain.KindService, domain.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	var de *domain.Error
	if kind == domain.KindValidation && errors.As(err, &de) {
		msg = de.Msg
	}
	writeJSON(w, statusFor(kind), errorView{Error: msg, Kind: string(kind), Signal: signalAttention})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
