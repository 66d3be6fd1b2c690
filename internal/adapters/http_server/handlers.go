package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"listing_intake/internal/app"
	"listing_intake/internal/category"
	"listing_intake/internal/domain"
	"listing_intake/internal/form"
)

type Handlers struct {
	Cmd            *app.ListingService
	Q              *app.QueryService
	MaxUploadBytes int64
}

type problem struct {
	Type     string                `json:"type"`
	Title    string                `json:"title"`
	Status   int                   `json:"status"`
	Detail   string                `json:"detail,omitempty"`
	Category domain.Category       `json:"category,omitempty"`
	Errors   []category.FieldError `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/listings", func(r chi.Router) {
		r.With(MaxBody(h.maxBytes())).Post("/", h.createListing)
		r.Get("/{id}", h.getListing)
		r.With(MaxBody(h.maxBytes())).Patch("/{id}", h.updateListing)
	})
}

func (h *Handlers) maxBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 10 << 20
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var ve *category.ValidationError
	var pc *form.PathConflictError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, problem{
			Type: "/problems/validation", Title: "Validation Failed", Status: http.StatusUnprocessableEntity,
			Category: ve.Category, Errors: ve.Errors,
		})
	case errors.As(err, &pc), errors.Is(err, form.ErrEmptyPath):
		writeProblem(w, problem{Title: "Malformed Form", Status: http.StatusBadRequest, Detail: err.Error()})
	case errors.As(err, &tooLarge):
		writeProblem(w, problem{Title: "Payload Too Large", Status: http.StatusRequestEntityTooLarge})
	case errors.Is(err, errUnsupportedMedia):
		writeProblem(w, problem{Title: "Unsupported Media Type", Status: http.StatusUnsupportedMediaType, Detail: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, problem{Title: "Not Found", Status: http.StatusNotFound, Detail: "listing not found"})
	case errors.Is(err, app.ErrCategoryChange):
		writeProblem(w, problem{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, problem{Title: "Internal Server Error", Status: http.StatusInternalServerError})
	}
}

// writeReadError handles body parsing failures; anything unclassified is the
// client's malformed payload.
func writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.Is(err, errUnsupportedMedia) || errors.As(err, &tooLarge) {
		writeError(w, err)
		return
	}
	writeProblem(w, problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: err.Error()})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeListing(w http.ResponseWriter, status int, l domain.Listing) {
	etag, body := calcETagAndBody(l)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listing body")
	}
}

func (h *Handlers) createListing(w http.ResponseWriter, r *http.Request) {
	sub, files, err := readSubmission(r, h.maxBytes())
	if err != nil {
		writeReadError(w, err)
		return
	}
	l, err := h.Cmd.Create(r.Context(), sub, files)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/listings/"+l.ID)
	writeListing(w, http.StatusCreated, l)
}

func (h *Handlers) updateListing(w http.ResponseWriter, r *http.Request) {
	sub, files, err := readSubmission(r, h.maxBytes())
	if err != nil {
		writeReadError(w, err)
		return
	}
	l, err := h.Cmd.Update(r.Context(), chi.URLParam(r, "id"), sub, files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeListing(w, http.StatusOK, l)
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.Q.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(l)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getListing body")
	}
}
