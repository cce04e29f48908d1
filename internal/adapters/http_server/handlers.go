package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/matteolefer/escapedia/internal/app"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/cities", h.listCities)
	s.mux.Get("/v1/cities/{slug}", h.getCity)
	s.mux.Post("/v1/cache/invalidate", h.invalidate)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
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

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListCities(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Dataset Unavailable", "could not read city dataset")
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getCity(w http.ResponseWriter, r *http.Request) {
	c, err := h.Q.GetCity(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, app.ErrCityNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "city not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Dataset Unavailable", "could not read city dataset")
		return
	}
	writeJSON(w, r, c)
}

func (h *Handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.Q.Invalidate(r.Context()); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Cache Error", "could not reset cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
