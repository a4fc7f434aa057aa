package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Josue049/CronoSpark/internal/app"
	"github.com/Josue049/CronoSpark/internal/storage"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

func (s *Server) apiListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.app.ListEvents(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	if events == nil {
		events = []storage.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) apiCreateEvent(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	e, err := s.app.CreateEvent(r.Context(), in)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/events/%d", e.ID))
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) apiGetEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, ok := pathID(w, r, params)
	if !ok {
		return
	}
	e, err := s.app.GetEvent(r.Context(), id)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) apiUpdateEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, ok := pathID(w, r, params)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	e, err := s.app.UpdateEvent(r.Context(), id, in)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) apiDeleteEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, ok := pathID(w, r, params)
	if !ok {
		return
	}
	if err := s.app.RemoveEvent(r.Context(), id); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.app.Ping(ctx); err != nil {
		log.WithField("backend", s.backend).Warnf("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Backend: s.backend})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s.backend})
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "event not found"})
	case errors.Is(err, app.ErrInvalidEvent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
	default:
		log.WithField("request_id", requestID(r.Context())).
			WithField("path", r.URL.Path).
			Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (app.EventInput, bool) {
	var in app.EventInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return in, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}
