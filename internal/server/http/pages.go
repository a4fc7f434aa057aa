package internalhttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Josue049/CronoSpark/internal/app"
	"github.com/Josue049/CronoSpark/internal/storage"
	"github.com/Josue049/CronoSpark/internal/validator"
	log "github.com/sirupsen/logrus"
)

type indexPage struct {
	app.Overview
	Flashes []Flash
}

type addEventPage struct {
	Flashes []Flash
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	overview, err := s.app.Overview(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.render(w, r, "index", indexPage{Overview: overview, Flashes: s.flashes.Pop(w, r)})
}

func (s *Server) addEventForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "add_event", addEventPage{Flashes: s.flashes.Pop(w, r)})
}

func (s *Server) addEvent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := app.EventInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Date:        r.PostForm.Get("date"),
		Time:        r.PostForm.Get("time"),
		Link:        r.PostForm.Get("link"),
		Urgent:      checkbox(r.PostForm.Get("urgent")),
	}
	_, err := s.app.CreateEvent(r.Context(), in)
	switch {
	case errors.Is(err, app.ErrInvalidEvent):
		s.flashes.Add(w, r, "error", validationMessage(err))
	case err != nil:
		s.internalError(w, r, err)
		return
	default:
		s.flashes.Add(w, r, "success", "event added")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, ok := pathID(w, r, params)
	if !ok {
		return
	}
	err := s.app.RemoveEvent(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent):
		http.NotFound(w, r)
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}
	s.flashes.Add(w, r, "info", "event deleted")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates[name].ExecuteTemplate(w, "base", data); err != nil {
		log.WithField("request_id", requestID(r.Context())).Errorf("failed to render %s: %v", name, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.WithField("request_id", requestID(r.Context())).
		WithField("path", r.URL.Path).
		Errorf("request failed: %v", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func pathID(w http.ResponseWriter, r *http.Request, params map[string]string) (int64, bool) {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func checkbox(value string) bool {
	switch value {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// validationMessage drops the generic prefix so users see only what is wrong.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return validationErrors.Error()
	}
	return err.Error()
}
