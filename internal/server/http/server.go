package internalhttp

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Josue049/CronoSpark/internal/app"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = map[string]*template.Template{
	"index":     template.Must(template.ParseFS(templatesFS, "templates/base.html", "templates/index.html")),
	"add_event": template.Must(template.ParseFS(templatesFS, "templates/base.html", "templates/add_event.html")),
}

type Config struct {
	Host            string
	Port            int
	SecretKey       string
	WriteRateLimit  float64
	WriteBurst      int
	ShutdownTimeout time.Duration
}

type Server struct {
	srv     *http.Server
	addr    string
	app     *app.App
	backend string
	flashes *flashStore
	limiter *rate.Limiter

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewServer builds a server for the app. backend is reported by the health check.
func NewServer(config Config, app *app.App, backend string) (*Server, error) {
	s := &Server{
		addr:    net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		app:     app,
		backend: backend,
		flashes: newFlashStore(config.SecretKey),
		ready:   make(chan struct{}),
	}
	if config.WriteRateLimit > 0 {
		burst := config.WriteBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.WriteRateLimit), burst)
	}
	handler, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	mux := runtime.NewServeMux()
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/", withoutParams(s.index)},
		{http.MethodGet, "/add", withoutParams(s.addEventForm)},
		{http.MethodPost, "/add", withoutParams(s.addEvent)},
		{http.MethodPost, "/delete/{id}", s.deleteEvent},

		{http.MethodGet, "/api/events", withoutParams(s.apiListEvents)},
		{http.MethodPost, "/api/events", withoutParams(s.apiCreateEvent)},
		{http.MethodGet, "/api/events/{id}", s.apiGetEvent},
		{http.MethodPut, "/api/events/{id}", s.apiUpdateEvent},
		{http.MethodDelete, "/api/events/{id}", s.apiDeleteEvent},

		{http.MethodGet, "/events.ics", withoutParams(s.calendarFeed)},
		{http.MethodGet, "/healthz", withoutParams(s.health)},
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}
	return requestIDMiddleware(loggingMiddleware(rateLimitMiddleware(s.limiter, mux))), nil
}

func withoutParams(h http.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		h(w, r)
	}
}

// Handler returns the router with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	log.Infof("starting http server on %s", listener.Addr())
	err = s.srv.Serve(listener)
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
