// Package demo is an in-memory stand-in for the LeadHunter backend. It serves
// the same endpoints with canned leads so the client can run end to end
// without the AI service.
package demo

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/wolfman30/leadhunter/internal/contact"
	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

// Config controls the demo server.
type Config struct {
	Secret         string
	AllowedOrigins []string
	Bounds         leads.Bounds
	Logger         *logging.Logger

	// ContactRate and ContactBurst throttle the public contact endpoint per
	// client address. A zero rate disables the limit.
	ContactRate  float64
	ContactBurst int
}

type storedProfile struct {
	CompanyName     *string `json:"company_name"`
	CompanyServices *string `json:"company_services"`
}

// Server holds per-subject history and profiles in memory.
type Server struct {
	secret  []byte
	origins []string
	bounds  leads.Bounds
	logger  *logging.Logger
	limiter *rateLimiter

	mu       sync.Mutex
	history  map[string][]leads.Lead
	profiles map[string]storedProfile
	messages []contact.Message
}

// NewServer creates an empty demo Server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errors.New("demo: jwt secret is required")
	}
	bounds := cfg.Bounds
	if bounds == (leads.Bounds{}) {
		bounds = leads.DefaultBounds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	var limiter *rateLimiter
	if cfg.ContactRate > 0 {
		limiter = newRateLimiter(cfg.ContactRate, max(cfg.ContactBurst, 1))
	}
	return &Server{
		secret:   []byte(cfg.Secret),
		origins:  cfg.AllowedOrigins,
		bounds:   bounds,
		logger:   logger,
		limiter:  limiter,
		history:  map[string][]leads.Lead{},
		profiles: map[string]storedProfile{},
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:       s.origins,
			AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:       []string{"Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:               600,
			OptionsSuccessStatus: http.StatusNoContent,
		}))
	}
	r.Use(requestLogger(s.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(public chi.Router) {
		if s.limiter != nil {
			public.Use(rateLimit(s.limiter))
		}
		public.Post("/api/contact", s.handleContact)
	})

	r.Group(func(auth chi.Router) {
		auth.Use(requireBearer(s.secret))
		auth.Post("/api/search", s.handleSearch)
		auth.Get("/api/history", s.handleHistory)
		auth.Get("/api/profile", s.handleGetProfile)
		auth.Put("/api/profile", s.handlePutProfile)
	})
	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var cfg leads.SearchConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(s.bounds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	found := generate(cfg)
	subject := subjectFromContext(r.Context())
	s.mu.Lock()
	s.history[subject] = append(s.history[subject], found...)
	s.mu.Unlock()

	s.logger.Info("demo search", "subject", subject, "niche", cfg.Niche, "region", cfg.Region, "leads", len(found))
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())
	s.mu.Lock()
	out := append([]leads.Lead{}, s.history[subject]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.profiles[subjectFromContext(r.Context())]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p storedProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.mu.Lock()
	s.profiles[subjectFromContext(r.Context())] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg = msg.Normalized()
	if err := msg.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Mensagem enviada com sucesso!"})
}

// Messages returns the contact messages received so far.
func (s *Server) Messages() []contact.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contact.Message(nil), s.messages...)
}

// Serve runs the server on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo backend listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	s.logger.Info("demo backend stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
