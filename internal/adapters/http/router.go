package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kirillkom/mood-builder/internal/config"
	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
	"github.com/kirillkom/mood-builder/internal/observability/metrics"
)

const serviceName = "api"

type documentService interface {
	ports.DocumentIngestor
	ports.DocumentReader
}

// Services groups the inbound ports the router exposes. Files and Metrics are optional.
type Services struct {
	Documents documentService
	Waiter    ports.DocumentWaiter
	Journal   ports.JournalService
	Insights  ports.InsightsService
	Auth      Authenticator
	Files     http.Handler
	Metrics   *metrics.HTTPServerMetrics
}

type Router struct {
	cfg       config.Config
	services  Services
	principal domain.Principal
	// location interprets date and month query parameters.
	location *time.Location
}

func NewRouter(cfg config.Config, services Services) *Router {
	principal := domain.Principal{UserID: cfg.DemoUserID, Email: cfg.DemoUserEmail, FullName: cfg.DemoUserName}
	if principal.UserID == "" {
		principal = domain.DemoPrincipal()
	}
	location, err := time.LoadLocation(cfg.InsightsTimezone)
	if err != nil {
		slog.Warn("invalid insights timezone, using UTC", "timezone", cfg.InsightsTimezone, "error", err)
		location = time.UTC
	}
	return &Router{cfg: cfg, services: services, principal: principal, location: location}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(accessLogMiddleware)
	r.Use(chimw.Recoverer)
	if m := rt.services.Metrics; m != nil {
		r.Use(func(next http.Handler) http.Handler { return m.Middleware(serviceName, next) })
	}
	if len(rt.cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: rt.cfg.CORSAllowCredentials,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", rt.healthz)
	if m := rt.services.Metrics; m != nil {
		r.Handle("/metrics", m.Handler())
	}
	if rt.services.Files != nil {
		r.Handle("/files/*", http.StripPrefix("/files", rt.services.Files))
	}
	if rt.services.Auth != nil {
		r.Post("/v1/auth/login", rt.login)
	}

	r.Group(func(r chi.Router) {
		r.Use(rt.trafficControl)
		r.Use(principalMiddleware(rt.services.Auth, rt.principal))

		r.Route("/v1/documents", func(r chi.Router) {
			r.Post("/", rt.uploadDocument)
			r.Get("/", rt.listDocuments)
			r.Get("/{id}", rt.getDocument)
			r.Get("/{id}/wait", rt.waitDocument)
			r.Post("/{id}/confirm", rt.confirmDocument)
		})
		r.Post("/v1/analysis", rt.previewAnalysis)
		r.Route("/v1/entries", func(r chi.Router) {
			r.Post("/", rt.createEntry)
			r.Get("/", rt.listEntries)
			r.Get("/export", rt.exportEntries)
			r.Get("/{id}", rt.getEntry)
		})
		r.Route("/v1/insights", func(r chi.Router) {
			r.Get("/trends", rt.moodTrends)
			r.Get("/calendar", rt.calendar)
			r.Get("/summary", rt.summary)
		})
	})

	return r
}

func (rt *Router) trafficControl(next http.Handler) http.Handler {
	var onRateLimit, onBusy func()
	if m := rt.services.Metrics; m != nil {
		onRateLimit = func() { m.RecordRejected(serviceName, "rate_limit") }
		onBusy = func() { m.RecordRejected(serviceName, "backpressure") }
	}
	wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
	handler := backpressureWithHook(next, rt.cfg.APIBackpressureMax, wait, onBusy)
	return rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onRateLimit)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, expiresAt, err := rt.services.Auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt.UTC(),
	})
}

// principal returns the identity attached by principalMiddleware.
func principal(r *http.Request) domain.Principal {
	p, _ := principalFromContext(r.Context())
	return p
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
