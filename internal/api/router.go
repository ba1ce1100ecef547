package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/medalchat/internal/api/handlers"
	"github.com/nikhilbhutani/medalchat/internal/api/middleware"
	"github.com/nikhilbhutani/medalchat/internal/auth"
	"github.com/nikhilbhutani/medalchat/internal/guardrails"
	"github.com/nikhilbhutani/medalchat/internal/llm"
	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/observability"
)

// ConversationBackend stores conversations and their messages.
type ConversationBackend interface {
	handlers.ChatStore
	handlers.ConversationStore
	handlers.MessageSource
}

type Deps struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	HistoryLimit   int
	Checks         map[string]handlers.Check
	Authenticate   func(http.Handler) http.Handler
	Limiter        *middleware.RateLimiter // optional

	Pipeline      handlers.Asker
	Conversations ConversationBackend
	Terms         handlers.TermStore
	Prompts       handlers.PromptAdmin
	PromptCache   handlers.PromptInvalidator
	Executor      handlers.Executor
	Audit         handlers.AuditReader
	Users         handlers.UserReader
	Accounts      handlers.AuthService
	Guard         *guardrails.Engine
	Gateway       llm.Gateway
}

type Router struct {
	mux  *chi.Mux
	deps Deps
}

func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Guard == nil {
		d.Guard = guardrails.DefaultEngine()
	}
	return &Router{mux: chi.NewRouter(), deps: d}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	d := rt.deps

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(observability.TraceMiddleware)
	r.Use(observability.MetricsMiddleware)
	r.Use(observability.LoggingMiddleware(d.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health and metrics (no auth)
	health := handlers.NewHealthHandler(d.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes are limited per address, the rest per user.
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			rt.limit(r)
			authH := handlers.NewAuthHandler(d.Accounts)
			r.Post("/auth/register", authH.Register)
			r.Post("/auth/login", authH.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Authenticate)
			rt.limit(r)
			rt.mountAuthenticated(r)
		})
	})

	return r
}

func (rt *Router) limit(r chi.Router) {
	if rt.deps.Limiter != nil {
		r.Use(rt.deps.Limiter.Limit)
	}
}

func (rt *Router) mountAuthenticated(r chi.Router) {
	d := rt.deps

	userH := handlers.NewUserHandler(d.Users)
	r.Get("/auth/me", userH.Me)

	chatH := handlers.NewChatHandler(d.Pipeline, d.Conversations, d.HistoryLimit)
	r.Post("/chat", chatH.Ask)

	convH := handlers.NewConversationHandler(d.Conversations)
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", convH.Create)
		r.Get("/", convH.List)
		r.Get("/stats/summary", convH.Stats)
		r.Get("/{id}", convH.Get)
		r.Patch("/{id}", convH.Rename)
		r.Delete("/{id}", convH.Delete)
	})

	filterH := handlers.NewFilterHandler(d.Terms)
	r.Route("/filters/excluded-terms", func(r chi.Router) {
		r.Get("/", filterH.List)
		r.Post("/", filterH.Add)
		r.Delete("/{id}", filterH.Delete)
	})

	dataH := handlers.NewDataHandler(d.Conversations, d.Executor)
	r.Get("/data/details/{mensaje_id}", dataH.Details)

	guardH := handlers.NewGuardrailHandler(d.Guard)
	r.Post("/guardrails/check", guardH.Check)

	// Admin routes
	promptH := handlers.NewPromptHandler(d.Prompts, d.PromptCache)
	adminH := handlers.NewAdminHandler(d.Audit, d.Gateway)
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Get("/prompts", promptH.List)
		r.Post("/prompts", promptH.Create)
		r.Put("/prompts/{id}", promptH.Update)
		r.Get("/audit", adminH.AuditLogs)
		r.Get("/audit/summary", adminH.AuditSummary)
		r.Get("/models", adminH.Models)
	})
}
