package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/medalchat/internal/api"
	"github.com/nikhilbhutani/medalchat/internal/api/handlers"
	"github.com/nikhilbhutani/medalchat/internal/api/middleware"
	"github.com/nikhilbhutani/medalchat/internal/audit"
	"github.com/nikhilbhutani/medalchat/internal/auth"
	"github.com/nikhilbhutani/medalchat/internal/cache"
	"github.com/nikhilbhutani/medalchat/internal/config"
	"github.com/nikhilbhutani/medalchat/internal/database"
	"github.com/nikhilbhutani/medalchat/internal/filters"
	"github.com/nikhilbhutani/medalchat/internal/guardrails"
	"github.com/nikhilbhutani/medalchat/internal/identity"
	"github.com/nikhilbhutani/medalchat/internal/llm"
	"github.com/nikhilbhutani/medalchat/internal/memory"
	"github.com/nikhilbhutani/medalchat/internal/nl2sql"
	"github.com/nikhilbhutani/medalchat/internal/observability"
	"github.com/nikhilbhutani/medalchat/internal/pipeline"
	"github.com/nikhilbhutani/medalchat/internal/prompt"
	"github.com/nikhilbhutani/medalchat/internal/queue"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log.Level, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, database.Migrations()); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	appDB := database.SQLFromPool(pool)
	defer appDB.Close()

	queryDB := appDB
	if cfg.Database.QueryURL != "" {
		queryDB, err = database.OpenQueryDB(ctx, cfg.Database.QueryURL, cfg.Database.MaxConns)
		if err != nil {
			slog.Error("query database unavailable", "error", err)
			os.Exit(1)
		}
		defer queryDB.Close()
	} else {
		slog.Info("QUERY_DATABASE_URL not set, generated SQL runs on the application pool", "role", cfg.Pipeline.QueryRole)
	}

	// Redis backs the prompt cache and the rate limiter; both degrade when it is down.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	redisCache := cache.NewCache(rdb, "medalchat:")
	var counter middleware.Counter = redisCache
	if err := redisCache.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, prompt cache falls through and rate limits are kept in process", "error", err)
		local := middleware.NewLocalCounter()
		go local.Cleanup(ctx, cfg.RateLimit.Window)
		counter = local
	}

	facts, err := prompt.LoadFacts(cfg.Pipeline.DatasetVersion)
	if err != nil {
		slog.Error("dataset facts", "version", cfg.Pipeline.DatasetVersion, "error", err)
		os.Exit(1)
	}

	gw := llm.NewGateway(cfg.LLM)
	var completer *llm.Completer
	if llm.Configured(gw) {
		completer = llm.NewCompleter(gw, cfg.LLM.DefaultProvider, cfg.LLM.DefaultModel)
	} else {
		slog.Warn("no LLM provider configured, questions run the default medal query and get the answer failure message")
	}

	promptStore := prompt.NewStore(appDB)
	promptCache := prompt.NewCachedStore(promptStore, redisCache, cfg.Pipeline.PromptCacheTTL)
	termStore := filters.NewStore(appDB)
	conversations := memory.NewPostgresStore(appDB)
	auditSvc := audit.NewService(appDB)
	users := identity.NewStore(appDB)
	var execOpts []sqlexec.Option
	if cfg.Pipeline.QueryRole != "" {
		execOpts = append(execOpts, sqlexec.WithRole(cfg.Pipeline.QueryRole))
	} else {
		slog.Warn("SQL_QUERY_ROLE is empty, generated SQL runs with the connection's own privileges")
	}
	executor := sqlexec.NewExecutor(queryDB, cfg.Pipeline.QueryTimeout, execOpts...)
	guard := guardrails.DefaultEngine()

	var auditSink pipeline.AuditSink = auditSvc
	if cfg.Queue.AuditAsync {
		queueClient := queue.NewClient(cfg.Redis)
		defer queueClient.Close()
		auditSink = queueClient
	}

	generator := nl2sql.NewGenerator(completer)
	fallback := pipeline.NewFallback(generator, executor, nl2sql.NewHeuristic(facts), pipeline.DefaultRetryPolicy())
	svc := pipeline.NewService(pipeline.ServiceDeps{
		Guard:          guard,
		Prompts:        promptCache,
		Terms:          termStore,
		Fallback:       fallback,
		Answers:        pipeline.NewAnswerWriter(completer),
		Facts:          facts,
		Audit:          auditSink,
		DefaultContext: cfg.Pipeline.DefaultContext,
	})

	router := api.NewRouter(api.Deps{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HistoryLimit:   cfg.Pipeline.HistoryLimit,
		Checks: map[string]handlers.Check{
			"database":       pool.Ping,
			"query_database": queryDB.PingContext,
			"redis":          redisCache.Ping,
		},
		Authenticate:  auth.NewJWTMiddleware(cfg.Auth.JWTSecret, users).Authenticate,
		Limiter:       middleware.NewRateLimiter(counter, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Pipeline:      svc,
		Conversations: conversations,
		Terms:         termStore,
		Prompts:       promptStore,
		PromptCache:   promptCache,
		Executor:      executor,
		Audit:         auditSvc,
		Users:         users,
		Accounts:      auth.NewService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Guard:         guard,
		Gateway:       gw,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
