package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/cache"
	"github.com/kailas-cloud/rci/internal/config"
	"github.com/kailas-cloud/rci/internal/domain"
	logpkg "github.com/kailas-cloud/rci/internal/logger"
	"github.com/kailas-cloud/rci/internal/metrics"
	"github.com/kailas-cloud/rci/internal/parser"
	chiTransport "github.com/kailas-cloud/rci/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/rci/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/rci/internal/usecase/embedding"
	"github.com/kailas-cloud/rci/internal/usecase/rci"
	"github.com/kailas-cloud/rci/internal/vectorstore"
	"github.com/kailas-cloud/rci/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "rci",
		Short: "Retrieval-Augmented Component Index",
	}
	root.AddCommand(newServeCmd(), newSyncCmd(), newSearchCmd(), newStatusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newSyncCmd() *cobra.Command {
	var force bool
	var packages []string
	c := &cobra.Command{
		Use:   "sync [sourcePath]",
		Short: "Parse a component tree and index it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args[0], force, packages)
		},
	}
	c.Flags().BoolVar(&force, "force-reindex", false, "clear the store before syncing")
	c.Flags().StringSliceVar(&packages, "packages", nil, "limit sync to these package names")
	return c
}

func newSearchCmd() *cobra.Command {
	var topK int
	var threshold float64
	c := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the component index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0], topK, threshold)
		},
	}
	c.Flags().IntVar(&topK, "top-k", 5, "number of components to return")
	c.Flags().Float64Var(&threshold, "threshold", 0.5, "minimum similarity score")
	return c
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

// buildService wires the composition root shared by every subcommand:
// config load -> logger -> embedder decorator chain -> store -> cache -> service.
func buildService(ctx context.Context) (*rci.Service, config.Config, *zap.Logger, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("starting rci",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	metrics.RegisterEmbeddingMetrics()

	embedder := buildEmbedder(cfg.Embedding, logger)

	store := vectorstore.New(cfg.VectorStore.Path, logger)
	if err := store.Initialize(ctx); err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("initialize vector store: %w", err)
	}

	var smartCache rci.Cache
	if cfg.Cache.Enabled {
		smartCache = cache.New(
			cfg.Cache.MaxSize,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			cfg.Cache.SimilarityThreshold,
			logger,
		)
	}

	p := parser.New(parser.WithLogger(logger))

	svc := rci.New(
		p, embedder, store, smartCache,
		cfg.Cache.Enabled, cfg.VectorStore.Type, cfg.Embedding.Model, cfg.Embedding.Dimension,
		logger,
	)
	return svc, cfg, logger, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Truncator -> Retrier -> Budgeted.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimension,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	embedder = embeddinguc.NewTruncator(embedder, domain.DescribeModel(cfg.Model).MaxTokens)
	embedder = embeddinguc.NewRetrier(embedder, logger)

	var budget *embeddinguc.BudgetTracker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger)
	}
	embedder = embeddinguc.NewBudgetedEmbedder(embedder, cfg.Provider, cfg.Model, budget, logger)

	return embedder
}

func runServe(ctx context.Context) error {
	svc, cfg, logger, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server := chiTransport.NewServer(svc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/rag/search", server.Search)
	r.Post("/rag/sync", server.Sync)
	r.Get("/rag/status", server.Status)
	r.Post("/rag/cache/clear", server.ClearCache)
	r.Get("/metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
	return nil
}

func runSync(ctx context.Context, sourcePath string, force bool, packages []string) error {
	svc, _, logger, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	resp, err := svc.Sync(ctx, domain.SyncRequest{SourcePath: sourcePath, ForceReindex: force, Packages: packages})
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(resp)
}

func runSearch(ctx context.Context, query string, topK int, threshold float64) error {
	svc, _, logger, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	resp, err := svc.Search(ctx, domain.SearchRequest{Query: query, TopK: topK, Threshold: threshold})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(resp)
}

func runStatus(ctx context.Context) error {
	svc, _, logger, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	status, err := svc.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(status)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"error":   "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
