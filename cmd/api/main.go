package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "intern-match/docs" // Swagger docs
	"intern-match/internal/api"
	"intern-match/internal/chat"
	"intern-match/internal/config"
	"intern-match/internal/jobs"
	"intern-match/internal/llm"
	"intern-match/internal/logger"
	"intern-match/internal/match"
	"intern-match/internal/scheduler"
	"intern-match/internal/scrape"
	"intern-match/internal/storage"
)

// @title Intern Match API
// @version 1.0
// @description Aggregates internship postings by city and matches resumes against them

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatal("build logger:", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info("connecting to database")
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db open", zap.Error(err))
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		zlog.Fatal("ensure schema", zap.Error(err))
	}
	zlog.Info("database connected")

	// Redis is optional; without it concurrent refreshes are unguarded.
	var guard *jobs.RefreshGuard
	if cfg.RedisURL != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zlog.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		guard = jobs.NewRefreshGuard(rdb)
	} else {
		guard = jobs.NewRefreshGuard(nil)
		zlog.Warn("REDIS_URL not set: refresh lock disabled")
	}

	llmSvc, err := llm.NewService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, zlog)
	if err != nil {
		zlog.Fatal("init gemini", zap.Error(err))
	}
	if cfg.GeminiAPIKey == "" {
		zlog.Warn("GEMINI_API not set: completion endpoints will fail")
	}
	if cfg.TavilyAPIKey == "" {
		zlog.Warn("TAVILY_API_KEY not set: extraction endpoints will fail")
	}

	scraper := scrape.NewClient(cfg.TavilyAPIKey, zlog)

	harvester := jobs.NewHarvester(zlog,
		jobs.NewPerURLStrategy(cfg.SourceURL, scraper, llmSvc, zlog),
		jobs.NewBulkStrategy(cfg.SourceURL, scraper, llmSvc),
	)
	refresher := jobs.NewRefresher(harvester, db, guard, zlog)
	matcher := match.NewMatcher(db, llmSvc, zlog)
	chatSvc := chat.NewService(llmSvc)

	if cfg.RefreshSchedule != "" {
		sched := scheduler.New(refresher, cfg.RefreshSchedule, zlog)
		if err := sched.Start(ctx); err != nil {
			zlog.Fatal("start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	apiSrv := api.NewAPI(api.Deps{
		Chat:         chatSvc,
		LLM:          llmSvc,
		Scraper:      scraper,
		Refresher:    refresher,
		Matcher:      matcher,
		RefreshToken: cfg.RefreshToken,
		StaticDir:    cfg.StaticDir,
		Logger:       zlog,
	})
	router := api.NewRouter(apiSrv)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // refresh harvests issue many chained upstream calls
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Error("server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	zlog.Info("API server listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("listen", zap.Error(err))
	}

	<-idleConnsClosed
}
