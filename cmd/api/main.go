package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/reviewhub/internal/auth"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/db"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	httpx "github.com/geocoder89/reviewhub/internal/http"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/queue/redisclient"
	"github.com/geocoder89/reviewhub/internal/queue/worker"
	"github.com/geocoder89/reviewhub/internal/repo/memory"
	"github.com/geocoder89/reviewhub/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "reviewhub-api", cfg.Env, cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Pinger{}

	var stores httpx.Stores

	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.New()
		if err := seedMemoryAdmin(ctx, store, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
		stores = memoryStores(store)

		// without postgres there is no separate worker process, so codes are
		// delivered to the log from here
		w := worker.New(worker.Config{
			PollInterval: time.Duration(cfg.WorkerPollMillis) * time.Millisecond,
			WorkerID:     "api-inprocess",
			Concurrency:  1,
			LockTTL:      time.Duration(cfg.WorkerLockTTLSecond) * time.Second,
		}, store.Jobs(), notifications.NewLogNotifier(log), log, prom)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("in-process worker stopped", "err", err)
			}
		}()

		log.Warn("running with in-memory storage; data is lost on restart")

	default:
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(30 * time.Second)
		err = db.Migrate(mctx, pool)
		if err == nil {
			err = db.EnsureAdminUser(mctx, pool, cfg)
		}
		cancel()
		if err != nil {
			log.Error("db bootstrap failed", "err", err)
			os.Exit(1)
		}

		jobsRepo := postgres.NewJobsRepo(pool, prom)
		stores = httpx.Stores{
			Users:      postgres.NewUsersRepo(pool, jobsRepo, prom),
			Categories: postgres.NewCategoriesRepo(pool, prom),
			Genres:     postgres.NewGenresRepo(pool, prom),
			Titles:     postgres.NewTitlesRepo(pool, prom),
			Reviews:    postgres.NewReviewsRepo(pool, prom),
			Comments:   postgres.NewCommentsRepo(pool, prom),
		}
		checks["postgres"] = pool.Ping
	}

	deps := httpx.Deps{
		Config:   cfg,
		Log:      log,
		Prom:     prom,
		Gatherer: reg,
		Stores:   stores,
		Checks:   checks,
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	deps.Tokens = jwtManager
	deps.Issuer = jwtManager

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rc.Close() }()

		deps.Redis = rc.Raw()
		checks["redis"] = rc.Ping
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpx.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("shutdown complete")
}

func memoryStores(store *memory.Store) httpx.Stores {
	return httpx.Stores{
		Users:      store.Users(),
		Categories: store.Categories(),
		Genres:     store.Genres(),
		Titles:     store.Titles(),
		Reviews:    store.Reviews(),
		Comments:   store.Comments(),
	}
}

// seedMemoryAdmin mirrors db.EnsureAdminUser for the in-memory store.
func seedMemoryAdmin(ctx context.Context, store *memory.Store, cfg config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	username := cfg.AdminUsername
	if username == "" {
		username = cfg.AdminEmail
	}

	_, err := store.Users().Create(ctx, user.User{
		Username:    username,
		Email:       cfg.AdminEmail,
		Role:        user.RoleAdmin,
		IsStaff:     true,
		IsSuperuser: true,
	})
	return err
}
