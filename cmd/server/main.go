package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/config"
	"github.com/eventra/campaign-engine/internal/directory"
	"github.com/eventra/campaign-engine/internal/email"
	"github.com/eventra/campaign-engine/internal/pkg/distlock"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
	"github.com/eventra/campaign-engine/internal/provider"
	"github.com/eventra/campaign-engine/internal/scheduler"
	"github.com/eventra/campaign-engine/internal/social"
	"github.com/eventra/campaign-engine/internal/stats"
	"github.com/eventra/campaign-engine/internal/tracker"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis connection failed, falling back to pg advisory locks",
				"addr", cfg.Redis.Addr, "error", err.Error())
			redisClient.Close()
			redisClient = nil
		}
		cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	campaignStore := campaign.NewStore(db)
	directoryStore := directory.NewStore(db)
	emailStore := email.NewStore(db)
	socialStore := social.NewStore(db)
	trackerStore := tracker.NewStore(db)
	statsStore := stats.NewStore(db)

	// Tracking and providers
	links := tracker.NewLinks(cfg.Tracking.BaseURL, cfg.Tracking.SigningKey)
	tracking := provider.NewTracking(links)

	registry := provider.NewRegistry()
	if cfg.Relay.Enabled {
		registry.RegisterEmail(provider.NewRelayProvider(cfg.Relay, tracking))
	}
	if cfg.SES.Enabled {
		sesProvider, err := provider.NewSESProvider(ctx, cfg.SES, tracking)
		if err != nil {
			log.Fatalf("Failed to initialize SES provider: %v", err)
		}
		registry.RegisterEmail(sesProvider)
	}
	registry.RegisterSocial(provider.NewGatewayProvider(cfg.Social))
	logger.Info("registered providers", "email", fmt.Sprint(registry.EmailNames()))

	// Engines
	clock := campaign.SystemClock{}
	campaignManager := campaign.NewManager(campaignStore, clock)
	emailEngine := email.NewEngine(emailStore, campaignStore, directoryStore, registry, trackerStore,
		clock, cfg.Email.BatchSize, cfg.Email.BatchDelay())
	socialEngine := social.NewEngine(socialStore, campaignStore, registry, "gateway", clock)
	aggregator := stats.NewAggregator(statsStore, emailStore, directoryStore, campaignStore, clock)
	trackService := tracker.NewService(trackerStore)

	// Scheduler
	lock := distlock.NewLock(redisClient, db, "campaign-engine:scheduler", cfg.Scheduler.LockTTL())
	var recomputer scheduler.StatsRecomputer
	if cfg.Scheduler.RecomputeStats {
		recomputer = aggregator
	}
	sched := scheduler.New(emailStore, emailEngine, socialStore, socialEngine, recomputer,
		clock, cfg.Scheduler.Interval(), lock)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// HTTP surface
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Operator-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public tracking endpoints, reached from recipient inboxes.
	tracker.NewHandler(links, trackService).Routes(r)

	r.Route("/api/v1", func(api chi.Router) {
		campaign.NewHandlers(campaignManager).Routes(api)
		email.NewHandlers(emailEngine).Routes(api)
		social.NewHandlers(socialEngine).Routes(api)
		stats.NewHandlers(statsStore, aggregator, campaignStore).Routes(api)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}
}
