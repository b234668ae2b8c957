package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luontovahdit/internal/config"
	"luontovahdit/internal/db"
	"luontovahdit/internal/logger"
	"luontovahdit/internal/middleware"
	"luontovahdit/internal/router"
	"luontovahdit/internal/services"
	"luontovahdit/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(cfg.App.Environment)
	if envErr != nil {
		log.Info().Msg("No .env file found, reading configuration from the environment")
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化异步排名服务
	ranking := services.NewRankingService(st)

	ledger := services.NewLedger(st)
	hotspots, err := services.NewHotspotService(st, ledger, ranking, services.HotspotOptions{
		MaxRadiusKm: cfg.Nearby.MaxRadiusKm,
		MaxResults:  cfg.Nearby.MaxResults,
		CacheSize:   cfg.Cache.Size,
		CacheTTL:    cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create hotspot service")
	}
	ranking.SetInvalidator(hotspots)
	ranking.Start(ctx)

	limiter, err := middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rate limiter")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(router.Deps{
		Hotspots:    hotspots,
		Comments:    services.NewCommentService(st, ledger, hotspots, ranking),
		Users:       services.NewUserService(st),
		Sessions:    middleware.CookieSessions{},
		AuthLimiter: limiter,
	}, router.SessionOptions{
		Name:   cfg.Session.Name,
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("store", cfg.DB.Driver).Msg("Luontovahdit server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	ranking.Wait()
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}

	conn, err := db.Open(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	return store.NewPostgres(conn), nil
}
