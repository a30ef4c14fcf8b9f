package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"empress-storefront/internal/auth"
	"empress-storefront/internal/config"
	"empress-storefront/internal/db"
	"empress-storefront/internal/httpserver"
	"empress-storefront/internal/remote"
	couponrepo "empress-storefront/internal/repository/coupon"
	"empress-storefront/internal/repository/slot"
	"empress-storefront/internal/service/cart"
	checkoutsvc "empress-storefront/internal/service/checkout"
	sessionsvc "empress-storefront/internal/service/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var (
		slots  slot.Repository
		store  httpserver.Pinger
		dbpool *pgxpool.Pool
	)
	switch cfg.SlotBackend {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		dbpool = pool
		slots = slot.NewPostgres(pool)
		store = pool
	case "redis":
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer client.Close()
		slots = slot.NewRedis(client, cfg.SlotTTL)
		store = db.RedisPinger{Client: client}
	case "memory":
		slots = slot.NewMemory()
	default:
		logger.Fatalf("unknown SLOT_BACKEND %q", cfg.SlotBackend)
	}

	// The coupon catalogue lives in Postgres; without it coupons are validated remotely only.
	var coupons couponrepo.Repository
	if dbpool == nil && cfg.SlotBackend != "memory" {
		if pool, err := db.Connect(ctx, cfg.DBConnString); err != nil {
			logger.Printf("coupon catalogue disabled: %v", err)
		} else {
			dbpool = pool
		}
	}
	if dbpool != nil {
		defer dbpool.Close()
		coupons = couponrepo.NewPostgres(dbpool)
	}

	client := remote.New(cfg.RemoteAPIURL, &http.Client{Timeout: cfg.RemoteTimeout})
	sessions := sessionsvc.New(slots, func(s slot.Repository) cart.Remote {
		return client.WithTokenSource(remote.StoredToken(s))
	}, logger, sessionsvc.Settings{
		SyncInterval: cfg.SyncInterval,
		IdleTimeout:  cfg.SessionIdleTimeout,
		TickTimeout:  cfg.RemoteTimeout,
	})
	defer sessions.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, cfg.SessionIdleTimeout/4)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, store, httpserver.Deps{
		Sessions:    sessions,
		Checkout:    checkoutsvc.New(client.WithTokenSource(remote.ContextToken()), coupons, logger),
		Verifier:    auth.NewVerifier(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (slots=%s, remote=%s)", cfg.HTTPAddr, cfg.SlotBackend, cfg.RemoteAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
