package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"empress-storefront/internal/config"
	"empress-storefront/internal/db"
	"empress-storefront/internal/importer"
	"empress-storefront/internal/repository/coupon"
	"empress-storefront/internal/repository/slot"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	var (
		couponsPath string
		storagePath string
		sessionID   string
	)
	flag.StringVar(&couponsPath, "coupons", "", "Path to a coupon CSV (code,type,discount,minOrder)")
	flag.StringVar(&storagePath, "storage", "", "Path to a browser localStorage JSON export")
	flag.StringVar(&sessionID, "session", "", "Session id to import the localStorage export into (new session when empty)")
	flag.Parse()

	if (couponsPath == "") == (storagePath == "") {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()
	start := time.Now()

	if couponsPath != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()

		f, err := os.Open(couponsPath)
		if err != nil {
			logger.Fatalf("open file: %v", err)
		}
		defer f.Close()

		count, err := importer.NewCouponImporter(f, coupon.NewPostgres(pool)).Run(ctx)
		if err != nil {
			logger.Fatalf("import failed: %v", err)
		}
		fmt.Printf("Imported %d coupons in %s\n", count, time.Since(start).Truncate(time.Millisecond))
		return
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if parsed, err := uuid.Parse(sessionID); err != nil {
		logger.Fatalf("invalid session id %q: %v", sessionID, err)
	} else {
		sessionID = parsed.String()
	}

	var slots slot.Repository
	switch cfg.SlotBackend {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		slots = slot.NewPostgres(pool)
	case "redis":
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer client.Close()
		slots = slot.NewRedis(client, cfg.SlotTTL)
	default:
		logger.Fatalf("SLOT_BACKEND %q cannot be imported into", cfg.SlotBackend)
	}

	f, err := os.Open(storagePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	keys, err := importer.NewStorageImporter(slot.Scoped(slots, sessionID)).Run(ctx, f)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}
	fmt.Printf("Imported %d slots %v into session %s in %s\n", len(keys), keys, sessionID, time.Since(start).Truncate(time.Millisecond))
}
