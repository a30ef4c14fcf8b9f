package main

import (
	"context"
	"log"
	"os"

	"empress-storefront/internal/config"
	"empress-storefront/internal/db"
	"empress-storefront/internal/repository/coupon"
	"empress-storefront/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, coupon.NewPostgres(pool)); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seeded %d coupons", len(seed.DemoCoupons))
}
