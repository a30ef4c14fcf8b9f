package main

import (
	"context"
	"flag"
	"log"
	"os"

	"empress-storefront/internal/config"
	"empress-storefront/internal/db"
	"empress-storefront/internal/migrate"
	"github.com/joho/godotenv"
)

func main() {
	var down int
	flag.IntVar(&down, "down", 0, "Number of migration steps to roll back instead of migrating up")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if down > 0 {
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatalf("read version: %v", err)
	}
	logger.Printf("schema at version %d (dirty=%t)", version, dirty)
}
