package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/you/chainguard/internal/config"
	"github.com/you/chainguard/internal/infrastructure/database"
	"github.com/you/chainguard/internal/infrastructure/repositories"
)

// Checks that the directory driver's database and Redis are reachable and
// that the users table migrates.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DSN == "" {
		log.Fatalf("database.dsn is empty")
	}

	fmt.Println("ChainGuard directory check")
	fmt.Println("==========================")
	fmt.Printf("Database: %s (%s)\n", cfg.DBDriver, cfg.DSN)

	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("ok  database connection")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("ok  users table migrated")

	var userCount int64
	if err := db.Model(&repositories.DBUser{}).Count(&userCount).Error; err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	fmt.Printf("ok  %d registered users\n", userCount)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := database.Ping(ctx, rdb); err != nil {
		log.Fatalf("Failed to reach redis at %s: %v", cfg.RedisAddr, err)
	}
	fmt.Printf("ok  redis at %s\n", cfg.RedisAddr)
}
