package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Beegash/BBWallet/internal/config"
	"github.com/Beegash/BBWallet/internal/logger"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/migrations"
	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := repository.Open(context.Background(), cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *down > 0 {
		if err := migrations.Down(db, *down); err != nil {
			log.Fatal("Rollback failed", zap.Error(err))
		}
	} else if err := migrations.Up(db); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	version, dirty, err := migrations.Version(db)
	if err != nil {
		log.Fatal("Failed to read schema version", zap.Error(err))
	}
	log.Info("Schema is current", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
