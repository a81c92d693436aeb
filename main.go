package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"planos_scrooper/browser"
	"planos_scrooper/config"
	"planos_scrooper/logging"
	"planos_scrooper/scheduler"
	"planos_scrooper/scraper"
	"planos_scrooper/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath, cfg.LogMaxBytes)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting planos_scrooper...")
	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s): %s", site.Name, id, site.ListingURL)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	opts := browser.Options{
		Headless:          cfg.Browser.Headless,
		UserDataDir:       cfg.Browser.UserDataDir,
		InstallDriver:     cfg.Browser.InstallDriver,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
	}
	orchestrator := scraper.NewOrchestrator(cfg, sqliteStore, func() (browser.Session, error) {
		return browser.NewSession(opts)
	})

	if cfg.Postgres.DBURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Postgres.DBURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		orchestrator.SetPostgres(pgStore)
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Postgres.DBURL))
	}

	if cfg.S3.Enabled() {
		exporter, err := storage.NewS3Exporter(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("Failed to configure S3 export: %v", err)
		}
		orchestrator.SetExporter(exporter)
		log.Printf("Exporting CSV files to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	}

	if !cfg.Scheduler.Enabled() {
		log.Println("Running scrape...")
		if err := orchestrator.RunAll(ctx); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	sched := scheduler.New(cfg.Scheduler, orchestrator)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Println("Scheduler running. Press Ctrl+C to stop.")

	<-ctx.Done()

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	// Find : after user
	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
