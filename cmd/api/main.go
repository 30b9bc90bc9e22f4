package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/clinsight/etl-service/internal/config"
	"github.com/clinsight/etl-service/internal/database"
	"github.com/clinsight/etl-service/internal/etl"
	"github.com/clinsight/etl-service/internal/job"
	"github.com/clinsight/etl-service/internal/server"
)

func newRegistry(cfg *config.Config) (job.Registry, func(), error) {
	if cfg.JobRegistry == config.RegistrySQLite {
		registry, err := job.NewSQLiteRegistry(cfg.JobRegistryDSN)
		if err != nil {
			return nil, nil, err
		}
		return registry, func() { registry.Close() }, nil
	}
	return job.NewMemoryRegistry(), func() {}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	store := database.NewPostgresStore(dbpool)
	if err := store.Setup(ctx); err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}

	registry, closeRegistry, err := newRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to open job registry: %v", err)
	}
	defer closeRegistry()

	pipeline := etl.NewPipeline(etl.NewFileReader(cfg.DataDir), store, registry)
	router := server.SetupRoutes(server.NewETLService(pipeline, registry))

	log.Printf("Server starting on port %s (data dir %s, %s job registry)", cfg.APIPort, cfg.DataDir, cfg.JobRegistry)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
