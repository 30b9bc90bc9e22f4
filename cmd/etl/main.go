package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/clinsight/etl-service/internal/config"
	"github.com/clinsight/etl-service/internal/database"
	"github.com/clinsight/etl-service/internal/etl"
	"github.com/clinsight/etl-service/internal/job"
	"github.com/clinsight/etl-service/pkg/checksum"
)

type runEnv struct {
	filename string
	cfg      *config.Config
	store    *database.PostgresStore
	registry *job.MemoryRegistry
	pipeline *etl.Pipeline
	cleanup  func()
}

func setup(ctx context.Context) (*runEnv, error) {
	if len(os.Args) < 2 {
		return nil, fmt.Errorf("please provide the measurement file name as a command-line argument")
	}
	filename := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	store := database.NewPostgresStore(dbpool)
	if err := store.Setup(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	registry := job.NewMemoryRegistry()

	return &runEnv{
		filename: filename,
		cfg:      cfg,
		store:    store,
		registry: registry,
		pipeline: etl.NewPipeline(etl.NewFileReader(cfg.DataDir), store, registry),
		cleanup:  func() { dbpool.Close() },
	}, nil
}

func execute(ctx context.Context, env *runEnv) error {
	fileChecksum, err := checksum.GetFileChecksum(filepath.Join(env.cfg.DataDir, env.filename))
	if err == nil {
		processed, checkErr := env.store.IsFileAlreadyProcessed(ctx, fileChecksum)
		if checkErr != nil {
			return checkErr
		}
		if processed {
			log.Printf("File %s already processed (checksum %s), nothing to do", env.filename, fileChecksum)
			return nil
		}
	}

	jobID := uuid.New().String()
	if _, err := env.pipeline.Submit(jobID, env.filename, ""); err != nil {
		return err
	}

	runErr := env.pipeline.Run(ctx, jobID)

	j, err := env.registry.Get(jobID)
	if err != nil {
		return err
	}
	log.Printf("Job %s finished: status=%s progress=%d message=%q", j.ID, j.Status, j.Progress, j.Message)

	if runErr != nil {
		return fmt.Errorf("%s", j.Message)
	}

	if fileChecksum != "" {
		if err := env.store.RecordFileChecksum(ctx, env.filename, fileChecksum); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()
	ctx := context.Background()

	env, err := setup(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer env.cleanup()

	if err := execute(ctx, env); err != nil {
		log.Fatalf("Error during ETL run: %v", err)
	}

	log.Printf("Execution time: %s", time.Since(startTime))
}
