package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/export"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/infra/memory"
	"github.com/dvloznov/finance-insights/internal/logger"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML config (or set FINSIGHT_CONFIG)")
	seedPath := flag.String("seed", "", "YAML dataset to load into BigQuery, local path or gs:// URI (required)")
	dryRun := flag.Bool("dry-run", false, "Parse the dataset and report counts without writing")
	flag.Parse()

	if *seedPath == "" {
		log.Fatal().Msg("Error: --seed is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := readDataset(ctx, *seedPath)
	if err != nil {
		log.Fatal().Err(err).Str("seed", *seedPath).Msg("Failed to read dataset")
	}
	users, err := memory.ParseSeed(data, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse dataset")
	}

	if *dryRun {
		for _, u := range users {
			log.Info().Str("user_id", u.UserID).Int("records", u.Count()).Msg("[DRY RUN] Would import records")
		}
		return
	}

	repo, err := infraBQ.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	total := 0
	for _, u := range users {
		if err := repo.ImportRecords(ctx, u); err != nil {
			log.Fatal().Err(err).Str("user_id", u.UserID).Msg("Import failed")
		}
		log.Info().Str("user_id", u.UserID).Int("records", u.Count()).Msg("Imported records")
		total += u.Count()
	}

	fmt.Printf("Imported %d records for %d users.\n", total, len(users))
}

// readDataset reads a local file or a gs:// object.
func readDataset(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, "gs://") {
		return os.ReadFile(filepath.Clean(path))
	}

	bucket, object, err := export.ParseURI(path)
	if err != nil {
		return nil, err
	}
	store, err := export.NewGCSStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ReadObject(ctx, bucket, object)
}
