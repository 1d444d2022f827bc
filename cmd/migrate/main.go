package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/config"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML config (or set FINSIGHT_CONFIG)")
	projectID := flag.String("project", "", "GCP project ID (overrides config)")
	datasetID := flag.String("dataset", "", "BigQuery dataset ID (overrides config)")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name recorded in schema_migrations")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	ds := infraBQ.Dataset{ProjectID: cfg.BigQuery.ProjectID, DatasetID: cfg.BigQuery.DatasetID}
	if *projectID != "" {
		ds.ProjectID = *projectID
	}
	if *datasetID != "" {
		ds.DatasetID = *datasetID
	}
	if ds.ProjectID == "" || ds.DatasetID == "" {
		log.Fatal().Msg("Error: BigQuery project and dataset are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project_id", ds.ProjectID).Str("dataset_id", ds.DatasetID).Msg("Connected to BigQuery")

	n, err := infraBQ.MigrateWithClient(ctx, client, ds, *appliedBy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if n == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
		return
	}
	log.Info().Int("applied", n).Msg("Migrations applied")
}
