package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/notionsync"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML config (or set FINSIGHT_CONFIG)")
	userID := flag.String("user", "", "User ID whose insights are synced (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides config / NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides config / NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: Notion token is required (--notion-token or NOTION_TOKEN)")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: Notion database ID is required (--notion-db-id or NOTION_DATABASE_ID)")
	}

	// Keep the CLI from hanging on a slow Notion API.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	log.Info().Str("user_id", *userID).Bool("dry_run", *dryRun).Msg("Starting Notion sync")

	result, err := notionsync.SyncInsights(ctx, application.Service, notionsync.NewNotionClient(cfg.Notion.Token),
		cfg.Notion.DatabaseID, *userID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		result.Created, result.Updated, result.Deleted, result.Failed)
}
