package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(log)
	case "list":
		runList(log)
	case "show":
		runShow(log)
	case "prune":
		runPrune(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate  Generate and store insights for a user")
	fmt.Println("  list      List stored insights for a user")
	fmt.Println("  show      Show one insight with its related data")
	fmt.Println("  prune     Delete expired insights")
	fmt.Println("  export    Archive a user's insights to Cloud Storage")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) *string {
	return fs.String("config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML config (or set FINSIGHT_CONFIG)")
}

func setup(log zerolog.Logger, configPath string, timeout time.Duration) (context.Context, context.CancelFunc, *app.App) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = logger.WithContext(ctx, log)

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return ctx, cancel, application
}

func runGenerate(log zerolog.Logger) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := commonFlags(fs)
	userID := fs.String("user", "", "User ID (UUID)")
	asJSON := fs.Bool("json", false, "Print insights as JSON")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel, application := setup(log, *configPath, 5*time.Minute)
	defer cancel()
	defer application.Close()

	list, err := application.Service.GenerateInsights(ctx, *userID)
	if err != nil && list == nil {
		log.Fatal().Err(err).Msg("Insight generation failed")
	}
	if err != nil {
		log.Error().Err(err).Msg("Insights generated but not stored")
	}

	if *asJSON {
		printJSON(log, list)
		return
	}
	printTable(list)
	fmt.Printf("\nGenerated %d insights.\n", len(list))
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := commonFlags(fs)
	userID := fs.String("user", "", "User ID (UUID)")
	insightType := fs.String("type", "", "Only insights of this type")
	unread := fs.Bool("unread", false, "Only unread insights")
	limit := fs.Int("limit", 0, "Maximum number of insights (0 = all)")
	asJSON := fs.Bool("json", false, "Print insights as JSON")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel, application := setup(log, *configPath, time.Minute)
	defer cancel()
	defer application.Close()

	list, err := application.Service.ListInsights(ctx, *userID, insights.Filter{
		Type:       domain.InsightType(*insightType),
		UnreadOnly: *unread,
		Limit:      *limit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list insights")
	}

	if *asJSON {
		printJSON(log, list)
		return
	}
	printTable(list)
}

func runShow(log zerolog.Logger) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := commonFlags(fs)
	userID := fs.String("user", "", "User ID (UUID)")
	insightID := fs.String("insight", "", "Insight ID")
	markRead := fs.Bool("mark-read", false, "Mark the insight as read after showing it")
	fs.Parse(os.Args[2:])

	if *userID == "" || *insightID == "" {
		log.Fatal().Msg("Usage: cli show -user ID -insight ID")
	}

	ctx, cancel, application := setup(log, *configPath, time.Minute)
	defer cancel()
	defer application.Close()

	insight, err := application.Service.GetInsight(ctx, *userID, *insightID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get insight")
	}

	fmt.Println("\n=== Insight ===")
	fmt.Printf("ID:          %s\n", insight.ID)
	fmt.Printf("Type:        %s\n", insight.Type)
	fmt.Printf("Title:       %s\n", insight.Title)
	fmt.Printf("Impact:      %.1f\n", insight.Impact)
	fmt.Printf("Created:     %s\n", insight.CreatedAt.Format(time.RFC3339))
	if insight.ExpiresAt != nil {
		fmt.Printf("Expires:     %s\n", insight.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("Read:        %t\n", insight.IsRead)
	fmt.Printf("Description: %s\n", insight.Description)
	if insight.Data != nil {
		fmt.Println("\nRelated data:")
		printJSON(log, insight.Data)
	}

	if *markRead {
		if err := application.Service.MarkInsightRead(ctx, *userID, *insightID); err != nil {
			log.Fatal().Err(err).Msg("Failed to mark insight read")
		}
		fmt.Println("Marked as read.")
	}
}

func runPrune(log zerolog.Logger) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := commonFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel, application := setup(log, *configPath, 5*time.Minute)
	defer cancel()
	defer application.Close()

	n, err := application.Service.PruneExpired(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Prune failed")
	}
	fmt.Printf("Deleted %d expired insights.\n", n)
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := commonFlags(fs)
	userID := fs.String("user", "", "User ID (UUID)")
	unread := fs.Bool("unread", false, "Only export unread insights")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel, application := setup(log, *configPath, 5*time.Minute)
	defer cancel()
	defer application.Close()

	archiver, err := application.NewArchiver(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create archiver")
	}

	list, err := application.Service.ListInsights(ctx, *userID, insights.Filter{UnreadOnly: *unread})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list insights")
	}

	uri, err := archiver.Archive(ctx, *userID, list)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Exported %d insights to %s\n", len(list), uri)
}

func printTable(list []domain.Insight) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tIMPACT\tREAD\tTITLE")
	for _, in := range list {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%t\t%s\n", in.ID, in.Type, in.Impact, in.IsRead, in.Title)
	}
	w.Flush()
}

func printJSON(log zerolog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
