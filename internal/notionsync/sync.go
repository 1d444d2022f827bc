// Package notionsync mirrors stored insights into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/jomei/notionapi"
)

const pageSize = 100

// SyncResult counts the page operations of one sync.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// SyncInsights makes the Notion database hold exactly the user's stored insights.
//
// Pages are matched by their Insight ID property. Existing pages are updated
// so read state follows the store, missing ones are created, and pages whose
// insight no longer exists are archived. Failures on single pages are logged
// and counted, the sync carries on.
func SyncInsights(ctx context.Context, store InsightLister, notionClient NotionService, notionDBID, userID string, dryRun bool) (SyncResult, error) {
	var result SyncResult
	log := logger.FromContext(ctx).With().Str("user_id", userID).Bool("dry_run", dryRun).Logger()

	list, err := store.ListInsights(ctx, userID, insights.Filter{})
	if err != nil {
		return result, fmt.Errorf("failed to list insights: %w", err)
	}
	log.Info().Int("insight_count", len(list)).Msg("Retrieved insights")

	pages, err := queryUserPages(ctx, notionClient, notionDBID, userID)
	if err != nil {
		return result, fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	current := make(map[string]bool, len(list))
	for _, in := range list {
		current[in.ID] = true
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		id := extractInsightID(page)
		if id != "" && current[id] {
			if _, dup := existing[id]; !dup {
				existing[id] = string(page.ID)
				continue
			}
		}

		if dryRun {
			log.Info().Str("insight_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			result.Deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("insight_id", id).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			result.Failed++
			continue
		}
		result.Deleted++
	}

	for _, in := range list {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageID, found := existing[in.ID]
		if dryRun {
			if found {
				result.Updated++
			} else {
				result.Created++
			}
			continue
		}

		props := InsightToNotionProperties(in)
		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("insight_id", in.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				result.Failed++
				continue
			}
			result.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().Err(err).Str("insight_id", in.ID).Msg("Failed to create Notion page")
			result.Failed++
			continue
		}
		log.Debug().Str("insight_id", in.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		result.Created++
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("Insight sync completed")

	return result, nil
}

// queryUserPages pages through every database entry belonging to userID.
func queryUserPages(ctx context.Context, notionClient NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter: notionapi.PropertyFilter{
				Property: PropUserID,
				RichText: &notionapi.TextFilterCondition{Equals: userID},
			},
			PageSize: pageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryUserPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}
