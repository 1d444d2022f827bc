package notionsync

import (
	"math"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the insights database.
const (
	PropTitle       = "Title"
	PropInsightID   = "Insight ID"
	PropUserID      = "User ID"
	PropType        = "Type"
	PropImpact      = "Impact"
	PropDescription = "Description"
	PropCreated     = "Created"
	PropExpires     = "Expires"
	PropIsRead      = "Is Read"
)

// InsightToNotionProperties converts an insight to page properties.
func InsightToNotionProperties(insight domain.Insight) notionapi.Properties {
	created := notionapi.Date(insight.CreatedAt)

	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{textValue(insight.Title)},
		},
		PropInsightID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{textValue(insight.ID)},
		},
		PropUserID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{textValue(insight.UserID)},
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(insight.Type)},
		},
		PropImpact: notionapi.NumberProperty{
			Number: math.Round(insight.Impact*100) / 100,
		},
		PropCreated: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		},
		PropIsRead: notionapi.CheckboxProperty{
			Checkbox: insight.IsRead,
		},
	}

	if insight.Description != "" {
		props[PropDescription] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{textValue(truncate(insight.Description, maxRichTextLength))},
		}
	}

	if insight.ExpiresAt != nil {
		expires := notionapi.Date(*insight.ExpiresAt)
		props[PropExpires] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &expires},
		}
	}

	return props
}

// Notion rejects rich text content longer than this.
const maxRichTextLength = 2000

func textValue(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// extractInsightID returns the Insight ID property of a page, or "".
func extractInsightID(page notionapi.Page) string {
	switch prop := page.Properties[PropInsightID].(type) {
	case *notionapi.RichTextProperty:
		return plainText(prop.RichText)
	case notionapi.RichTextProperty:
		return plainText(prop.RichText)
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}
