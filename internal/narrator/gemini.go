// Package narrator turns insights into short plain-language advice with Gemini.
package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// contentGenerator is the part of *genai.Models the narrator calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements insights.Narrator.
type Gemini struct {
	models contentGenerator
	model  string
	log    zerolog.Logger
}

var _ insights.Narrator = (*Gemini)(nil)

// NewGemini creates a GenAI client using ambient credentials
// (GOOGLE_API_KEY, or Vertex AI settings from the environment).
func NewGemini(ctx context.Context, model string, log zerolog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	return newGemini(client.Models, model, log), nil
}

func newGemini(models contentGenerator, model string, log zerolog.Logger) *Gemini {
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{models: models, model: model, log: log}
}

// Narrate implements insights.Narrator.
func (g *Gemini) Narrate(ctx context.Context, insight domain.Insight) (string, error) {
	prompt, err := buildPrompt(insight)
	if err != nil {
		return "", fmt.Errorf("Narrate: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Narrate: generate content: %w", err)
	}

	text := cleanNarrative(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Narrate: empty response from model")
	}

	g.log.Debug().
		Str("insight_id", insight.ID).
		Str("model", g.model).
		Int("chars", len(text)).
		Msg("Narrated insight")
	return text, nil
}

func buildPrompt(insight domain.Insight) (string, error) {
	var b strings.Builder
	b.WriteString("You are a friendly personal finance coach.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Explain the insight below to the user in two or three sentences.\n")
	b.WriteString("- Suggest one concrete next step.\n")
	b.WriteString("- Use only the figures given. Do not invent numbers.\n")
	b.WriteString("- Reply in plain text without Markdown, headings or lists.\n\n")

	fmt.Fprintf(&b, "Insight type: %s\n", insight.Type)
	fmt.Fprintf(&b, "Title: %s\n", insight.Title)
	fmt.Fprintf(&b, "Description: %s\n", insight.Description)
	fmt.Fprintf(&b, "Impact (0-100): %.0f\n", insight.Impact)

	if insight.Data != nil {
		raw, err := json.Marshal(insight.Data)
		if err != nil {
			return "", fmt.Errorf("buildPrompt: encoding related data: %w", err)
		}
		fmt.Fprintf(&b, "Details (JSON): %s\n", raw)
	}
	return b.String(), nil
}

// cleanNarrative strips code fences and collapses whitespace the model adds
// despite instructions.
func cleanNarrative(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.Join(strings.Fields(s), " ")
}
