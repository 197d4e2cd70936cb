// Package gemini drafts missing model card sections with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/cardgap"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for drafting.
const DefaultModel = "gemini-2.5-flash"

// DefaultCardTokens is the token budget for the card excerpt in a prompt.
const DefaultCardTokens = 16000

// Ensure Drafter implements cardgap.Drafter at compile time.
var _ cardgap.Drafter = (*Drafter)(nil)

// Counter counts the tokens of a text.
type Counter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Drafter implements cardgap.Drafter using Google Gemini.
type Drafter struct {
	client    *genai.Client
	model     string
	counter   Counter
	maxTokens int
}

// Option configures a Drafter.
type Option func(*Drafter)

// WithModel sets the Gemini model.
func WithModel(model string) Option {
	return func(d *Drafter) {
		d.model = model
	}
}

// WithTokenBudget truncates card text to at most limit tokens as counted by counter.
func WithTokenBudget(counter Counter, limit int) Option {
	return func(d *Drafter) {
		d.counter = counter
		d.maxTokens = limit
	}
}

// NewDrafter creates a new Drafter.
func NewDrafter(client *genai.Client, opts ...Option) *Drafter {
	d := &Drafter{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draft writes markdown for the sections the card is missing.
func (d *Drafter) Draft(ctx context.Context, card *cardgap.Card, missing []cardgap.MissingHeader) (string, error) {
	if card == nil || card.ModelID == "" {
		return "", cardgap.Errorf(cardgap.EINVALID, "card required")
	}
	if len(missing) == 0 {
		return "", cardgap.Errorf(cardgap.EINVALID, "no missing sections to draft")
	}

	body := card.Text
	if body == "" {
		body = card.Content
	}
	if d.counter != nil && d.maxTokens > 0 {
		trimmed, err := TrimToBudget(ctx, d.counter, body, d.maxTokens)
		if err != nil {
			return "", fmt.Errorf("count card tokens: %w", err)
		}
		body = trimmed
	}

	result, err := d.client.Models.GenerateContent(ctx, d.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildPrompt(card.ModelID, body, missing)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", cardgap.Errorf(cardgap.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a technical writer completing Hugging Face model cards. Write only the requested sections as markdown, each starting with a level-two header. Use only facts stated in the card; where the card lacks information, leave a short placeholder telling the author what to add.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildPrompt builds the user prompt containing the card and the sections to draft.
func BuildPrompt(modelID, body string, missing []cardgap.MissingHeader) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<model>%s</model>\n", modelID)
	fmt.Fprintf(&sb, "<card>\n%s\n</card>\n\n", body)
	sb.WriteString("<missing_sections>\n")
	for _, m := range missing {
		fmt.Fprintf(&sb, "<section prevalence=\"%.1f%%\">%s</section>\n", m.Prevalence, cardgap.Capitalize(m.Header))
	}
	sb.WriteString("</missing_sections>\n\n")
	sb.WriteString("Draft each missing section for this model card.")
	return sb.String()
}
