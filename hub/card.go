package hub

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/cardgap"
	"gopkg.in/yaml.v3"
)

// MaxCardBytes caps the size of a card read from the hub.
const MaxCardBytes = 4 << 20

// CardURL returns the raw README URL of a model's card.
func (c *Client) CardURL(modelID string) string {
	parts := strings.Split(modelID, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(parts, "/") + "/raw/main/README.md"
}

// FetchCard retrieves a model's README card.
// Returns ENOTFOUND if the model has no card.
func (c *Client) FetchCard(ctx context.Context, modelID string) (*cardgap.Card, error) {
	if modelID == "" {
		return nil, cardgap.Errorf(cardgap.EINVALID, "model ID required")
	}

	resp, err := c.get(ctx, c.CardURL(modelID), "")
	if err != nil {
		if cardgap.ErrorCode(err) == cardgap.ENOTFOUND {
			return nil, cardgap.Errorf(cardgap.ENOTFOUND, "model %q has no card", modelID)
		}
		return nil, fmt.Errorf("fetch card %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxCardBytes))
	if err != nil {
		return nil, fmt.Errorf("read card %s: %w", modelID, err)
	}

	card := ParseCard(modelID, string(body))
	card.FetchedAt = time.Now().UTC()
	return card, nil
}

// ParseCard splits the YAML front matter from a card body. Front matter that
// fails to parse leaves Metadata empty and keeps the card usable.
func ParseCard(modelID, content string) *cardgap.Card {
	card := &cardgap.Card{
		ModelID:     modelID,
		Content:     content,
		Text:        content,
		ContentHash: HashContent(content),
	}

	front, text, ok := splitFrontMatter(content)
	if !ok {
		return card
	}
	card.Text = text

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(front), &meta); err == nil && len(meta) > 0 {
		card.Metadata = meta
	}
	return card
}

// HashContent returns the hex xxhash of card content.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// splitFrontMatter returns the YAML between a leading "---" line and the
// next "---" line, and the text after it.
func splitFrontMatter(content string) (front, text string, ok bool) {
	s := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(s, "---\n") && !strings.HasPrefix(s, "---\r\n") {
		return "", content, false
	}

	rest := s[strings.Index(s, "\n")+1:]
	if strings.HasPrefix(rest, "---") {
		return "", strings.TrimLeft(rest[3:], "\r\n"), true
	}

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content, false
	}

	front = rest[:end]
	text = rest[end+len("\n---"):]
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	} else {
		text = ""
	}
	return front, text, true
}
