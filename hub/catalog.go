package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/fwojciec/cardgap"
)

// modelJSON is the subset of the hub's /api/models item we read.
type modelJSON struct {
	ID           string   `json:"id"`
	ModelID      string   `json:"modelId"`
	Downloads    int      `json:"downloads"`
	Likes        int      `json:"likes"`
	Tags         []string `json:"tags"`
	PipelineTag  string   `json:"pipeline_tag"`
	LastModified string   `json:"lastModified"`
}

func (m *modelJSON) toModelInfo() *cardgap.ModelInfo {
	id := m.ID
	if id == "" {
		id = m.ModelID
	}
	info := &cardgap.ModelInfo{
		ID:          id,
		Downloads:   m.Downloads,
		Likes:       m.Likes,
		Tags:        m.Tags,
		PipelineTag: m.PipelineTag,
	}
	if t, err := time.Parse(time.RFC3339, m.LastModified); err == nil {
		info.LastModified = t
	}
	return info
}

// nextLinkRe extracts the URL of the rel="next" entry of a Link header.
var nextLinkRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// ModelsURL builds the catalog URL for the first page of a query.
func (c *Client) ModelsURL(q cardgap.CatalogQuery) string {
	pageSize := c.pageSize
	if q.Limit > 0 && q.Limit < pageSize {
		pageSize = q.Limit
	}

	v := url.Values{}
	v.Set("filter", q.Tag)
	v.Set("sort", "downloads")
	v.Set("direction", "-1")
	v.Set("full", "true")
	v.Set("cardData", "true")
	v.Set("limit", strconv.Itoa(pageSize))
	return c.baseURL + "/api/models?" + v.Encode()
}

// ListModels calls fn for each model carrying the tag, most downloaded
// first, following the hub's Link pagination until the limit is reached.
func (c *Client) ListModels(ctx context.Context, q cardgap.CatalogQuery, fn func(*cardgap.ModelInfo) error) error {
	if err := q.Validate(); err != nil {
		return err
	}

	next := c.ModelsURL(q)
	seen := 0
	for next != "" {
		page, link, err := c.fetchPage(ctx, next)
		if err != nil {
			return err
		}

		for i := range page {
			if err := fn(page[i].toModelInfo()); err != nil {
				return err
			}
			seen++
			if q.Limit > 0 && seen >= q.Limit {
				return nil
			}
		}

		if len(page) == 0 {
			return nil
		}
		next = link
	}

	return nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]modelJSON, string, error) {
	resp, err := c.get(ctx, pageURL, "application/json")
	if err != nil {
		return nil, "", fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	var page []modelJSON
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decode models page: %w", err)
	}

	return page, nextLink(resp.Header), nil
}

func nextLink(h http.Header) string {
	for _, v := range h.Values("Link") {
		if m := nextLinkRe.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}
