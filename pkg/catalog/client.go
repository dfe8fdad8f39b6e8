// Package catalog queries an external collectibles price-guide service and
// matches its entries against free-form item names.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
)

// Entry is one price-guide row returned by the catalog service.
type Entry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	PointValue *float64 `json:"point_value"`
	Verified   bool     `json:"verified"`
}

// Record is the best-matching entry for a lookup, annotated with the edit
// distance between the query and the entry name.
type Record struct {
	Entry    Entry
	Distance int
}

type entriesResponse struct {
	Entries []Entry `json:"entries"`
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithMaxDistance overrides the default name-match distance threshold.
func WithMaxDistance(d int) Option {
	return func(c *Client) {
		if d >= 0 {
			c.maxDistance = d
		}
	}
}

// Client talks to the catalog service.
type Client struct {
	http        *resty.Client
	maxDistance int
}

// NewClient creates a catalog client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(10 * time.Second),
		maxDistance: 5,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lookup searches the category's price guide for itemName and returns the
// closest entry within the distance threshold, or nil when nothing matches.
func (c *Client) Lookup(ctx context.Context, category, itemName string) (*Record, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, nil
	}

	var result entriesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": itemName}).
		SetResult(&result).
		Get("/v1/categories/" + category + "/entries")
	if err != nil {
		return nil, eris.Wrap(err, "catalog: search entries")
	}
	if resp.IsError() {
		return nil, eris.Errorf("catalog: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}

	return c.bestMatch(itemName, result.Entries), nil
}

// bestMatch returns the entry with the smallest case-insensitive edit
// distance to the query, ties going to the earlier entry. Entries beyond the
// distance threshold never match.
func (c *Client) bestMatch(query string, entries []Entry) *Record {
	query = strings.ToLower(query)

	var best *Record
	for _, e := range entries {
		d := levenshtein.ComputeDistance(query, strings.ToLower(e.Name))
		if d > c.maxDistance {
			continue
		}
		if best == nil || d < best.Distance {
			best = &Record{Entry: e, Distance: d}
		}
	}
	return best
}
