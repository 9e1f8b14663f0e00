// Package airtable wraps the external spreadsheet-style record store
// behind a small list/filter query client. The store is read-only from
// this system's point of view.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yumetolab/yumeji/internal/apperr"
)

// DefaultBaseURL is the public REST endpoint of the record store.
const DefaultBaseURL = "https://api.airtable.com/v0"

// Config holds connection settings for the record store.
type Config struct {
	BaseURL string
	BaseID  string
	APIKey  string
	Timeout time.Duration
}

// Client issues list queries against one store base. A zero-credential
// client reports !Configured() and never performs I/O; repositories use
// that to go straight to their fallback data.
type Client struct {
	httpc   *http.Client
	baseURL string
	baseID  string
	apiKey  string
}

// NewClient creates a store client. Timeout bounds every page fetch so
// a slow upstream degrades instead of hanging a render.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: base,
		baseID:  cfg.BaseID,
		apiKey:  cfg.APIKey,
	}
}

// Configured reports whether the client has credentials to reach the
// external store.
func (c *Client) Configured() bool {
	return c.baseID != "" && c.apiKey != ""
}

// ListOptions narrows a table listing.
type ListOptions struct {
	// FilterByFormula is a predicate built from the formula helpers.
	FilterByFormula string
	// MaxRecords caps the result; 0 means all pages.
	MaxRecords int
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// List fetches all records of a table matching opts, following the
// opaque continuation token until exhausted. When MaxRecords is set the
// first page is returned as-is (the server already applies the cap).
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("airtable: client not configured")
	}

	q := url.Values{}
	if opts.FilterByFormula != "" {
		q.Set("filterByFormula", opts.FilterByFormula)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}

	var all []Record
	offset := ""
	for {
		if offset != "" {
			q.Set("offset", offset)
		}
		page, err := c.fetchPage(ctx, table, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		offset = page.Offset
		if offset == "" || opts.MaxRecords > 0 {
			break
		}
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, table string, q url.Values) (*listResponse, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable: list %s: %w: %w", table, apperr.ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("airtable: list %s: %w: unexpected status %d", table, apperr.ErrUpstream, res.StatusCode)
	}

	var page listResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("airtable: decode %s response: %w: %w", table, apperr.ErrUpstream, err)
	}
	return &page, nil
}
