/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/domain"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when the domain or the credentials are missing.
var ErrNotConfigured = errors.New("jira: domain or credentials not configured")

// FetchError is a non-2xx answer from the Jira REST API.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("jira api status=%d body=%s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL     string
	user        string
	token       string
	pointsField string
	maxResults  int
	http        *http.Client
	log         zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL(cfg.JiraDomain),
		user:        cfg.JiraEmail,
		token:       cfg.JiraAPIToken,
		pointsField: cfg.JiraStoryPointsField,
		maxResults:  cfg.JiraMaxResults,
		http:        &http.Client{Timeout: cfg.HTTPTimeout},
		log:         log,
	}
}

// baseURL accepts a bare host ("acme.atlassian.net") or a full URL.
func baseURL(domain string) string {
	d := strings.TrimRight(strings.TrimSpace(domain), "/")
	if d == "" {
		return ""
	}
	if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
		d = "https://" + d
	}
	return d
}

func (c *Client) apiURL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

// SearchIssues runs a JQL search and returns at most one page of issues.
func (c *Client) SearchIssues(ctx context.Context, sq domain.SearchQuery) (domain.SearchResult, error) {
	if strings.TrimSpace(sq.JQL) == "" {
		return domain.SearchResult{}, errors.New("jira: empty jql")
	}
	limit := sq.MaxResults
	if limit <= 0 {
		limit = c.maxResults
	}
	q := url.Values{}
	q.Set("jql", sq.JQL)
	q.Set("maxResults", strconv.Itoa(limit))
	if len(sq.Fields) > 0 {
		q.Set("fields", strings.Join(sq.Fields, ","))
	}
	if sq.ExpandChangelog {
		q.Set("expand", "changelog")
	}

	var resp searchResponse
	if err := c.getJSON(ctx, c.apiURL("/rest/api/3/search", q), &resp); err != nil {
		return domain.SearchResult{}, err
	}
	out := domain.SearchResult{Total: resp.Total, Issues: make([]domain.Issue, 0, len(resp.Issues))}
	for _, p := range resp.Issues {
		out.Issues = append(out.Issues, p.toDomain(c.pointsField, c.log))
	}
	c.log.Debug().Str("jql", sq.JQL).Int("issues", len(out.Issues)).Int("total", out.Total).Msg("jira search")
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if c.baseURL == "" || c.user == "" || c.token == "" {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &FetchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jira: decode response: %w", err)
	}
	return nil
}
