package jira

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/domain"
)

const searchBody = `{
  "total": 42,
  "issues": [
    {
      "key": "DAI-1",
      "fields": {
        "status": {"name": "Released"},
        "issuetype": {"name": "Bug"},
        "created": "2025-03-01T09:00:00.000+0000",
        "resolutiondate": "2025-03-04T10:30:00.000+0000",
        "customfield_10024": 5
      },
      "changelog": {"histories": [
        {"created": "2025-03-01T10:00:00.000+0000", "items": [{"field": "assignee", "toString": "Bob"}]},
        {"created": "2025-03-02T10:00:00.000+0000", "items": [{"field": "status", "fromString": "To Do", "toString": "In Development"}]},
        {"created": "garbage", "items": [{"field": "status", "toString": "Review"}]},
        {"created": "2025-03-04T10:30:00.000+0000", "items": [{"field": "status", "fromString": "In Development", "toString": "Released"}]}
      ]}
    },
    {
      "key": "DAI-2",
      "fields": {
        "status": null,
        "issuetype": {"name": "Task"},
        "created": "not a date",
        "resolutiondate": null,
        "customfield_10024": "3.5"
      }
    },
    {
      "key": "DAI-3",
      "fields": {"customfield_10024": {"value": 8}}
    }
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Config{
		JiraDomain:           srv.URL,
		JiraEmail:            "dev@example.com",
		JiraAPIToken:         "secret",
		JiraStoryPointsField: "customfield_10024",
		JiraMaxResults:       100,
		HTTPTimeout:          5 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestSearchIssues_RequestShapeAndDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "project = DAI", q.Get("jql"))
		assert.Equal(t, "100", q.Get("maxResults"))
		assert.Equal(t, "status,created", q.Get("fields"))
		assert.Equal(t, "changelog", q.Get("expand"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@example.com", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})

	res, err := c.SearchIssues(context.Background(), domain.SearchQuery{
		JQL: "project = DAI", Fields: []string{"status", "created"}, ExpandChangelog: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res.Total)
	require.Len(t, res.Issues, 3)

	first := res.Issues[0]
	assert.Equal(t, "DAI-1", first.Key)
	assert.Equal(t, "Released", first.Status)
	assert.Equal(t, "Bug", first.Type)
	require.NotNil(t, first.Created)
	require.NotNil(t, first.Resolved)
	assert.Equal(t, time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC), *first.Resolved)
	require.NotNil(t, first.StoryPoints)
	assert.Equal(t, 5.0, *first.StoryPoints)
	require.Len(t, first.Transitions, 2)
	assert.Equal(t, "In Development", first.Transitions[0].To)
	assert.Equal(t, "Released", first.Transitions[1].To)

	second := res.Issues[1]
	assert.Empty(t, second.Status)
	assert.Nil(t, second.Created)
	assert.Nil(t, second.Resolved)
	require.NotNil(t, second.StoryPoints)
	assert.Equal(t, 3.5, *second.StoryPoints)

	assert.Nil(t, res.Issues[2].StoryPoints)
}

func TestSearchIssues_FetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorMessages":["bad creds"]}` + "\n"))
	})
	_, err := c.SearchIssues(context.Background(), domain.SearchQuery{JQL: "project = DAI"})
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Equal(t, `{"errorMessages":["bad creds"]}`, fe.Body)
	assert.Contains(t, err.Error(), "status=401")
}

func TestSearchIssues_NotConfigured(t *testing.T) {
	c := NewClient(config.Config{JiraDomain: "acme.atlassian.net"}, zerolog.Nop())
	_, err := c.SearchIssues(context.Background(), domain.SearchQuery{JQL: "project = DAI"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearchIssues_EmptyJQL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.SearchIssues(context.Background(), domain.SearchQuery{})
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "", baseURL("  "))
	assert.Equal(t, "https://acme.atlassian.net", baseURL("acme.atlassian.net/"))
	assert.Equal(t, "http://127.0.0.1:9000", baseURL("http://127.0.0.1:9000"))
}
