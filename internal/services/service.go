/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/domain"
	"github.com/HamedShams/dora-pulse/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type JiraClient interface {
	SearchIssues(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
}

type LLM interface {
	Summarize(ctx context.Context, matrix map[string]domain.Metrics) (string, error)
}

type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Health struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	JiraConnected bool   `json:"jiraConnected"`
	Domain        string `json:"domain"`
}

type ProjectQuery struct {
	Project   string
	StartDate string
	EndDate   string
}

type ProjectReport struct {
	Project     string         `json:"project"`
	TotalIssues int            `json:"totalIssues"`
	Metrics     domain.Metrics `json:"metrics"`
}

type Service struct {
	cfg  config.Config
	log  zerolog.Logger
	jira JiraClient
	llm  LLM
	tg   Notifier

	mu      sync.RWMutex
	catalog config.Catalog

	// one digest at a time, whoever triggers it
	digestRunning atomic.Bool
}

// New wires the service. llm and tg may be nil; the digest then skips the
// summary or the delivery respectively.
func New(cfg config.Config, log zerolog.Logger, jira JiraClient, llm LLM, tg Notifier) *Service {
	return &Service{cfg: cfg, log: log, jira: jira, llm: llm, tg: tg, catalog: cfg.Catalog()}
}

// SetCatalog swaps the health-matrix catalog. Empty fields fall back to the
// defaults of config.Config.Catalog.
func (s *Service) SetCatalog(cat config.Catalog) {
	def := config.Config{}.Catalog()
	if len(cat.Projects) == 0 {
		cat.Projects = def.Projects
	}
	if cat.WindowDays <= 0 {
		cat.WindowDays = def.WindowDays
	}
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
}

func (s *Service) Catalog() config.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return config.Catalog{Projects: append([]string(nil), s.catalog.Projects...), WindowDays: s.catalog.WindowDays}
}

func (s *Service) Health() Health {
	jiraDomain := s.cfg.JiraDomain
	if strings.TrimSpace(jiraDomain) == "" {
		jiraDomain = "Not configured"
	}
	return Health{
		Status:        "ok",
		Message:       "DORA metrics API is running",
		JiraConnected: s.cfg.JiraConfigured(),
		Domain:        jiraDomain,
	}
}

// HealthMatrix fetches every catalog project concurrently. The first failure
// cancels the rest and no partial matrix is returned.
func (s *Service) HealthMatrix(ctx context.Context) (map[string]domain.Metrics, error) {
	cat := s.Catalog()
	// config validates catalogs on load; this only guards SetCatalog callers
	for _, p := range cat.Projects {
		if !config.ValidProjectKey(p) {
			return nil, fmt.Errorf("catalog: invalid project key %q", p)
		}
	}
	results := make([]domain.Metrics, len(cat.Projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, project := range cat.Projects {
		i, project := i, project
		g.Go(func() error {
			res, err := s.jira.SearchIssues(gctx, domain.SearchQuery{
				JQL:             recentJQL(project, cat.WindowDays),
				Fields:          matrixFields(s.cfg.JiraStoryPointsField),
				MaxResults:      s.cfg.JiraMaxResults,
				ExpandChangelog: true,
			})
			if err != nil {
				return fmt.Errorf("project %s: %w", project, err)
			}
			results[i] = metrics.Compute(res.Issues)
			s.log.Debug().Str("project", project).Int("issues", len(res.Issues)).Msg("health matrix: project computed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Metrics, len(results))
	for i, project := range cat.Projects {
		out[project] = results[i]
	}
	return out, nil
}

func (s *Service) ProjectMetrics(ctx context.Context, q ProjectQuery) (ProjectReport, error) {
	q.Project = strings.TrimSpace(q.Project)
	if q.Project == "" {
		q.Project = s.cfg.DefaultProject
	}
	if err := validateProject(q.Project); err != nil {
		return ProjectReport{}, err
	}
	if q.StartDate != "" {
		if err := validateDate("startDate", q.StartDate); err != nil {
			return ProjectReport{}, err
		}
	}
	if q.EndDate != "" {
		if err := validateDate("endDate", q.EndDate); err != nil {
			return ProjectReport{}, err
		}
	}
	res, err := s.jira.SearchIssues(ctx, domain.SearchQuery{
		JQL:             rangeJQL(q.Project, q.StartDate, q.EndDate),
		Fields:          doraFields(s.cfg.JiraStoryPointsField),
		MaxResults:      s.cfg.JiraMaxResults,
		ExpandChangelog: true,
	})
	if err != nil {
		return ProjectReport{}, fmt.Errorf("project %s: %w", q.Project, err)
	}
	return ProjectReport{Project: q.Project, TotalIssues: res.Total, Metrics: metrics.Compute(res.Issues)}, nil
}
