/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultMatrixProjects is the health matrix used when nothing else is configured.
var DefaultMatrixProjects = []string{"DAI", "DGDPO", "DMM", "DE", "VEH", "CAT"}

var projectKeyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidProjectKey reports whether key can be placed into JQL unquoted.
func ValidProjectKey(key string) bool { return projectKeyRe.MatchString(key) }

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	TZ       string `envconfig:"APP_TZ" default:"UTC"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":3001"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	JiraEmail            string `envconfig:"JIRA_EMAIL"`
	JiraAPIToken         string `envconfig:"JIRA_API_TOKEN"`
	JiraDomain           string `envconfig:"JIRA_DOMAIN"`
	JiraStoryPointsField string `envconfig:"JIRA_STORY_POINTS_FIELD" default:"customfield_10024"`
	JiraMaxResults       int    `envconfig:"JIRA_MAX_RESULTS" default:"100"`

	DefaultProject   string   `envconfig:"DEFAULT_PROJECT" default:"DAI"`
	MatrixProjects   []string `envconfig:"MATRIX_PROJECTS" default:"DAI,DGDPO,DMM,DE,VEH,CAT"`
	MatrixWindowDays int      `envconfig:"MATRIX_WINDOW_DAYS" default:"30"`
	ProjectsFile     string   `envconfig:"PROJECTS_FILE"`

	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"15s"`

	TelegramToken         string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatIDs       []int64 `envconfig:"TELEGRAM_CHAT_IDS"`
	TelegramWebhookSecret string  `envconfig:"TELEGRAM_WEBHOOK_SECRET"`
	// webhook is registered on startup only for an https base
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`

	// empty disables the /admin routes
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	// empty disables the scheduled digest
	DigestCron string `envconfig:"DIGEST_CRON"`
}

// Load reads the configuration from the environment. Jira credentials are
// optional here: the health endpoint has to work without them.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.MatrixProjects = parseStrings(cfg.MatrixProjects)
	if len(cfg.MatrixProjects) == 0 {
		cfg.MatrixProjects = append([]string(nil), DefaultMatrixProjects...)
	}
	cfg.DefaultProject = strings.TrimSpace(cfg.DefaultProject)
	if cfg.JiraMaxResults <= 0 {
		cfg.JiraMaxResults = 100
	}
	if cfg.MatrixWindowDays <= 0 {
		cfg.MatrixWindowDays = 30
	}
	if !ValidProjectKey(cfg.DefaultProject) {
		return Config{}, fmt.Errorf("config: DEFAULT_PROJECT %q is not a project key", cfg.DefaultProject)
	}
	if err := cfg.Catalog().validate(); err != nil {
		return Config{}, fmt.Errorf("config: MATRIX_PROJECTS: %w", err)
	}
	if _, err := time.LoadLocation(cfg.TZ); err != nil {
		return Config{}, fmt.Errorf("config: cannot load APP_TZ %q: %w", cfg.TZ, err)
	}
	return cfg, nil
}

// JiraConfigured reports whether both identity credentials are present.
func (c Config) JiraConfigured() bool {
	return c.JiraEmail != "" && c.JiraAPIToken != ""
}

func parseStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
