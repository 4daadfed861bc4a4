package domain

import "time"

// Issue is the validated view of a Jira issue the metrics are computed from.
// Optional upstream fields stay nil when absent or malformed.
type Issue struct {
	Key         string
	Status      string
	Type        string
	Created     *time.Time
	Updated     *time.Time
	Resolved    *time.Time
	StoryPoints *float64
	// status transitions in changelog order
	Transitions []StatusChange
}

type StatusChange struct {
	At   time.Time
	From string
	To   string
}

// Metrics is the per-project delivery snapshot returned to clients.
type Metrics struct {
	LeadTime            float64 `json:"leadTime"`
	DeploymentFrequency float64 `json:"deploymentFrequency"`
	ChangeFailureRate   float64 `json:"changeFailureRate"`
	RecoveryTime        float64 `json:"recoveryTime"`
	Velocity            float64 `json:"velocity"`
}

type SearchQuery struct {
	JQL             string
	Fields          []string
	MaxResults      int
	ExpandChangelog bool
}

type SearchResult struct {
	Issues []Issue
	// as reported upstream; may exceed len(Issues) when capped
	Total int
}
