package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/HamedShams/dora-pulse/internal/domain"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func dayN(n float64) *time.Time {
	t := base.Add(time.Duration(n * float64(24*time.Hour)))
	return &t
}

func pts(v float64) *float64 { return &v }

func released(typ string, created, resolved *time.Time, tr ...domain.StatusChange) domain.Issue {
	return domain.Issue{Status: StatusReleased, Type: typ, Created: created, Resolved: resolved, Transitions: tr}
}

func toDev(at *time.Time) domain.StatusChange {
	return domain.StatusChange{At: *at, From: "To Do", To: StatusInDev}
}

func TestCompute_EmptyInput(t *testing.T) {
	assert.Equal(t, domain.Metrics{}, Compute(nil))
	assert.Equal(t, domain.Metrics{}, Compute([]domain.Issue{}))
}

func TestCompute_LeadTime(t *testing.T) {
	tests := []struct {
		name   string
		issues []domain.Issue
		want   float64
	}{
		{
			name:   "single released issue, dev start day 2, resolved day 10",
			issues: []domain.Issue{released("Story", dayN(0), dayN(10), toDev(dayN(2)))},
			want:   8,
		},
		{
			name:   "partial days round up",
			issues: []domain.Issue{released("Story", dayN(0), dayN(3.2), toDev(dayN(1)))},
			want:   3,
		},
		{
			name: "first matching transition wins",
			issues: []domain.Issue{released("Story", dayN(0), dayN(10),
				domain.StatusChange{At: *dayN(1), To: "In Review"},
				toDev(dayN(4)),
				toDev(dayN(8)),
			)},
			want: 6,
		},
		{
			name:   "resolution before dev start uses absolute difference",
			issues: []domain.Issue{released("Story", dayN(0), dayN(2), toDev(dayN(5)))},
			want:   3,
		},
		{
			name: "issues without dev transition are excluded from the mean",
			issues: []domain.Issue{
				released("Story", dayN(0), dayN(10), toDev(dayN(2))),
				released("Story", dayN(0), dayN(10)),
				released("Story", dayN(0), dayN(5), toDev(dayN(4))),
			},
			want: 4.5,
		},
		{
			name:   "mean rounds to one decimal",
			issues: []domain.Issue{released("Story", nil, dayN(1), toDev(dayN(0))), released("Story", nil, dayN(1), toDev(dayN(0))), released("Story", nil, dayN(2), toDev(dayN(0)))},
			want:   1.3,
		},
		{
			name: "unreleased issues never count",
			issues: []domain.Issue{
				{Status: "Done", Resolved: dayN(10), Transitions: []domain.StatusChange{toDev(dayN(1))}},
				{Status: StatusReleased, Transitions: []domain.StatusChange{toDev(dayN(1))}},
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.issues).LeadTime)
		})
	}
}

func TestCompute_DeploymentFrequency(t *testing.T) {
	for n, want := range map[int]float64{0: 0, 1: 0.3, 2: 0.5, 3: 0.8, 4: 1, 10: 2.5} {
		issues := make([]domain.Issue, 0, n+1)
		for i := 0; i < n; i++ {
			issues = append(issues, released("Task", dayN(0), dayN(1)))
		}
		issues = append(issues, domain.Issue{Status: StatusReleased})
		assert.Equal(t, want, Compute(issues).DeploymentFrequency, "released=%d", n)
	}
}

func TestCompute_ChangeFailureAndRecovery(t *testing.T) {
	issues := []domain.Issue{
		released(TypeBug, dayN(0), dayN(0)),
		released("Task", dayN(0), dayN(1)),
	}
	m := Compute(issues)
	assert.Equal(t, 50.0, m.ChangeFailureRate)
	assert.Equal(t, 0.0, m.RecoveryTime)
}

func TestCompute_RecoveryTime(t *testing.T) {
	issues := []domain.Issue{
		released(TypeBug, dayN(0), dayN(1.5)),
		released(TypeBug, dayN(0), dayN(1)),
		released(TypeBug, nil, dayN(1)),
		{Type: TypeBug, Status: "In Development", Created: dayN(0), Resolved: dayN(9)},
	}
	m := Compute(issues)
	// (48 + 24) / 2
	assert.Equal(t, 36.0, m.RecoveryTime)
	assert.Equal(t, 100.0, m.ChangeFailureRate)
}

func TestCompute_ChangeFailureRateRounding(t *testing.T) {
	issues := []domain.Issue{
		released(TypeBug, dayN(0), dayN(1)),
		released("Task", dayN(0), dayN(1)),
		released("Story", dayN(0), dayN(1)),
	}
	assert.Equal(t, 33.3, Compute(issues).ChangeFailureRate)
}

func TestCompute_NoReleasedIssues(t *testing.T) {
	issues := []domain.Issue{
		{Type: TypeBug, Status: "Open", StoryPoints: pts(3)},
		{Type: "Task", Status: StatusReleased},
	}
	m := Compute(issues)
	assert.Equal(t, 0.0, m.ChangeFailureRate)
	assert.Equal(t, 0.0, m.LeadTime)
	assert.Equal(t, 0.0, m.RecoveryTime)
	assert.Equal(t, 0.0, m.DeploymentFrequency)
	assert.Equal(t, 3.0, m.Velocity)
}

func TestCompute_VelocityCountsAllIssues(t *testing.T) {
	issues := []domain.Issue{
		{Status: "Open", StoryPoints: pts(5)},
		{Status: "In Development"},
		released("Story", dayN(0), dayN(1)),
		{Status: StatusReleased, StoryPoints: pts(2.5)},
	}
	issues[2].StoryPoints = pts(3)
	assert.Equal(t, 10.5, Compute(issues).Velocity)
}

func TestCompute_Idempotent(t *testing.T) {
	issues := []domain.Issue{
		released(TypeBug, dayN(0), dayN(3), toDev(dayN(1))),
		released("Story", dayN(1), dayN(7), toDev(dayN(2))),
		{Status: "Open", StoryPoints: pts(8)},
	}
	first := Compute(issues)
	assert.Equal(t, first, Compute(issues))
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.05, 0.1},
		{0.25, 0.3},
		{0.35, 0.4},
		{0.75, 0.8},
		{1.25, 1.3},
		{1.33, 1.3},
		{100.0 / 3, 33.3},
		{200.0 / 3, 66.7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round1(tt.in), "round1(%v)", tt.in)
	}
}
