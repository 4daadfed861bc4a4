/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package metrics derives delivery indicators from a batch of Jira issues.
package metrics

import (
	"math"
	"time"

	"github.com/HamedShams/dora-pulse/internal/domain"
)

const (
	StatusReleased = "Released"
	StatusInDev    = "In Development"
	TypeBug        = "Bug"

	// Deployment frequency assumes a fixed window regardless of the query range.
	assumedWindowWeeks = 4

	day = 24 * time.Hour
)

// Compute is pure: identical input always yields identical output.
func Compute(issues []domain.Issue) domain.Metrics {
	var (
		released     int
		releasedBugs int
		leadSum      float64
		leadN        int
		recoverySum  float64
		recoveryN    int
		velocity     float64
	)
	for _, is := range issues {
		if is.StoryPoints != nil {
			velocity += *is.StoryPoints
		}
		if !IsReleased(is) {
			continue
		}
		released++
		if start, ok := devStart(is); ok {
			leadSum += ceilDays(is.Resolved.Sub(start))
			leadN++
		}
		if is.Type != TypeBug {
			continue
		}
		releasedBugs++
		if is.Created != nil {
			recoverySum += ceilDays(is.Resolved.Sub(*is.Created)) * 24
			recoveryN++
		}
	}

	m := domain.Metrics{
		DeploymentFrequency: round1(float64(released) / assumedWindowWeeks),
		Velocity:            velocity,
	}
	if leadN > 0 {
		m.LeadTime = round1(leadSum / float64(leadN))
	}
	if released > 0 {
		m.ChangeFailureRate = round1(float64(releasedBugs) / float64(released) * 100)
	}
	if recoveryN > 0 {
		m.RecoveryTime = round1(recoverySum / float64(recoveryN))
	}
	return m
}

// IsReleased reports whether the issue reached the release status and
// carries a resolution timestamp.
func IsReleased(is domain.Issue) bool {
	return is.Status == StatusReleased && is.Resolved != nil
}

func devStart(is domain.Issue) (time.Time, bool) {
	for _, tr := range is.Transitions {
		if tr.To == StatusInDev {
			return tr.At, true
		}
	}
	return time.Time{}, false
}

// ceilDays rounds |d| up to whole days. The absolute value hides
// resolution-before-start anomalies.
func ceilDays(d time.Duration) float64 {
	if d < 0 {
		d = -d
	}
	return math.Ceil(float64(d) / float64(day))
}

// round1 rounds to one decimal with halves going away from zero, so the
// quarter-week frequencies come out as 0.25 -> 0.3 and 0.75 -> 0.8. All
// inputs are non-negative, where this agrees with round-half-up.
func round1(v float64) float64 { return math.Round(v*10) / 10 }
