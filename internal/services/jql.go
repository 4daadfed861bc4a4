/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HamedShams/dora-pulse/internal/config"
)

// ErrInvalidQuery marks caller input that cannot be turned into JQL.
var ErrInvalidQuery = errors.New("invalid query")

// JQL accepts both forms for date literals.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04"}

// matrixFields is what the computation reads; the DORA endpoint adds "updated".
func matrixFields(pointsField string) []string {
	return []string{"status", "issuetype", "created", "resolutiondate", pointsField}
}

func doraFields(pointsField string) []string {
	return append(matrixFields(pointsField), "updated")
}

func validateProject(key string) error {
	if !config.ValidProjectKey(key) {
		return fmt.Errorf("%w: project key %q", ErrInvalidQuery, key)
	}
	return nil
}

func validateDate(name, v string) error {
	for _, l := range dateLayouts {
		if _, err := time.Parse(l, v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM)", ErrInvalidQuery, name, v)
}

func recentJQL(project string, days int) string {
	return fmt.Sprintf("project = %s AND created >= -%dd", project, days)
}

func rangeJQL(project, start, end string) string {
	var b strings.Builder
	b.WriteString("project = ")
	b.WriteString(project)
	if start != "" {
		fmt.Fprintf(&b, ` AND created >= "%s"`, start)
	}
	if end != "" {
		fmt.Fprintf(&b, ` AND created <= "%s"`, end)
	}
	return b.String()
}
