/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/HamedShams/dora-pulse/internal/domain"
	"github.com/rs/zerolog"
)

type searchResponse struct {
	Total  int            `json:"total"`
	Issues []issuePayload `json:"issues"`
}

type issuePayload struct {
	Key       string          `json:"key"`
	Fields    json.RawMessage `json:"fields"`
	Changelog struct {
		Histories []historyPayload `json:"histories"`
	} `json:"changelog"`
}

type historyPayload struct {
	Created string `json:"created"`
	Items   []struct {
		Field      string `json:"field"`
		FromString string `json:"fromString"`
		ToString   string `json:"toString"`
	} `json:"items"`
}

type namedField struct {
	Name string `json:"name"`
}

type standardFields struct {
	Status         *namedField `json:"status"`
	IssueType      *namedField `json:"issuetype"`
	Created        string      `json:"created"`
	Updated        string      `json:"updated"`
	ResolutionDate *string     `json:"resolutiondate"`
}

// toDomain never fails: malformed optional values are dropped and logged.
func (p issuePayload) toDomain(pointsField string, log zerolog.Logger) domain.Issue {
	is := domain.Issue{Key: p.Key}
	l := log.With().Str("issue", p.Key).Logger()

	var std standardFields
	if len(p.Fields) > 0 {
		if err := json.Unmarshal(p.Fields, &std); err != nil {
			l.Debug().Err(err).Msg("jira: malformed fields; treating as empty")
			std = standardFields{}
		}
	}
	if std.Status != nil {
		is.Status = std.Status.Name
	}
	if std.IssueType != nil {
		is.Type = std.IssueType.Name
	}
	is.Created = optionalTime(std.Created, "created", l)
	is.Updated = optionalTime(std.Updated, "updated", l)
	if std.ResolutionDate != nil {
		is.Resolved = optionalTime(*std.ResolutionDate, "resolutiondate", l)
	}

	if pointsField != "" && len(p.Fields) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(p.Fields, &raw); err == nil {
			is.StoryPoints = parsePoints(raw[pointsField], l)
		}
	}

	for _, h := range p.Changelog.Histories {
		var at *time.Time
		for _, it := range h.Items {
			if it.Field != "status" {
				continue
			}
			if at == nil {
				if at = parseTimeUTC(h.Created); at == nil {
					l.Debug().Str("created", h.Created).Msg("jira: dropping history with bad timestamp")
					break
				}
			}
			is.Transitions = append(is.Transitions, domain.StatusChange{At: *at, From: it.FromString, To: it.ToString})
		}
	}
	return is
}

func optionalTime(v, field string, log zerolog.Logger) *time.Time {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	t := parseTimeUTC(v)
	if t == nil {
		log.Debug().Str("field", field).Str("value", v).Msg("jira: unparseable timestamp; treating as absent")
	}
	return t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

func parseTimeUTC(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			tt := t.UTC()
			return &tt
		}
	}
	return nil
}

// parsePoints accepts numbers and numeric strings; anything else is absent.
func parsePoints(raw json.RawMessage, log zerolog.Logger) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	log.Debug().RawJSON("value", raw).Msg("jira: story points not numeric; treating as absent")
	return nil
}
