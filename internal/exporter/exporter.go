/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package exporter renders a health matrix in the Prometheus text format.
package exporter

import (
	"io"
	"sort"

	"github.com/HamedShams/dora-pulse/internal/domain"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Format is the exposition format Write produces.
var Format = expfmt.NewFormat(expfmt.TypeTextPlain)

type gauge struct {
	name  string
	help  string
	value func(domain.Metrics) float64
}

var gauges = []gauge{
	{"dora_lead_time_days", "Mean days from In Development to release.", func(m domain.Metrics) float64 { return m.LeadTime }},
	{"dora_deployment_frequency_per_week", "Released issues per week over a fixed 4-week window.", func(m domain.Metrics) float64 { return m.DeploymentFrequency }},
	{"dora_change_failure_rate_percent", "Share of released issues that are bugs.", func(m domain.Metrics) float64 { return m.ChangeFailureRate }},
	{"dora_recovery_time_hours", "Mean hours from bug creation to resolution.", func(m domain.Metrics) float64 { return m.RecoveryTime }},
	{"dora_velocity_story_points", "Summed story points across fetched issues.", func(m domain.Metrics) float64 { return m.Velocity }},
}

// Families builds one gauge family per indicator, labelled by project and
// sorted by project key.
func Families(matrix map[string]domain.Metrics) []*dto.MetricFamily {
	projects := make([]string, 0, len(matrix))
	for p := range matrix {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	out := make([]*dto.MetricFamily, 0, len(gauges))
	for _, g := range gauges {
		mf := &dto.MetricFamily{
			Name: proto.String(g.name),
			Help: proto.String(g.help),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		for _, p := range projects {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{{Name: proto.String("project"), Value: proto.String(p)}},
				Gauge: &dto.Gauge{Value: proto.Float64(g.value(matrix[p]))},
			})
		}
		out = append(out, mf)
	}
	return out
}

// Write encodes the matrix; an empty matrix writes nothing.
func Write(w io.Writer, matrix map[string]domain.Metrics) error {
	enc := expfmt.NewEncoder(w, Format)
	for _, mf := range Families(matrix) {
		// the text encoder rejects families without samples
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
