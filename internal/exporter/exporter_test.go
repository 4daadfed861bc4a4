package exporter

import (
	"bytes"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamedShams/dora-pulse/internal/domain"
)

func TestWrite_RoundTripsThroughParser(t *testing.T) {
	matrix := map[string]domain.Metrics{
		"VEH": {LeadTime: 4.5, DeploymentFrequency: 1.3, ChangeFailureRate: 20, RecoveryTime: 48, Velocity: 31},
		"DAI": {LeadTime: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, matrix))

	var p expfmt.TextParser
	fams, err := p.TextToMetricFamilies(&buf)
	require.NoError(t, err)
	require.Len(t, fams, 5)

	lead := fams["dora_lead_time_days"]
	require.NotNil(t, lead)
	require.Len(t, lead.GetMetric(), 2)
	assert.Equal(t, "DAI", lead.GetMetric()[0].GetLabel()[0].GetValue())
	assert.Equal(t, 2.0, lead.GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 4.5, lead.GetMetric()[1].GetGauge().GetValue())

	vel := fams["dora_velocity_story_points"]
	require.NotNil(t, vel)
	assert.Equal(t, 31.0, vel.GetMetric()[1].GetGauge().GetValue())
}

func TestFamilies_EmptyMatrix(t *testing.T) {
	fams := Families(nil)
	require.Len(t, fams, 5)
	for _, mf := range fams {
		assert.Empty(t, mf.GetMetric())
	}
}

func TestWrite_EmptyMatrixWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]domain.Metrics{}))
	assert.Zero(t, buf.Len())
}
