package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadwsndst/dmarc-rua-dashboard/internal/analysis"
	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

func sampleScorecard() analysis.Scorecard {
	return analysis.Scorecard{
		Summary: types.Summary{
			Reports:   2,
			Records:   3,
			UniqueIPs: 2,
			Period: types.Period{
				Begin: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 1, 7, 23, 59, 59, 0, time.UTC),
			},
			Passes:        10,
			Fails:         5,
			TotalMessages: 15,
			PassPct:       66.7,
			FailPct:       33.3,
		},
		FailingSources: []types.SourceVolume{
			{SourceIP: "198.51.100.24", PolicyDomain: "example.com", Count: 5},
		},
		Reporters: []types.ReporterVolume{
			{Org: "google.com", Count: 15},
		},
		Trend: []types.TrendPoint{
			{Org: "google.com", Week: "2026-W01", Count: 15},
		},
		KnownProviders: []types.ProviderVolume{
			{Provider: "SendGrid", Domain: "mail.sendgrid.net", Count: 5},
		},
		UnknownDomains: []types.DomainVolume{
			{Domain: "mystery.example.net", Count: 2},
		},
	}
}

func TestDigest(t *testing.T) {
	t.Run("renders every section with the scorecard values", func(t *testing.T) {
		out := Digest(sampleScorecard())

		assert.Contains(t, out, "*DMARC RUA Scorecard*")
		assert.Contains(t, out, "_Date Range: 2026-01-01 → 2026-01-07_")
		assert.Contains(t, out, "Reports: *2*")
		assert.Contains(t, out, "Records: *3*")
		assert.Contains(t, out, "Unique IPs: *2*")
		assert.Contains(t, out, "Passed: *10* (66.7%)")
		assert.Contains(t, out, "Failed: *5* (33.3%)")
		assert.Contains(t, out, "198.51.100.24 (example.com) → *5*")
		assert.Contains(t, out, "google.com → *15*")
		assert.Contains(t, out, "SendGrid (mail.sendgrid.net) → *5*")
		assert.Contains(t, out, "mystery.example.net → *2*")
	})

	t.Run("empty sections render a none line", func(t *testing.T) {
		sc := sampleScorecard()
		sc.FailingSources = nil
		sc.KnownProviders = nil
		sc.UnknownDomains = nil

		out := Digest(sc)

		assert.Contains(t, out, "🔥 *Top Failing IPs w/ Domains*\nnone\n")
		assert.Contains(t, out, "✅ *Known Providers (failing volume)*\nnone\n")
		assert.Contains(t, out, "❓ *Unknown Fingerprints*\nnone\n")
	})

	t.Run("is deterministic", func(t *testing.T) {
		sc := sampleScorecard()
		assert.Equal(t, Digest(sc), Digest(sc))
	})
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(sampleScorecard())
	require.NoError(t, err)

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, 2, decoded.Summary.Reports)
	assert.Equal(t, 3, decoded.Summary.Records)
	assert.Equal(t, "2026-01-01T00:00:00Z", decoded.Summary.PeriodBegin)
	assert.Equal(t, "2026-01-07T23:59:59Z", decoded.Summary.PeriodEnd)
	assert.InDelta(t, 66.7, decoded.Summary.PassPct, 0.001)

	require.Len(t, decoded.FailingSources, 1)
	assert.Equal(t, "198.51.100.24", decoded.FailingSources[0].SourceIP)
	assert.Equal(t, "example.com", decoded.FailingSources[0].Domain)

	require.Len(t, decoded.WeeklyTrend, 1)
	assert.Equal(t, "2026-W01", decoded.WeeklyTrend[0].Week)

	require.Len(t, decoded.KnownProviders, 1)
	assert.Equal(t, "SendGrid", decoded.KnownProviders[0].Provider)

	require.Len(t, decoded.UnknownDomains, 1)
	assert.Equal(t, "mystery.example.net", decoded.UnknownDomains[0].Domain)
}

func TestToJSONOmitsEmptySections(t *testing.T) {
	sc := sampleScorecard()
	sc.FailingSources = nil
	sc.UnknownDomains = nil

	out, err := ToJSON(sc)
	require.NoError(t, err)

	assert.NotContains(t, out, "failing_sources")
	assert.NotContains(t, out, "unknown_domains")
	assert.Contains(t, out, "known_providers")
}

func TestTableOutput(t *testing.T) {
	out := TableOutput(sampleScorecard())
	plain := stripANSI(out)

	assert.Contains(t, plain, "DMARC RUA Scorecard")
	assert.Contains(t, plain, "Date range: 2026-01-01 → 2026-01-07")
	assert.Contains(t, plain, "Top Failing Sources")
	assert.Contains(t, plain, "198.51.100.24")
	assert.Contains(t, plain, "Top Reporting Orgs")
	assert.Contains(t, plain, "Known Providers (failing volume)")
	assert.Contains(t, plain, "Unknown Fingerprints")
	assert.Contains(t, plain, "Weekly Volume")
	assert.Contains(t, plain, "2026-W01")
}

func TestTableOutputSkipsEmptySections(t *testing.T) {
	sc := sampleScorecard()
	sc.Trend = nil
	sc.UnknownDomains = nil

	plain := stripANSI(TableOutput(sc))

	assert.NotContains(t, plain, "Weekly Volume")
	assert.NotContains(t, plain, "Unknown Fingerprints")
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "high rates read as passing", rate: 99.5, want: "99.5%"},
		{name: "mid rates read as warnings", rate: 95.0, want: "95.0%"},
		{name: "low rates read as failing", rate: 50.0, want: "50.0%"},
		{name: "zero", rate: 0.0, want: "0.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripANSI(formatRate(tt.rate))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTableRowTruncatesLongCells(t *testing.T) {
	long := strings.Repeat("x", 60)
	row := stripANSI(renderTableRow([]string{long, "b", "c"}, false))

	assert.Contains(t, row, "...")
	assert.NotContains(t, row, long)
}
