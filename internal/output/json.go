package output

import (
	"encoding/json"

	"github.com/shadwsndst/dmarc-rua-dashboard/internal/analysis"
)

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Summary        JSONSummary       `json:"summary"`
	FailingSources []JSONSource      `json:"failing_sources,omitempty"`
	ReportingOrgs  []JSONReporter    `json:"reporting_orgs,omitempty"`
	WeeklyTrend    []JSONTrendPoint  `json:"weekly_trend,omitempty"`
	KnownProviders []JSONProvider    `json:"known_providers,omitempty"`
	UnknownDomains []JSONDomainCount `json:"unknown_domains,omitempty"`
}

// JSONSummary contains the scorecard scalars.
type JSONSummary struct {
	Reports       int     `json:"reports"`
	Records       int     `json:"records"`
	UniqueIPs     int     `json:"unique_ips"`
	PeriodBegin   string  `json:"period_begin"`
	PeriodEnd     string  `json:"period_end"`
	Passes        int     `json:"passes"`
	Fails         int     `json:"fails"`
	TotalMessages int     `json:"total_messages"`
	PassPct       float64 `json:"pass_pct"`
	FailPct       float64 `json:"fail_pct"`
}

// JSONSource is one row of the failing-source ranking.
type JSONSource struct {
	SourceIP string `json:"source_ip"`
	Domain   string `json:"domain"`
	Count    int    `json:"count"`
}

// JSONReporter is one row of the reporting-org ranking.
type JSONReporter struct {
	Org   string `json:"org"`
	Count int    `json:"count"`
}

// JSONTrendPoint is one cell of the weekly rollup.
type JSONTrendPoint struct {
	Week  string `json:"week"`
	Org   string `json:"org"`
	Count int    `json:"count"`
}

// JSONProvider is one row of the known-provider ranking.
type JSONProvider struct {
	Provider string `json:"provider"`
	Domain   string `json:"domain"`
	Count    int    `json:"count"`
}

// JSONDomainCount is one row of the unknown-domain ranking.
type JSONDomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

const jsonTimeFormat = "2006-01-02T15:04:05Z07:00"

// ToJSON converts a scorecard to an indented JSON string.
func ToJSON(sc analysis.Scorecard) (string, error) {
	out := JSONOutput{
		Summary: JSONSummary{
			Reports:       sc.Summary.Reports,
			Records:       sc.Summary.Records,
			UniqueIPs:     sc.Summary.UniqueIPs,
			PeriodBegin:   sc.Summary.Period.Begin.UTC().Format(jsonTimeFormat),
			PeriodEnd:     sc.Summary.Period.End.UTC().Format(jsonTimeFormat),
			Passes:        sc.Summary.Passes,
			Fails:         sc.Summary.Fails,
			TotalMessages: sc.Summary.TotalMessages,
			PassPct:       sc.Summary.PassPct,
			FailPct:       sc.Summary.FailPct,
		},
	}

	for _, row := range sc.FailingSources {
		out.FailingSources = append(out.FailingSources, JSONSource{
			SourceIP: row.SourceIP,
			Domain:   row.PolicyDomain,
			Count:    row.Count,
		})
	}
	for _, row := range sc.Reporters {
		out.ReportingOrgs = append(out.ReportingOrgs, JSONReporter{
			Org:   row.Org,
			Count: row.Count,
		})
	}
	for _, p := range sc.Trend {
		out.WeeklyTrend = append(out.WeeklyTrend, JSONTrendPoint{
			Week:  p.Week,
			Org:   p.Org,
			Count: p.Count,
		})
	}
	for _, row := range sc.KnownProviders {
		out.KnownProviders = append(out.KnownProviders, JSONProvider{
			Provider: row.Provider,
			Domain:   row.Domain,
			Count:    row.Count,
		})
	}
	for _, row := range sc.UnknownDomains {
		out.UnknownDomains = append(out.UnknownDomains, JSONDomainCount{
			Domain: row.Domain,
			Count:  row.Count,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
