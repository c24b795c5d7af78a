package analysis

import "github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"

// Scorecard bundles the summary scalars and the five ranking tables the
// presentation layer consumes. Every slice is ordered and ready to render.
type Scorecard struct {
	Summary        types.Summary
	FailingSources []types.SourceVolume
	Reporters      []types.ReporterVolume
	Trend          []types.TrendPoint
	KnownProviders []types.ProviderVolume
	UnknownDomains []types.DomainVolume
}

// BuildScorecard runs the full aggregation over a record collection.
// topN bounds the ranking tables; the weekly trend is always limited to the
// five highest-volume reporting orgs.
func BuildScorecard(records []types.Record, classifier *Classifier, topN int) Scorecard {
	return Scorecard{
		Summary:        Summarize(records),
		FailingSources: TopFailingSources(records, topN),
		Reporters:      TopReporters(records, topN),
		Trend:          WeeklyTrend(records),
		KnownProviders: classifier.KnownProviders(records, topN),
		UnknownDomains: classifier.UnknownDomains(records, topN),
	}
}
