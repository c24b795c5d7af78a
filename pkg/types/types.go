// Package types contains shared data types for the DMARC RUA pipeline.
package types

import "time"

// Period represents the inclusive time window a report covers.
type Period struct {
	Begin time.Time
	End   time.Time
}

// Record is one row of a DMARC aggregate report. Report-level metadata is
// denormalized onto every record so the aggregation layer can work from a
// flat collection.
type Record struct {
	// Inherited from the report document.
	ReportOrg    string
	ReportID     string
	Period       Period
	PolicyDomain string

	// Row fields.
	SourceIP     string
	Count        int
	Disposition  string
	DKIMResult   string
	SPFResult    string
	HeaderFrom   string
	EnvelopeFrom string

	// Domains that actually signed/authenticated, from auth_results.
	// Deduplicated, in document order. May be empty.
	DKIMDomains []string
	SPFDomains  []string

	// SourcePath is the extracted document this record came from. Used for
	// export only, never as an aggregation key.
	SourcePath string
}

// Passed reports whether the record passed DMARC policy. Anything other
// than an explicit "none" disposition counts as a failure, including empty
// or unrecognized values, so ambiguous rows are never hidden.
func (r Record) Passed() bool {
	return r.Disposition == "none"
}

// Summary contains the overall scorecard figures for a record collection.
type Summary struct {
	Reports       int // distinct report IDs
	Records       int // row count
	UniqueIPs     int
	Period        Period
	Passes        int // messages with disposition "none"
	Fails         int // everything else
	TotalMessages int
	PassPct       float64 // rounded to 1 decimal, 0.0 when no messages
	FailPct       float64
}

// SourceVolume is one row of the failing-source ranking.
type SourceVolume struct {
	SourceIP     string
	PolicyDomain string
	Count        int
}

// ReporterVolume is one row of the reporting-org ranking.
type ReporterVolume struct {
	Org   string
	Count int
}

// TrendPoint is one cell of the weekly volume rollup. Week is an ISO week
// label such as "2026-W05".
type TrendPoint struct {
	Org   string
	Week  string
	Count int
}

// ProviderVolume is one row of the known-provider ranking.
type ProviderVolume struct {
	Provider string
	Domain   string
	Count    int
}

// DomainVolume is one row of the unknown-domain ranking.
type DomainVolume struct {
	Domain string
	Count  int
}

// Fingerprint maps a lowercase domain substring to a provider name.
// Tables are ordered: when several fingerprints match a candidate domain,
// the earliest entry wins.
type Fingerprint struct {
	Match    string `yaml:"match"`
	Provider string `yaml:"provider"`
}

// Classification is the provider inference for a single record. Provider is
// "no match" when no fingerprint matched; Domain is the candidate domain
// that matched, or the most informative fallback domain.
type Classification struct {
	Provider string
	Domain   string
}
