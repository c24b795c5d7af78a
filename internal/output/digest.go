// Package output provides formatted output for the RUA scorecard.
package output

import (
	"fmt"
	"strings"

	"github.com/shadwsndst/dmarc-rua-dashboard/internal/analysis"
)

const digestDateFormat = "2006-01-02"

// Digest renders the scorecard as a fixed-structure plain-text block for
// pasting into a chat channel. Pure formatting: every value derives from
// the input data, never from the wall clock.
func Digest(sc analysis.Scorecard) string {
	var sb strings.Builder

	sb.WriteString("*DMARC RUA Scorecard*\n")
	sb.WriteString(fmt.Sprintf("_Date Range: %s → %s_\n\n",
		sc.Summary.Period.Begin.UTC().Format(digestDateFormat),
		sc.Summary.Period.End.UTC().Format(digestDateFormat)))

	sb.WriteString("📊 *Summary*\n")
	sb.WriteString(fmt.Sprintf("Reports: *%d*\n", sc.Summary.Reports))
	sb.WriteString(fmt.Sprintf("Records: *%d*\n", sc.Summary.Records))
	sb.WriteString(fmt.Sprintf("Unique IPs: *%d*\n", sc.Summary.UniqueIPs))
	sb.WriteString(fmt.Sprintf("Passed: *%d* (%.1f%%)\n", sc.Summary.Passes, sc.Summary.PassPct))
	sb.WriteString(fmt.Sprintf("Failed: *%d* (%.1f%%)\n\n", sc.Summary.Fails, sc.Summary.FailPct))

	sb.WriteString("🔥 *Top Failing IPs w/ Domains*\n")
	if len(sc.FailingSources) == 0 {
		sb.WriteString("none\n")
	}
	for _, row := range sc.FailingSources {
		sb.WriteString(fmt.Sprintf("%s (%s) → *%d*\n", row.SourceIP, row.PolicyDomain, row.Count))
	}
	sb.WriteString("\n")

	sb.WriteString("🏢 *Top Reporting Orgs*\n")
	if len(sc.Reporters) == 0 {
		sb.WriteString("none\n")
	}
	for _, row := range sc.Reporters {
		sb.WriteString(fmt.Sprintf("%s → *%d*\n", row.Org, row.Count))
	}
	sb.WriteString("\n")

	sb.WriteString("✅ *Known Providers (failing volume)*\n")
	if len(sc.KnownProviders) == 0 {
		sb.WriteString("none\n")
	}
	for _, row := range sc.KnownProviders {
		sb.WriteString(fmt.Sprintf("%s (%s) → *%d*\n", row.Provider, row.Domain, row.Count))
	}
	sb.WriteString("\n")

	sb.WriteString("❓ *Unknown Fingerprints*\n")
	if len(sc.UnknownDomains) == 0 {
		sb.WriteString("none\n")
	}
	for _, row := range sc.UnknownDomains {
		sb.WriteString(fmt.Sprintf("%s → *%d*\n", row.Domain, row.Count))
	}

	return sb.String()
}
