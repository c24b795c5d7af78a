// Package parser parses DMARC aggregate report documents into records.
package parser

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

// reportFeedback represents the root element of a DMARC aggregate report.
type reportFeedback struct {
	XMLName         xml.Name        `xml:"feedback"`
	ReportMetadata  reportMetadata  `xml:"report_metadata"`
	PolicyPublished policyPublished `xml:"policy_published"`
	Records         []reportRecord  `xml:"record"`
}

type reportMetadata struct {
	OrgName   string    `xml:"org_name"`
	Email     string    `xml:"email"`
	ReportID  string    `xml:"report_id"`
	DateRange dateRange `xml:"date_range"`
}

// dateRange keeps the timestamps as strings so one malformed value cannot
// reject the whole document; coercion defaults to zero.
type dateRange struct {
	Begin string `xml:"begin"`
	End   string `xml:"end"`
}

type policyPublished struct {
	Domain string `xml:"domain"`
	P      string `xml:"p"`
	SP     string `xml:"sp"`
}

type reportRecord struct {
	Row         reportRow   `xml:"row"`
	Identifiers identifiers `xml:"identifiers"`
	AuthResults authResults `xml:"auth_results"`
}

type reportRow struct {
	SourceIP        string          `xml:"source_ip"`
	Count           string          `xml:"count"`
	PolicyEvaluated policyEvaluated `xml:"policy_evaluated"`
}

type policyEvaluated struct {
	Disposition string `xml:"disposition"`
	DKIM        string `xml:"dkim"`
	SPF         string `xml:"spf"`
}

type identifiers struct {
	HeaderFrom   string `xml:"header_from"`
	EnvelopeFrom string `xml:"envelope_from"`
}

type authResults struct {
	DKIM []authDKIM `xml:"dkim"`
	SPF  []authSPF  `xml:"spf"`
}

type authDKIM struct {
	Domain   string `xml:"domain"`
	Selector string `xml:"selector"`
	Result   string `xml:"result"`
}

type authSPF struct {
	Domain string `xml:"domain"`
	Scope  string `xml:"scope"`
	Result string `xml:"result"`
}

// ParseReportFile parses one extracted report document. Any failure means
// the document contributes zero records; callers absorb the error and keep
// going.
func ParseReportFile(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseReportBytes(data, path)
}

// ParseReportBytes parses a DMARC aggregate report from bytes. The path is
// carried onto every record for export; it is not read.
func ParseReportBytes(data []byte, path string) ([]types.Record, error) {
	var feedback reportFeedback
	if err := xml.Unmarshal(data, &feedback); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return convertFeedback(&feedback, path), nil
}

// convertFeedback flattens the XML structure into records, denormalizing
// the report metadata onto every row.
func convertFeedback(f *reportFeedback, path string) []types.Record {
	period := types.Period{
		Begin: time.Unix(coerceInt64(f.ReportMetadata.DateRange.Begin), 0).UTC(),
		End:   time.Unix(coerceInt64(f.ReportMetadata.DateRange.End), 0).UTC(),
	}

	records := make([]types.Record, 0, len(f.Records))
	for _, rec := range f.Records {
		r := types.Record{
			ReportOrg:    f.ReportMetadata.OrgName,
			ReportID:     f.ReportMetadata.ReportID,
			Period:       period,
			PolicyDomain: f.PolicyPublished.Domain,

			SourceIP:     rec.Row.SourceIP,
			Count:        coerceInt(rec.Row.Count),
			Disposition:  rec.Row.PolicyEvaluated.Disposition,
			DKIMResult:   rec.Row.PolicyEvaluated.DKIM,
			SPFResult:    rec.Row.PolicyEvaluated.SPF,
			HeaderFrom:   rec.Identifiers.HeaderFrom,
			EnvelopeFrom: rec.Identifiers.EnvelopeFrom,

			SourcePath: path,
		}

		for _, dkim := range rec.AuthResults.DKIM {
			r.DKIMDomains = appendDomain(r.DKIMDomains, dkim.Domain)
		}
		for _, spf := range rec.AuthResults.SPF {
			r.SPFDomains = appendDomain(r.SPFDomains, spf.Domain)
		}

		records = append(records, r)
	}

	return records
}

// appendDomain adds a non-empty domain, preserving order and dropping
// duplicates.
func appendDomain(domains []string, domain string) []string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return domains
	}
	for _, d := range domains {
		if d == domain {
			return domains
		}
	}
	return append(domains, domain)
}

func coerceInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func coerceInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
