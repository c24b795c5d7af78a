// Package analysis aggregates and classifies DMARC report records.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

// Summarize computes the overall scorecard figures for a record collection.
// An empty collection yields a zero Summary; the caller decides whether
// that is the "no data" outcome.
func Summarize(records []types.Record) types.Summary {
	s := types.Summary{Records: len(records)}

	reportIDs := make(map[string]struct{})
	ips := make(map[string]struct{})

	for _, r := range records {
		reportIDs[r.ReportID] = struct{}{}
		ips[r.SourceIP] = struct{}{}

		// Message volume is a sum over row counts, never a row count: one
		// row may represent thousands of messages.
		if r.Passed() {
			s.Passes += r.Count
		} else {
			s.Fails += r.Count
		}

		if s.Period.Begin.IsZero() || r.Period.Begin.Before(s.Period.Begin) {
			s.Period.Begin = r.Period.Begin
		}
		if s.Period.End.IsZero() || r.Period.End.After(s.Period.End) {
			s.Period.End = r.Period.End
		}
	}

	s.Reports = len(reportIDs)
	s.UniqueIPs = len(ips)
	s.TotalMessages = s.Passes + s.Fails

	if s.TotalMessages > 0 {
		s.PassPct = round1(float64(s.Passes) / float64(s.TotalMessages) * 100)
		s.FailPct = round1(float64(s.Fails) / float64(s.TotalMessages) * 100)
	}

	return s
}

// TopFailingSources ranks failing volume grouped by (source IP, policy
// domain), descending. Ties keep first-seen input order.
func TopFailingSources(records []types.Record, n int) []types.SourceVolume {
	type key struct {
		ip, domain string
	}

	totals := make(map[key]int)
	var order []key

	for _, r := range records {
		if r.Passed() {
			continue
		}
		k := key{r.SourceIP, r.PolicyDomain}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += r.Count
	}

	rows := make([]types.SourceVolume, 0, len(order))
	for _, k := range order {
		rows = append(rows, types.SourceVolume{SourceIP: k.ip, PolicyDomain: k.domain, Count: totals[k]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// TopReporters ranks total message volume grouped by reporting org,
// descending. Ties keep first-seen input order.
func TopReporters(records []types.Record, n int) []types.ReporterVolume {
	totals := make(map[string]int)
	var order []string

	for _, r := range records {
		if _, seen := totals[r.ReportOrg]; !seen {
			order = append(order, r.ReportOrg)
		}
		totals[r.ReportOrg] += r.Count
	}

	rows := make([]types.ReporterVolume, 0, len(order))
	for _, org := range order {
		rows = append(rows, types.ReporterVolume{Org: org, Count: totals[org]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// WeeklyTrend buckets message volume by the ISO week containing each
// document's range begin, per reporting org, restricted to the five orgs
// with the highest all-time volume. Points are ordered week-ascending, then
// by org rank.
func WeeklyTrend(records []types.Record) []types.TrendPoint {
	top := TopReporters(records, 5)
	rank := make(map[string]int, len(top))
	for i, r := range top {
		rank[r.Org] = i
	}

	type key struct {
		org, week string
	}
	totals := make(map[key]int)
	weeks := make(map[string]struct{})

	for _, r := range records {
		if _, ok := rank[r.ReportOrg]; !ok {
			continue
		}
		week := isoWeekLabel(r.Period.Begin)
		totals[key{r.ReportOrg, week}] += r.Count
		weeks[week] = struct{}{}
	}

	weekList := make([]string, 0, len(weeks))
	for w := range weeks {
		weekList = append(weekList, w)
	}
	sort.Strings(weekList)

	var points []types.TrendPoint
	for _, week := range weekList {
		for _, org := range top {
			if count, ok := totals[key{org.Org, week}]; ok {
				points = append(points, types.TrendPoint{Org: org.Org, Week: week, Count: count})
			}
		}
	}
	return points
}

// FilterWindow keeps records whose document window lies entirely inside the
// inclusive [from, to] bounds. This is deliberately a document-window test,
// not a per-record timestamp filter.
func FilterWindow(records []types.Record, from, to time.Time) []types.Record {
	var out []types.Record
	for _, r := range records {
		if r.Period.Begin.Before(from) || r.Period.End.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DefaultWindow is the widest window covering every document: the earliest
// range begin and the latest range end.
func DefaultWindow(records []types.Record) types.Period {
	var p types.Period
	for _, r := range records {
		if p.Begin.IsZero() || r.Period.Begin.Before(p.Begin) {
			p.Begin = r.Period.Begin
		}
		if p.End.IsZero() || r.Period.End.After(p.End) {
			p.End = r.Period.End
		}
	}
	return p
}

// DocumentPaths returns the distinct originating document paths for a
// record subset, in first-seen order, so the raw reports can be repackaged
// for download.
func DocumentPaths(records []types.Record) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, r := range records {
		if r.SourcePath == "" {
			continue
		}
		if _, ok := seen[r.SourcePath]; ok {
			continue
		}
		seen[r.SourcePath] = struct{}{}
		paths = append(paths, r.SourcePath)
	}
	return paths
}

func isoWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
