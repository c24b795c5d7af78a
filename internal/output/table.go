package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shadwsndst/dmarc-rua-dashboard/internal/analysis"
)

// Styles for terminal output.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("240")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			MarginTop(1).
			MarginBottom(1)
)

// TableOutput renders the scorecard as styled terminal output.
func TableOutput(sc analysis.Scorecard) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("DMARC RUA Scorecard"))
	sb.WriteString("\n\n")

	sum := sc.Summary
	sb.WriteString(fmt.Sprintf("Date range: %s → %s\n",
		sum.Period.Begin.UTC().Format("2006-01-02"),
		sum.Period.End.UTC().Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Reports: %d   Records: %d   Unique IPs: %d\n",
		sum.Reports, sum.Records, sum.UniqueIPs))
	sb.WriteString(fmt.Sprintf("Passed: %s (%s)   Failed: %s (%s)\n",
		passStyle.Render(fmt.Sprintf("%d", sum.Passes)),
		formatRate(sum.PassPct),
		formatFailCount(sum.Fails),
		fmt.Sprintf("%.1f%%", sum.FailPct)))

	if len(sc.FailingSources) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Top Failing Sources"))
		sb.WriteString("\n")
		sb.WriteString(renderTableRow([]string{"Source IP", "Domain", "Messages"}, true))
		sb.WriteString("\n")
		for _, row := range sc.FailingSources {
			sb.WriteString(renderTableRow([]string{
				row.SourceIP,
				row.PolicyDomain,
				failStyle.Render(fmt.Sprintf("%d", row.Count)),
			}, false))
			sb.WriteString("\n")
		}
	}

	if len(sc.Reporters) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Top Reporting Orgs"))
		sb.WriteString("\n")
		sb.WriteString(renderTableRow([]string{"Org", "", "Messages"}, true))
		sb.WriteString("\n")
		for _, row := range sc.Reporters {
			sb.WriteString(renderTableRow([]string{
				row.Org,
				"",
				fmt.Sprintf("%d", row.Count),
			}, false))
			sb.WriteString("\n")
		}
	}

	if len(sc.KnownProviders) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Known Providers (failing volume)"))
		sb.WriteString("\n")
		sb.WriteString(renderTableRow([]string{"Provider", "Matched Domain", "Messages"}, true))
		sb.WriteString("\n")
		for _, row := range sc.KnownProviders {
			sb.WriteString(renderTableRow([]string{
				row.Provider,
				mutedStyle.Render(row.Domain),
				failStyle.Render(fmt.Sprintf("%d", row.Count)),
			}, false))
			sb.WriteString("\n")
		}
	}

	if len(sc.UnknownDomains) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Unknown Fingerprints"))
		sb.WriteString("\n")
		sb.WriteString(renderTableRow([]string{"Domain", "", "Messages"}, true))
		sb.WriteString("\n")
		for _, row := range sc.UnknownDomains {
			sb.WriteString(renderTableRow([]string{
				row.Domain,
				"",
				warnStyle.Render(fmt.Sprintf("%d", row.Count)),
			}, false))
			sb.WriteString("\n")
		}
	}

	if len(sc.Trend) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Weekly Volume (top reporting orgs)"))
		sb.WriteString("\n")
		sb.WriteString(renderTableRow([]string{"Week", "Org", "Messages"}, true))
		sb.WriteString("\n")
		for _, p := range sc.Trend {
			sb.WriteString(renderTableRow([]string{
				p.Week,
				mutedStyle.Render(p.Org),
				fmt.Sprintf("%d", p.Count),
			}, false))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func renderTableRow(cells []string, isHeader bool) string {
	widths := []int{30, 30, 12}
	var parts []string

	for i, cell := range cells {
		width := 15
		if i < len(widths) {
			width = widths[i]
		}

		// Use lipgloss.Width to get visual width (ignores ANSI codes)
		visualWidth := lipgloss.Width(cell)

		padded := cell
		if visualWidth < width {
			padded = cell + strings.Repeat(" ", width-visualWidth)
		} else if visualWidth > width {
			stripped := stripANSI(cell)
			if len(stripped) > width-3 {
				padded = stripped[:width-3] + "..."
			}
		}

		if isHeader {
			parts = append(parts, headerStyle.Render(padded))
		} else {
			parts = append(parts, cellStyle.Render(padded))
		}
	}

	return strings.Join(parts, "")
}

// stripANSI removes ANSI escape sequences from a string
func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

func formatRate(rate float64) string {
	rateStr := fmt.Sprintf("%.1f%%", rate)
	if rate >= 99 {
		return passStyle.Render(rateStr)
	} else if rate >= 90 {
		return warnStyle.Render(rateStr)
	}
	return failStyle.Render(rateStr)
}

func formatFailCount(count int) string {
	if count == 0 {
		return mutedStyle.Render("0")
	}
	return failStyle.Render(fmt.Sprintf("%d", count))
}
