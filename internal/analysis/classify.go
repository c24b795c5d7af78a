package analysis

import (
	"sort"
	"strings"

	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

// NoMatch is the provider name returned when no fingerprint matches.
const NoMatch = "no match"

// Classifier infers the likely sending provider behind a record from an
// ordered fingerprint table. It holds no mutable state and is safe to share.
type Classifier struct {
	table []types.Fingerprint
}

// NewClassifier creates a Classifier over the given table. The table is
// evaluated in order: when several fingerprints match one candidate domain,
// the earliest entry wins.
func NewClassifier(table []types.Fingerprint) *Classifier {
	return &Classifier{table: table}
}

// Classify infers the provider for one record. Candidate domains are tried
// in fixed precedence: authenticated DKIM domains, authenticated SPF
// domains, envelope-from, header-from. A fingerprint matches when it occurs
// anywhere inside the candidate; real-world provider domains embed the
// fingerprint as a subdomain or cousin domain, so containment beats exact
// matching.
//
// When nothing matches, the first candidate that differs from the record's
// own policy domain is surfaced for manual review; failing that, the policy
// domain itself is returned.
func (c *Classifier) Classify(r types.Record) types.Classification {
	candidates := candidateDomains(r)

	for _, domain := range candidates {
		for _, fp := range c.table {
			if strings.Contains(domain, fp.Match) {
				return types.Classification{Provider: fp.Provider, Domain: domain}
			}
		}
	}

	own := normalizeDomain(r.PolicyDomain)
	for _, domain := range candidates {
		if domain != own {
			return types.Classification{Provider: NoMatch, Domain: domain}
		}
	}
	return types.Classification{Provider: NoMatch, Domain: own}
}

// KnownProviders ranks failing volume by (provider, matched domain) over
// records that classified to a real provider. Top n descending, ties in
// first-seen order.
func (c *Classifier) KnownProviders(records []types.Record, n int) []types.ProviderVolume {
	type key struct {
		provider, domain string
	}

	totals := make(map[key]int)
	var order []key

	for _, r := range records {
		if r.Passed() {
			continue
		}
		cls := c.Classify(r)
		if cls.Provider == NoMatch {
			continue
		}
		k := key{cls.Provider, cls.Domain}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += r.Count
	}

	rows := make([]types.ProviderVolume, 0, len(order))
	for _, k := range order {
		rows = append(rows, types.ProviderVolume{Provider: k.provider, Domain: k.domain, Count: totals[k]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// UnknownDomains ranks failing volume by matched domain over records that
// classified to no provider, excluding the dataset's own policy domains:
// an unexplained self-domain is not an unknown sender finding.
func (c *Classifier) UnknownDomains(records []types.Record, n int) []types.DomainVolume {
	self := make(map[string]struct{})
	for _, r := range records {
		self[normalizeDomain(r.PolicyDomain)] = struct{}{}
	}

	totals := make(map[string]int)
	var order []string

	for _, r := range records {
		if r.Passed() {
			continue
		}
		cls := c.Classify(r)
		if cls.Provider != NoMatch {
			continue
		}
		if _, own := self[cls.Domain]; own {
			continue
		}
		if _, seen := totals[cls.Domain]; !seen {
			order = append(order, cls.Domain)
		}
		totals[cls.Domain] += r.Count
	}

	rows := make([]types.DomainVolume, 0, len(order))
	for _, domain := range order {
		rows = append(rows, types.DomainVolume{Domain: domain, Count: totals[domain]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// candidateDomains lists a record's non-empty candidate domains in
// precedence order.
func candidateDomains(r types.Record) []string {
	var candidates []string

	add := func(raw string) {
		if d := normalizeDomain(raw); d != "" {
			candidates = append(candidates, d)
		}
	}

	for _, d := range r.DKIMDomains {
		add(d)
	}
	for _, d := range r.SPFDomains {
		add(d)
	}
	add(r.EnvelopeFrom)
	add(r.HeaderFrom)

	return candidates
}

// normalizeDomain lowercases and trims an identifier, keeping only the part
// after the first "@" when present.
func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, after, found := strings.Cut(s, "@"); found {
		return after
	}
	return s
}
