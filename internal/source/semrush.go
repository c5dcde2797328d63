package source

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sitepulse/sitepulse/internal/httpcall"
)

// Report types issued against the authority index. Each is one independent
// query; one failing does not block or invalidate the others.
const (
	reportRanks     = "domain_ranks"
	reportBacklinks = "backlinks_overview"
	reportAdwords   = "domain_adwords"
)

// Column names read from the tabular reports.
//
// paidTrafficColumn is a known upstream ambiguity: source variants disagree
// on which column of the ad-spend report carries the estimate. "Paid
// Traffic" matches the contract this tool was built against; verify on any
// provider schema change.
const (
	colAuthorityScore  = "Authority Score"
	colOrganicTraffic  = "Organic Traffic"
	colOrganicKeywords = "Organic Keywords"
	colBacklinks       = "Backlinks"
	paidTrafficColumn  = "Paid Traffic"
)

// AuthoritySnapshot is the normalized SEO authority result for one domain.
type AuthoritySnapshot struct {
	AuthorityScore  string
	OrganicTraffic  string
	OrganicKeywords string
	Backlinks       string
	PaidTraffic     string
}

// DefaultAuthority returns the all-NA snapshot.
func DefaultAuthority() AuthoritySnapshot {
	return AuthoritySnapshot{
		AuthorityScore:  NA,
		OrganicTraffic:  NA,
		OrganicKeywords: NA,
		Backlinks:       NA,
		PaidTraffic:     NA,
	}
}

// Semrush queries an SEO authority index speaking a semicolon-tabular
// format: line 1 is the header, line 2 (if present) the single data row.
type Semrush struct {
	exec     *httpcall.Executor
	endpoint string
	key      string
}

// NewSemrush returns an authority adapter calling endpoint with key.
func NewSemrush(exec *httpcall.Executor, endpoint, key string) *Semrush {
	return &Semrush{exec: exec, endpoint: endpoint, key: key}
}

// Lookup gathers the three authority reports for domain. Every field
// defaults to NA; a failed or empty report only blanks its own fields.
func (s *Semrush) Lookup(ctx context.Context, domain string) AuthoritySnapshot {
	snap := DefaultAuthority()

	ranks := s.report(ctx, domain, reportRanks)
	pick(ranks, colAuthorityScore, &snap.AuthorityScore)
	pick(ranks, colOrganicTraffic, &snap.OrganicTraffic)
	pick(ranks, colOrganicKeywords, &snap.OrganicKeywords)

	backlinks := s.report(ctx, domain, reportBacklinks)
	pick(backlinks, colBacklinks, &snap.Backlinks)

	adwords := s.report(ctx, domain, reportAdwords)
	pick(adwords, paidTrafficColumn, &snap.PaidTraffic)

	return snap
}

// report fetches one tabular report and returns its single data row as a
// column→value map. Failures and empty results both come back as an empty
// map; the caller cannot tell them apart and does not need to.
func (s *Semrush) report(ctx context.Context, domain, reportType string) map[string]string {
	q := url.Values{}
	q.Set("key", s.key)
	q.Set("type", reportType)
	q.Set("export", "api")
	switch reportType {
	case reportBacklinks:
		q.Set("target", domain)
		q.Set("target_type", "root_domain")
	default:
		q.Set("domain", domain)
		q.Set("display_limit", "1")
	}

	resp, err := s.exec.Get(ctx, s.endpoint+"?"+q.Encode())
	if err != nil {
		slog.Warn("source: authority report failed",
			"domain", domain, "report", reportType, "err", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("source: authority report read failed",
			"domain", domain, "report", reportType, "err", err)
		return nil
	}
	return parseReport(string(body))
}

// parseReport splits a semicolon-tabular payload into a column→value map.
// Fewer than two lines means an empty result for the query.
func parseReport(body string) map[string]string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) < 2 {
		return nil
	}
	keys := strings.Split(strings.TrimRight(lines[0], "\r"), ";")
	values := strings.Split(strings.TrimRight(lines[1], "\r"), ";")

	row := make(map[string]string, len(keys))
	for i, k := range keys {
		if i >= len(values) {
			break
		}
		row[k] = values[i]
	}
	return row
}

// pick copies row[key] into dst when present and non-empty.
func pick(row map[string]string, key string, dst *string) {
	if v, ok := row[key]; ok && v != "" {
		*dst = v
	}
}
