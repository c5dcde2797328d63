// Package probe finds a reachable URL variant for a domain before any lab
// measurement is attempted. It tries the given URL, the scheme-swapped URL,
// the bare host (www stripped) and the forced-www host, in that order, and
// returns the first variant answering with a non-error status. No variant
// answering is a normal outcome, not an error.
//
// The winning response body is also scanned for the page <title>, which the
// merge step reports as the website title column.
package probe

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sitepulse/sitepulse/internal/httpcall"
)

// maxTitleBytes bounds how much of the body is read for title extraction.
const maxTitleBytes = 256 << 10

// Result describes the reachable variant found for a domain.
type Result struct {
	// URL is the variant that answered with a non-error status.
	URL string

	// Title is the page title of the reachable variant, "" when absent.
	Title string
}

// Prober checks URL variants through the shared call executor.
// Reachability checks run with a single-attempt policy: a variant that does
// not answer is simply skipped, and retrying it would only delay the next
// variant.
type Prober struct {
	exec *httpcall.Executor
}

// New returns a Prober issuing checks through exec.
func New(exec *httpcall.Executor) *Prober {
	return &Prober{exec: exec}
}

// Probe returns the first reachable variant of rawURL and true, or a zero
// Result and false when every variant fails. Redirects are followed by the
// underlying client, so a reachable redirect target counts as reachable.
func (p *Prober) Probe(ctx context.Context, rawURL string) (Result, bool) {
	for _, candidate := range Variants(rawURL) {
		resp, err := p.exec.Get(ctx, candidate)
		if err != nil {
			slog.Debug("probe: variant unreachable", "url", candidate, "err", err)
			continue
		}
		title := extractTitle(io.LimitReader(resp.Body, maxTitleBytes))
		resp.Body.Close()
		slog.Debug("probe: variant reachable", "url", candidate)
		return Result{URL: candidate, Title: title}, true
	}
	return Result{}, false
}

// Variants returns the candidate URLs for rawURL in probing order:
// as given, scheme swapped, bare host, forced www. Unparseable input
// yields just the original string so the caller still gets one check.
func Variants(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return []string{rawURL}
	}

	swapped := *u
	if u.Scheme == "https" {
		swapped.Scheme = "http"
	} else {
		swapped.Scheme = "https"
	}

	bare := *u
	bare.Host = strings.TrimPrefix(u.Host, "www.")

	forced := *u
	forced.Host = "www." + bare.Host

	out := []string{rawURL}
	for _, v := range []string{swapped.String(), bare.String(), forced.String()} {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// extractTitle pulls the first <title> text out of an HTML body.
// Returns "" on parse failure or when the document has no title.
func extractTitle(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
