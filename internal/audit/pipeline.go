package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sitepulse/sitepulse/internal/compute"
	"github.com/sitepulse/sitepulse/internal/input"
	"github.com/sitepulse/sitepulse/internal/probe"
	"github.com/sitepulse/sitepulse/internal/source"
)

// Pipeline states, in normal progression order.
type state string

const (
	stateDirectory  state = "directory_lookup"
	stateAuthority  state = "authority_lookup"
	stateProbe      state = "accessibility_probe"
	stateLabMobile  state = "lab_measure_mobile"
	stateLabDesktop state = "lab_measure_desktop"
	stateScore      state = "score"
	stateMerge      state = "merge"
)

// Pipeline sequences the adapters and the scoring engine for one domain
// under a wall-clock budget.
type Pipeline struct {
	directory *source.Places
	authority *source.Semrush
	lab       *source.PageSpeed
	prober    *probe.Prober
	budget    time.Duration
}

// NewPipeline wires the adapters into a per-domain pipeline.
func NewPipeline(directory *source.Places, authority *source.Semrush, lab *source.PageSpeed, prober *probe.Prober, budget time.Duration) *Pipeline {
	return &Pipeline{
		directory: directory,
		authority: authority,
		lab:       lab,
		prober:    prober,
		budget:    budget,
	}
}

// Run processes one domain and always returns a schema-complete Outcome.
//
// The sequence runs on its own goroutine so the budget can be enforced by
// a select: on expiry the goroutine is abandoned, not cancelled. An
// in-flight provider call may well run to completion in the background,
// and its eventual result is discarded. The timeout outcome is always the
// canonical timeout record, never a merge of whatever states finished.
func (p *Pipeline) Run(ctx context.Context, d input.Domain) Outcome {
	done := make(chan Outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("audit: pipeline panic", "domain", d.Domain, "panic", r)
				done <- Outcome{Status: StatusFailed, Record: ErrorRecord(d, fmt.Sprint(r))}
			}
		}()
		done <- p.run(ctx, d)
	}()

	timer := time.NewTimer(p.budget)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
		slog.Warn("audit: domain timed out, abandoning pipeline",
			"domain", d.Domain, "budget", p.budget)
		return Outcome{Status: StatusTimedOut, Record: TimeoutRecord(d, p.budget)}
	}
}

// pipelineData accumulates the snapshots the merge step consumes.
type pipelineData struct {
	business  source.BusinessSnapshot
	authority source.AuthoritySnapshot
	probe     probe.Result
	reachable bool

	mobile  *source.PerformanceSample
	desktop *source.PerformanceSample
	score   *compute.Score
}

// run walks the state machine to completion. Transitions:
// directory and authority failures degrade and continue; a failed probe or
// lab measurement short-circuits to merge with the lab samples cleared, so
// the performance columns collapse to the canonical failure values.
func (p *Pipeline) run(ctx context.Context, d input.Domain) Outcome {
	data := &pipelineData{}
	degraded := false

	for st := stateDirectory; st != stateMerge; {
		slog.Debug("audit: state", "domain", d.Domain, "state", st)

		switch st {
		case stateDirectory:
			data.business = p.directory.Lookup(ctx, d.Domain)
			if !data.business.Found {
				degraded = true
			}
			st = stateAuthority

		case stateAuthority:
			data.authority = p.authority.Lookup(ctx, d.Domain)
			st = stateProbe

		case stateProbe:
			data.probe, data.reachable = p.prober.Probe(ctx, "https://"+d.Domain)
			if !data.reachable {
				slog.Warn("audit: no reachable URL variant", "domain", d.Domain)
				degraded = true
				st = stateMerge
				continue
			}
			st = stateLabMobile

		case stateLabMobile:
			sample, err := p.lab.Measure(ctx, data.probe.URL, source.StrategyMobile)
			if err != nil {
				slog.Warn("audit: mobile lab measurement failed",
					"domain", d.Domain, "err", err)
				degraded = true
				st = stateMerge
				continue
			}
			data.mobile = sample
			st = stateLabDesktop

		case stateLabDesktop:
			sample, err := p.lab.Measure(ctx, data.probe.URL, source.StrategyDesktop)
			if err != nil {
				slog.Warn("audit: desktop lab measurement failed",
					"domain", d.Domain, "err", err)
				degraded = true
				data.mobile = nil // no partial merge between strategies
				st = stateMerge
				continue
			}
			data.desktop = sample
			st = stateScore

		case stateScore:
			score := compute.Compose(data.mobile, data.desktop)
			data.score = &score
			st = stateMerge
		}
	}

	status := StatusOK
	if degraded {
		status = StatusDegraded
	}
	return Outcome{Status: status, Record: merge(d, data)}
}

// merge folds every collected snapshot into one schema-complete record.
// It starts from the canonical default record, so states that never ran
// leave their columns at the sentinel values.
func merge(d input.Domain, data *pipelineData) Record {
	rec := NewRecord(d)

	if data.reachable {
		rec["website"] = data.probe.URL
	}
	// title is the page title the prober captured, never the business name.
	if data.probe.Title != "" {
		rec["title"] = data.probe.Title
	}

	biz := data.business
	if biz.Found {
		rec["rating_google"] = biz.Rating
		rec["reviews"] = biz.ReviewCount
		rec["concatenated_reviews"] = biz.ConcatenatedReviews
		rec["category"] = biz.Category
		rec["latitude"] = biz.Latitude
		rec["longitude"] = biz.Longitude
	}
	rec["photo_url"] = biz.PhotoURL

	auth := data.authority
	rec["sem_authority_score"] = auth.AuthorityScore
	rec["sem_organic_traffic"] = auth.OrganicTraffic
	rec["sem_organic_keywords"] = auth.OrganicKeywords
	rec["sem_backlinks"] = auth.Backlinks
	rec["paid_traffic_est"] = auth.PaidTraffic

	// Performance columns only when both strategies succeeded.
	if m, dk := data.mobile, data.desktop; m != nil && dk != nil {
		rec["mobile"] = m.Performance
		rec["mobile_lcp"] = m.LabLCP
		rec["mobile_cls"] = m.LabCLS
		rec["mobile_inp"] = m.LabINP
		rec["desktop"] = dk.Performance
		rec["desktop_lcp"] = dk.LabLCP
		rec["desktop_cls"] = dk.LabCLS
		rec["desktop_inp"] = dk.LabINP

		rec["accessibility"] = m.Accessibility
		rec["best_practices"] = m.BestPractices
		rec["seo"] = m.SEO

		rec["field_lcp"] = m.FieldLCP
		rec["field_cls"] = m.FieldCLS
		rec["field_inp"] = m.FieldINP
		rec["field_fcp"] = m.FieldFCP

		rec["img_sav_kb"] = m.ImgSavingsKB
		rec["js_sav_kb"] = m.JSSavingsKB
		rec["css_sav_kb"] = m.CSSSavingsKB

		rec["lab_speed_problem"] = compute.LabSpeed(m.Performance)
		rec["lab_ux_problem"] = compute.UXRisk(m.LabCLS, m.LabINP)
		rec["field_speed_problem"] = compute.FieldSpeed(m.FieldLCP)
		rec["field_ux_problem"] = compute.UXRisk(m.FieldCLS, m.FieldINP)
	}

	if s := data.score; s != nil {
		rec["perf_score"] = strconv.FormatFloat(s.Base, 'f', 1, 64)
		rec["fh_score"] = strconv.Itoa(s.Final)
		rec["rating"] = s.Rating
		rec["issues"] = s.IssueSummary()
	}

	return rec
}
