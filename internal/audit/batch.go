package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sitepulse/sitepulse/internal/input"
)

// Driver walks the domain list strictly sequentially. Rate limits on the
// upstream providers are the binding constraint, so nothing is gained by
// overlapping domains.
type Driver struct {
	pipe *Pipeline
}

// NewDriver returns a batch driver over pipe.
func NewDriver(pipe *Pipeline) *Driver {
	return &Driver{pipe: pipe}
}

// Run processes every domain and returns the accumulated results: exactly
// one record per input domain, whatever happened to it. A failure in one
// domain's processing never aborts the batch.
func (dr *Driver) Run(ctx context.Context, domains []input.Domain) *Results {
	res := NewResults()

	for i, d := range domains {
		slog.Info("audit: processing domain",
			"domain", d.Domain, "n", i+1, "total", len(domains))

		out := dr.runOne(ctx, d)
		res.Add(out)

		slog.Info("audit: domain done",
			"domain", d.Domain, "status", out.Status,
			"score", out.Record["fh_score"], "rating", out.Record["rating"])
	}

	slog.Info("audit: batch complete",
		"domains", res.Len(),
		"ok", res.Count(StatusOK),
		"degraded", res.Count(StatusDegraded),
		"timed_out", res.Count(StatusTimedOut),
		"failed", res.Count(StatusFailed))
	return res
}

// runOne is the isolation boundary: any escaped panic becomes the
// canonical error record for this domain only.
func (dr *Driver) runOne(ctx context.Context, d input.Domain) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("audit: unexpected failure", "domain", d.Domain, "panic", r)
			out = Outcome{Status: StatusFailed, Record: ErrorRecord(d, fmt.Sprint(r))}
		}
	}()
	return dr.pipe.Run(ctx, d)
}
