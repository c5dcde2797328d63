package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sitepulse/sitepulse/internal/input"
)

func TestDriver_OneRowPerDomain(t *testing.T) {
	f := newFakeProviders()
	defer f.srv.Close()

	domains := []input.Domain{
		{Domain: "acme.com"},
		{Domain: "globex.com"},
		{Domain: "initech.com"},
	}

	res := NewDriver(f.pipeline(time.Minute)).Run(context.Background(), domains)

	if res.Len() != len(domains) {
		t.Fatalf("Len() = %d, want %d", res.Len(), len(domains))
	}
	rows := res.Rows()
	for i, d := range domains {
		if rows[i]["shortname"] != d.Domain {
			t.Errorf("rows[%d] shortname = %q, want %q (input order preserved)",
				i, rows[i]["shortname"], d.Domain)
		}
		assertSchemaComplete(t, rows[i])
	}
	if got := res.Count(StatusOK); got != len(domains) {
		t.Errorf("Count(ok) = %d, want %d", got, len(domains))
	}
}

func TestDriver_FailureIsolation(t *testing.T) {
	f := newFakeProviders()
	defer f.srv.Close()

	// A nil authority adapter makes every pipeline run panic internally;
	// the batch must still yield one canonical error record per domain.
	p := f.pipeline(time.Minute)
	p.authority = nil

	domains := []input.Domain{{Domain: "a.com"}, {Domain: "b.com"}}
	res := NewDriver(p).Run(context.Background(), domains)

	if res.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (batch never aborts)", res.Len())
	}
	if got := res.Count(StatusFailed); got != 2 {
		t.Errorf("Count(failed) = %d, want 2", got)
	}
	for _, rec := range res.Rows() {
		assertSchemaComplete(t, rec)
		if !strings.HasPrefix(rec["issues"], "Processing error:") {
			t.Errorf("issues = %q, want error marker", rec["issues"])
		}
	}
}

func TestDriver_NilPipelineRecovered(t *testing.T) {
	// The driver boundary itself must also hold: even a panic before the
	// pipeline's own recovery yields an error record, not a crash.
	dr := NewDriver(nil)
	res := dr.Run(context.Background(), []input.Domain{{Domain: "a.com"}})

	if res.Len() != 1 || res.Count(StatusFailed) != 1 {
		t.Fatalf("results = %d rows, %d failed; want 1/1", res.Len(), res.Count(StatusFailed))
	}
}

func TestResults_Counters(t *testing.T) {
	res := NewResults()
	res.Add(Outcome{Status: StatusOK, Record: NewRecord(input.Domain{Domain: "a.com"})})
	res.Add(Outcome{Status: StatusDegraded, Record: NewRecord(input.Domain{Domain: "b.com"})})
	res.Add(Outcome{Status: StatusDegraded, Record: NewRecord(input.Domain{Domain: "c.com"})})

	if res.Count(StatusOK) != 1 || res.Count(StatusDegraded) != 2 || res.Count(StatusTimedOut) != 0 {
		t.Errorf("counts = ok:%d degraded:%d timed_out:%d",
			res.Count(StatusOK), res.Count(StatusDegraded), res.Count(StatusTimedOut))
	}
}
