package audit

import (
	"fmt"
	"time"

	"github.com/sitepulse/sitepulse/internal/compute"
	"github.com/sitepulse/sitepulse/internal/input"
	"github.com/sitepulse/sitepulse/internal/source"
)

// Columns is the fixed output schema, in column order. Every Record carries
// every one of these keys for every outcome; missing data is the "n/a"
// sentinel (classification columns use "unavailable"), never an absent key.
var Columns = []string{
	"shortname", "website", "region", "rating_google", "reviews",
	"field_lcp", "field_cls", "field_inp", "field_fcp",
	"field_speed_problem", "field_ux_problem", "perf_score", "issues", "category",
	"accessibility", "best_practices", "seo",
	"concatenated_reviews", "title",
	"mobile", "mobile_lcp", "mobile_cls", "mobile_inp",
	"desktop", "desktop_lcp", "desktop_cls", "desktop_inp",
	"lab_speed_problem", "lab_ux_problem",
	"fh_score", "rating",
	"img_sav_kb", "js_sav_kb", "css_sav_kb",
	"photo_url", "fh_site", "account_tier", "latitude", "longitude",
	"sem_authority_score", "sem_organic_traffic", "sem_organic_keywords",
	"sem_backlinks", "paid_traffic_est",
}

// classificationColumns default to compute.Unavailable instead of the data
// sentinel so a reader can tell "no classification input" from "no data".
var classificationColumns = map[string]bool{
	"field_speed_problem": true,
	"field_ux_problem":    true,
	"lab_speed_problem":   true,
	"lab_ux_problem":      true,
}

// Record is one output row, keyed by column name.
type Record map[string]string

// NewRecord is the canonical factory every success and failure path builds
// on: all columns present, sentinel-filled, with the domain's pass-through
// metadata and constructed website URL already set.
func NewRecord(d input.Domain) Record {
	rec := make(Record, len(Columns))
	for _, c := range Columns {
		if classificationColumns[c] {
			rec[c] = compute.Unavailable
		} else {
			rec[c] = source.NA
		}
	}
	rec["shortname"] = d.Domain
	rec["website"] = "https://" + d.Domain
	rec["region"] = orNA(d.Region)
	rec["fh_site"] = orNA(d.Site)
	rec["account_tier"] = orNA(d.Tier)
	return rec
}

// TimeoutRecord is the canonical record substituted when a domain's
// pipeline exceeds its wall-clock budget. Work in progress is discarded;
// nothing from completed states is merged in.
func TimeoutRecord(d input.Domain, budget time.Duration) Record {
	rec := NewRecord(d)
	rec["issues"] = fmt.Sprintf("Timed out after %s", budget)
	return rec
}

// ErrorRecord is the canonical record substituted when a domain's pipeline
// fails unexpectedly.
func ErrorRecord(d input.Domain, reason string) Record {
	rec := NewRecord(d)
	rec["issues"] = "Processing error: " + reason
	return rec
}

// Row returns the record's values in Columns order.
func (r Record) Row() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = r[c]
	}
	return out
}

// Status tags how a domain's pipeline concluded.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusTimedOut Status = "timed_out"
	StatusFailed   Status = "failed"
)

// Outcome pairs a status with the complete record it produced. Every
// status, including TimedOut and Failed, carries a schema-complete Record.
type Outcome struct {
	Status Status
	Record Record
}

func orNA(s string) string {
	if s == "" {
		return source.NA
	}
	return s
}
