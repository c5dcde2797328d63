// Package source provides the provider adapters feeding the audit pipeline:
// a business directory (reputation, reviews, geo), a performance lab
// (lab + field web vitals, savings estimates) and an SEO authority index.
//
// Each adapter normalizes one provider's response into a partial snapshot.
// Missing upstream data is never an error: every absent field is reported as
// the sentinel "n/a" so the merge step always sees a complete snapshot. The
// directory and authority adapters degrade to defaults on any failure; the
// performance lab instead reports failure to the caller, because a partial
// lab result (one strategy without the other) must never be merged.
//
// All calls go through the shared httpcall.Executor, which owns retry,
// backoff and pacing.
package source
