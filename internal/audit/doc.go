// Package audit orchestrates the per-domain enrichment pipeline and the
// sequential batch driver around it.
//
// A Pipeline runs one domain through directory lookup, authority lookup,
// reachability probing, the two lab measurements and scoring, all under a
// single wall-clock budget, and always produces exactly one Outcome whose
// Record carries every column of the fixed output schema. Directory and
// authority failures degrade; probe and lab failures collapse the
// performance columns to the canonical failure values; a budget overrun or
// a panic substitutes the canonical timeout or error record wholesale,
// never a partial merge.
//
// The Driver walks the domain list strictly sequentially, isolates each
// domain's failures, and accumulates outcomes in a Results value.
package audit
