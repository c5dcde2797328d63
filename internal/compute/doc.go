// Package compute derives the composite digital-health score and the
// qualitative risk classifications from a pair of lab performance samples
// (mobile and desktop). Everything here is a pure function of its inputs:
// no network, no clock, no state.
//
// The scoring weights and their evaluation order are load-bearing;
// downstream consumers depend on the existing score scale. Do not rebalance
// them.
package compute
