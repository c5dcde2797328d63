// Package httpcall provides the resilient call executor shared by every
// provider adapter. It retries transient failures (connection errors and a
// fixed set of retryable status codes) with exponential backoff, and applies
// a token-bucket pacing delay after every completed attempt so back-to-back
// provider calls never exceed the configured rate.
//
// Errors are classified into *TransientError (retried until the policy is
// exhausted) and *FatalError (returned immediately). Callers that only care
// about the class can use IsTransient.
package httpcall
