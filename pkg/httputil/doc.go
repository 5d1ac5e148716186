// Package httputil holds retry helpers shared by API clients.
//
// [Retry] re-runs a call while it fails with a [RetryableError], doubling
// the delay between attempts. A RetryableError may carry the server's
// Retry-After, which replaces the computed delay for that attempt.
package httputil
