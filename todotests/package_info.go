// Package todotests contains the Todo service contract tests themselves and
// their supporting API.
//
// Harness infrastructure that is not specific to the Todo domain, such as
// test contexts, filters, and results reporting, is in the lower-level
// framework package; the HTTP and WebSocket clients for talking to the
// service under test are in the client and notifications packages.
package todotests
