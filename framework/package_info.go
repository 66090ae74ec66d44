// Package framework contains the low-level test harness infrastructure that
// is not specific to the Todo service: a notion of a test context similar to
// Go's *testing.T (test identifiers, subtests, success/failure accumulation,
// debug log capture), regex-based run/skip filters, results reporting, and a
// fan-out runner for checks that race several concurrent actors against a
// shared resource.
//
// The domain-specific code that knows what is being tested lives in the
// todotests package, which builds its own test API on top of this one.
package framework
