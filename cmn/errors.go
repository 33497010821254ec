// Package cmn provides common low-level types and utilities for shardql,
// mirroring the teacher's own cmn package layout.
/*
 * Copyright (c) 2024, shardql authors.
 */
package cmn

import (
	"fmt"
	"os"

	"github.com/shardql/shardql/cmn/nlog"
)

// Error kinds from spec §7. Each is a distinct type so call sites can
// discriminate with errors.As instead of string matching.
type (
	// ErrTransient wraps a retryable failure: object-storage timeout, a
	// leaf RPC disconnect mid-stream. Retried at the call site with capped
	// backoff for pre-warm; surfaced as-is on an interactive query.
	ErrTransient struct{ Cause error }

	// ErrCancelled means the query deadline elapsed or the client
	// dropped; returned to the caller as *ErrCancelled, never retried. No
	// mapping to a ResourcesExhausted status is applied anywhere.
	ErrCancelled struct{ Reason string }

	// ErrInvalid means malformed SQL, an unknown stream, or a bad cache
	// hash; returned as a 4xx-class error, never retried.
	ErrInvalid struct{ Reason string }

	// ErrFatal means schema mismatch or a corrupted puffin footer;
	// returned as a 5xx-class error, never retried.
	ErrFatal struct{ Cause error }
)

func (e *ErrTransient) Error() string { return fmt.Sprintf("transient: %v", e.Cause) }
func (e *ErrTransient) Unwrap() error { return e.Cause }

func (e *ErrCancelled) Error() string { return "cancelled: " + e.Reason }

func (e *ErrInvalid) Error() string { return "invalid: " + e.Reason }

func (e *ErrFatal) Error() string { return fmt.Sprintf("fatal: %v", e.Cause) }
func (e *ErrFatal) Unwrap() error { return e.Cause }

func NewErrTransient(cause error) *ErrTransient { return &ErrTransient{Cause: cause} }
func NewErrCancelled(reason string) *ErrCancelled { return &ErrCancelled{Reason: reason} }
func NewErrInvalid(reason string) *ErrInvalid   { return &ErrInvalid{Reason: reason} }
func NewErrFatal(cause error) *ErrFatal         { return &ErrFatal{Cause: cause} }

// Assert logs a fatal message via nlog.Fatalln, which exits the process,
// when cond is false, matching the
// teacher's cmn.Assert used pervasively across target.go/rebalance.go.
func Assert(cond bool, args ...interface{}) {
	if !cond {
		nlog.Fatalln(append([]interface{}{"assertion failed:"}, args...)...)
	}
}

// AssertNoErr is the teacher's cmn.AssertNoErr: a fatal assertion that an
// error known to be impossible did not occur.
func AssertNoErr(err error) {
	if err != nil {
		nlog.Fatalf("unexpected error: %v", err)
	}
}

// ExitLog logs a fatal startup error and exits, matching teacher's
// cos.ExitLog call sites in target.go's Run().
func ExitLog(args ...interface{}) {
	nlog.Errorln(args...)
	os.Exit(1)
}
