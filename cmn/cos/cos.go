// Package cos provides common OS/process helpers shared across shardql,
// narrowly reproducing the subset of the teacher's own "cos" package that
// this repo's components actually call.
/*
 * Copyright (c) 2024, shardql authors.
 */
package cos

import (
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/shardql/shardql/cmn/nlog"
)

// GenUUID returns a new random identifier, used for trace IDs, xaction
// UUIDs, and query fingorint disambiguation.
func GenUUID() string { return uuid.NewString() }

// IsParseBool mirrors the teacher's tolerant query-param boolean parsing.
func IsParseBool(s string) bool {
	if s == "" {
		return false
	}
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

// Runner is implemented by long-lived background components that the
// daemon's run-group supervises, matching the teacher's cos.Runner.
type Runner interface {
	Run() error
	Name() string
}

// Close logs (rather than panics on) a deferred Close() error, matching
// the teacher's cos.Close helper used throughout target.go.
func Close(c io.Closer) {
	if err := c.Close(); err != nil {
		nlog.Warningf("close: %v", err)
	}
}

// ExitLog logs a fatal startup error and terminates the process, matching
// the teacher's cos.ExitLog used for unrecoverable init failures.
func ExitLog(args ...interface{}) {
	nlog.Errorln(args...)
	os.Exit(1)
}
