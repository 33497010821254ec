// Package tassert provides minimal test-assertion helpers in the idiom of
// the teacher's own tutils/tassert package (see fs/mountfs_test.go), whose
// source was not part of the retrieved example pack.
/*
 * Copyright (c) 2024, shardql authors.
 */
package tassert

import "testing"

// CheckFatal fails and stops the test immediately if err is non-nil.
func CheckFatal(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

// CheckError fails (without stopping) the test if err is non-nil.
func CheckError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

// Errorf fails the test with a formatted message when cond is false.
func Errorf(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// Fatalf fails and stops the test with a formatted message when cond is false.
func Fatalf(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}
