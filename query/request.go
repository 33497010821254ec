// Package query holds the request envelope and fingerprinting logic
// shared between the plan builder, the leader dispatcher, and the leaf
// executor.
/*
 * Copyright (c) 2024, shardql authors.
 */
package query

import (
	"time"

	"github.com/shardql/shardql/meta"
)

// Envelope is the request-scoped context threaded through every
// RemoteScan fragment, re-sent verbatim on every hop including nested
// super-cluster rewrites (spec §4.4 supplement, grounded on
// distributed_plan/remote_scan.rs in original_source).
type Envelope struct {
	TraceID         string
	Org             string
	StreamType      string
	StartTime       int64 // micros
	EndTime         int64 // micros
	Timeout         time.Duration
	WorkGroup       string
	User            string
	SearchEventType string
}

// FlightRequest is the wire-level request sent from leader to leaf (or
// leader to super-cluster peer) over the transport package's streaming
// RPC (spec §3, §6).
type FlightRequest struct {
	Envelope Envelope

	Partition      int
	Plan           []byte // opaque serialized physical-plan fragment
	FileList       []meta.FileKey
	PartitionKeys  []meta.PartitionKey
	MatchAllKeys   []string
	IsLeader       bool
}
