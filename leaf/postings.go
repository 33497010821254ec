// Package leaf implements LeafExecutor (spec §4.6): deserializes a plan
// fragment, resolves local files via FileDataCache, optionally prunes
// row IDs through a PuffinDirectory's postings, adapts the result to the
// expected schema, and streams batches back over transport.LeafServer.
/*
 * Copyright (c) 2024, shardql authors.
 */
package leaf

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// Postings maps an indexed term (a free-text match-all keyword, or a
// partition-key equality encoded as "field=value") to the sorted row
// IDs containing it. This is the payload of a puffin "term" blob —
// the spec leaves the inverted-index's own wire format unspecified
// beyond the puffin container, so a minimal concrete format is defined
// here for the row-id pruning step spec §4.6 item 2 requires.
type Postings map[string][]uint32

func EncodePostings(p Postings) []byte {
	out := msgp.AppendMapHeader(nil, uint32(len(p)))
	for term, ids := range p {
		out = msgp.AppendString(out, term)
		out = msgp.AppendArrayHeader(out, uint32(len(ids)))
		for _, id := range ids {
			out = msgp.AppendUint32(out, id)
		}
	}
	return out
}

func DecodePostings(data []byte) (Postings, error) {
	sz, data, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return nil, fmt.Errorf("leaf: reading postings map header: %w", err)
	}
	p := make(Postings, sz)
	for i := uint32(0); i < sz; i++ {
		var term string
		term, data, err = msgp.ReadStringBytes(data)
		if err != nil {
			return nil, fmt.Errorf("leaf: reading postings term: %w", err)
		}
		var n uint32
		n, data, err = msgp.ReadArrayHeaderBytes(data)
		if err != nil {
			return nil, fmt.Errorf("leaf: reading postings list header: %w", err)
		}
		ids := make([]uint32, n)
		for j := range ids {
			ids[j], data, err = msgp.ReadUint32Bytes(data)
			if err != nil {
				return nil, fmt.Errorf("leaf: reading posting entry: %w", err)
			}
		}
		p[term] = ids
	}
	return p, nil
}

// PartitionKeyTerm is the postings key a partition-key equality
// predicate is indexed under, exported so index-building tools (see
// cmd/shardqlctl's "puffin rebuild") use the identical convention the
// leaf's own row pruning reads back.
func PartitionKeyTerm(field, value string) string { return field + "=" + value }
