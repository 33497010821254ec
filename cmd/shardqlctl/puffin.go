/*
 * Copyright (c) 2024, shardql authors.
 */
package main

import (
	"fmt"
	"os"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/shardql/shardql/batch"
	"github.com/shardql/shardql/leaf"
	"github.com/shardql/shardql/puffin"
)

// rebuildPuffinIndex reads a msgp-encoded batch.RecordBatch from
// batchPath, builds postings over the configured free-text and
// partition-key columns, and writes the resulting puffin blob to
// outPath. This is the out-of-band "index build" step that makes a
// file servable with row-id pushdown (leaf.selectedRowIDs consumes
// exactly the term blob produced here). showProgress renders a
// column-by-column progress bar on stderr; callers (tests, piped
// output) pass false to keep the run silent.
func rebuildPuffinIndex(batchPath, outPath string, textColumns, partitionColumns []string, showProgress bool) error {
	raw, err := os.ReadFile(batchPath)
	if err != nil {
		return fmt.Errorf("shardqlctl: reading batch file: %w", err)
	}
	rb, _, err := batch.UnmarshalMsg(raw)
	if err != nil {
		return fmt.Errorf("shardqlctl: decoding batch file: %w", err)
	}

	columns := append(append([]string{}, textColumns...), partitionColumns...)
	var bar *mpb.Bar
	var progress *mpb.Progress
	if showProgress && len(columns) > 0 {
		progress = mpb.New(mpb.WithWidth(40))
		bar = progress.AddBar(int64(len(columns)),
			mpb.PrependDecorators(decor.Name("indexing columns")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")))
		defer progress.Wait()
	}

	postings := leaf.Postings{}
	for _, name := range textColumns {
		indexStringColumn(rb, name, postings, false)
		if bar != nil {
			bar.Increment()
		}
	}
	for _, name := range partitionColumns {
		indexStringColumn(rb, name, postings, true)
		if bar != nil {
			bar.Increment()
		}
	}

	dir := puffin.New()
	if err := dir.OpenWrite("segment.term", leaf.EncodePostings(postings)); err != nil {
		return fmt.Errorf("shardqlctl: writing term blob: %w", err)
	}
	encoded, err := dir.ToPuffinBytes()
	if err != nil {
		return fmt.Errorf("shardqlctl: encoding puffin directory: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("shardqlctl: writing puffin file: %w", err)
	}
	return nil
}

// indexStringColumn appends one row-id posting per distinct value in a
// string column. partitionKey formats the term as "field=value" (the
// same convention leaf.selectedRowIDs reads for partition-key equality
// predicates); otherwise the raw value is the term, for free-text
// match-all keyword search.
func indexStringColumn(rb *batch.RecordBatch, column string, postings leaf.Postings, partitionKey bool) {
	for _, col := range rb.Columns {
		if col.Name != column || col.Type != batch.StringType {
			continue
		}
		for row, v := range col.Strings {
			if !col.Valid[row] {
				continue
			}
			term := v
			if partitionKey {
				term = leaf.PartitionKeyTerm(column, v)
			}
			postings[term] = append(postings[term], uint32(row))
		}
		return
	}
}
