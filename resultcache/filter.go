package resultcache

import (
	"fmt"
	"strconv"
	"time"
)

// payload is the cached response body's minimal shape.
type payload struct {
	Hits []map[string]interface{} `json:"hits"`
}

// decodePayload parses a cached JSON blob into its row set.
func decodePayload(raw []byte) (payload, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return payload{}, fmt.Errorf("resultcache: decoding cached payload: %w", err)
	}
	return p, nil
}

func encodePayload(p payload) ([]byte, error) {
	return json.Marshal(struct {
		Hits []map[string]interface{} `json:"hits"`
	}{Hits: p.Hits})
}

// rowTimestamp extracts column's value from row as micros, accepting
// either an RFC3339 string or a numeric (integer micros) encoding (spec
// §4.3: "read the result_ts_column value (string RFC3339 or integer
// micros)").
func rowTimestamp(row map[string]interface{}, column string) (int64, bool) {
	v, ok := row[column]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMicro(), true
		}
	}
	return 0, false
}

// filterRemovedHits drops every row whose result_ts_column value falls
// inside [d.Start, d.End), in place on p's row slice (spec §4.3, §8
// property 3 and S3).
func filterRemovedHits(p payload, column string, d Delta) payload {
	if !d.RemovedHits {
		return p
	}
	kept := p.Hits[:0]
	for _, row := range p.Hits {
		ts, ok := rowTimestamp(row, column)
		if ok && ts >= d.Start && ts < d.End {
			continue
		}
		kept = append(kept, row)
	}
	p.Hits = kept
	return p
}
