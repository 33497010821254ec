package query

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Descriptor is the minimal view of a parsed SQL request needed to derive
// a ResultCache fingerprint (spec §4.3). The SQL parser itself is an
// out-of-scope external collaborator; shardql consumes its already-
// normalized output.
type Descriptor struct {
	// NormalizedSQL is the request text after the rewrite that guarantees
	// the timestamp column appears in non-aggregate projections.
	NormalizedSQL string
	IsAggregate   bool
	// HistogramInterval is non-empty when the query contains a detected
	// histogram/date_bin bucketing interval (e.g. "5m").
	HistogramInterval string
	ResultTSColumn    string
}

// Fingerprint derives the stable cache key for d: a hash of the
// normalized SQL and the aggregate flag, further suffixed with
// "{interval}_{result_ts_col}" when a histogram interval was detected
// (spec §4.3).
func Fingerprint(d Descriptor) string {
	h := xxhash.New()
	_, _ = h.WriteString(strings.TrimSpace(d.NormalizedSQL))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatBool(d.IsAggregate))
	fp := strconv.FormatUint(h.Sum64(), 16)
	if d.HistogramInterval != "" {
		fp = fp + "_" + d.HistogramInterval + "_" + d.ResultTSColumn
	}
	return fp
}
