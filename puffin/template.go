package puffin

import "strings"

// allowedExt is the set of tantivy segment file extensions Directory
// packs into a puffin object (spec §4.2): the id is recoverable from
// doc ids and term postings, full-text content is not needed.
var allowedExt = map[string]bool{
	"term": true,
	"idx":  true,
	"pos":  true,
}

const metaJSONName = "meta.json"

func isAllowed(name string) bool {
	if name == metaJSONName {
		return true
	}
	ext := strings.TrimPrefix(extOf(name), ".")
	return allowedExt[ext]
}

func extOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i:]
}

func stem(name string) string {
	ext := extOf(name)
	return strings.TrimSuffix(name, ext)
}

// emptyIndexTemplate holds the canonical placeholder bytes for a
// zero-document segment, keyed by extension (including the bare
// "meta.json" name). A directory missing one of these files after
// filtering by allowed extension gets it padded in at
// to_puffin_bytes time, rewritten against the real segment_id, so a
// reader never faults on a missing mandatory file (spec §4.2, S6).
var emptyIndexTemplate = map[string][]byte{
	"term":      []byte{},
	"idx":       []byte{},
	"pos":       []byte{},
	metaJSONName: []byte(`{"segment_id":"empty","max_doc":0,"deletes":null}`),
}

// templateFileNames returns the canonical empty-index file names
// (e.g. "empty.term") rewritten to segmentID.
func templateFileNames(segmentID string) map[string]string {
	out := make(map[string]string, len(emptyIndexTemplate))
	for name := range emptyIndexTemplate {
		if name == metaJSONName {
			out[name] = metaJSONName
			continue
		}
		out[name] = segmentID + "." + name
	}
	return out
}
