package puffin

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/tinylib/msgp/msgp"
)

// Directory is PuffinDirectory: a RAM-backed virtual file directory
// reconstituted from (or serialized into) a single puffin object.
// Reference-shared between the reader that opens it and the query
// scanning through it (spec §3); path-set mutation is guarded by an
// RWMutex since the directory is read-mostly after construction.
type Directory struct {
	mu    sync.RWMutex
	files map[string][]byte
	paths map[string]struct{}
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{files: make(map[string][]byte), paths: make(map[string]struct{})}
}

func (d *Directory) addPath(path string) {
	d.paths[path] = struct{}{}
}

// OpenWrite stores data under path, recording it in the path set.
func (d *Directory) OpenWrite(path string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[path] = data
	d.addPath(path)
	return nil
}

// AtomicWrite is equivalent to OpenWrite for the in-memory directory;
// there is no partial-write state to guard against.
func (d *Directory) AtomicWrite(path string, data []byte) error {
	return d.OpenWrite(path, data)
}

// OpenRead returns path's bytes, or ok=false if it isn't present.
func (d *Directory) OpenRead(path string) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.files[path]
	return b, ok
}

func (d *Directory) AtomicRead(path string) ([]byte, bool) { return d.OpenRead(path) }

func (d *Directory) Exists(path string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[path]
	return ok
}

func (d *Directory) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	delete(d.paths, path)
	return nil
}

// Sync is a no-op: the directory lives entirely in memory.
func (d *Directory) Sync() error { return nil }

// ListFiles returns every path currently tracked, in no particular
// order (mirrors the original's HashSet-backed file_paths).
func (d *Directory) ListFiles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.paths))
	for p := range d.paths {
		out = append(out, p)
	}
	return out
}

// ToPuffinBytes serializes the directory into a single puffin object
// (spec §4.2): filter by allowed extension, derive segment_id from the
// first non-JSON file's stem, then pad in any empty-index-template file
// (rewritten against segment_id) not already present.
func (d *Directory) ToPuffinBytes() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var segmentID string
	allowed := make(map[string][]byte)
	for path := range d.paths {
		if !isAllowed(path) {
			continue
		}
		allowed[path] = d.files[path]
		if segmentID == "" && path != metaJSONName {
			segmentID = stem(path)
		}
	}

	for tmplName, data := range emptyIndexTemplate {
		target := tmplName
		if tmplName != metaJSONName {
			target = segmentID + "." + tmplName
		}
		if _, present := allowed[target]; !present {
			allowed[target] = data
		}
	}

	var payload []byte
	metas := make([]blobMeta, 0, len(allowed))
	for name, data := range allowed {
		metas = append(metas, blobMeta{
			Offset:   uint64(len(payload)),
			Length:   uint64(len(data)),
			FileName: name,
			Version:  IndexVersion,
		})
		payload = append(payload, data...)
	}

	footer := msgp.AppendArrayHeader(nil, uint32(len(metas)))
	for i := range metas {
		footer = metas[i].appendMsg(footer)
	}

	out := append(payload, footer...)
	out = appendFooterLen(out, uint64(len(footer)))
	out = append(out, magic[:]...)
	return out, nil
}

// FromBytes parses a puffin object's footer and loads every blob whose
// file_name property is set into a fresh RAM-backed Directory (spec
// §4.2 from_bytes).
func FromBytes(data []byte) (*Directory, error) {
	if len(data) < 12 || string(data[len(data)-4:]) != string(magic[:]) {
		return nil, fmt.Errorf("puffin: missing trailing magic, corrupted footer")
	}
	footerLen := binary.LittleEndian.Uint64(data[len(data)-12 : len(data)-4])
	if uint64(len(data)) < footerLen+12 {
		return nil, fmt.Errorf("puffin: footer length exceeds object size, corrupted footer")
	}
	payloadEnd := uint64(len(data)) - 12 - footerLen
	footer := data[payloadEnd : payloadEnd+footerLen]
	payload := data[:payloadEnd]

	n, footer, err := msgp.ReadArrayHeaderBytes(footer)
	if err != nil {
		return nil, fmt.Errorf("puffin: reading footer array: %w", err)
	}

	dir := New()
	for i := uint32(0); i < n; i++ {
		var m blobMeta
		m, footer, err = readBlobMeta(footer)
		if err != nil {
			return nil, fmt.Errorf("puffin: reading blob meta %d: %w", i, err)
		}
		if m.Offset+m.Length > uint64(len(payload)) {
			return nil, fmt.Errorf("puffin: blob %q out of bounds, corrupted footer", m.FileName)
		}
		blob := payload[m.Offset : m.Offset+m.Length]
		if m.FileName == "" {
			continue
		}
		if err := dir.OpenWrite(m.FileName, blob); err != nil {
			return nil, err
		}
	}
	return dir, nil
}
