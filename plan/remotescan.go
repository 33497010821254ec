package plan

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/shardql/shardql/meta"
	"github.com/shardql/shardql/query"
)

func init() {
	gob.Register(TableScan{})
	gob.Register(EmptyTableScan{})
	gob.Register(Filter{})
	gob.Register(Project{})
	gob.Register(Aggregate{})
	gob.Register(RemoteScanExec{})
}

// RemoteScanExec replaces a leaf TableScan in the leader-side plan. It
// carries everything LeaderDispatcher needs to fan the query out to the
// assigned partition and everything the leaf needs to execute its copy
// of the plan locally (spec §4.4).
type RemoteScanExec struct {
	// Fragment is the full physical plan, gob-encoded, with this node's
	// original TableScan replaced by an EmptyTableScan placeholder. The
	// leaf's extension codec maps the placeholder to a concrete table
	// built from FileList (spec §4.6 item 1).
	Fragment []byte

	FileList      []meta.FileKey
	PartitionKeys []meta.PartitionKey
	MatchAllKeys  []string
	IsLeader      bool
	Envelope      query.Envelope
}

func (RemoteScanExec) Children() []Node          { return nil }
func (r RemoteScanExec) WithChildren([]Node) Node { return r }

// EncodeFragment gob-encodes root for transport as a RemoteScanExec's
// Fragment. Plan trees here are shardql's own Go types, not a
// cross-language wire format, so the stdlib's gob — built for exactly
// this, serializing a registered set of concrete Go types behind an
// interface — is used directly rather than reaching for a pack library
// (see DESIGN.md).
func EncodeFragment(root Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&root); err != nil {
		return nil, fmt.Errorf("plan: encoding fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFragment reverses EncodeFragment, used by LeafExecutor.
func DecodeFragment(data []byte) (Node, error) {
	var root Node
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, fmt.Errorf("plan: decoding fragment: %w", err)
	}
	return root, nil
}
