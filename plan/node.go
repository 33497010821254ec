// Package plan implements PlanBuilder and the RemoteScanRewriter
// (spec §4.4): a bottom-up tree rewrite that wraps the first table scan
// it finds (and any scan equal to it) with a RemoteScanExec carrying
// everything a leaf needs to execute its partition independently. Other,
// distinct table scans in the same plan are left in place.
/*
 * Copyright (c) 2024, shardql authors.
 */
package plan

// Node is a physical plan node. The dataframe engine that actually
// produces these trees (filter/project/aggregate/sort operators) is an
// out-of-scope external collaborator (spec §4.4: "any equivalent is
// acceptable"); Node is the minimal shape the rewriter needs to walk and
// the leaf needs to re-execute.
type Node interface {
	Children() []Node
	// WithChildren returns a copy of this node with its children
	// replaced, used to rebuild the tree bottom-up after rewriting.
	WithChildren(children []Node) Node
}

// TableScan is a leaf node reading a named stream/table. RemoteScanRewriter
// replaces the first TableScan it finds, and any TableScan equal to it,
// with a RemoteScanExec; other distinct TableScans are not replaced.
type TableScan struct {
	Table string
}

func (TableScan) Children() []Node                { return nil }
func (s TableScan) WithChildren([]Node) Node       { return s }

// EmptyTableScan is the placeholder a leaf's plan-fragment codec maps to
// a concrete in-memory table populated from the file list (spec §4.6
// item 1).
type EmptyTableScan struct {
	Table string
}

func (EmptyTableScan) Children() []Node          { return nil }
func (s EmptyTableScan) WithChildren([]Node) Node { return s }

// Filter, Project, and Aggregate are generic unary operators sufficient
// to exercise bottom-up rewriting and schema-adaptation without
// depending on a concrete dataframe engine's own plan types.
type Filter struct {
	Child     Node
	Predicate string
}

func (f Filter) Children() []Node { return []Node{f.Child} }
func (f Filter) WithChildren(c []Node) Node {
	f.Child = c[0]
	return f
}

type Project struct {
	Child   Node
	Columns []string
}

func (p Project) Children() []Node { return []Node{p.Child} }
func (p Project) WithChildren(c []Node) Node {
	p.Child = c[0]
	return p
}

type Aggregate struct {
	Child   Node
	GroupBy []string
}

func (a Aggregate) Children() []Node { return []Node{a.Child} }
func (a Aggregate) WithChildren(c []Node) Node {
	a.Child = c[0]
	return a
}

// walkBottomUp rewrites every node in post-order: children first, then
// the node itself, via fn. fn may return a different node (e.g.
// replacing a TableScan with a RemoteScanExec).
func walkBottomUp(n Node, fn func(Node) Node) Node {
	children := n.Children()
	if len(children) > 0 {
		newChildren := make([]Node, len(children))
		for i, c := range children {
			newChildren[i] = walkBottomUp(c, fn)
		}
		n = n.WithChildren(newChildren)
	}
	return fn(n)
}
