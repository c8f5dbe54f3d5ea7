package planexec

import "github.com/coldb/joinengine/colpage"

// Attr is one output column of a plan node: the index of the source
// column it projects (interpretation depends on the node kind) and the
// column's declared type.
type Attr struct {
	SourceCol int
	Type      colpage.DataType
}

// Node is one entry of a Plan's node array. Children are referenced by
// integer index into the same Plan, never by pointer, so plans can be
// validated (and are acyclic by construction) before execution begins.
type Node interface {
	outputAttrs() []Attr
}

// ScanNode reads one base table from the plan's catalog and projects a
// subset of its columns, in order, as its output schema.
type ScanNode struct {
	BaseTableID int
	OutputAttrs []Attr
}

func (n *ScanNode) outputAttrs() []Attr { return n.OutputAttrs }

// JoinNode is an equi-hash-join of its two children on a single key
// column each. BuildLeft selects which child is loaded into the hash
// table; the other child is probed. Output column order is always
// left-then-right regardless of BuildLeft: a SourceCol below the left
// child's output column count addresses the left subtree, at or above
// it addresses the right subtree offset by that count.
type JoinNode struct {
	BuildLeft   bool
	Left, Right int
	LeftAttr    int
	RightAttr   int
	OutputAttrs []Attr
}

func (n *JoinNode) outputAttrs() []Attr { return n.OutputAttrs }

// Plan is a tree of nodes referenced by index, with a designated root.
type Plan struct {
	Nodes []Node
	Root  int
}
