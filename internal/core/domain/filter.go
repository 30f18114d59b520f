package domain

import (
	"fmt"
	"strings"
)

// FilterField names the structured index fields a filter may reference.
// Free-text content is intentionally not representable here: scoping by
// content would make "project 225" match any document mentioning "225mm".
type FilterField string

const (
	FieldFolder      FilterField = "folder"
	FieldProjectName FilterField = "project_name"
	FieldYear        FilterField = "year"
)

// FilterNode is a boolean scoping expression over structured index fields.
// The tree is engine-agnostic; the search adapter serializes it to the
// engine's filter grammar at the retrieval boundary. String() renders a
// canonical diagnostic form carried on the Answer.
type FilterNode interface {
	filterNode()
	String() string
}

// AndFilter matches when every child matches.
type AndFilter struct {
	Nodes []FilterNode
}

// OrFilter matches when any child matches.
type OrFilter struct {
	Nodes []FilterNode
}

// TermMatchFilter matches documents whose field contains any of the given
// whole terms (token-level match, not substring).
type TermMatchFilter struct {
	Field FilterField
	Terms []string
}

// EqualsFilter matches an exact field value.
type EqualsFilter struct {
	Field FilterField
	Value string
}

// PrefixFilter matches field values starting with Prefix.
type PrefixFilter struct {
	Field  FilterField
	Prefix string
}

// RangeFilter is a half-open lexical range: GE <= value < LT. Used to scope
// folder paths to one year bucket, e.g. >= "Projects/221/" and < "Projects/222/".
type RangeFilter struct {
	Field FilterField
	GE    string
	LT    string
}

func (AndFilter) filterNode()       {}
func (OrFilter) filterNode()        {}
func (TermMatchFilter) filterNode() {}
func (EqualsFilter) filterNode()    {}
func (PrefixFilter) filterNode()    {}
func (RangeFilter) filterNode()     {}

func (f AndFilter) String() string { return joinFilterNodes("and", f.Nodes) }
func (f OrFilter) String() string  { return joinFilterNodes("or", f.Nodes) }

func (f TermMatchFilter) String() string {
	return fmt.Sprintf("%s in(%s)", f.Field, strings.Join(f.Terms, "|"))
}

func (f EqualsFilter) String() string {
	return fmt.Sprintf("%s == %q", f.Field, f.Value)
}

func (f PrefixFilter) String() string {
	return fmt.Sprintf("%s startswith %q", f.Field, f.Prefix)
}

func (f RangeFilter) String() string {
	return fmt.Sprintf("%s in [%q, %q)", f.Field, f.GE, f.LT)
}

func joinFilterNodes(op string, nodes []FilterNode) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

// FilterString renders a possibly-nil filter for diagnostics.
func FilterString(node FilterNode) string {
	if node == nil {
		return ""
	}
	return node.String()
}

// WalkFilter visits every node in the tree, depth first.
func WalkFilter(node FilterNode, visit func(FilterNode)) {
	if node == nil {
		return
	}
	visit(node)
	switch n := node.(type) {
	case AndFilter:
		for _, child := range n.Nodes {
			WalkFilter(child, visit)
		}
	case OrFilter:
		for _, child := range n.Nodes {
			WalkFilter(child, visit)
		}
	}
}
