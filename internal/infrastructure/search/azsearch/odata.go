package azsearch

import (
	"fmt"
	"strings"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// serializeFilter renders the engine-agnostic filter tree as an OData $filter
// expression. The tree only carries structured fields, so the output can never
// scope on document content.
func serializeFilter(node domain.FilterNode) (string, error) {
	if node == nil {
		return "", nil
	}

	switch n := node.(type) {
	case domain.AndFilter:
		return serializeJoin(n.Nodes, "and")
	case domain.OrFilter:
		return serializeJoin(n.Nodes, "or")
	case domain.TermMatchFilter:
		if len(n.Terms) == 0 {
			return "", fmt.Errorf("term match on %s has no terms", n.Field)
		}
		escaped := make([]string, 0, len(n.Terms))
		for _, term := range n.Terms {
			escaped = append(escaped, escapeODataString(term))
		}
		return fmt.Sprintf("search.ismatch('%s', '%s', 'simple', 'any')",
			strings.Join(escaped, "|"), n.Field), nil
	case domain.EqualsFilter:
		return fmt.Sprintf("%s eq '%s'", n.Field, escapeODataString(n.Value)), nil
	case domain.PrefixFilter:
		return fmt.Sprintf("search.ismatch('%s*', '%s', 'full', 'any')",
			escapeLuceneTerm(n.Prefix), n.Field), nil
	case domain.RangeFilter:
		return fmt.Sprintf("(%s ge '%s' and %s lt '%s')",
			n.Field, escapeODataString(n.GE), n.Field, escapeODataString(n.LT)), nil
	default:
		return "", fmt.Errorf("unsupported filter node %T", node)
	}
}

func serializeJoin(nodes []domain.FilterNode, op string) (string, error) {
	if len(nodes) == 0 {
		return "", fmt.Errorf("%s filter has no children", op)
	}
	parts := make([]string, 0, len(nodes))
	for _, child := range nodes {
		part, err := serializeFilter(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", nil
}

// OData string literals double embedded single quotes.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// escapeLuceneTerm escapes full-Lucene query syntax so a folder path is
// treated as one literal prefix. The trailing wildcard is appended by the
// caller, after escaping.
func escapeLuceneTerm(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '+', '-', '&', '|', '!', '(', ')', '{', '}', '[', ']', '^', '"', '~', '*', '?', ':', '\\', '/':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return escapeODataString(sb.String())
}
