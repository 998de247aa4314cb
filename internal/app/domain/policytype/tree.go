package policytype

import (
	"errors"
	"fmt"
	"strings"
)

// Node is a labeled point in the policy taxonomy. Labels are stored verbatim
// and compared case-insensitively during lookup.
type Node struct {
	Label       string `json:"label"`
	HasChildren bool   `json:"hasChildren"`
	Children    []Node `json:"children,omitempty"`
}

// Forest is an ordered collection of root-level nodes. It is the entire
// value of a policy type's structure column.
type Forest []Node

// FlatNode is one entry of a pre-order linearization.
type FlatNode struct {
	Label       string   `json:"label"`
	Path        string   `json:"path"`
	Level       int      `json:"level"`
	HasChildren bool     `json:"hasChildren"`
	Segments    []string `json:"fullPathSegments"`
}

// LevelStats aggregates node counts per depth across a forest.
type LevelStats struct {
	Counts     map[int]int `json:"counts"`
	TotalNodes int         `json:"total_nodes"`
	MaxDepth   int         `json:"max_depth"`
}

// PathSeparator joins path segments in their display form.
const PathSeparator = " > "

var (
	// ErrInvalidNode reports a malformed node in a candidate structure.
	ErrInvalidNode = errors.New("invalid structure node")
	// ErrPathNotFound reports that a path did not resolve to any node.
	ErrPathNotFound = errors.New("path not found")
)

// Validate checks a candidate forest before any write. A node is valid when
// its label is non-blank and, if it declares children, the children array is
// present and every child is valid. Stray children under a node with
// HasChildren false are tolerated, matching how stored structures behave.
func Validate(forest Forest) error {
	for i := range forest {
		if err := validateNode(forest[i], nil); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n Node, trail []string) error {
	if strings.TrimSpace(n.Label) == "" {
		return fmt.Errorf("%w: blank label under %q", ErrInvalidNode, strings.Join(trail, PathSeparator))
	}
	if n.HasChildren && n.Children == nil {
		return fmt.Errorf("%w: %q declares children but has none", ErrInvalidNode, n.Label)
	}
	if n.HasChildren {
		trail = append(trail, n.Label)
		for i := range n.Children {
			if err := validateNode(n.Children[i], trail); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flatten linearizes a forest pre-order. Levels are 1-based and paths keep
// the stored label casing for display.
func Flatten(forest Forest) []FlatNode {
	out := make([]FlatNode, 0, len(forest))
	walk(forest, nil, 1, func(fn FlatNode) {
		out = append(out, fn)
	})
	return out
}

// Leaves returns only the nodes without children, in pre-order. A node that
// declares children but carries an empty list is traversed and never emitted.
func Leaves(forest Forest) []FlatNode {
	out := make([]FlatNode, 0, len(forest))
	walk(forest, nil, 1, func(fn FlatNode) {
		if !fn.HasChildren {
			out = append(out, fn)
		}
	})
	return out
}

func walk(nodes []Node, trail []string, level int, emit func(FlatNode)) {
	for i := range nodes {
		n := nodes[i]
		segments := make([]string, len(trail)+1)
		copy(segments, trail)
		segments[len(trail)] = n.Label

		emit(FlatNode{
			Label:       n.Label,
			Path:        strings.Join(segments, PathSeparator),
			Level:       level,
			HasChildren: n.HasChildren,
			Segments:    segments,
		})

		if len(n.Children) > 0 {
			walk(n.Children, segments, level+1, emit)
		}
	}
}

// ParsePath splits a ">"-delimited query string into normalized segments,
// trimming and lowercasing each one.
func ParsePath(raw string) []string {
	parts := strings.Split(raw, ">")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// FindByPath resolves normalized segments against a forest. At each level
// the first sibling with a matching lowercased label wins; siblings are not
// required to have unique labels.
func FindByPath(forest Forest, segments []string) (Node, error) {
	ref := findRef(forest, segments)
	if ref == nil {
		return Node{}, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(segments, PathSeparator))
	}
	return *ref, nil
}

func findRef(nodes []Node, segments []string) *Node {
	if len(segments) == 0 {
		return nil
	}
	for i := range nodes {
		if strings.ToLower(nodes[i].Label) != segments[0] {
			continue
		}
		if len(segments) == 1 {
			return &nodes[i]
		}
		if nodes[i].HasChildren {
			return findRef(nodes[i].Children, segments[1:])
		}
		return nil
	}
	return nil
}

// Insert returns a new forest with node added. An empty parentPath appends
// at the root; otherwise the parent is resolved with the FindByPath walk,
// gains the node as its last child and is forced to HasChildren true. The
// input forest is never mutated.
func Insert(forest Forest, node Node, parentPath []string) (Forest, error) {
	next := Clone(forest)
	if len(parentPath) == 0 {
		return append(next, node), nil
	}

	parent := findRef(next, parentPath)
	if parent == nil {
		return nil, fmt.Errorf("%w: parent %s", ErrPathNotFound, strings.Join(parentPath, PathSeparator))
	}
	parent.Children = append(parent.Children, node)
	parent.HasChildren = true
	return next, nil
}

// CountByLevel computes per-level node counts, the total node count and the
// maximum depth of a forest.
func CountByLevel(forest Forest) LevelStats {
	stats := LevelStats{Counts: make(map[int]int)}
	countInto(forest, 1, &stats)
	return stats
}

func countInto(nodes []Node, level int, stats *LevelStats) {
	if len(nodes) == 0 {
		return
	}
	stats.Counts[level] += len(nodes)
	stats.TotalNodes += len(nodes)
	if level > stats.MaxDepth {
		stats.MaxDepth = level
	}
	for i := range nodes {
		countInto(nodes[i].Children, level+1, stats)
	}
}

// MatchesTerm reports whether any label in the forest contains term,
// case-insensitively. It short-circuits on the first match.
func MatchesTerm(forest Forest, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return anyLabel(forest, term)
}

func anyLabel(nodes []Node, term string) bool {
	for i := range nodes {
		if strings.Contains(strings.ToLower(nodes[i].Label), term) {
			return true
		}
		if anyLabel(nodes[i].Children, term) {
			return true
		}
	}
	return false
}

// Clone deep-copies a forest.
func Clone(forest Forest) Forest {
	if forest == nil {
		return nil
	}
	out := make(Forest, len(forest))
	for i := range forest {
		out[i] = forest[i]
		out[i].Children = Clone(forest[i].Children)
	}
	return out
}

// DefaultForest is the starter taxonomy applied when a policy type is
// created without an explicit structure.
func DefaultForest() Forest {
	return Forest{
		{
			Label:       "Property",
			HasChildren: true,
			Children: []Node{
				{Label: "Homeowners"},
				{Label: "Commercial Property"},
				{Label: "Fire"},
			},
		},
		{
			Label:       "Marine",
			HasChildren: true,
			Children: []Node{
				{Label: "Hull"},
				{Label: "Cargo", HasChildren: true, Children: []Node{
					{Label: "Container"},
					{Label: "Bulk"},
				}},
			},
		},
		{
			Label:       "Liability",
			HasChildren: true,
			Children: []Node{
				{Label: "General Liability"},
				{Label: "Professional Indemnity"},
			},
		},
	}
}
