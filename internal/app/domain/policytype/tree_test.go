package policytype

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleForest() Forest {
	return Forest{
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
		{Label: "Fire"},
	}
}

func countNodes(nodes []Node) int {
	total := len(nodes)
	for i := range nodes {
		total += countNodes(nodes[i].Children)
	}
	return total
}

func TestFlattenOrderingAndLevels(t *testing.T) {
	forest := sampleForest()
	flat := Flatten(forest)

	if len(flat) != countNodes(forest) {
		t.Fatalf("expected %d entries, got %d", countNodes(forest), len(flat))
	}

	wantOrder := []string{"Marine", "Hull", "Cargo", "Container", "Bulk", "Fire"}
	for i, label := range wantOrder {
		if flat[i].Label != label {
			t.Fatalf("position %d: expected %s, got %s", i, label, flat[i].Label)
		}
	}

	if flat[0].Level != 1 || flat[len(flat)-1].Level != 1 {
		t.Fatalf("root nodes must be level 1")
	}
	if flat[3].Level != 3 || flat[3].Path != "Marine > Cargo > Container" {
		t.Fatalf("unexpected nested entry: %+v", flat[3])
	}

	// Children sit exactly one level below their parent.
	byPath := make(map[string]FlatNode)
	for _, fn := range flat {
		byPath[fn.Path] = fn
	}
	for _, fn := range flat {
		if len(fn.Segments) < 2 {
			continue
		}
		parentPath := strings.Join(fn.Segments[:len(fn.Segments)-1], PathSeparator)
		parent, ok := byPath[parentPath]
		if !ok {
			t.Fatalf("parent %q missing for %q", parentPath, fn.Path)
		}
		if fn.Level != parent.Level+1 {
			t.Fatalf("%q level %d, parent level %d", fn.Path, fn.Level, parent.Level)
		}
	}
}

func TestLeavesAreFlattenSubset(t *testing.T) {
	forest := sampleForest()
	flat := Flatten(forest)
	leaves := Leaves(forest)

	flatPaths := make(map[string]FlatNode)
	for _, fn := range flat {
		flatPaths[fn.Path] = fn
	}
	for _, leaf := range leaves {
		fn, ok := flatPaths[leaf.Path]
		if !ok {
			t.Fatalf("leaf %q missing from flatten output", leaf.Path)
		}
		if fn.HasChildren {
			t.Fatalf("leaf %q flagged as internal", leaf.Path)
		}
	}
	if len(leaves) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(leaves))
	}
}

func TestLeavesSkipEmptyInternalNode(t *testing.T) {
	forest := Forest{{Label: "Orphan", HasChildren: true, Children: []Node{}}}
	if got := Leaves(forest); len(got) != 0 {
		t.Fatalf("internal node with empty children must not be a leaf, got %+v", got)
	}
}

func TestPathRoundTrip(t *testing.T) {
	forest := sampleForest()
	for _, fn := range Flatten(forest) {
		segments := make([]string, len(fn.Segments))
		for i, s := range fn.Segments {
			segments[i] = strings.ToLower(s)
		}
		node, err := FindByPath(forest, segments)
		if err != nil {
			t.Fatalf("resolve %q: %v", fn.Path, err)
		}
		if node.Label != fn.Label {
			t.Fatalf("resolved %q, expected %q", node.Label, fn.Label)
		}
	}
}

func TestFindByPathFirstMatchWins(t *testing.T) {
	forest := Forest{
		{Label: "dup", HasChildren: true, Children: []Node{{Label: "first"}}},
		{Label: "dup", HasChildren: true, Children: []Node{{Label: "second"}}},
	}
	node, err := FindByPath(forest, []string{"dup"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if node.Children[0].Label != "first" {
		t.Fatalf("expected first sibling to win, got %+v", node)
	}
	if _, err := FindByPath(forest, []string{"dup", "second"}); err == nil {
		t.Fatalf("first-match walk must not backtrack to later siblings")
	}
}

func TestFindByPathNotFound(t *testing.T) {
	if _, err := FindByPath(sampleForest(), []string{"nonexistent"}); err == nil {
		t.Fatalf("expected not-found error")
	}
	if _, err := FindByPath(Forest{}, []string{"anything"}); err == nil {
		t.Fatalf("empty forest must not resolve")
	}
}

func TestInsertAtRoot(t *testing.T) {
	forest := sampleForest()
	before := CountByLevel(forest)

	next, err := Insert(forest, Node{Label: "Aviation"}, nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	after := CountByLevel(next)
	if after.Counts[1] != before.Counts[1]+1 {
		t.Fatalf("root count: expected %d, got %d", before.Counts[1]+1, after.Counts[1])
	}
	for level, count := range before.Counts {
		if level == 1 {
			continue
		}
		if after.Counts[level] != count {
			t.Fatalf("level %d changed: %d -> %d", level, count, after.Counts[level])
		}
	}
	if len(forest) != 2 {
		t.Fatalf("original forest mutated")
	}
}

func TestInsertUnderParent(t *testing.T) {
	forest := Forest{{Label: "marine", HasChildren: true, Children: []Node{{Label: "container"}}}}

	next, err := Insert(forest, Node{Label: "demurrage"}, ParsePath("marine"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	marine := next[0]
	if len(marine.Children) != 2 || !marine.HasChildren {
		t.Fatalf("expected 2 children under marine, got %+v", marine)
	}
	if marine.Children[1].Label != "demurrage" {
		t.Fatalf("new node must append last, got %+v", marine.Children)
	}
	if len(forest[0].Children) != 1 {
		t.Fatalf("original forest mutated")
	}
}

func TestInsertParentNotFound(t *testing.T) {
	forest := sampleForest()
	if _, err := Insert(forest, Node{Label: "x"}, ParsePath("marine > missing")); err == nil {
		t.Fatalf("expected parent-not-found error")
	}
	if len(forest[0].Children) != 2 {
		t.Fatalf("failed insert must leave forest untouched")
	}
}

func TestInsertForcesHasChildren(t *testing.T) {
	forest := Forest{{Label: "fire"}}
	next, err := Insert(forest, Node{Label: "wildfire"}, ParsePath("fire"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !next[0].HasChildren || len(next[0].Children) != 1 {
		t.Fatalf("parent must gain HasChildren, got %+v", next[0])
	}
}

func TestCountByLevel(t *testing.T) {
	stats := CountByLevel(sampleForest())
	if stats.TotalNodes != 6 {
		t.Fatalf("expected 6 total nodes, got %d", stats.TotalNodes)
	}
	if stats.MaxDepth != 3 {
		t.Fatalf("expected depth 3, got %d", stats.MaxDepth)
	}
	want := map[int]int{1: 2, 2: 3, 3: 2}
	for level, count := range want {
		if stats.Counts[level] != count {
			t.Fatalf("level %d: expected %d, got %d", level, count, stats.Counts[level])
		}
	}
}

func TestCountByLevelEmptyForest(t *testing.T) {
	stats := CountByLevel(nil)
	if stats.TotalNodes != 0 || stats.MaxDepth != 0 || len(stats.Counts) != 0 {
		t.Fatalf("empty forest must yield zero stats, got %+v", stats)
	}
}

func TestMatchesTermCaseInsensitive(t *testing.T) {
	forest := sampleForest()
	if MatchesTerm(forest, "MARINE") != MatchesTerm(forest, "marine") {
		t.Fatalf("term matching must be case-insensitive")
	}
	if !MatchesTerm(forest, "bulk") {
		t.Fatalf("expected nested label match")
	}
	if MatchesTerm(forest, "automobile") {
		t.Fatalf("unexpected match")
	}
}

func TestValidate(t *testing.T) {
	var missingChildren Forest
	if err := json.Unmarshal([]byte(`[{"hasChildren": true}]`), &missingChildren); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := Validate(missingChildren); err == nil {
		t.Fatalf("node with hasChildren and no children must fail")
	}

	ok := Forest{{Label: "fire"}}
	if err := Validate(ok); err != nil {
		t.Fatalf("leaf node should validate: %v", err)
	}

	nested := Forest{{Label: "a", HasChildren: true, Children: []Node{{Label: ""}}}}
	if err := Validate(nested); err == nil {
		t.Fatalf("blank nested label must fail")
	}

	// Stray children under a false flag are tolerated.
	stray := Forest{{Label: "fire", HasChildren: false, Children: []Node{{Label: "ember"}}}}
	if err := Validate(stray); err != nil {
		t.Fatalf("stray children should be tolerated: %v", err)
	}
}

func TestParsePath(t *testing.T) {
	got := ParsePath("  Marine >Cargo> CONTAINER ")
	want := []string{"marine", "cargo", "container"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if len(ParsePath("")) != 0 {
		t.Fatalf("blank path must yield no segments")
	}
}
