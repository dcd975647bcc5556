package quadtree

import "testing"

func TestFindBoundingRectAndLevels(t *testing.T) {
	rect, levels := FindBoundingRectAndLevels(0, 0, 300, 50, 256, 1)
	// tile_m = 256, doubles: 256 -> 512 (1 level) covers 300 and 50.
	if levels != 1 {
		t.Errorf("levels = %d, want 1", levels)
	}
	if rect.Edge != 512 {
		t.Errorf("edge = %v, want 512", rect.Edge)
	}
	if rect.OriginX != 0 || rect.OriginY != 0 {
		t.Errorf("origin = (%v,%v), want (0,0)", rect.OriginX, rect.OriginY)
	}
}

func TestFindBoundingRectAndLevelsAlreadyCovered(t *testing.T) {
	_, levels := FindBoundingRectAndLevels(0, 0, 10, 10, 256, 1)
	if levels != 0 {
		t.Errorf("levels = %d, want 0 (one tile already covers the AABB)", levels)
	}
}

func TestNodesAtLevelCount(t *testing.T) {
	root := Node{Id: NodeId{Level: 0}, BoundingRect: Rect{Edge: 256}}
	for level := uint8(0); level <= 3; level++ {
		nodes, err := NodesAtLevel(root, level)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		want := pow4(level)
		if len(nodes) != want {
			t.Errorf("level %d: got %d nodes, want %d", level, len(nodes), want)
		}
	}
}

func TestNodesAtLevelRejectsTooDeepRoot(t *testing.T) {
	root := Node{Id: NodeId{Level: 3}, BoundingRect: Rect{Edge: 1}}
	if _, err := NodesAtLevel(root, 1); err == nil {
		t.Error("expected error when root is deeper than the requested level")
	}
}

func TestGetChildRectQuadrants(t *testing.T) {
	r := Rect{OriginX: 0, OriginY: 0, Edge: 10}
	cases := map[ChildIndex][2]float64{
		ChildSW: {0, 0},
		ChildNW: {0, 5},
		ChildSE: {5, 0},
		ChildNE: {5, 5},
	}
	for ci, want := range cases {
		child := r.GetChildRect(ci)
		if child.OriginX != want[0] || child.OriginY != want[1] {
			t.Errorf("child %d origin = (%v,%v), want (%v,%v)", ci, child.OriginX, child.OriginY, want[0], want[1])
		}
		if child.Edge != 5 {
			t.Errorf("child %d edge = %v, want 5", ci, child.Edge)
		}
	}
}

func TestParentChildRoundTrip(t *testing.T) {
	root := NodeId{Level: 0, Index: 0}
	child := root.GetChildId(ChildNE)
	parent, ok := child.ParentId()
	if !ok || parent != root {
		t.Errorf("ParentId of child = (%+v, %v), want (%+v, true)", parent, ok, root)
	}
	if child.ChildIndexInParent() != ChildNE {
		t.Errorf("ChildIndexInParent = %v, want %v", child.ChildIndexInParent(), ChildNE)
	}
}

func TestRootHasNoParent(t *testing.T) {
	root := NodeId{Level: 0, Index: 0}
	if _, ok := root.ParentId(); ok {
		t.Error("root node should have no parent")
	}
}

func TestNodeFromIdAndRootRectMatchesGetChild(t *testing.T) {
	rootRect := Rect{OriginX: 0, OriginY: 0, Edge: 16}
	root := Node{Id: NodeId{Level: 0}, BoundingRect: rootRect}

	viaGetChild := root.GetChild(ChildNE).GetChild(ChildSW)
	viaFromId := NodeFromIdAndRootRect(viaGetChild.Id, rootRect)

	if viaFromId.BoundingRect != viaGetChild.BoundingRect {
		t.Errorf("NodeFromIdAndRootRect = %+v, want %+v", viaFromId.BoundingRect, viaGetChild.BoundingRect)
	}
}
