package scene

import "testing"

// twoLevelFixture builds a building with two levels, a wall on each, and a
// grouped wall on the ground level.
func twoLevelFixture(t *testing.T) (s *Scene, ground, first, groundWall, firstWall, groupedWall NodeID) {
	t.Helper()
	s = New()
	bID, err := s.CreateNode(s.Root(), Draft{Kind: KindBuilding, Name: "b"})
	if err != nil {
		t.Fatalf("create building: %v", err)
	}
	ground, err = s.CreateNode(bID, Draft{Kind: KindLevel, Name: "ground"})
	if err != nil {
		t.Fatalf("create ground: %v", err)
	}
	first, err = s.CreateNode(bID, Draft{Kind: KindLevel, Name: "first", Data: LevelData{Elevation: 3}})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	groundWall = addWall(t, s, ground, 0, 0, 4, 0)
	firstWall = addWall(t, s, first, 0, 0, 4, 0)
	gID, err := s.CreateNode(ground, Draft{Kind: KindGroup, Data: GroupData{Translation: Vec2{8, 0}}})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupedWall = addWall(t, s, gID, 0, 0, 2, 0)
	return
}

func TestFindByKind(t *testing.T) {
	s, _, _, _, _, _ := twoLevelFixture(t)

	walls := s.Find(Filter{Kinds: []NodeKind{KindWall}})
	if len(walls) != 3 {
		t.Fatalf("found %d walls, want 3", len(walls))
	}
	levels := s.Find(Filter{Kinds: []NodeKind{KindLevel}})
	if len(levels) != 2 {
		t.Fatalf("found %d levels, want 2", len(levels))
	}
}

func TestFindByLevelIncludesGroupedDescendants(t *testing.T) {
	s, ground, first, groundWall, firstWall, groupedWall := twoLevelFixture(t)

	got := map[NodeID]bool{}
	for _, h := range s.Find(Filter{Kinds: []NodeKind{KindWall}, LevelID: ground}) {
		got[h.ID()] = true
	}
	if len(got) != 2 || !got[groundWall] || !got[groupedWall] {
		t.Errorf("ground walls = %v, want the direct and grouped wall", got)
	}

	onFirst := s.Find(Filter{Kinds: []NodeKind{KindWall}, LevelID: first})
	if len(onFirst) != 1 || onFirst[0].ID() != firstWall {
		t.Errorf("first-level walls = %d, want exactly the upstairs wall", len(onFirst))
	}
}

func TestFindDocumentOrder(t *testing.T) {
	s, _, _, groundWall, firstWall, groupedWall := twoLevelFixture(t)

	walls := s.Find(Filter{Kinds: []NodeKind{KindWall}})
	want := []NodeID{groundWall, groupedWall, firstWall}
	for i, h := range walls {
		if h.ID() != want[i] {
			t.Fatalf("walls[%d] = %s, want %s (depth-first document order)", i, h.ID(), want[i])
		}
	}
}

func TestFindPredicate(t *testing.T) {
	s, _, _, groundWall, _, _ := twoLevelFixture(t)
	vis := false
	if err := s.UpdateNode(groundWall, Patch{Visible: &vis}); err != nil {
		t.Fatalf("hide wall: %v", err)
	}

	hidden := s.Find(Filter{Predicate: func(n Node) bool { return !n.Visible }})
	if len(hidden) != 1 || hidden[0].ID() != groundWall {
		t.Errorf("hidden nodes = %d, want just the hidden wall", len(hidden))
	}
}

func TestFindEmptyFilterReturnsEverything(t *testing.T) {
	s, _, _, _, _, _ := twoLevelFixture(t)
	all := s.Find(Filter{})
	if len(all) != s.NodeCount() {
		t.Errorf("Find(Filter{}) = %d nodes, want %d", len(all), s.NodeCount())
	}
}
