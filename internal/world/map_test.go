package world

import "testing"

func TestAverageZFlat(t *testing.T) {
	m := NewMap("test", NewTileData())
	start, avg, top := m.AverageZ(100, 100)
	if start != 0 || avg != 0 || top != 0 {
		t.Fatalf("flat terrain = (%d,%d,%d), want (0,0,0)", start, avg, top)
	}
}

func TestAverageZSlope(t *testing.T) {
	m := NewMap("test", NewTileData())
	// Raise one corner: the cell at (99,99) now spans 0..8.
	m.SetLandTile(100, 100, LandTile{ID: 0x0003, Z: 8})

	start, avg, top := m.AverageZ(99, 99)
	if start != 0 {
		t.Fatalf("start = %d, want 0", start)
	}
	if top != 8 {
		t.Fatalf("top = %d, want 8", top)
	}
	// NW/SE diagonal (0 vs 8) beats NE/SW (0 vs 0), so the flatter
	// diagonal supplies the average.
	if avg != 0 {
		t.Fatalf("avg = %d, want 0", avg)
	}
}

func TestAverageZNegativeRounding(t *testing.T) {
	m := NewMap("test", NewTileData())
	m.SetLandTile(50, 50, LandTile{ID: 0x0003, Z: -5})
	m.SetLandTile(51, 51, LandTile{ID: 0x0003, Z: 0})
	m.SetLandTile(51, 50, LandTile{ID: 0x0003, Z: -5})
	m.SetLandTile(50, 51, LandTile{ID: 0x0003, Z: 0})

	// Diagonals tie; averaging -5 and 0 floors toward negative infinity.
	_, avg, _ := m.AverageZ(50, 50)
	if avg != -3 {
		t.Fatalf("avg = %d, want -3", avg)
	}
}

func TestLandTileDefaultsToGrass(t *testing.T) {
	m := NewMap("test", NewTileData())
	lt := m.LandTileAt(12, 34)
	if lt.ID != 0x0003 || lt.Z != 0 {
		t.Fatalf("default land = %+v", lt)
	}
	if m.TD.Land(lt.ID).Impassable() {
		t.Fatalf("grass must be passable")
	}
}

func TestRegionPrecedence(t *testing.T) {
	m := NewMap("test", NewTileData())

	if r := m.RegionAt(10, 10); r.Kind != RegionDefault {
		t.Fatalf("unregistered point kind = %d", r.Kind)
	}

	town := &Region{Name: "Britain", Kind: RegionTown, Bounds: Rect2D{X: 0, Y: 0, Width: 100, Height: 100}}
	house := &Region{Name: "plot", Kind: RegionHouse, Bounds: Rect2D{X: 40, Y: 40, Width: 10, Height: 10}}
	m.AddRegion(town)
	m.AddRegion(house)

	if r := m.RegionAt(10, 10); r != town {
		t.Fatalf("outer point resolved to %q", r.Name)
	}
	// Later registrations win inside overlaps.
	if r := m.RegionAt(45, 45); r != house {
		t.Fatalf("inner point resolved to %q", r.Name)
	}

	m.RemoveRegion(house)
	if r := m.RegionAt(45, 45); r != town {
		t.Fatalf("after removal resolved to %q", r.Name)
	}
}

func TestRegionAllowHousing(t *testing.T) {
	cases := []struct {
		kind RegionKind
		want bool
	}{
		{RegionDefault, true},
		{RegionTown, false},
		{RegionDungeon, false},
		{RegionTreasure, false},
		{RegionHouse, false},
		{RegionRaffle, false},
		{RegionTempNoHousing, false},
	}
	for _, tc := range cases {
		r := &Region{Kind: tc.kind}
		if got := r.AllowHousing(); got != tc.want {
			t.Fatalf("kind %d AllowHousing = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestInT2A(t *testing.T) {
	m := NewMap("test", NewTileData())
	if m.InT2A(Point3D{X: 10, Y: 10}) {
		t.Fatalf("empty T2A bounds must not match")
	}
	m.T2ABounds = Rect2D{X: 0, Y: 0, Width: 100, Height: 100}
	if !m.InT2A(Point3D{X: 10, Y: 10}) {
		t.Fatalf("point inside T2A band not detected")
	}
	if m.InT2A(Point3D{X: 100, Y: 10}) {
		t.Fatalf("bounds are exclusive at the far edge")
	}
}

func TestItemPlacementAndMove(t *testing.T) {
	m := NewMap("test", NewTileData())

	it := NewItem(0x0E43)
	it.Location = Point3D{X: 10, Y: 10, Z: 0}
	m.AddItem(it)

	if got := m.ItemsAt(10, 10); len(got) != 1 || got[0] != it {
		t.Fatalf("ItemsAt(10,10) = %v", got)
	}
	if it.Map != m {
		t.Fatalf("AddItem did not set the item's map")
	}

	m.MoveItem(it, Point3D{X: 20, Y: 20, Z: 5})
	if len(m.ItemsAt(10, 10)) != 0 {
		t.Fatalf("item still indexed at old cell")
	}
	if got := m.ItemsAt(20, 20); len(got) != 1 || got[0] != it {
		t.Fatalf("ItemsAt(20,20) = %v", got)
	}
	if it.Location.Z != 5 {
		t.Fatalf("Z not updated: %d", it.Location.Z)
	}

	if m.FindItem(it.Serial) != it {
		t.Fatalf("FindItem missed the item")
	}
	m.RemoveItem(it)
	if it.Map != nil || m.FindItem(it.Serial) != nil {
		t.Fatalf("RemoveItem left the item attached")
	}
}

func TestMobilePlacementAndMove(t *testing.T) {
	m := NewMap("test", NewTileData())

	mob := NewMobile("alice")
	mob.Location = Point3D{X: 30, Y: 30, Z: 0}
	m.AddMobile(mob)

	if got := m.MobilesAt(30, 30); len(got) != 1 || got[0] != mob {
		t.Fatalf("MobilesAt(30,30) = %v", got)
	}
	m.MoveMobile(mob, Point3D{X: 31, Y: 30, Z: 0})
	if len(m.MobilesAt(30, 30)) != 0 || len(m.MobilesAt(31, 30)) != 1 {
		t.Fatalf("mobile index not updated on move")
	}
	if m.FindMobile(mob.Serial) != mob {
		t.Fatalf("FindMobile missed the mobile")
	}
	m.RemoveMobile(mob)
	if mob.Map != nil {
		t.Fatalf("RemoveMobile left the mobile attached")
	}
}

type stubMulti struct {
	serial Serial
	bounds Rect2D
	tiles  map[Point2D][]StaticTile
}

func (s *stubMulti) MultiSerial() Serial { return s.serial }
func (s *stubMulti) MultiBounds() Rect2D { return s.bounds }
func (s *stubMulti) MultiTilesAt(x, y int) []StaticTile {
	return s.tiles[Point2D{X: x, Y: y}]
}

func TestMultiTilesAt(t *testing.T) {
	m := NewMap("test", NewTileData())

	mu := &stubMulti{
		serial: NewSerial(),
		bounds: Rect2D{X: 100, Y: 100, Width: 8, Height: 8},
		tiles: map[Point2D][]StaticTile{
			{X: 102, Y: 103}: {{ID: TileFoundationBase, Z: 0}},
		},
	}
	m.AddMulti(mu)

	if got := m.MultiTilesAt(102, 103); len(got) != 1 || got[0][0].ID != TileFoundationBase {
		t.Fatalf("MultiTilesAt(102,103) = %v", got)
	}
	// Inside bounds but no tile over the cell.
	if got := m.MultiTilesAt(101, 101); got != nil {
		t.Fatalf("empty cell returned %v", got)
	}
	if got := m.MultiTilesAt(50, 50); got != nil {
		t.Fatalf("out-of-bounds cell returned %v", got)
	}

	m.RemoveMulti(mu)
	if got := m.MultiTilesAt(102, 103); got != nil {
		t.Fatalf("removed multi still answers: %v", got)
	}
}

func TestCalcHeightHalvesStairs(t *testing.T) {
	td := NewTileData()
	if h := td.Item(0x0730).CalcHeight(); h != 2 {
		t.Fatalf("stair collision height = %d, want 2", h)
	}
	if h := td.Item(0x0064).CalcHeight(); h != 20 {
		t.Fatalf("wall collision height = %d, want 20", h)
	}
}
