package world

// LandTile is one terrain cell.
type LandTile struct {
	ID int
	Z  int
}

// StaticTile is one static (or multi) tile occupying a cell column.
type StaticTile struct {
	ID int
	Z  int
}

// Multi is a placed multi-tile structure registered with a map. Houses
// implement it; the map only needs footprint queries.
type Multi interface {
	MultiSerial() Serial
	MultiBounds() Rect2D
	// MultiTilesAt returns the structure's tiles over the given world cell.
	MultiTilesAt(x, y int) []StaticTile
}

// Map is a flat in-memory rendition of one facet: default terrain plus
// sparse land/static overrides, per-cell item and mobile lists, and a placed
// multi registry. All access happens on the shard loop goroutine.
type Map struct {
	Name string
	TD   *TileData

	// Housing policy for the whole facet.
	NoHousing bool
	// T2ABounds, when non-empty, marks the legacy land area where houses
	// are banned even though the facet itself allows housing.
	T2ABounds Rect2D

	defaultLand LandTile

	lands   map[Point2D]LandTile
	statics map[Point2D][]StaticTile
	items   map[Point2D][]*Item
	mobiles map[Point2D][]*Mobile
	multis  map[Serial]Multi
	regions []*Region
}

func NewMap(name string, td *TileData) *Map {
	return &Map{
		Name:        name,
		TD:          td,
		defaultLand: LandTile{ID: 0x0003, Z: 0}, // flat grass
		lands:       make(map[Point2D]LandTile),
		statics:     make(map[Point2D][]StaticTile),
		items:       make(map[Point2D][]*Item),
		mobiles:     make(map[Point2D][]*Mobile),
		multis:      make(map[Serial]Multi),
	}
}

func (m *Map) SetLandTile(x, y int, t LandTile) { m.lands[Point2D{x, y}] = t }
func (m *Map) AddStatic(x, y int, t StaticTile) {
	p := Point2D{x, y}
	m.statics[p] = append(m.statics[p], t)
}
func (m *Map) ClearStatics(x, y int) { delete(m.statics, Point2D{x, y}) }

func (m *Map) LandTileAt(x, y int) LandTile {
	if t, ok := m.lands[Point2D{x, y}]; ok {
		return t
	}
	return m.defaultLand
}

func (m *Map) StaticTilesAt(x, y int) []StaticTile {
	return m.statics[Point2D{x, y}]
}

// AverageZ reports the lowest, average and highest corner elevation of a
// cell. The flat default terrain keeps all three equal unless a land
// override introduces a slope between neighbours.
func (m *Map) AverageZ(x, y int) (start, avg, top int) {
	zl := m.LandTileAt(x, y).Z
	zr := m.LandTileAt(x+1, y).Z
	zb := m.LandTileAt(x, y+1).Z
	zrb := m.LandTileAt(x+1, y+1).Z

	start, top = zl, zl
	for _, z := range []int{zr, zb, zrb} {
		if z < start {
			start = z
		}
		if z > top {
			top = z
		}
	}
	if absInt(zl-zrb) > absInt(zr-zb) {
		avg = floorHalf(zr + zb)
	} else {
		avg = floorHalf(zl + zrb)
	}
	return start, avg, top
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func floorHalf(v int) int {
	if v < 0 {
		return (v - 1) / 2
	}
	return v / 2
}

// --- item / mobile placement ---

func (m *Map) AddItem(it *Item) {
	it.Map = m
	p := it.Location.XY()
	m.items[p] = append(m.items[p], it)
}

func (m *Map) RemoveItem(it *Item) {
	p := it.Location.XY()
	m.items[p] = removeItem(m.items[p], it)
	it.Map = nil
}

func (m *Map) ItemsAt(x, y int) []*Item { return m.items[Point2D{x, y}] }

func (m *Map) AddMobile(mob *Mobile) {
	mob.Map = m
	p := mob.Location.XY()
	m.mobiles[p] = append(m.mobiles[p], mob)
}

func (m *Map) RemoveMobile(mob *Mobile) {
	p := mob.Location.XY()
	m.mobiles[p] = removeMobile(m.mobiles[p], mob)
	mob.Map = nil
}

func (m *Map) MobilesAt(x, y int) []*Mobile { return m.mobiles[Point2D{x, y}] }

// MoveItem relocates an item already on this map.
func (m *Map) MoveItem(it *Item, to Point3D) {
	old := it.Location.XY()
	m.items[old] = removeItem(m.items[old], it)
	it.Location = to
	p := to.XY()
	m.items[p] = append(m.items[p], it)
}

// MoveMobile relocates a mobile already on this map.
func (m *Map) MoveMobile(mob *Mobile, to Point3D) {
	old := mob.Location.XY()
	m.mobiles[old] = removeMobile(m.mobiles[old], mob)
	mob.Location = to
	p := to.XY()
	m.mobiles[p] = append(m.mobiles[p], mob)
}

func removeItem(s []*Item, it *Item) []*Item {
	for i, v := range s {
		if v == it {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeMobile(s []*Mobile, mob *Mobile) []*Mobile {
	for i, v := range s {
		if v == mob {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// --- multis ---

// FindItem scans for a world item by serial. Target resolution is rare
// enough that a serial index is not worth carrying.
func (m *Map) FindItem(s Serial) *Item {
	for _, list := range m.items {
		for _, it := range list {
			if it.Serial == s {
				return it
			}
		}
	}
	return nil
}

func (m *Map) FindMobile(s Serial) *Mobile {
	for _, list := range m.mobiles {
		for _, mob := range list {
			if mob.Serial == s {
				return mob
			}
		}
	}
	return nil
}

func (m *Map) AddMulti(mu Multi)    { m.multis[mu.MultiSerial()] = mu }
func (m *Map) RemoveMulti(mu Multi) { delete(m.multis, mu.MultiSerial()) }

// MultiTilesAt collects, per placed structure, the tiles covering a cell.
// Iteration over structures is unordered; callers must not depend on it.
func (m *Map) MultiTilesAt(x, y int) [][]StaticTile {
	var out [][]StaticTile
	for _, mu := range m.multis {
		if !mu.MultiBounds().Contains(x, y) {
			continue
		}
		if tiles := mu.MultiTilesAt(x, y); len(tiles) > 0 {
			out = append(out, tiles)
		}
	}
	return out
}

// --- regions ---

func (m *Map) AddRegion(r *Region) { m.regions = append(m.regions, r) }

func (m *Map) RemoveRegion(r *Region) {
	for i, v := range m.regions {
		if v == r {
			m.regions = append(m.regions[:i], m.regions[i+1:]...)
			return
		}
	}
}

// RegionAt finds the innermost registered region covering a point; later
// registrations win ties (child regions are registered after parents).
func (m *Map) RegionAt(x, y int) *Region {
	for i := len(m.regions) - 1; i >= 0; i-- {
		if m.regions[i].Bounds.Contains(x, y) {
			return m.regions[i]
		}
	}
	return defaultRegion
}

// InT2A reports whether a point falls in the facet's legacy no-housing band.
func (m *Map) InT2A(p Point3D) bool {
	return m.T2ABounds.Width > 0 && m.T2ABounds.Contains(p.X, p.Y)
}
