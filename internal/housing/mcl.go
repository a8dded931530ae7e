package housing

import (
	"openshard.dev/internal/world"
)

// MultiEntry is one tile of a multi, offset-relative to the structure
// center.
type MultiEntry struct {
	ItemID  int
	X, Y, Z int
}

// MultiComponentList is the sparse tile-delta set a design mutates: an
// ordered entry list plus cached bounds. Mutation happens only on the shard
// loop; the wire encoder reads a snapshot copy.
type MultiComponentList struct {
	entries []MultiEntry

	min world.Point2D
	max world.Point2D
}

// NewMultiComponentList builds an empty list spanning the given relative
// bounds (inclusive min, exclusive max on neither side: both inclusive).
func NewMultiComponentList(minX, minY, maxX, maxY int) *MultiComponentList {
	return &MultiComponentList{
		min: world.Point2D{X: minX, Y: minY},
		max: world.Point2D{X: maxX, Y: maxY},
	}
}

func (m *MultiComponentList) Min() world.Point2D { return m.min }
func (m *MultiComponentList) Max() world.Point2D { return m.max }
func (m *MultiComponentList) Width() int         { return m.max.X - m.min.X + 1 }
func (m *MultiComponentList) Height() int        { return m.max.Y - m.min.Y + 1 }

// Center is the offset of the origin cell inside the footprint grid.
func (m *MultiComponentList) Center() world.Point2D {
	return world.Point2D{X: -m.min.X, Y: -m.min.Y}
}

// List exposes the raw entries in insertion order. Callers must not mutate.
func (m *MultiComponentList) List() []MultiEntry { return m.entries }

func (m *MultiComponentList) Count() int { return len(m.entries) }

// Add appends a tile, growing the bounds when the offset falls outside.
func (m *MultiComponentList) Add(itemID, x, y, z int) {
	m.entries = append(m.entries, MultiEntry{ItemID: itemID & world.MaxItemID, X: x, Y: y, Z: z})
	if x < m.min.X {
		m.min.X = x
	}
	if y < m.min.Y {
		m.min.Y = y
	}
	if x > m.max.X {
		m.max.X = x
	}
	if y > m.max.Y {
		m.max.Y = y
	}
}

// Remove deletes every entry matching (id,x,y,z) exactly.
func (m *MultiComponentList) Remove(itemID, x, y, z int) {
	itemID &= world.MaxItemID
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.ItemID == itemID && e.X == x && e.Y == y && e.Z == z {
			continue
		}
		out = append(out, e)
	}
	m.entries = out
}

// RemoveXYZH deletes entries at (x,y) whose Z lies within [z, z+height].
// Used by the delete op, which clears a tile column band rather than one
// exact graphic.
func (m *MultiComponentList) RemoveXYZH(x, y, z, height int) {
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.X == x && e.Y == y && e.Z >= z && e.Z <= z+height {
			continue
		}
		out = append(out, e)
	}
	m.entries = out
}

// TilesAt gathers the entries covering one relative cell, as static tiles.
func (m *MultiComponentList) TilesAt(x, y int) []world.StaticTile {
	var out []world.StaticTile
	for _, e := range m.entries {
		if e.X == x && e.Y == y {
			out = append(out, world.StaticTile{ID: e.ItemID, Z: e.Z})
		}
	}
	return out
}

// Resize grows (never shrinks) the footprint bounds. Entries outside the
// new bounds are discarded.
func (m *MultiComponentList) Resize(minX, minY, maxX, maxY int) {
	m.min = world.Point2D{X: minX, Y: minY}
	m.max = world.Point2D{X: maxX, Y: maxY}
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.X < minX || e.X > maxX || e.Y < minY || e.Y > maxY {
			continue
		}
		out = append(out, e)
	}
	m.entries = out
}

// Clone deep-copies the list. Design state snapshots are never shared by
// reference.
func (m *MultiComponentList) Clone() *MultiComponentList {
	c := &MultiComponentList{
		entries: make([]MultiEntry, len(m.entries)),
		min:     m.min,
		max:     m.max,
	}
	copy(c.entries, m.entries)
	return c
}
