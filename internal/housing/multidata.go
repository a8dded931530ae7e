package housing

import (
	"openshard.dev/internal/world"
)

// Foundation multi IDs encode the footprint size. Customizable plots run
// from 7x7 through 18x18.
const (
	foundationIDBase = 0x1400
	minFoundationDim = 7
	maxFoundationDim = 18
)

// FoundationID maps a plot size to its multi ID.
func FoundationID(width, height int) int {
	return foundationIDBase | ((width - minFoundationDim) << 4) | (height - minFoundationDim)
}

// FoundationDimensions decodes a foundation multi ID back to its plot size.
func FoundationDimensions(multiID int) (width, height int, ok bool) {
	if multiID&^0xFF != foundationIDBase {
		return 0, 0, false
	}
	width = ((multiID >> 4) & 0xF) + minFoundationDim
	height = (multiID & 0xF) + minFoundationDim
	if width > maxFoundationDim || height > maxFoundationDim {
		return 0, 0, false
	}
	return width, height, true
}

// IsFoundationID reports whether a multi ID names a customizable plot.
func IsFoundationID(multiID int) bool {
	_, _, ok := FoundationDimensions(multiID)
	return ok
}

// GetComponents synthesizes the placement-time footprint of a multi: a
// foundation block in every cell at z 0, with the origin at the plot
// center. Non-foundation multis are not modelled by this shard.
func GetComponents(multiID int) *MultiComponentList {
	w, h, ok := FoundationDimensions(multiID)
	if !ok {
		return NewMultiComponentList(0, 0, 0, 0)
	}
	cx := w / 2
	cy := h / 2
	mcl := NewMultiComponentList(-cx, -cy, w-cx-1, h-cy-1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			mcl.Add(world.TileFoundationBase, x-cx, y-cy, 0)
		}
	}
	return mcl
}

// EmptyFoundation is the initial customization layout: the foundation ring
// plus a dirt first floor and the front steps row appended below the
// footprint.
func EmptyFoundation(multiID int) *MultiComponentList {
	if !IsFoundationID(multiID) {
		return NewMultiComponentList(0, 0, 0, 0)
	}
	mcl := GetComponents(multiID)
	// Dirt fill at the first floor level.
	for x := mcl.Min().X; x <= mcl.Max().X; x++ {
		for y := mcl.Min().Y; y <= mcl.Max().Y; y++ {
			mcl.Add(world.TileDirtFloor, x, y, 7)
		}
	}
	// Front steps: one extra row south of the plot.
	mcl.Resize(mcl.Min().X, mcl.Min().Y, mcl.Max().X, mcl.Max().Y+1)
	stepY := mcl.Max().Y
	for x := mcl.Min().X; x <= mcl.Max().X; x++ {
		mcl.Add(0x0730, x, stepY, 0)
	}
	return mcl
}

// MaxLevels reports how many customizable floors a plot supports.
func MaxLevels(multiID int) int {
	w, h, ok := FoundationDimensions(multiID)
	if ok && (w > 12 || h > 12) {
		return 4
	}
	return 3
}

// Fixed per-level base elevations. Load-bearing for the wire format: the
// plane index assignment keys off these exact offsets.
var levelZ = [...]int{0, 7, 27, 47, 67}

// LevelZ is the base elevation of a customization level (1-based).
func LevelZ(level int) int {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return levelZ[level]
}

// ZLevel inverts LevelZ for elevations that sit exactly on a level base.
func ZLevel(z int) (level int, ok bool) {
	for i := 1; i < len(levelZ); i++ {
		if levelZ[i] == z {
			return i, true
		}
	}
	return 0, false
}
