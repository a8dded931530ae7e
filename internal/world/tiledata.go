package world

// TileFlag mirrors the client tile-data flag bits the housing code cares
// about. Values match the on-disk tiledata layout so persisted records stay
// readable against real flag dumps.
type TileFlag uint32

const (
	FlagNone       TileFlag = 0x00000000
	FlagBackground TileFlag = 0x00000001
	FlagImpassable TileFlag = 0x00000040
	FlagSurface    TileFlag = 0x00000200
	FlagStairs     TileFlag = 0x00000400
	FlagWall       TileFlag = 0x00000010
	FlagDoor       TileFlag = 0x20000000
	FlagRoof       TileFlag = 0x10000000
)

const (
	// MaxItemID masks static/multi tile IDs to the item-table range.
	MaxItemID = 0x3FFF
	// MaxLandID masks land tile IDs to the land-table range.
	MaxLandID = 0x3FFF
)

// ItemData describes one static/multi tile graphic.
type ItemData struct {
	Name   string
	Flags  TileFlag
	Height int
}

func (d ItemData) Impassable() bool { return d.Flags&FlagImpassable != 0 }
func (d ItemData) Surface() bool    { return d.Flags&FlagSurface != 0 }
func (d ItemData) Background() bool { return d.Flags&FlagBackground != 0 }
func (d ItemData) Wall() bool       { return d.Flags&FlagWall != 0 }

// CalcHeight is the collision height used by overlap checks: bridges and
// other half-height surfaces count at half their graphic height.
func (d ItemData) CalcHeight() int {
	if d.Flags&FlagStairs != 0 {
		return d.Height / 2
	}
	return d.Height
}

// LandData describes one land (terrain) tile.
type LandData struct {
	Name  string
	Flags TileFlag
}

func (d LandData) Impassable() bool { return d.Flags&FlagImpassable != 0 }

// TileData is the static reference table for item and land tiles. It is
// immutable after construction; maps share one instance. Tests build their
// own instance and override what they need.
type TileData struct {
	items map[int]ItemData
	lands map[int]LandData
}

// Well-known tile IDs used by the synthesized housing shells.
const (
	TileFoundationBase = 0x31F4 // wall-flagged foundation side block
	TileDirtFloor      = 0x31F8 // customization ground fill
	TileNoDraw         = 0x0001
)

// NewTileData builds the default table: coarse ID-range classifications that
// match the client art groups the housing code depends on.
func NewTileData() *TileData {
	td := &TileData{
		items: make(map[int]ItemData),
		lands: make(map[int]LandData),
	}

	// Walls.
	td.fillItems(0x0064, 0x03FF, ItemData{Name: "wall", Flags: FlagWall | FlagImpassable, Height: 20})
	// Floors: zero-height surfaces.
	td.fillItems(0x0400, 0x058F, ItemData{Name: "floor", Flags: FlagSurface | FlagBackground, Height: 0})
	// Doors (the classic wooden/metal door blocks).
	td.fillItems(0x0675, 0x06F4, ItemData{Name: "door", Flags: FlagDoor | FlagWall, Height: 20})
	// Stairs.
	td.fillItems(0x0730, 0x076F, ItemData{Name: "stairs", Flags: FlagSurface | FlagStairs, Height: 5})
	// Roof pieces.
	td.fillItems(0x1560, 0x15FF, ItemData{Name: "roof", Flags: FlagRoof, Height: 1})
	// Teleporter fixtures.
	td.fillItems(0x181D, 0x1828, ItemData{Name: "teleporter", Flags: FlagSurface, Height: 0})

	td.items[TileFoundationBase] = ItemData{Name: "house foundation", Flags: FlagWall | FlagImpassable, Height: 20}
	td.items[TileDirtFloor] = ItemData{Name: "dirt", Flags: FlagSurface | FlagBackground, Height: 0}
	td.items[TileNoDraw] = ItemData{Name: "nodraw"}

	// Land: grass by default (the zero value), rock faces impassable,
	// water impassable.
	td.fillLands(0x0244, 0x024D, LandData{Name: "rock", Flags: FlagImpassable})
	td.fillLands(0x00A8, 0x00AB, LandData{Name: "water", Flags: FlagImpassable})

	return td
}

func (td *TileData) fillItems(lo, hi int, d ItemData) {
	for id := lo; id <= hi; id++ {
		td.items[id] = d
	}
}

func (td *TileData) fillLands(lo, hi int, d LandData) {
	for id := lo; id <= hi; id++ {
		td.lands[id] = d
	}
}

// SetItem overrides one item-tile entry. Intended for tests and for shard
// configs that patch individual graphics.
func (td *TileData) SetItem(id int, d ItemData) { td.items[id&MaxItemID] = d }

// SetLand overrides one land-tile entry.
func (td *TileData) SetLand(id int, d LandData) { td.lands[id&MaxLandID] = d }

func (td *TileData) Item(id int) ItemData {
	if d, ok := td.items[id&MaxItemID]; ok {
		return d
	}
	return ItemData{}
}

func (td *TileData) Land(id int) LandData {
	if d, ok := td.lands[id&MaxLandID]; ok {
		return d
	}
	return LandData{Name: "grass"}
}
