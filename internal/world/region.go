package world

// RegionKind classifies an area for the housing rules. Only the kinds the
// placement validator distinguishes are modelled.
type RegionKind int

const (
	RegionDefault RegionKind = iota
	RegionTown
	RegionDungeon
	RegionTreasure
	RegionHouse
	RegionRaffle
	RegionTempNoHousing
)

type Region struct {
	Name   string
	Kind   RegionKind
	Bounds Rect2D
}

var defaultRegion = &Region{Name: "the wilderness", Kind: RegionDefault}

// AllowHousing reports whether a house footprint tile may occupy this
// region. Staff bypass happens in the placement validator, not here.
func (r *Region) AllowHousing() bool {
	return r.Kind == RegionDefault
}
