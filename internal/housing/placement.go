package housing

import (
	"openshard.dev/internal/world"
)

// PlacementResult is the outcome of a placement check. Anything but
// PlacementValid carries a user-facing rejection.
type PlacementResult int

const (
	PlacementValid PlacementResult = iota
	PlacementBadRegion
	PlacementBadLand
	PlacementBadStatic
	PlacementBadItem
	PlacementNoSurface
	PlacementBadRegionHidden
	PlacementBadRegionTemp
	PlacementInvalidCastleKeep
	PlacementBadRegionRaffle
)

func (r PlacementResult) String() string {
	switch r {
	case PlacementValid:
		return "Valid"
	case PlacementBadRegion:
		return "BadRegion"
	case PlacementBadLand:
		return "BadLand"
	case PlacementBadStatic:
		return "BadStatic"
	case PlacementBadItem:
		return "BadItem"
	case PlacementNoSurface:
		return "NoSurface"
	case PlacementBadRegionHidden:
		return "BadRegionHidden"
	case PlacementBadRegionTemp:
		return "BadRegionTemp"
	case PlacementInvalidCastleKeep:
		return "InvalidCastleKeep"
	case PlacementBadRegionRaffle:
		return "BadRegionRaffle"
	}
	return "Unknown"
}

// Message is the rejection text shown to the requester.
func (r PlacementResult) Message() string {
	switch r {
	case PlacementValid:
		return ""
	case PlacementBadItem, PlacementBadStatic:
		return "The house could not be created here. Either something is blocking the house, or the house would not be on valid terrain."
	case PlacementBadLand:
		return "The house could not be created here. Part of the foundation would not be on any terrain."
	case PlacementNoSurface:
		return "The house could not be created here. Part of the foundation would not be on flat ground."
	case PlacementBadRegionTemp:
		return "The temporary structure you see blocking the way will be removed shortly. Please try again nearby."
	case PlacementBadRegionRaffle:
		return "This plot is currently assigned through the land raffle and cannot be built on."
	case PlacementInvalidCastleKeep:
		return "Castles and keeps cannot be created here."
	default:
		return "Housing cannot be created in this area."
	}
}

// yardSize is the clearance band, in tiles, required around a foundation
// cell: +-1 in X and +-5 in Y.
const yardSize = 5

// CheckPlacement runs the five-rules placement algorithm for a candidate
// footprint. On PlacementValid, moveItems/moveMobiles hold the movable
// entities that must be relocated before construction; on any rejection
// both are nil. Footprint iteration is row-major (x outer, y inner): the
// per-column region short-circuit depends on that order.
func CheckPlacement(from *world.Mobile, multiID int, center world.Point3D) (res PlacementResult, moveItems []*world.Item, moveMobiles []*world.Mobile) {
	m := from.Map
	if m == nil {
		return PlacementBadLand, nil, nil
	}

	if m.NoHousing || m.InT2A(center) {
		return PlacementBadRegion, nil, nil
	}

	mcl := GetComponents(multiID)
	if mcl.Count() == 0 {
		return PlacementInvalidCastleKeep, nil, nil
	}

	if from.AccessLevel >= world.AccessGameMaster {
		return PlacementValid, nil, nil // staff place anywhere a real multi is allowed at all
	}

	td := m.TD
	start := world.Point2D{X: center.X + mcl.Min().X, Y: center.Y + mcl.Min().Y}

	var yard, borders []world.Point2D
	yardSeen := make(map[world.Point2D]bool)

	for x := 0; x < mcl.Width(); x++ {
		for y := 0; y < mcl.Height(); y++ {
			addTiles := mcl.TilesAt(x+mcl.Min().X, y+mcl.Min().Y)
			if len(addTiles) == 0 {
				continue
			}

			tileX := start.X + x
			tileY := start.Y + y

			reg := m.RegionAt(tileX, tileY)
			if !reg.AllowHousing() {
				switch reg.Kind {
				case world.RegionTempNoHousing:
					return PlacementBadRegionTemp, nil, nil
				case world.RegionTreasure, world.RegionHouse:
					return PlacementBadRegionHidden, nil, nil
				case world.RegionRaffle:
					return PlacementBadRegionRaffle, nil, nil
				default:
					return PlacementBadRegion, nil, nil
				}
			}

			landTile := m.LandTileAt(tileX, tileY)
			landID := landTile.ID & world.MaxLandID
			landImpassable := td.Land(landID).Impassable()

			oldTiles := m.StaticTilesAt(tileX, tileY)
			cellItems := m.ItemsAt(tileX, tileY)
			cellMobiles := m.MobilesAt(tileX, tileY)

			landStartZ, landAvgZ, landTopZ := m.AverageZ(tileX, tileY)

			hasFoundation := false

			for _, addTile := range addTiles {
				if addTile.ID == world.TileNoDraw {
					continue
				}
				addData := td.Item(addTile.ID)

				isFoundation := addTile.Z == 0 && addData.Wall()
				if isFoundation {
					hasFoundation = true
				}

				addZ := center.Z + addTile.Z
				addTop := addZ + addData.Height
				if addData.Surface() {
					addTop += 16
				}

				// Rule 2: no 3D overlap with uneven terrain.
				if addTop > landStartZ && landAvgZ > addZ {
					return PlacementBadLand, nil, nil
				}

				// A foundation cell must rest on flat ground at the
				// requested elevation; a single raised corner disqualifies
				// the cell even when the averaged diagonal looks level.
				hasSurface := isFoundation && !landImpassable &&
					landStartZ == landTopZ && landAvgZ == center.Z

				// Rule 2: no 3D overlap with blocking statics.
				for _, oldTile := range oldTiles {
					od := td.Item(oldTile.ID)
					if (od.Impassable() || (od.Surface() && !od.Background())) &&
						addZ <= oldTile.Z+od.CalcHeight() && oldTile.Z+16 > addZ {
						return PlacementBadStatic, nil, nil
					}
				}

				// Rule 2: dynamic items; movables get relocated instead.
				for _, it := range cellItems {
					if !it.Visible {
						continue
					}
					id := it.ItemData(td)
					if addTop > it.Location.Z && it.Location.Z+id.Height > addZ {
						if it.Movable {
							moveItems = append(moveItems, it)
						} else if id.Impassable() || (id.Surface() && !id.Background()) {
							return PlacementBadItem, nil, nil
						}
					}
				}

				// Rule 4: every foundation tile rests on flat matching ground.
				if isFoundation && !hasSurface {
					return PlacementNoSurface, nil, nil
				}
			}

			moveMobiles = append(moveMobiles, cellMobiles...)

			if !hasFoundation {
				continue
			}

			// Rule 5: foundations never sit on road tiles.
			if IsRoadID(landID) {
				return PlacementBadLand, nil, nil
			}

			// Rule 1 candidates: the yard around this foundation cell.
			for xOff := -1; xOff <= 1; xOff++ {
				for yOff := -yardSize; yOff <= yardSize; yOff++ {
					p := world.Point2D{X: tileX + xOff, Y: tileY + yOff}
					if !yardSeen[p] {
						yardSeen[p] = true
						yard = append(yard, p)
					}
				}
			}

			// Rule 3 candidates: the immediate border ring, skipping
			// neighbours already under a base floor of this design.
			for xOff := -1; xOff <= 1; xOff++ {
				for yOff := -1; yOff <= 1; yOff++ {
					if xOff == 0 && yOff == 0 {
						continue
					}
					vx := x + xOff
					vy := y + yOff
					if vx >= 0 && vx < mcl.Width() && vy >= 0 && vy < mcl.Height() {
						underFloor := false
						for _, bt := range mcl.TilesAt(vx+mcl.Min().X, vy+mcl.Min().Y) {
							bd := td.Item(bt.ID)
							if bd.Height == 0 && bt.Z <= 8 && bd.Surface() {
								underFloor = true
								break
							}
						}
						if underFloor {
							continue
						}
					}
					borders = append(borders, world.Point2D{X: tileX + xOff, Y: tileY + yOff})
				}
			}
		}
	}

	// Border ring: nothing impassable may hem the house in.
	for _, bp := range borders {
		landID := m.LandTileAt(bp.X, bp.Y).ID & world.MaxLandID
		if td.Land(landID).Impassable() {
			return PlacementBadLand, nil, nil
		}
		if IsRoadID(landID) {
			return PlacementBadLand, nil, nil
		}
		for _, t := range m.StaticTilesAt(bp.X, bp.Y) {
			od := td.Item(t.ID)
			if od.Impassable() || (od.Surface() && !od.Background()) {
				return PlacementBadStatic, nil, nil
			}
		}
	}

	// Yard: no other structure's impassable tiles inside the clearance band.
	for _, yp := range yard {
		for _, tiles := range m.MultiTilesAt(yp.X, yp.Y) {
			for _, t := range tiles {
				if td.Item(t.ID).Impassable() {
					return PlacementBadStatic, nil, nil
				}
			}
		}
	}

	return PlacementValid, moveItems, moveMobiles
}
