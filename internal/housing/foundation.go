package housing

import (
	"time"

	"openshard.dev/internal/world"
)

// Customization session entry points. Every handler re-finds the caller's
// context and re-validates its inputs against the component allow-list;
// the client UI pre-filters but is never trusted.

// BeginCustomize opens a design session on a foundation. Entities caught
// inside the footprint are stashed until the session ends.
func (r *Registry) BeginCustomize(s Session, h *House) bool {
	from := s.Mobile()
	if h == nil || h.deleted || h.Kind != KindFoundation {
		s.SendText("Only house foundations can be customized.")
		return false
	}
	if !h.IsOwner(from) {
		s.SendText("Only the house owner may customize the foundation.")
		return false
	}
	if r.FindContext(from) != nil {
		s.SendText("You are already customizing a house.")
		return false
	}
	if other := r.ContextFor(h); other != nil {
		s.SendText("Someone else is already customizing this house.")
		return false
	}

	r.stashFootprintEntities(h, from)

	ctx := r.AddContext(from, h)
	if ctx == nil {
		return false
	}
	ds := h.DesignState()
	ds.SendGeneralInfoTo(s)
	ds.SendDetailedTo(s, r.encoder)
	return true
}

// stashFootprintEntities relocates loose movables and bystanders out of
// the plot for the duration of the session.
func (r *Registry) stashFootprintEntities(h *House, customizer *world.Mobile) {
	b := h.MultiBounds()
	var items []*world.Item
	var mobiles []*world.Mobile
	for x := b.X; x < b.X+b.Width; x++ {
		for y := b.Y; y < b.Y+b.Height; y++ {
			for _, it := range h.Map.ItemsAt(x, y) {
				if it.Movable && !it.LockedDown && !it.Secure {
					items = append(items, it)
				}
			}
			for _, m := range h.Map.MobilesAt(x, y) {
				if m != customizer {
					mobiles = append(mobiles, m)
				}
			}
		}
	}
	h.RelocateEntities(items, mobiles)
}

// contextFoundation resolves the caller's session and checks it targets
// the expected house.
func (r *Registry) contextFoundation(s Session, serial world.Serial) (*DesignContext, *House) {
	ctx := r.FindContext(s.Mobile())
	if ctx == nil || ctx.Foundation == nil || ctx.Foundation.deleted {
		return nil, nil
	}
	if serial != 0 && ctx.Foundation.Serial != serial {
		return nil, nil
	}
	return ctx, ctx.Foundation
}

// DesignBuild places one component tile at the session's working level.
func (r *Registry) DesignBuild(s Session, serial world.Serial, itemID, x, y int) bool {
	ctx, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	if !r.Components.IsBuildable(itemID, r.Rules.Era) {
		s.SendText("That is not a valid building component.")
		return false
	}
	mcl := h.DesignState().Components
	if x < mcl.Min().X || x > mcl.Max().X || y < mcl.Min().Y || y > mcl.Max().Y {
		return false
	}
	h.DesignState().Components.Add(itemID, x, y, LevelZ(ctx.Level))
	h.DesignState().OnRevised()
	return true
}

// DesignDelete clears a tile column band at the working level. The
// foundation ring itself is not deletable.
func (r *Registry) DesignDelete(s Session, serial world.Serial, itemID, x, y, z int) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	if z == 0 && itemID == world.TileFoundationBase {
		s.SendText("The foundation cannot be removed.")
		return false
	}
	ds := h.DesignState()
	before := ds.Components.Count()
	ds.Components.Remove(itemID, x, y, z)
	if ds.Components.Count() == before {
		return false
	}
	ds.OnRevised()
	return true
}

// DesignStairs places a stair piece plus its landing support.
func (r *Registry) DesignStairs(s Session, serial world.Serial, itemID, x, y int) bool {
	ctx, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	if !r.Components.IsStair(itemID, r.Rules.Era) {
		s.SendText("That is not a valid stair piece.")
		return false
	}
	ds := h.DesignState()
	z := LevelZ(ctx.Level)
	ds.Components.Add(itemID, x, y, z)
	// Stairs climb in 5z steps off the level base; the intermediate risers
	// land in the stair overflow planes on the wire.
	for riser := 1; riser <= 3; riser++ {
		ds.Components.Add(itemID, x, y, z+riser*5)
	}
	ds.OnRevised()
	return true
}

// DesignRoof places a roof tile; roofs exist only in SE-era rule sets and
// sit in a band above the working level.
func (r *Registry) DesignRoof(s Session, serial world.Serial, itemID, x, y, z int) bool {
	ctx, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	if r.Rules.Era < EraSE {
		s.SendText("Roofing is not available on this shard.")
		return false
	}
	if !r.Components.IsRoof(itemID, r.Rules.Era) {
		s.SendText("That is not a valid roof piece.")
		return false
	}
	if z < -3 || z > 12 {
		return false
	}
	ds := h.DesignState()
	base := LevelZ(ctx.Level)
	// One roof tile per column: clear any existing roof piece first.
	for _, e := range ds.Components.List() {
		if e.X == x && e.Y == y && r.Components.IsRoof(e.ItemID, r.Rules.Era) {
			ds.Components.Remove(e.ItemID, e.X, e.Y, e.Z)
		}
	}
	ds.Components.Add(itemID, x, y, base+z)
	ds.OnRevised()
	return true
}

// DesignRoofDelete removes the roof piece over a column.
func (r *Registry) DesignRoofDelete(s Session, serial world.Serial, x, y int) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	ds := h.DesignState()
	removed := false
	for _, e := range ds.Components.List() {
		if e.X == x && e.Y == y && r.Components.IsRoof(e.ItemID, r.Rules.Era) {
			ds.Components.Remove(e.ItemID, e.X, e.Y, e.Z)
			removed = true
		}
	}
	if removed {
		ds.OnRevised()
	}
	return removed
}

// DesignLevel moves the session to another floor.
func (r *Registry) DesignLevel(s Session, serial world.Serial, level int) bool {
	ctx, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	if level < 1 || level > MaxLevels(h.MultiID) {
		return false
	}
	ctx.Level = level
	return true
}

// DesignClear resets the work in progress to the empty foundation.
func (r *Registry) DesignClear(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	ds := h.DesignState()
	ds.Components = EmptyFoundation(h.MultiID)
	ds.Fixtures = nil
	ds.OnRevised()
	ds.SendGeneralInfoTo(s)
	ds.SendDetailedTo(s, r.encoder)
	return true
}

// DesignSync re-sends the work in progress to the client.
func (r *Registry) DesignSync(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	h.DesignState().SendDetailedTo(s, r.encoder)
	return true
}

// DesignBackup snapshots the work in progress.
func (r *Registry) DesignBackup(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	h.ensureFoundation().Backup = h.DesignState().Copy()
	s.SendText("The design has been backed up.")
	return true
}

// DesignRestore overwrites the work in progress with the backup.
func (r *Registry) DesignRestore(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	restored := h.BackupState().Copy()
	restored.OnRevised()
	h.ensureFoundation().Design = restored
	restored.SendGeneralInfoTo(s)
	restored.SendDetailedTo(s, r.encoder)
	return true
}

// DesignRevert throws the work in progress away, re-copying the visible
// state.
func (r *Registry) DesignRevert(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	reverted := h.CurrentState().Copy()
	reverted.OnRevised()
	h.ensureFoundation().Design = reverted
	reverted.SendGeneralInfoTo(s)
	reverted.SendDetailedTo(s, r.encoder)
	return true
}

// DesignCommit makes the work in progress the visible state, charging or
// refunding the size difference through the owner's bank. Insufficient
// funds abort with no state change.
func (r *Registry) DesignCommit(s Session, serial world.Serial, now time.Time) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	from := s.Mobile()

	design := h.DesignState()
	current := h.CurrentState()

	sizeDelta := design.Components.Count() - (current.Components.Count() + len(current.Fixtures))
	cost := r.Rules.CustomizationCost + sizeDelta*500

	if cost > 0 {
		if !from.WithdrawGold(cost) {
			s.SendText("You cannot afford the changes you have made. Bank some gold and try again.")
			return false
		}
		s.SendText("The cost of the changes has been withdrawn from your bank box.")
	} else if cost < 0 {
		from.DepositGold(-cost)
		s.SendText("The value of the house has been deposited into your bank box.")
	}

	committed := design.Copy()
	committed.OnRevised()
	committed.MeltFixtures()
	h.ensureFoundation().Current = committed
	h.addFixtureEntities(committed.Fixtures)

	h.Price += cost

	h.RestoreRelocatedEntities()
	r.RemoveContext(from)

	committed.SendGeneralInfoTo(s)
	h.RefreshDecay(now)
	return true
}

// DesignClose leaves customization without committing. The work in
// progress is kept for the next session.
func (r *Registry) DesignClose(s Session, serial world.Serial) bool {
	_, h := r.contextFoundation(s, serial)
	if h == nil {
		return false
	}
	h.RestoreRelocatedEntities()
	r.RemoveContext(s.Mobile())
	h.CurrentState().SendGeneralInfoTo(s)
	return true
}

// addFixtureEntities realizes melted fixtures as door entities at their
// world positions; existing ones are replaced.
func (h *House) addFixtureEntities(fixtures []MultiEntry) {
	h.removeDoors()
	for _, f := range fixtures {
		door := world.NewItem(f.ItemID)
		door.Name = "a door"
		door.Movable = false
		door.Location = world.Point3D{
			X: h.Location.X + f.X,
			Y: h.Location.Y + f.Y,
			Z: h.Location.Z + f.Z,
		}
		h.Map.AddItem(door)
		h.AddDoor(door)
	}
}
