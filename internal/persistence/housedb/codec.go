package housedb

import (
	"openshard.dev/internal/housing"
	"openshard.dev/internal/world"
)

// Snapshot flattens a live house into a storable record. Call it on the
// shard loop; the result shares nothing with the house.
func Snapshot(h *housing.House) RecordV2 {
	rec := RecordV2{
		Serial:         uint32(h.Serial),
		MultiID:        h.MultiID,
		MapName:        h.Map.Name,
		X:              h.Location.X,
		Y:              h.Location.Y,
		Z:              h.Location.Z,
		Price:          h.Price,
		BuiltOn:        h.BuiltOn,
		LastTraded:     h.LastTraded,
		Owner:          mobileName(h.Owner),
		Public:         h.Public,
		CoOwners:       mobileNames(h.CoOwners),
		Friends:        mobileNames(h.Friends),
		Bans:           mobileNames(h.Bans),
		Access:         mobileNames(h.Access),
		MaxLockDowns:   h.MaxLockDowns,
		MaxSecures:     h.MaxSecures,
		LastRefreshed:  h.LastRefreshed,
		Stage:          int(h.Stage),
		NextDecayStage: h.NextDecayStage,
	}
	for _, it := range h.LockDowns {
		rec.LockDowns = appendItemTree(rec.LockDowns, it, -1)
	}
	for _, si := range h.Secures {
		var tree []ItemRec
		tree = appendItemTree(tree, si.Item, -1)
		rec.Secures = append(rec.Secures, SecureRec{Items: tree, Level: int(si.Level)})
	}
	for _, d := range h.Doors {
		rec.Doors = appendItemTree(rec.Doors, d, -1)
	}
	if h.MovingCrate != nil {
		for _, it := range h.MovingCrate.Items {
			rec.Crate = appendItemTree(rec.Crate, it, -1)
		}
	}
	if h.Kind == housing.KindFoundation {
		f := &FoundationRec{}
		if h.Foundation != nil {
			f.SignpostGraphic = h.Foundation.SignpostGraphic
			f.Type = int(h.Foundation.Type)
		}
		f.Current = snapshotDesign(h.CurrentState())
		f.Design = snapshotDesign(h.DesignState())
		f.Backup = snapshotDesign(h.BackupState())
		rec.Foundation = f
	}
	return rec
}

// Restore rebuilds a house from a record. resolve maps persisted character
// names back to live mobiles; unresolvable names are dropped silently, the
// way an unreturning player's ACL entries age out.
func Restore(reg *housing.Registry, m *world.Map, rec RecordV2, resolve func(string) *world.Mobile) *housing.House {
	owner := resolve(rec.Owner)
	loc := world.Point3D{X: rec.X, Y: rec.Y, Z: rec.Z}
	h := reg.RestoreHouse(world.Serial(rec.Serial), owner, m, rec.MultiID, loc)

	h.Price = rec.Price
	h.BuiltOn = rec.BuiltOn
	h.LastTraded = rec.LastTraded
	h.Public = rec.Public
	h.CoOwners = resolveAll(rec.CoOwners, resolve)
	h.Friends = resolveAll(rec.Friends, resolve)
	h.Bans = resolveAll(rec.Bans, resolve)
	h.Access = resolveAll(rec.Access, resolve)
	if rec.MaxLockDowns > 0 {
		h.MaxLockDowns = rec.MaxLockDowns
	}
	if rec.MaxSecures > 0 {
		h.MaxSecures = rec.MaxSecures
	}
	h.LastRefreshed = rec.LastRefreshed
	h.Stage = housing.DecayLevel(rec.Stage)
	h.NextDecayStage = rec.NextDecayStage

	for _, it := range restoreItemTrees(m, rec.LockDowns) {
		it.LockedDown = true
		it.Movable = false
		h.LockDowns = append(h.LockDowns, it)
	}
	for _, sr := range rec.Secures {
		roots := restoreItemTrees(m, sr.Items)
		if len(roots) == 0 {
			continue
		}
		it := roots[0]
		it.Secure = true
		it.Movable = false
		h.Secures = append(h.Secures, &housing.SecureInfo{Item: it, Level: housing.SecureLevel(sr.Level)})
	}
	for _, it := range restoreItemTrees(m, rec.Doors) {
		h.AddDoor(it)
	}
	if len(rec.Crate) > 0 {
		crate := h.EnsureMovingCrate()
		for _, it := range restoreItemTrees(m, rec.Crate) {
			crate.AddItem(it)
		}
	}

	if rec.Foundation != nil && h.Kind == housing.KindFoundation {
		f := h.Foundation
		if f == nil {
			// RestoreHouse leaves Foundation nil; the accessors below
			// allocate it.
			_ = h.CurrentState()
			f = h.Foundation
		}
		f.SignpostGraphic = rec.Foundation.SignpostGraphic
		f.Type = housing.FoundationType(rec.Foundation.Type)
		restoreDesign(h.CurrentState(), rec.Foundation.Current)
		restoreDesign(h.DesignState(), rec.Foundation.Design)
		restoreDesign(h.BackupState(), rec.Foundation.Backup)
		// The committed state defines the multi the world sees; re-add so
		// region bounds and sign position match the stored footprint.
		h.Map.RemoveMulti(h)
		h.Map.AddMulti(h)
	}
	return h
}

func snapshotDesign(ds *housing.DesignState) DesignRec {
	rec := DesignRec{Revision: uint32(ds.Revision())}
	for _, e := range ds.Components.List() {
		rec.Components = append(rec.Components, ComponentRec{ItemID: uint16(e.ItemID), X: e.X, Y: e.Y, Z: e.Z})
	}
	for _, e := range ds.Fixtures {
		rec.Fixtures = append(rec.Fixtures, ComponentRec{ItemID: uint16(e.ItemID), X: e.X, Y: e.Y, Z: e.Z})
	}
	return rec
}

func restoreDesign(ds *housing.DesignState, rec DesignRec) {
	min := ds.Components.Min()
	max := ds.Components.Max()
	fresh := housing.NewMultiComponentList(min.X, min.Y, max.X, max.Y)
	for _, c := range rec.Components {
		fresh.Add(int(c.ItemID), c.X, c.Y, c.Z)
	}
	*ds.Components = *fresh
	ds.Fixtures = nil
	for _, c := range rec.Fixtures {
		ds.Fixtures = append(ds.Fixtures, housing.MultiEntry{ItemID: int(c.ItemID), X: c.X, Y: c.Y, Z: c.Z})
	}
	ds.SeedRevision(int(rec.Revision))
}

func appendItemTree(out []ItemRec, it *world.Item, parent int) []ItemRec {
	out = append(out, ItemRec{
		Serial:    uint32(it.Serial),
		ItemID:    uint16(it.ItemID),
		X:         it.Location.X,
		Y:         it.Location.Y,
		Z:         it.Location.Z,
		Movable:   it.Movable,
		Visible:   it.Visible,
		ParentIdx: parent,
	})
	self := len(out) - 1
	for _, child := range it.Items {
		out = appendItemTree(out, child, self)
	}
	return out
}

func restoreItem(m *world.Map, rec ItemRec) *world.Item {
	it := &world.Item{
		Serial:   world.Serial(rec.Serial),
		ItemID:   int(rec.ItemID),
		Location: world.Point3D{X: rec.X, Y: rec.Y, Z: rec.Z},
		Movable:  rec.Movable,
		Visible:  rec.Visible,
	}
	m.AddItem(it)
	return it
}

// restoreItemTrees rebuilds a flattened item forest, reattaching children
// to their parents by index, and returns the roots.
func restoreItemTrees(m *world.Map, recs []ItemRec) []*world.Item {
	items := make([]*world.Item, len(recs))
	var roots []*world.Item
	for i, rec := range recs {
		it := restoreItem(m, rec)
		items[i] = it
		if rec.ParentIdx >= 0 && rec.ParentIdx < i {
			m.RemoveItem(it)
			items[rec.ParentIdx].AddItem(it)
		} else {
			roots = append(roots, it)
		}
	}
	return roots
}

func mobileName(m *world.Mobile) string {
	if m == nil {
		return ""
	}
	return m.Name
}

func mobileNames(ms []*world.Mobile) []string {
	var out []string
	for _, m := range ms {
		if m != nil {
			out = append(out, m.Name)
		}
	}
	return out
}

func resolveAll(names []string, resolve func(string) *world.Mobile) []*world.Mobile {
	var out []*world.Mobile
	for _, n := range names {
		if m := resolve(n); m != nil {
			out = append(out, m)
		}
	}
	return out
}
