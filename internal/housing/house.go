package housing

import (
	"time"

	"openshard.dev/internal/world"
)

// House is the aggregate housing entity: ownership and ACLs, decay
// bookkeeping, storage accounting, and (for foundations) the customization
// states. All mutation happens on the shard loop.
type House struct {
	Serial   world.Serial
	Kind     HouseKind
	MultiID  int
	Map      *world.Map
	Location world.Point3D

	Price      int
	BuiltOn    time.Time
	LastTraded time.Time

	Owner    *world.Mobile
	CoOwners []*world.Mobile
	Friends  []*world.Mobile
	Bans     []*world.Mobile
	Access   []*world.Mobile

	Public     bool
	LockSerial uint32

	Doors     []*world.Item
	LockDowns []*world.Item
	Secures   []*SecureInfo
	Addons    []*world.Item
	Vendors   []*world.Mobile

	Sign        *world.Item
	MovingCrate *world.Item
	Relocated   []RelocatedEntity

	MaxLockDowns int
	MaxSecures   int

	// Decay bookkeeping. Dynamic decay drives Stage/NextDecayStage; legacy
	// decay derives everything from LastRefreshed.
	LastRefreshed  time.Time
	Stage          DecayLevel
	NextDecayStage time.Time

	Foundation *FoundationState

	registry *Registry
	region   *world.Region
	deleted  bool
}

func (h *House) Deleted() bool { return h.deleted }

// --- world.Multi ---

func (h *House) MultiSerial() world.Serial { return h.Serial }

// visibleComponents is the layout everyone sees: the current design for
// foundations, the multi art footprint for classic houses.
func (h *House) visibleComponents() *MultiComponentList {
	if h.Kind == KindFoundation {
		return h.CurrentState().Components
	}
	return GetComponents(h.MultiID)
}

func (h *House) MultiBounds() world.Rect2D {
	mcl := h.visibleComponents()
	return world.Rect2D{
		X:      h.Location.X + mcl.Min().X,
		Y:      h.Location.Y + mcl.Min().Y,
		Width:  mcl.Width(),
		Height: mcl.Height(),
	}
}

func (h *House) MultiTilesAt(x, y int) []world.StaticTile {
	tiles := h.visibleComponents().TilesAt(x-h.Location.X, y-h.Location.Y)
	for i := range tiles {
		tiles[i].Z += h.Location.Z
	}
	return tiles
}

// Contains reports whether a world point lies inside the house footprint.
func (h *House) Contains(p world.Point3D) bool {
	return h.MultiBounds().Contains(p.X, p.Y)
}

func (h *House) ContainsItem(it *world.Item) bool {
	root := it.RootParent()
	return root.Map == h.Map && h.Contains(root.Location)
}

// --- foundation state accessors (lazily non-nil) ---

func (h *House) ensureFoundation() *FoundationState {
	if h.Foundation == nil {
		h.Foundation = &FoundationState{}
	}
	return h.Foundation
}

func (h *House) CurrentState() *DesignState {
	f := h.ensureFoundation()
	if f.Current == nil {
		f.Current = NewDesignState(h, EmptyFoundation(h.MultiID))
	}
	return f.Current
}

func (h *House) DesignState() *DesignState {
	f := h.ensureFoundation()
	if f.Design == nil {
		f.Design = h.CurrentState().Copy()
	}
	return f.Design
}

func (h *House) BackupState() *DesignState {
	f := h.ensureFoundation()
	if f.Backup == nil {
		f.Backup = h.CurrentState().Copy()
	}
	return f.Backup
}

// nextDesignRevision hands out the foundation-scoped monotonic revision.
func (h *House) nextDesignRevision() int {
	f := h.ensureFoundation()
	f.lastRevision++
	return f.lastRevision
}

// --- region ---

// updateRegion recomputes the house region after construction or a move.
func (h *House) updateRegion() {
	if h.region != nil {
		h.Map.RemoveRegion(h.region)
		h.region = nil
	}
	if h.deleted || h.Map == nil {
		return
	}
	h.region = &world.Region{
		Name:   "a private house",
		Kind:   world.RegionHouse,
		Bounds: h.MultiBounds(),
	}
	h.Map.AddRegion(h.region)
}

// --- sign, doors, crate ---

// SignLocation is the cell the sign hangs at: the southeast face of the
// plot.
func (h *House) SignLocation() world.Point3D {
	b := h.MultiBounds()
	return world.Point3D{X: b.X + b.Width/2, Y: b.Y + b.Height, Z: h.Location.Z + 7}
}

func (h *House) placeSign() {
	if h.Sign != nil {
		return
	}
	sign := world.NewItem(0x0BD2)
	sign.Name = "a house sign"
	sign.Movable = false
	sign.Location = h.SignLocation()
	h.Map.AddItem(sign)
	h.Sign = sign
}

// AddDoor registers a door fixture entity with the house.
func (h *House) AddDoor(door *world.Item) {
	door.Movable = false
	h.Doors = append(h.Doors, door)
}

func (h *House) removeDoors() {
	for _, d := range h.Doors {
		d.Delete()
	}
	h.Doors = nil
}

// EnsureMovingCrate lazily creates the packing crate that catches
// displaced contents during demolish/redesign.
func (h *House) EnsureMovingCrate() *world.Item {
	if h.MovingCrate == nil {
		crate := world.NewItem(0x0E3D)
		crate.Name = "a moving crate"
		crate.Movable = false
		crate.Location = h.SignLocation()
		h.Map.AddItem(crate)
		h.MovingCrate = crate
	}
	return h.MovingCrate
}

// AppendToCrate packs an item into the moving crate inside a packing box
// wrapper.
func (h *House) AppendToCrate(it *world.Item) {
	crate := h.EnsureMovingCrate()
	box := world.NewItem(packingBoxID)
	box.Name = "a packing box"
	crate.AddItem(box)
	it.Movable = true
	it.LockedDown = false
	it.Secure = false
	box.AddItem(it)
}

// packingBoxID wraps relocated items inside the moving crate; these
// wrappers are excluded from storage accounting.
const packingBoxID = 0x09A8

// --- relocation (customization/resize support) ---

// RelocateEntities stashes the given entities with house-relative offsets;
// RestoreRelocatedEntities puts survivors back, and anything whose spot is
// gone lands in the moving crate.
func (h *House) RelocateEntities(items []*world.Item, mobiles []*world.Mobile) {
	for _, it := range items {
		off := world.Point3D{
			X: it.Location.X - h.Location.X,
			Y: it.Location.Y - h.Location.Y,
			Z: it.Location.Z - h.Location.Z,
		}
		h.Relocated = append(h.Relocated, RelocatedEntity{Item: it, Offset: off})
		it.Visible = false
	}
	for _, m := range mobiles {
		off := world.Point3D{
			X: m.Location.X - h.Location.X,
			Y: m.Location.Y - h.Location.Y,
			Z: m.Location.Z - h.Location.Z,
		}
		h.Relocated = append(h.Relocated, RelocatedEntity{Mobile: m, Offset: off})
	}
}

func (h *House) RestoreRelocatedEntities() {
	for _, re := range h.Relocated {
		at := world.Point3D{
			X: h.Location.X + re.Offset.X,
			Y: h.Location.Y + re.Offset.Y,
			Z: h.Location.Z + re.Offset.Z,
		}
		switch {
		case re.Item != nil:
			re.Item.Visible = true
			if h.tileFits(at) {
				h.Map.MoveItem(re.Item, at)
			} else {
				h.AppendToCrate(re.Item)
			}
		case re.Mobile != nil:
			if h.tileFits(at) {
				h.Map.MoveMobile(re.Mobile, at)
			} else {
				h.Map.MoveMobile(re.Mobile, h.SignLocation())
			}
		}
	}
	h.Relocated = nil
}

// tileFits is the restore-time surface check: the cell must still exist in
// the design and not be blocked by an impassable tile.
func (h *House) tileFits(at world.Point3D) bool {
	tiles := h.MultiTilesAt(at.X, at.Y)
	if len(tiles) == 0 {
		return !h.Contains(at)
	}
	for _, t := range tiles {
		d := h.Map.TD.Item(t.ID)
		if d.Impassable() && t.Z <= at.Z && at.Z < t.Z+d.Height {
			return false
		}
	}
	return true
}

// --- lifecycle ---

// MoveToWorld attaches the house to its map: multi registration, region,
// sign.
func (h *House) MoveToWorld() {
	h.Map.AddMulti(h)
	h.updateRegion()
	h.placeSign()
}

// Demolish tears the house down in place: locked items are released (never
// deleted), secures are emptied into the moving crate, owned fixtures are
// deleted, and the entity is unregistered.
func (h *House) Demolish() {
	if h.deleted {
		return
	}

	for _, it := range h.LockDowns {
		it.LockedDown = false
		it.Movable = true
	}
	h.LockDowns = nil

	for _, si := range h.Secures {
		si.Item.Secure = false
		si.Item.Movable = true
		h.AppendToCrate(si.Item)
	}
	h.Secures = nil

	for _, a := range h.Addons {
		a.Delete()
	}
	h.Addons = nil

	h.removeDoors()

	if h.Sign != nil {
		h.Sign.Delete()
		h.Sign = nil
	}

	h.deleted = true
	h.Map.RemoveMulti(h)
	if h.region != nil {
		h.Map.RemoveRegion(h.region)
		h.region = nil
	}
	h.registry.unregister(h)
}

// Transfer hands the house to a new owner: ACLs reset, locks change, and
// the traded timestamp moves so decay policy recomputes per account.
func (h *House) Transfer(to *world.Mobile, now time.Time) bool {
	if to == nil || !to.Player() || h.deleted {
		return false
	}
	if !h.registry.CanOwnHouse(to) {
		return false
	}
	h.registry.reindexOwner(h, h.Owner, to)
	h.Owner = to
	h.CoOwners = nil
	h.Friends = nil
	h.Access = nil
	h.LastTraded = now
	h.ChangeLocks()
	h.RefreshDecay(now)
	return true
}

// ChangeLocks re-keys every door by bumping the lock serial.
func (h *House) ChangeLocks() {
	h.LockSerial++
}

// SetPublic toggles public access; going public clears the ban list the
// same way the classic rules did.
func (h *House) SetPublic(public bool) {
	h.Public = public
	if public {
		h.Bans = nil
	}
}
