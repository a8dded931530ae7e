package housing

import (
	"openshard.dev/internal/world"
)

// Storage accounting runs in one of two regimes selected by the shard
// rules: legacy raw slot counts, or AOS per-item value accounting.

// LockDownCount is the legacy regime's current lockdown tally.
func (h *House) LockDownCount() int {
	return len(h.LockDowns)
}

// SecureCount is the legacy regime's current secure tally.
func (h *House) SecureCount() int {
	return len(h.Secures)
}

// AosMaxLockdowns is the value ceiling under AOS accounting.
func (h *House) AosMaxLockdowns() int { return h.MaxLockDowns }

// AosMaxSecures is the secure value ceiling under AOS accounting.
func (h *House) AosMaxSecures() int { return h.MaxSecures }

// AosCurLockdowns tallies the current lockdown value: per-kind units for
// every locked item, a flat 10 per vendor under the classic vendor
// system, and the moving crate's contents with the packing-box wrappers
// themselves excluded.
func (h *House) AosCurLockdowns() int {
	v := 0
	for _, it := range h.LockDowns {
		v += lockdownHandlers[classifyLockdown(it)].units(it)
	}
	v += len(h.Vendors) * 10
	if h.MovingCrate != nil {
		v += h.MovingCrate.TotalItems() - countPackingBoxes(h.MovingCrate)
	}
	return v
}

// AosCurSecures tallies secured value: each secure container charges for
// itself plus its content count.
func (h *House) AosCurSecures() int {
	v := 0
	for _, si := range h.Secures {
		v += secureUnits(si.Item)
	}
	return v
}

func secureUnits(it *world.Item) int { return 1 + it.TotalItems() }

func countPackingBoxes(crate *world.Item) int {
	n := 0
	for _, it := range crate.Items {
		if it.ItemID == packingBoxID {
			n++
		}
	}
	return n
}

// CheckLockdownCapacity applies whichever regime is active to an
// additional candidate item.
func (h *House) CheckLockdownCapacity(it *world.Item) bool {
	if h.registry.Rules.AOSRules {
		units := lockdownHandlers[classifyLockdown(it)].units(it)
		return h.AosCurLockdowns()+units <= h.AosMaxLockdowns()
	}
	return h.LockDownCount() < h.MaxLockDowns
}

// CheckSecureCapacity applies whichever regime is active to an additional
// candidate container.
func (h *House) CheckSecureCapacity(it *world.Item) bool {
	if h.registry.Rules.AOSRules {
		return h.AosCurSecures()+secureUnits(it) <= h.AosMaxSecures()
	}
	return h.SecureCount() < h.MaxSecures
}

func (h *House) IsLockedDown(it *world.Item) bool {
	for _, v := range h.LockDowns {
		if v == it {
			return true
		}
	}
	return false
}

func (h *House) IsSecure(it *world.Item) (*SecureInfo, bool) {
	for _, si := range h.Secures {
		if si.Item == it {
			return si, true
		}
	}
	return nil, false
}

// --- mutation entry points ---

// LockDown marks a movable item immovable and protected, charged against
// house storage.
func (h *House) LockDown(from *world.Mobile, it *world.Item) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may lock things down.")
		return false
	}
	if it == nil || !h.ContainsItem(it) {
		from.SendMessage("That item is not in your house.")
		return false
	}
	if h.IsLockedDown(it) {
		from.SendMessage("That item is already locked down.")
		return false
	}
	if _, ok := h.IsSecure(it); ok {
		from.SendMessage("That item is secured; release it first.")
		return false
	}
	if !it.Movable {
		from.SendMessage("That item cannot be locked down.")
		return false
	}
	if !h.CheckLockdownCapacity(it) {
		from.SendMessage("The house cannot hold any more locked-down items.")
		return false
	}
	it.Movable = false
	it.LockedDown = true
	h.LockDowns = append(h.LockDowns, it)
	lockdownHandlers[classifyLockdown(it)].lock(h, it)
	from.SendMessage("The item has been locked down.")
	return true
}

// Release frees a locked-down item.
func (h *House) Release(from *world.Mobile, it *world.Item) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may release locked-down items.")
		return false
	}
	if !h.IsLockedDown(it) {
		from.SendMessage("That item is not locked down.")
		return false
	}
	for i, v := range h.LockDowns {
		if v == it {
			h.LockDowns = append(h.LockDowns[:i], h.LockDowns[i+1:]...)
			break
		}
	}
	it.Movable = true
	it.LockedDown = false
	lockdownHandlers[classifyLockdown(it)].release(h, it)
	from.SendMessage("The item has been released.")
	return true
}

// AddSecure turns a container into a secure at the given access level, or
// retunes the level of an already-secured one.
func (h *House) AddSecure(from *world.Mobile, it *world.Item, level SecureLevel) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may secure containers.")
		return false
	}
	if it == nil || !h.ContainsItem(it) {
		from.SendMessage("That container is not in your house.")
		return false
	}
	if classifyLockdown(it) != LockdownContainer {
		from.SendMessage("Only containers may be secured.")
		return false
	}
	if h.IsLockedDown(it) {
		from.SendMessage("That container is locked down; release it first.")
		return false
	}
	if si, ok := h.IsSecure(it); ok {
		si.Level = level
		from.SendMessage("The container's security level has been changed.")
		return true
	}
	if !h.CheckSecureCapacity(it) {
		from.SendMessage("The house cannot hold any more secure containers.")
		return false
	}
	it.Movable = false
	it.Secure = true
	h.Secures = append(h.Secures, &SecureInfo{Item: it, Level: level})
	from.SendMessage("The container has been secured.")
	return true
}

// ReleaseSecure frees a secured container.
func (h *House) ReleaseSecure(from *world.Mobile, it *world.Item) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may release secure containers.")
		return false
	}
	si, ok := h.IsSecure(it)
	if !ok {
		from.SendMessage("That container is not secured.")
		return false
	}
	for i, v := range h.Secures {
		if v == si {
			h.Secures = append(h.Secures[:i], h.Secures[i+1:]...)
			break
		}
	}
	it.Movable = true
	it.Secure = false
	from.SendMessage("The container has been released.")
	return true
}
