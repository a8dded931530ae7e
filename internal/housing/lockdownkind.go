package housing

import (
	"openshard.dev/internal/world"
)

// LockdownKind is the closed set of entity shapes the lockdown paths
// handle. Each kind's behavior is defined once in the handler table below
// instead of being re-derived at every call site.
type LockdownKind int

const (
	LockdownPlain LockdownKind = iota
	LockdownContainer
	LockdownAddon
	LockdownAddonContainer
)

type lockdownHandler struct {
	// units is the kind's AOS storage charge.
	units func(it *world.Item) int
	// lock/release adjust the entity beyond the shared flag flips.
	lock    func(h *House, it *world.Item)
	release func(h *House, it *world.Item)
}

var lockdownHandlers = map[LockdownKind]lockdownHandler{
	LockdownPlain: {
		units:   func(*world.Item) int { return 1 },
		lock:    func(*House, *world.Item) {},
		release: func(*House, *world.Item) {},
	},
	LockdownContainer: {
		// A locked container charges for itself plus its contents.
		units:   func(it *world.Item) int { return 1 + it.TotalItems() },
		lock:    func(*House, *world.Item) {},
		release: func(*House, *world.Item) {},
	},
	LockdownAddon: {
		// Addons are part of the structure: no storage charge, and they
		// join the addon list so demolition deletes them.
		units: func(*world.Item) int { return 0 },
		lock: func(h *House, it *world.Item) {
			h.Addons = append(h.Addons, it)
		},
		release: func(h *House, it *world.Item) {
			for i, a := range h.Addons {
				if a == it {
					h.Addons = append(h.Addons[:i], h.Addons[i+1:]...)
					break
				}
			}
		},
	},
	LockdownAddonContainer: {
		units: func(it *world.Item) int { return it.TotalItems() },
		lock: func(h *House, it *world.Item) {
			h.Addons = append(h.Addons, it)
		},
		release: func(h *House, it *world.Item) {
			for i, a := range h.Addons {
				if a == it {
					h.Addons = append(h.Addons[:i], h.Addons[i+1:]...)
					break
				}
			}
		},
	},
}

// classifyLockdown places an item into the closed kind set. Addon graphics
// are recognized by their component ranges; anything holding items is a
// container.
func classifyLockdown(it *world.Item) LockdownKind {
	addon := isAddonID(it.ItemID)
	container := it.Items != nil || isContainerID(it.ItemID)
	switch {
	case addon && container:
		return LockdownAddonContainer
	case addon:
		return LockdownAddon
	case container:
		return LockdownContainer
	default:
		return LockdownPlain
	}
}

// Addon graphics: deployed furniture structures.
var addonRanges = []idRange{
	{0x0B2C, 0x0C0F}, // forges, anvils, training dummies
	{0x1060, 0x1068}, // looms
}

func isAddonID(id int) bool {
	for _, r := range addonRanges {
		if id >= r.Lo && id <= r.Hi {
			return true
		}
	}
	return false
}

// Container graphics commonly secured in houses.
var containerRanges = []idRange{
	{0x09A8, 0x09AB}, // boxes and small crates
	{0x0E3C, 0x0E43}, // crates and chests
	{0x0E75, 0x0E80}, // packs and pouches
}

func isContainerID(id int) bool {
	for _, r := range containerRanges {
		if id >= r.Lo && id <= r.Hi {
			return true
		}
	}
	return false
}
