package housing

import (
	"log"
	"time"

	"openshard.dev/internal/world"
)

// Rules is the shard-wide housing policy, loaded from config at startup.
type Rules struct {
	Era          Era
	AOSRules     bool
	DecayEnabled bool
	DynamicDecay bool
	DecayPeriod  time.Duration

	MaxCoOwners      int
	MaxFriends       int
	MaxBans          int
	HousesPerAccount int

	// CustomizationCost is the flat commit fee on top of the size delta.
	CustomizationCost int
}

func DefaultRules() Rules {
	return Rules{
		Era:               EraAOS,
		AOSRules:          true,
		DecayEnabled:      true,
		DynamicDecay:      true,
		DecayPeriod:       14 * 24 * time.Hour,
		MaxCoOwners:       15,
		MaxFriends:        140,
		MaxBans:           140,
		HousesPerAccount:  1,
		CustomizationCost: 0,
	}
}

// Registry is the explicit world-context for housing: the all-houses
// index, the owner-account index, the per-player design sessions and the
// shared detail encoder. One instance per shard, torn down with it.
type Registry struct {
	Rules      Rules
	Components *ComponentVerification

	logger  *log.Logger
	encoder *DesignEncoder

	houses   map[world.Serial]*House
	byOwner  map[*world.Account][]*House
	contexts map[*world.Mobile]*DesignContext
}

func NewRegistry(rules Rules, cv *ComponentVerification, td *world.TileData, logger *log.Logger) *Registry {
	if cv == nil {
		cv = DefaultComponents()
	}
	return &Registry{
		Rules:      rules,
		Components: cv,
		logger:     logger,
		encoder:    NewDesignEncoder(td, logger),
		houses:     make(map[world.Serial]*House),
		byOwner:    make(map[*world.Account][]*House),
		contexts:   make(map[*world.Mobile]*DesignContext),
	}
}

// Close stops the encoder worker.
func (r *Registry) Close() {
	r.encoder.Close()
}

func (r *Registry) Encoder() *DesignEncoder { return r.encoder }

func (r *Registry) Find(serial world.Serial) *House { return r.houses[serial] }

func (r *Registry) Count() int { return len(r.houses) }

// All visits every registered house; mutation of the registry during the
// walk is not allowed.
func (r *Registry) All(fn func(*House)) {
	for _, h := range r.houses {
		fn(h)
	}
}

// HousesOf lists the houses owned by a mobile's account.
func (r *Registry) HousesOf(m *world.Mobile) []*House {
	if m == nil || m.Account == nil {
		return nil
	}
	return r.byOwner[m.Account]
}

// CanOwnHouse enforces the per-account house cap. Checked at placement and
// transfer time, not as a structural invariant.
func (r *Registry) CanOwnHouse(m *world.Mobile) bool {
	if m == nil || m.Account == nil {
		return false
	}
	if m.AccessLevel >= world.AccessGameMaster {
		return true
	}
	return len(r.byOwner[m.Account]) < r.Rules.HousesPerAccount
}

// newestHouseFor picks the account's most recently built or traded house;
// that one auto-refreshes, all siblings need manual refresh.
func (r *Registry) newestHouseFor(acct *world.Account) *House {
	var newest *House
	var newestAt time.Time
	for _, h := range r.byOwner[acct] {
		at := h.BuiltOn
		if h.LastTraded.After(at) {
			at = h.LastTraded
		}
		if newest == nil || at.After(newestAt) {
			newest = h
			newestAt = at
		}
	}
	return newest
}

// BuildHouse constructs a house after a successful placement check and
// attaches it to the world. Entities collected by the check are relocated
// out of the footprint first.
func (r *Registry) BuildHouse(owner *world.Mobile, multiID int, center world.Point3D, now time.Time, moveItems []*world.Item, moveMobiles []*world.Mobile) *House {
	kind := KindClassic
	if IsFoundationID(multiID) {
		kind = KindFoundation
	}
	w, hgt, _ := FoundationDimensions(multiID)
	area := w * hgt

	h := &House{
		Serial:        world.NewSerial(),
		Kind:          kind,
		MultiID:       multiID,
		Map:           owner.Map,
		Location:      center,
		Owner:         owner,
		BuiltOn:       now,
		LastRefreshed: now,
		MaxLockDowns:  area * 2,
		MaxSecures:    area,
		registry:      r,
	}
	if kind == KindFoundation {
		h.Price = basePlotPrice(w, hgt)
		// Initialize the three design states up front.
		h.CurrentState()
		h.DesignState()
		h.BackupState()
	}

	r.houses[h.Serial] = h
	if owner.Account != nil {
		r.byOwner[owner.Account] = append(r.byOwner[owner.Account], h)
	}

	h.MoveToWorld()

	// Push footprint squatters to the side of the plot.
	at := h.SignLocation()
	for _, it := range moveItems {
		h.Map.MoveItem(it, at)
	}
	for _, m := range moveMobiles {
		h.Map.MoveMobile(m, at)
	}
	return h
}

// basePlotPrice is the purchase price of a customizable plot by footprint.
func basePlotPrice(w, h int) int {
	return 35000 + w*h*500
}

// PlotPrice quotes the purchase price for a multi before construction.
// Classic multis are deed-priced elsewhere; only plots are quoted here.
func PlotPrice(multiID int) int {
	w, h, ok := FoundationDimensions(multiID)
	if !ok {
		return 0
	}
	return basePlotPrice(w, h)
}

// register re-adds a loaded house to the indices (world-load path).
// RestoreHouse rebuilds a persisted house shell at its original serial and
// places it back in the world. The caller fills ACLs, lockdowns and design
// states afterwards; no gold changes hands and no squatters are moved.
func (r *Registry) RestoreHouse(serial world.Serial, owner *world.Mobile, m *world.Map, multiID int, loc world.Point3D) *House {
	kind := KindClassic
	if IsFoundationID(multiID) {
		kind = KindFoundation
	}
	w, hgt, _ := FoundationDimensions(multiID)
	area := w * hgt

	h := &House{
		Serial:       serial,
		Kind:         kind,
		MultiID:      multiID,
		Map:          m,
		Location:     loc,
		Owner:        owner,
		MaxLockDowns: area * 2,
		MaxSecures:   area,
	}
	r.register(h)
	h.MoveToWorld()
	return h
}

func (r *Registry) register(h *House) {
	h.registry = r
	r.houses[h.Serial] = h
	if h.Owner != nil && h.Owner.Account != nil {
		r.byOwner[h.Owner.Account] = append(r.byOwner[h.Owner.Account], h)
	}
}

func (r *Registry) unregister(h *House) {
	delete(r.houses, h.Serial)
	if h.Owner != nil && h.Owner.Account != nil {
		list := r.byOwner[h.Owner.Account]
		for i, v := range list {
			if v == h {
				r.byOwner[h.Owner.Account] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	if ctx := r.ContextFor(h); ctx != nil {
		r.RemoveContext(ctx.Customizer)
	}
}

func (r *Registry) reindexOwner(h *House, oldOwner, newOwner *world.Mobile) {
	if oldOwner != nil && oldOwner.Account != nil {
		list := r.byOwner[oldOwner.Account]
		for i, v := range list {
			if v == h {
				r.byOwner[oldOwner.Account] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	if newOwner != nil && newOwner.Account != nil {
		r.byOwner[newOwner.Account] = append(r.byOwner[newOwner.Account], h)
	}
}

// SweepDecay runs the periodic global decay pass. Houses that collapse are
// demolished during the walk; the list is snapshotted first.
func (r *Registry) SweepDecay(now time.Time) int {
	snapshot := make([]*House, 0, len(r.houses))
	for _, h := range r.houses {
		snapshot = append(snapshot, h)
	}
	demolished := 0
	for _, h := range snapshot {
		if h.CheckDecay(now) {
			demolished++
			r.logger.Printf("house %d collapsed (owner=%s)", h.Serial, ownerName(h))
		}
	}
	return demolished
}

func ownerName(h *House) string {
	if h.Owner == nil {
		return "none"
	}
	return h.Owner.Name
}
