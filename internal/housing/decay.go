package housing

import (
	"math/rand"
	"time"

	"openshard.dev/internal/world"
)

// DecayLevel is the visible state of neglect, worst last.
type DecayLevel int

const (
	DecayLikeNew DecayLevel = iota
	DecaySlightly
	DecaySomewhat
	DecayFairly
	DecayGreatly
	DecayIDOC
	DecayCollapsed
	DecayDemolitionPending
)

func (l DecayLevel) String() string {
	switch l {
	case DecayLikeNew:
		return "like new"
	case DecaySlightly:
		return "slightly worn"
	case DecaySomewhat:
		return "somewhat worn"
	case DecayFairly:
		return "fairly worn"
	case DecayGreatly:
		return "greatly worn"
	case DecayIDOC:
		return "in danger of collapsing"
	case DecayCollapsed:
		return "collapsed"
	case DecayDemolitionPending:
		return "awaiting demolition"
	}
	return "unknown"
}

// DecayType gates whether decay applies at all, derived from the owning
// account's standing.
type DecayType int

const (
	DecayAgeless DecayType = iota
	DecayAutoRefresh
	DecayManualRefresh
	DecayCondemned
)

// stageDwell is the registered random dwell window for one dynamic stage.
type stageDwell struct {
	min, max time.Duration
}

var dynamicStages = map[DecayLevel]stageDwell{
	DecayLikeNew:  {time.Hour, time.Hour},
	DecaySlightly: {24 * time.Hour, 45 * time.Hour},
	DecaySomewhat: {24 * time.Hour, 45 * time.Hour},
	DecayFairly:   {24 * time.Hour, 45 * time.Hour},
	DecayGreatly:  {24 * time.Hour, 45 * time.Hour},
	DecayIDOC:     {12 * time.Hour, 24 * time.Hour},
}

func (d stageDwell) roll() time.Duration {
	if d.max <= d.min {
		return d.min
	}
	return d.min + time.Duration(rand.Int63n(int64(d.max-d.min)))
}

// DecayKind derives the decay policy for this house from the owner's
// account: staff houses never decay, inactive accounts are condemned, and
// only the account's most recently built or traded house auto-refreshes.
func (h *House) DecayKind() DecayType {
	if !h.registry.Rules.DecayEnabled {
		return DecayAgeless
	}
	if h.Owner == nil || h.Owner.Account == nil {
		return DecayCondemned
	}
	acct := h.Owner.Account
	if acct.AccessLevel >= world.AccessGameMaster {
		return DecayAgeless
	}
	if acct.Inactive {
		return DecayCondemned
	}
	if h.registry.newestHouseFor(acct) == h {
		return DecayAutoRefresh
	}
	return DecayManualRefresh
}

// CanDecay reports whether passive wear applies to this house.
// Auto-refresh houses renew themselves on every sweep, so only
// manual-refresh and condemned houses accumulate it.
func (h *House) CanDecay() bool {
	switch h.DecayKind() {
	case DecayManualRefresh, DecayCondemned:
		return true
	}
	return false
}

// RefreshDecay resets the house to like-new, restarting both regimes'
// clocks.
func (h *House) RefreshDecay(now time.Time) {
	h.LastRefreshed = now
	h.Stage = DecayLikeNew
	h.NextDecayStage = time.Time{}
}

// DecayLevelAt reports the house's decay level under the active regime.
func (h *House) DecayLevelAt(now time.Time) DecayLevel {
	if !h.CanDecay() {
		return DecayLikeNew
	}
	if h.registry.Rules.DynamicDecay {
		return h.Stage
	}
	return h.legacyDecayLevel(now)
}

// legacyDecayLevel maps elapsed-since-refresh over the decay period onto
// the named levels by fixed per-mille thresholds.
func (h *House) legacyDecayLevel(now time.Time) DecayLevel {
	period := h.registry.Rules.DecayPeriod
	if period < time.Millisecond {
		return DecayLikeNew
	}
	elapsed := now.Sub(h.LastRefreshed)
	permille := int64(0)
	if elapsed > 0 {
		// Millisecond units keep the multiply from overflowing on houses
		// unrefreshed for months.
		permille = elapsed.Milliseconds() * 1000 / period.Milliseconds()
	}
	switch {
	case permille < 50:
		return DecayLikeNew
	case permille < 250:
		return DecaySlightly
	case permille < 500:
		return DecaySomewhat
	case permille < 750:
		return DecayFairly
	case permille < 950:
		return DecayGreatly
	case permille < 1000:
		return DecayIDOC
	}
	return DecayCollapsed
}

// AdvanceDecayStage is the dynamic regime's tick: the stage moves only
// once its registered dwell window has elapsed. Reports whether the stage
// changed.
func (h *House) AdvanceDecayStage(now time.Time) bool {
	if !h.CanDecay() || !h.registry.Rules.DynamicDecay {
		return false
	}
	if h.Stage >= DecayCollapsed {
		return false
	}
	if h.NextDecayStage.IsZero() {
		h.NextDecayStage = now.Add(dynamicStages[h.Stage].roll())
		return false
	}
	if now.Before(h.NextDecayStage) {
		return false
	}
	h.Stage++
	if dwell, ok := dynamicStages[h.Stage]; ok {
		h.NextDecayStage = now.Add(dwell.roll())
	} else {
		h.NextDecayStage = time.Time{}
	}
	return true
}

// CheckDecay evaluates one house on the global sweep; a collapsed house is
// torn down after its salvageable contents move to the crate. Houses kept
// alive by rented vendors linger in demolition-pending instead. Reports
// whether the house was demolished.
func (h *House) CheckDecay(now time.Time) bool {
	if h.deleted {
		return false
	}
	switch h.DecayKind() {
	case DecayAutoRefresh:
		// The account's newest house renews itself every sweep.
		h.RefreshDecay(now)
		return false
	case DecayAgeless:
		return false
	}

	if h.registry.Rules.DynamicDecay {
		h.AdvanceDecayStage(now)
	}

	if h.DecayLevelAt(now) < DecayCollapsed {
		return false
	}

	if len(h.Vendors) > 0 {
		h.Stage = DecayDemolitionPending
		return false
	}

	// Salvage: everything locked or secured heads for the crate before the
	// structure goes away.
	for _, it := range h.LockDowns {
		it.LockedDown = false
		it.Movable = true
		h.AppendToCrate(it)
	}
	h.LockDowns = nil

	h.Demolish()
	return true
}
