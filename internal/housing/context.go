package housing

import (
	"openshard.dev/internal/world"
)

// DesignContext is one player's live customization session: which
// foundation they hold editing rights over and which floor they are
// looking at. At most one context per player, and one editor per
// foundation, at any time.
type DesignContext struct {
	Foundation *House
	Customizer *world.Mobile
	Level      int
}

// FindContext returns the player's active session, if any.
func (r *Registry) FindContext(m *world.Mobile) *DesignContext {
	return r.contexts[m]
}

// ContextFor returns the session editing a given foundation, if any.
func (r *Registry) ContextFor(h *House) *DesignContext {
	for _, ctx := range r.contexts {
		if ctx.Foundation == h {
			return ctx
		}
	}
	return nil
}

// AddContext opens a session; fails when either side is already busy.
func (r *Registry) AddContext(m *world.Mobile, h *House) *DesignContext {
	if r.contexts[m] != nil || r.ContextFor(h) != nil {
		return nil
	}
	ctx := &DesignContext{Foundation: h, Customizer: m, Level: 1}
	r.contexts[m] = ctx
	return ctx
}

// RemoveContext closes the player's session, if open.
func (r *Registry) RemoveContext(m *world.Mobile) {
	delete(r.contexts, m)
}
