package housing

import (
	"sync"

	"openshard.dev/internal/protocol"
)

// DesignState is one versioned snapshot of a foundation's layout:
// component tiles, fixtures tracked apart from plain tiles, and a
// revision number scoped to the owning foundation.
//
// Structural mutation happens only on the shard loop, inside a
// customization session. The packet cache is the one field also touched by
// the encoder goroutine, so cache and revision live under their own lock.
type DesignState struct {
	owner      *House
	Components *MultiComponentList
	Fixtures   []MultiEntry

	mu       sync.Mutex
	revision int
	packet   *protocol.Packet
}

func NewDesignState(owner *House, mcl *MultiComponentList) *DesignState {
	return &DesignState{owner: owner, Components: mcl}
}

// Copy deep-clones the state for the backup/restore/commit shuffle. The
// three roles (Current/Design/Backup) never share a state by reference.
func (ds *DesignState) Copy() *DesignState {
	ds.mu.Lock()
	rev := ds.revision
	ds.mu.Unlock()
	c := &DesignState{
		owner:      ds.owner,
		Components: ds.Components.Clone(),
		Fixtures:   append([]MultiEntry(nil), ds.Fixtures...),
		revision:   rev,
	}
	return c
}

func (ds *DesignState) Revision() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.revision
}

// OnRevised must follow every structural change: it takes the next
// foundation-scoped revision and drops any cached wire encoding, so no
// caller can read a stale packet after a mutation.
func (ds *DesignState) OnRevised() {
	rev := ds.owner.nextDesignRevision()
	ds.mu.Lock()
	ds.revision = rev
	ds.packet = nil
	ds.mu.Unlock()
}

// SeedRevision restores a persisted revision counter. It never lowers the
// foundation's high-water mark, so revisions stay monotonic across a reload.
func (ds *DesignState) SeedRevision(rev int) {
	ds.mu.Lock()
	ds.revision = rev
	ds.mu.Unlock()
	f := ds.owner.ensureFoundation()
	if rev > f.lastRevision {
		f.lastRevision = rev
	}
}

// CachedPacket returns the last installed wire encoding, or nil.
func (ds *DesignState) CachedPacket() *protocol.Packet {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.packet
}

// tryInstallPacket installs an encoded packet only while the state still
// sits at the revision the packet was built from. A stale packet is
// reported false and discarded from the cache's point of view; the caller
// still delivers it to the requester.
func (ds *DesignState) tryInstallPacket(revision int, p *protocol.Packet) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.revision != revision {
		return false
	}
	ds.packet = p
	return true
}

// FreezeFixtures bakes the fixture entries back into the component list.
// Done before size-based pricing so fixtures count as ordinary tiles only
// while frozen, never in a committed state.
func (ds *DesignState) FreezeFixtures() {
	ds.OnRevised()
	for _, f := range ds.Fixtures {
		ds.Components.Add(f.ItemID, f.X, f.Y, f.Z)
	}
	ds.Fixtures = nil
}

// MeltFixtures extracts fixture-graphic tiles out of the component list
// into the fixture array, preserving list order.
func (ds *DesignState) MeltFixtures() {
	ds.OnRevised()
	list := ds.Components.List()
	var fixtures []MultiEntry
	for _, e := range list {
		if IsFixtureID(e.ItemID) {
			fixtures = append(fixtures, e)
		}
	}
	for _, f := range fixtures {
		ds.Components.Remove(f.ItemID, f.X, f.Y, f.Z)
	}
	ds.Fixtures = fixtures
}

// SendGeneralInfoTo pushes the tiny revision advertisement.
func (ds *DesignState) SendGeneralInfoTo(s Session) {
	s.SendPacket(protocol.NewHouseGeneralInfo(uint32(ds.owner.Serial), uint32(ds.Revision())))
}

// SendDetailedTo queues a detail encode for this state toward the session.
// The heavy lifting (deflate) happens on the encoder goroutine.
func (ds *DesignState) SendDetailedTo(s Session, enc *DesignEncoder) {
	mcl := ds.Components
	tiles := make([]MultiEntry, len(mcl.List()))
	copy(tiles, mcl.List())
	enc.Enqueue(EncodeJob{
		State:    ds,
		Session:  s,
		Serial:   uint32(ds.owner.Serial),
		Revision: ds.Revision(),
		MinX:     mcl.Min().X,
		MinY:     mcl.Min().Y,
		MaxX:     mcl.Max().X,
		MaxY:     mcl.Max().Y,
		Tiles:    tiles,
	})
}
