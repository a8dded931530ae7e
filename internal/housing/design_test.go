package housing

import (
	"testing"

	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

func TestDesignRevisionsAreFoundationScoped(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	cur := h.CurrentState()
	des := h.DesignState()

	start := cur.Revision()
	des.OnRevised()
	cur.OnRevised()

	if des.Revision() <= start {
		t.Fatalf("design revision did not advance: %d <= %d", des.Revision(), start)
	}
	if cur.Revision() <= des.Revision() {
		t.Fatalf("states share one counter; want cur %d > des %d", cur.Revision(), des.Revision())
	}
}

func TestOnRevisedDropsCachedPacket(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	ds := h.DesignState()
	p := protocol.NewHouseGeneralInfo(uint32(h.Serial), uint32(ds.Revision()))
	if !ds.tryInstallPacket(ds.Revision(), p) {
		t.Fatalf("install at current revision refused")
	}
	if ds.CachedPacket() != p {
		t.Fatalf("packet not cached")
	}

	ds.OnRevised()
	if ds.CachedPacket() != nil {
		t.Fatalf("mutation left a stale packet in the cache")
	}
}

func TestTryInstallPacketRejectsStaleRevision(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	ds := h.DesignState()
	stale := ds.Revision()
	ds.OnRevised()

	p := protocol.NewHouseGeneralInfo(uint32(h.Serial), uint32(stale))
	if ds.tryInstallPacket(stale, p) {
		t.Fatalf("stale install accepted")
	}
	if ds.CachedPacket() != nil {
		t.Fatalf("stale install polluted the cache")
	}
}

func TestSeedRevisionRaisesHighWaterOnly(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	cur := h.CurrentState()
	des := h.DesignState()

	cur.SeedRevision(40)
	des.SeedRevision(5) // lower seed must not rewind the counter

	des.OnRevised()
	if got := des.Revision(); got != 41 {
		t.Fatalf("next revision after seeding 40: got %d, want 41", got)
	}
}

func TestDesignStateCopyIsIndependent(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	ds := h.DesignState()
	snapshot := ds.Copy()

	before := snapshot.Components.Count()
	ds.Components.Add(0x0064, 0, 0, 7)
	ds.OnRevised()

	if snapshot.Components.Count() != before {
		t.Fatalf("copy shares the component list")
	}
	if snapshot.Revision() == ds.Revision() {
		t.Fatalf("copy shares the revision")
	}
}

func TestFixtureFreezeMeltRoundTrip(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	ds := h.DesignState()
	base := ds.Components.Count()
	ds.Components.Add(0x0064, 0, 0, 7)  // wall, stays a plain tile
	ds.Components.Add(0x0675, 1, 0, 7)  // door, melts into a fixture
	ds.Components.Add(0x181D, 2, 2, 27) // teleporter, same

	ds.MeltFixtures()
	if got := len(ds.Fixtures); got != 2 {
		t.Fatalf("melted fixtures: got %d, want 2", got)
	}
	if got := ds.Components.Count(); got != base+1 {
		t.Fatalf("components after melt: got %d, want %d", got, base+1)
	}
	for _, f := range ds.Fixtures {
		if !IsFixtureID(f.ItemID) {
			t.Fatalf("non-fixture tile 0x%04X melted", f.ItemID)
		}
	}

	ds.FreezeFixtures()
	if ds.Fixtures != nil {
		t.Fatalf("freeze left fixtures outside the component list")
	}
	if got := ds.Components.Count(); got != base+3 {
		t.Fatalf("components after freeze: got %d, want %d", got, base+3)
	}
}
