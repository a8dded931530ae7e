package housing

import (
	"testing"
	"time"

	"openshard.dev/internal/world"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDesignEncoderCachesByRevision(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	enc := NewDesignEncoder(env.td, testLogger())
	defer enc.Close()

	ds := h.CurrentState()
	sess := &testSession{mob: owner}

	ds.SendDetailedTo(sess, enc)
	waitFor(t, "first detail packet", func() bool { return sess.packetCount() == 1 })

	cached := ds.CachedPacket()
	if cached == nil {
		t.Fatalf("encode did not install the packet")
	}
	if sess.lastPacket() != cached {
		t.Fatalf("delivered packet is not the cached one")
	}

	// Same revision again: the worker must reuse the cache, not re-encode.
	ds.SendDetailedTo(sess, enc)
	waitFor(t, "second detail packet", func() bool { return sess.packetCount() == 2 })
	if sess.lastPacket() != cached {
		t.Fatalf("cache was not reused for an unchanged revision")
	}
}

func TestDesignEncoderStaleJobStillDelivers(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	enc := NewDesignEncoder(env.td, testLogger())
	defer enc.Close()

	ds := h.CurrentState()
	sess := &testSession{mob: owner}

	mcl := ds.Components
	tiles := append([]MultiEntry(nil), mcl.List()...)
	stale := EncodeJob{
		State:    ds,
		Session:  sess,
		Serial:   uint32(h.Serial),
		Revision: ds.Revision(),
		MinX:     mcl.Min().X,
		MinY:     mcl.Min().Y,
		MaxX:     mcl.Max().X,
		MaxY:     mcl.Max().Y,
		Tiles:    tiles,
	}

	// The state moves on before the job runs.
	ds.OnRevised()
	enc.Enqueue(stale)

	waitFor(t, "stale detail packet", func() bool { return sess.packetCount() == 1 })
	if sess.lastPacket() == nil {
		t.Fatalf("superseded job dropped its packet")
	}
	if ds.CachedPacket() != nil {
		t.Fatalf("superseded job was installed into the cache")
	}
}
