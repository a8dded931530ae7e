package housing

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// testSession records everything sent to it; SendPacket must be safe from
// the encoder goroutine.
type testSession struct {
	mob *world.Mobile

	mu      sync.Mutex
	packets []*protocol.Packet
	texts   []string
}

func (s *testSession) Mobile() *world.Mobile { return s.mob }

func (s *testSession) SendPacket(p *protocol.Packet) {
	s.mu.Lock()
	s.packets = append(s.packets, p)
	s.mu.Unlock()
}

func (s *testSession) SendText(text string) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
}

func (s *testSession) packetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

func (s *testSession) lastPacket() *protocol.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.packets) == 0 {
		return nil
	}
	return s.packets[len(s.packets)-1]
}

type testEnv struct {
	td  *world.TileData
	m   *world.Map
	reg *Registry
}

func newTestEnv(t *testing.T, rules Rules) *testEnv {
	t.Helper()
	td := world.NewTileData()
	m := world.NewMap("Felucca", td)
	reg := NewRegistry(rules, nil, td, testLogger())
	t.Cleanup(reg.Close)
	return &testEnv{td: td, m: m, reg: reg}
}

func (e *testEnv) newPlayer(t *testing.T, name string, gold int) *world.Mobile {
	t.Helper()
	mob := world.NewMobile(name)
	mob.Account = &world.Account{Username: name, LastLogin: time.Now()}
	mob.Location = world.Point3D{X: 100, Y: 100, Z: 0}
	e.m.AddMobile(mob)
	if gold > 0 {
		mob.DepositGold(gold)
	}
	return mob
}

// placeFoundation builds an 8x8 plot well away from the default player
// spot and returns it.
func (e *testEnv) placeFoundation(t *testing.T, owner *world.Mobile, at world.Point3D) *House {
	t.Helper()
	multiID := FoundationID(8, 8)
	res, items, mobs := CheckPlacement(owner, multiID, at)
	if res != PlacementValid {
		t.Fatalf("placement at %v: %v", at, res)
	}
	h := e.reg.BuildHouse(owner, multiID, at, time.Now(), items, mobs)
	if h == nil {
		t.Fatalf("BuildHouse returned nil")
	}
	return h
}
