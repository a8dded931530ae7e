package housing

import (
	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

// Session is the network attachment the housing core sends to. The ws
// transport implements it; tests use an in-memory recorder.
type Session interface {
	Mobile() *world.Mobile
	SendPacket(p *protocol.Packet)
	SendText(text string)
}
