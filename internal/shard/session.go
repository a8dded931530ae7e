package shard

import (
	"encoding/json"
	"sync/atomic"

	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

// Frame is one outbound websocket frame. Control traffic is JSON text;
// design detail payloads ride as opaque binary.
type Frame struct {
	Binary bool
	Data   []byte
}

// PlayerSession binds a connected character to its outbound frame queue.
// SendPacket is called from the design encoder worker as well as the shard
// loop, so delivery must not block: a full queue drops the frame and the
// client re-requests with a SYNC.
type PlayerSession struct {
	mob *world.Mobile
	out chan Frame

	closed atomic.Bool
}

func newPlayerSession(mob *world.Mobile, out chan Frame) *PlayerSession {
	return &PlayerSession{mob: mob, out: out}
}

func (s *PlayerSession) Mobile() *world.Mobile { return s.mob }

func (s *PlayerSession) SendPacket(p *protocol.Packet) {
	if s.closed.Load() {
		return
	}
	select {
	case s.out <- Frame{Binary: true, Data: p.Bytes()}:
	default:
	}
}

func (s *PlayerSession) SendText(text string) {
	s.sendJSON(protocol.MessageMsg{
		Type:            protocol.TypeMessage,
		ProtocolVersion: protocol.Version,
		Text:            text,
	})
}

func (s *PlayerSession) sendJSON(v any) {
	if s.closed.Load() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- Frame{Data: b}:
	default:
	}
}

func (s *PlayerSession) sendResult(forID string, accepted bool, code, message string, serial uint32) {
	s.sendJSON(protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		For:             forID,
		Accepted:        accepted,
		Code:            code,
		Message:         message,
		Serial:          serial,
	})
}

func (s *PlayerSession) close() {
	s.closed.Store(true)
}
