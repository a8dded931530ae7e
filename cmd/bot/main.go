// Command bot is a smoke client: it connects, places a small plot and runs a
// customization session against a live shard. Useful for poking a local
// server without a real game client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"openshard.dev/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:7775/v1/ws", "ws url")
		name    = flag.String("name", "bot", "character name")
		account = flag.String("account", "bot", "account name")
		multiID = flag.Int("multi", 0x1411, "foundation multi id to place")
		x       = flag.Int("x", 1510, "placement center x")
		y       = flag.Int("y", 1510, "placement center y")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		CharacterName:   *name,
		Account:         *account,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, logger: logger, multiID: *multiID, center: [3]int{*x, *y, 0}}

	for {
		select {
		case <-stop:
			return
		default:
		}

		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.BinaryMessage {
			// Design detail frames arrive as raw 0xD8 packets.
			logger.Printf("binary frame: %d bytes (packet 0x%02X)", len(msg), msg[0])
			continue
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME serial=%d map=%s pos=%v", w.Serial, w.Map, w.Pos)
			b.checkPlacement()

		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			logger.Printf("RESULT for=%s accepted=%v code=%s serial=%d %s", r.For, r.Accepted, r.Code, r.Serial, r.Message)
			b.advance(r)

		case protocol.TypeMessage:
			var m protocol.MessageMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			logger.Printf("MESSAGE %s", m.Text)
		}
	}
}

// bot walks a fixed script: check placement, place, customize, add a wall,
// commit. Each RESULT drives the next step.
type bot struct {
	conn    *websocket.Conn
	logger  *log.Logger
	multiID int
	center  [3]int

	step   int
	serial uint32
}

func (b *bot) checkPlacement() {
	_ = b.conn.WriteJSON(protocol.PlaceMsg{
		Type:            protocol.TypePlace,
		ProtocolVersion: protocol.Version,
		ID:              "check",
		MultiID:         b.multiID,
		Center:          b.center,
		CheckOnly:       true,
	})
}

func (b *bot) advance(r protocol.ResultMsg) {
	if !r.Accepted {
		b.logger.Printf("stopping at step %d: %s", b.step, r.Code)
		return
	}
	b.step++
	switch b.step {
	case 1:
		_ = b.conn.WriteJSON(protocol.PlaceMsg{
			Type:            protocol.TypePlace,
			ProtocolVersion: protocol.Version,
			ID:              "place",
			MultiID:         b.multiID,
			Center:          b.center,
		})
	case 2:
		b.serial = r.Serial
		_ = b.conn.WriteJSON(protocol.HouseCmdMsg{
			Type:            protocol.TypeHouseCmd,
			ProtocolVersion: protocol.Version,
			ID:              "customize",
			Serial:          b.serial,
			Cmd:             protocol.CmdCustomize,
		})
	case 3:
		_ = b.conn.WriteJSON(protocol.DesignOpMsg{
			Type:            protocol.TypeDesignOp,
			ProtocolVersion: protocol.Version,
			ID:              "wall",
			Serial:          b.serial,
			Op:              protocol.OpBuild,
			ItemID:          0x0064,
			X:               0,
			Y:               0,
		})
	case 4:
		_ = b.conn.WriteJSON(protocol.DesignOpMsg{
			Type:            protocol.TypeDesignOp,
			ProtocolVersion: protocol.Version,
			ID:              fmt.Sprintf("commit_%d", b.serial),
			Serial:          b.serial,
			Op:              protocol.OpCommit,
		})
	case 5:
		b.logger.Printf("script complete: house %d committed", b.serial)
	}
}
