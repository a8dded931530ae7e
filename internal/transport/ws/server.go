package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"openshard.dev/internal/protocol"
	"openshard.dev/internal/shard"
)

type Server struct {
	shard *shard.Shard
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(sh *shard.Shard, logger *log.Logger) *Server {
	return &Server{
		shard: sh,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, out := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: control frames go out as text, design detail
		// payloads as binary.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case f, ok := <-out:
					if !ok {
						return
					}
					kind := websocket.TextMessage
					if f.Binary {
						kind = websocket.BinaryMessage
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(kind, f.Data); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Message pump: system lines queued on the mobile become MESSAGE
		// frames.
		msgs := sess.Mobile().Messages
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case text, ok := <-msgs:
					if !ok {
						return
					}
					sess.SendText(text)
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			if kind != websocket.TextMessage {
				continue
			}
			s.shard.Deliver(sess, msg)
		}

		s.shard.Leave(sess)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*shard.PlayerSession, chan shard.Frame) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, nil
	}

	out := make(chan shard.Frame, 64)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, welcome, err := s.shard.Join(ctx, hello, out)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(time.Second))
		return nil, nil
	}

	if err := writeJSON(conn, welcome); err != nil {
		s.shard.Leave(sess)
		return nil, nil
	}
	return sess, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
