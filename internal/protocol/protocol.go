package protocol

import "encoding/json"

const Version = "1.0"

// Control frame types (JSON text frames). Design detail payloads travel as
// binary frames, not as one of these.
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypePlace    = "PLACE"
	TypeDesignOp = "DESIGN_OP"
	TypeHouseCmd = "HOUSE_CMD"
	TypeResult   = "RESULT"
	TypeMessage  = "MESSAGE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
