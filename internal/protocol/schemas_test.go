package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"openshard.dev/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	placeSchema := compile("place.schema.json")
	designOpSchema := compile("design_op.schema.json")
	houseCmdSchema := compile("house_cmd.schema.json")
	resultSchema := compile("result.schema.json")
	messageSchema := compile("message.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "character_name":"alice",
	  "account":"alice",
	  "auth":{"token":"t0ken"}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "serial":1073741825,
	  "map":"Felucca",
	  "pos":[1500,1500,0]
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var place any
	_ = json.Unmarshal([]byte(`{
	  "type":"PLACE",
	  "protocol_version":"1.0",
	  "id":"p1",
	  "multi_id":5137,
	  "center":[200,200,0],
	  "check_only":true
	}`), &place)
	validate(placeSchema, place)

	var designOp any
	_ = json.Unmarshal([]byte(`{
	  "type":"DESIGN_OP",
	  "protocol_version":"1.0",
	  "id":"d1",
	  "serial":1073741825,
	  "op":"BUILD",
	  "item_id":100,
	  "x":0,
	  "y":0
	}`), &designOp)
	validate(designOpSchema, designOp)

	var houseCmd any
	_ = json.Unmarshal([]byte(`{
	  "type":"HOUSE_CMD",
	  "protocol_version":"1.0",
	  "id":"c1",
	  "serial":1073741825,
	  "cmd":"SECURE",
	  "target":1073741900,
	  "secure_level":"friends"
	}`), &houseCmd)
	validate(houseCmdSchema, houseCmd)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "protocol_version":"1.0",
	  "for":"p1",
	  "accepted":false,
	  "code":"NO_GOLD",
	  "message":"Insufficient funds are in your bank box."
	}`), &result)
	validate(resultSchema, result)

	var message any
	_ = json.Unmarshal([]byte(`{
	  "type":"MESSAGE",
	  "protocol_version":"1.0",
	  "text":"The item has been locked down."
	}`), &message)
	validate(messageSchema, message)
}

func TestSchemas_RejectBadFrames(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", name))
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}
	reject := func(s *jsonschema.Schema, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}

	designOpSchema := compile("design_op.schema.json")
	// unknown op
	reject(designOpSchema, `{"type":"DESIGN_OP","protocol_version":"1.0","id":"d1","serial":1,"op":"PAINT"}`)
	// item_id beyond the 14-bit tile space
	reject(designOpSchema, `{"type":"DESIGN_OP","protocol_version":"1.0","id":"d1","serial":1,"op":"BUILD","item_id":20000}`)
	// level outside 1..4
	reject(designOpSchema, `{"type":"DESIGN_OP","protocol_version":"1.0","id":"d1","serial":1,"op":"LEVEL","level":5}`)
	// serial zero
	reject(designOpSchema, `{"type":"DESIGN_OP","protocol_version":"1.0","id":"d1","serial":0,"op":"SYNC"}`)

	houseCmdSchema := compile("house_cmd.schema.json")
	reject(houseCmdSchema, `{"type":"HOUSE_CMD","protocol_version":"1.0","id":"c1","serial":1,"cmd":"EXPLODE"}`)
	reject(houseCmdSchema, `{"type":"HOUSE_CMD","protocol_version":"1.0","id":"c1","serial":1,"cmd":"SECURE","secure_level":"everyone"}`)

	helloSchema := compile("hello.schema.json")
	reject(helloSchema, `{"type":"HELLO","protocol_version":"1.0"}`)
	reject(helloSchema, `{"type":"HELLO","protocol_version":"1.0","character_name":"alice","extra":true}`)
}

// The wire structs must emit exactly what the schemas accept.
func TestSchemas_AcceptMarshaledStructs(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", name))
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}
	check := func(schema *jsonschema.Schema, msg any) {
		t.Helper()
		raw, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("reparse: %v", err)
		}
		if err := schema.Validate(v); err != nil {
			t.Fatalf("marshaled %T rejected: %v", msg, err)
		}
	}

	check(compile("hello.schema.json"), protocol.HelloMsg{
		Type: protocol.TypeHello, ProtocolVersion: protocol.Version,
		CharacterName: "alice", Account: "alice",
	})
	check(compile("welcome.schema.json"), protocol.WelcomeMsg{
		Type: protocol.TypeWelcome, ProtocolVersion: protocol.Version,
		Serial: 1, Map: "Felucca", Pos: [3]int{1500, 1500, 0},
	})
	check(compile("place.schema.json"), protocol.PlaceMsg{
		Type: protocol.TypePlace, ProtocolVersion: protocol.Version,
		ID: "p1", MultiID: 0x1411, Center: [3]int{200, 200, 0},
	})
	check(compile("design_op.schema.json"), protocol.DesignOpMsg{
		Type: protocol.TypeDesignOp, ProtocolVersion: protocol.Version,
		ID: "d1", Serial: 1, Op: protocol.OpCommit,
	})
	check(compile("house_cmd.schema.json"), protocol.HouseCmdMsg{
		Type: protocol.TypeHouseCmd, ProtocolVersion: protocol.Version,
		ID: "c1", Serial: 1, Cmd: protocol.CmdRefresh,
	})
	check(compile("result.schema.json"), protocol.ResultMsg{
		Type: protocol.TypeResult, ProtocolVersion: protocol.Version,
		For: "c1", Accepted: true, Serial: 1,
	})
	check(compile("message.schema.json"), protocol.MessageMsg{
		Type: protocol.TypeMessage, ProtocolVersion: protocol.Version,
		Text: "hello",
	})
}
