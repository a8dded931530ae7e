package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	CharacterName   string     `json:"character_name"`
	Account         string     `json:"account"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Serial          uint32 `json:"serial"`
	Map             string `json:"map"`
	Pos             [3]int `json:"pos"`
}

// PLACE (client -> server): request a placement check / house construction.
type PlaceMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	MultiID         int    `json:"multi_id"`
	Center          [3]int `json:"center"`
	// CheckOnly runs validation without constructing on success.
	CheckOnly bool `json:"check_only,omitempty"`
}

// Design op names carried by DESIGN_OP frames.
const (
	OpBuild      = "BUILD"
	OpDelete     = "DELETE"
	OpStairs     = "STAIRS"
	OpRoof       = "ROOF"
	OpRoofDelete = "ROOF_DELETE"
	OpLevel      = "LEVEL"
	OpClear      = "CLEAR"
	OpSync       = "SYNC"
	OpBackup     = "BACKUP"
	OpRestore    = "RESTORE"
	OpRevert     = "REVERT"
	OpCommit     = "COMMIT"
	OpClose      = "CLOSE"
)

// DESIGN_OP (client -> server): one customization mutation. X/Y are
// center-relative tile offsets; Z is absolute for ops that need it.
type DesignOpMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Serial          uint32 `json:"serial"`
	Op              string `json:"op"`
	ItemID          int    `json:"item_id,omitempty"`
	X               int    `json:"x,omitempty"`
	Y               int    `json:"y,omitempty"`
	Z               int    `json:"z,omitempty"`
	Level           int    `json:"level,omitempty"`
}

// House command names carried by HOUSE_CMD frames.
const (
	CmdCustomize     = "CUSTOMIZE"
	CmdDemolish      = "DEMOLISH"
	CmdTransfer      = "TRANSFER"
	CmdLockDown      = "LOCKDOWN"
	CmdRelease       = "RELEASE"
	CmdSecure        = "SECURE"
	CmdReleaseSecure = "RELEASE_SECURE"
	CmdAddCoOwner    = "ADD_COOWNER"
	CmdRemoveCoOwner = "REMOVE_COOWNER"
	CmdAddFriend     = "ADD_FRIEND"
	CmdRemoveFriend  = "REMOVE_FRIEND"
	CmdBan           = "BAN"
	CmdRemoveBan     = "REMOVE_BAN"
	CmdGrantAccess   = "GRANT_ACCESS"
	CmdRemoveAccess  = "REMOVE_ACCESS"
	CmdKick          = "KICK"
	CmdPublic        = "PUBLIC"
	CmdPrivate       = "PRIVATE"
	CmdChangeLocks   = "CHANGE_LOCKS"
	CmdRefresh       = "REFRESH"
)

// HOUSE_CMD (client -> server): a targeted house interaction.
type HouseCmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Serial          uint32 `json:"serial"`
	Cmd             string `json:"cmd"`
	Target          uint32 `json:"target,omitempty"` // item or mobile serial
	SecureLevel     string `json:"secure_level,omitempty"`
}

// RESULT (server -> client): outcome of a PLACE / DESIGN_OP / HOUSE_CMD.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	For             string `json:"for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Serial          uint32 `json:"serial,omitempty"`
}

// MESSAGE (server -> client): a system message line.
type MessageMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Text            string `json:"text"`
}
