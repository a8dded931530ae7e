package housedb

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// CurrentVersion is the record format written by Save. Older versions are
// upgraded in memory on load; the row is rewritten at the new version on the
// next save.
const CurrentVersion = 2

// ComponentRec is one multi tile of a stored design plane.
type ComponentRec struct {
	ItemID uint16
	X, Y   int
	Z      int
}

// DesignRec stores one design state: its component list, baked fixture list
// and the revision counter clients key their cached 0xD8 packets on.
type DesignRec struct {
	Revision   uint32
	Components []ComponentRec
	Fixtures   []ComponentRec
}

// ItemRec is the slice of an item the house layer owns. Contained items are
// flattened with a ParentIdx back-reference so container nesting survives a
// round trip.
type ItemRec struct {
	Serial    uint32
	ItemID    uint16
	X, Y, Z   int
	Movable   bool
	Visible   bool
	ParentIdx int // index into the same slice, -1 for roots
}

// SecureRec pairs a stored container tree (index 0 is the container itself)
// with its access level.
type SecureRec struct {
	Items []ItemRec
	Level int
}

// RecordV1 is the original layout from the legacy decay era. It carries only
// LastRefreshed; the decay level was recomputed from age on every check.
type RecordV1 struct {
	Serial   uint32
	MultiID  int
	MapName  string
	X, Y, Z  int
	Price    int
	BuiltOn  time.Time
	Owner    string
	Public   bool
	CoOwners []string
	Friends  []string
	Bans     []string
	Access   []string

	MaxLockDowns int
	MaxSecures   int
	LockDowns    []ItemRec
	Secures      []SecureRec
	Doors        []ItemRec

	LastRefreshed time.Time
}

// RecordV2 adds the staged decay fields, trade history and the three
// customizable-foundation design states.
type RecordV2 struct {
	Serial     uint32
	MultiID    int
	MapName    string
	X, Y, Z    int
	Price      int
	BuiltOn    time.Time
	LastTraded time.Time
	Owner      string
	Public     bool
	CoOwners   []string
	Friends    []string
	Bans       []string
	Access     []string

	MaxLockDowns int
	MaxSecures   int
	LockDowns    []ItemRec
	Secures      []SecureRec
	Doors        []ItemRec
	Crate        []ItemRec

	LastRefreshed  time.Time
	Stage          int
	NextDecayStage time.Time

	// Foundation-only. Nil for classic multis.
	Foundation *FoundationRec
}

// FoundationRec holds the customization state of a foundation house.
type FoundationRec struct {
	SignpostGraphic int
	Type            int
	Current         DesignRec
	Design          DesignRec
	Backup          DesignRec
}

// migrations upgrade a decoded record one version step at a time. Index i
// migrates version i+1 to i+2. Append only; never reorder.
var migrations = []func(blob []byte) ([]byte, error){
	migrateV1toV2,
}

func migrateV1toV2(blob []byte) ([]byte, error) {
	var v1 RecordV1
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&v1); err != nil {
		return nil, fmt.Errorf("decode v1: %w", err)
	}
	v2 := RecordV2{
		Serial:        v1.Serial,
		MultiID:       v1.MultiID,
		MapName:       v1.MapName,
		X:             v1.X,
		Y:             v1.Y,
		Z:             v1.Z,
		Price:         v1.Price,
		BuiltOn:       v1.BuiltOn,
		Owner:         v1.Owner,
		Public:        v1.Public,
		CoOwners:      v1.CoOwners,
		Friends:       v1.Friends,
		Bans:          v1.Bans,
		Access:        v1.Access,
		MaxLockDowns:  v1.MaxLockDowns,
		MaxSecures:    v1.MaxSecures,
		LockDowns:     v1.LockDowns,
		Secures:       v1.Secures,
		Doors:         v1.Doors,
		LastRefreshed: v1.LastRefreshed,
		// Stage resets to LikeNew; the first decay check reseeds the
		// dwell window from LastRefreshed.
		Stage: 0,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v2); err != nil {
		return nil, fmt.Errorf("encode v2: %w", err)
	}
	return buf.Bytes(), nil
}

// Upgrade walks the migration chain from the stored version up to
// CurrentVersion and decodes the final blob.
func Upgrade(version int, blob []byte) (RecordV2, error) {
	var rec RecordV2
	if version < 1 || version > CurrentVersion {
		return rec, fmt.Errorf("unknown record version %d", version)
	}
	for v := version; v < CurrentVersion; v++ {
		next, err := migrations[v-1](blob)
		if err != nil {
			return rec, fmt.Errorf("migrate v%d to v%d: %w", v, v+1, err)
		}
		blob = next
	}
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode v%d: %w", CurrentVersion, err)
	}
	return rec, nil
}

func encodeRecord(rec RecordV2) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(&rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return compress(raw.Bytes())
}

func gobEncodeV1(rec RecordV1) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(&rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return raw.Bytes(), nil
}

func compress(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zstd.NewWriter(&out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeBlob(blob []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	br := bufio.NewReader(zr)
	var out bytes.Buffer
	if _, err := out.ReadFrom(br); err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out.Bytes(), nil
}
