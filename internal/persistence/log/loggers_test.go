package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func readEntries(t *testing.T, dir string) []Entry {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "houses-*.jsonl.zst"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no journal files in %s (err=%v)", dir, err)
	}
	var out []Entry
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", path, err)
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			t.Fatalf("zstd: %v", err)
		}
		sc := bufio.NewScanner(dec)
		for sc.Scan() {
			var e Entry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				t.Fatalf("bad journal line %q: %v", sc.Text(), err)
			}
			out = append(out, e)
		}
		dec.Close()
		_ = f.Close()
		if err := sc.Err(); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
	return out
}

func TestAuditLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)

	if err := l.WriteEntry(Entry{Event: "placed", Serial: 7, Map: "Felucca", Actor: "alice", Detail: "multi 0x1411"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteEntry(Entry{Event: "demolished", Serial: 7, Map: "Felucca", Actor: "alice"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Event != "placed" || entries[0].Serial != 7 || entries[0].Actor != "alice" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[0].Time.IsZero() {
		t.Fatalf("write did not stamp the entry time")
	}
	if entries[1].Event != "demolished" {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestAuditLoggerAppendsAcrossReopens(t *testing.T) {
	dir := t.TempDir()

	l := NewAuditLogger(dir)
	stamp := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := l.WriteEntry(Entry{Time: stamp, Event: "placed", Serial: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A restart within the same hour appends a second zstd stream to the
	// same file; the decoder reads both.
	l = NewAuditLogger(dir)
	if err := l.WriteEntry(Entry{Time: stamp, Event: "transferred", Serial: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if !entries[0].Time.Equal(stamp) {
		t.Fatalf("explicit timestamp not preserved: %v", entries[0].Time)
	}
}
