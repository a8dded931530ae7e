package housedb

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists house records to sqlite. Writes are funneled through a
// single goroutine so callers never block on disk; reads (LoadAll) happen
// once at boot before the shard loop starts.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqSave reqKind = iota + 1
	reqDelete
)

type req struct {
	kind   reqKind
	serial uint32
	rec    RecordV2
}

func Open(path string, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[housedb] ", log.LstdFlags|log.Lmicroseconds)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: logger,
		// Roomy buffer: a decay sweep can queue every house at once.
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps save bursts off the shard loop's critical path.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS houses (
			serial INTEGER PRIMARY KEY,
			version INTEGER NOT NULL,
			owner TEXT NOT NULL,
			map TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			blob BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_houses_owner ON houses(owner);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Save queues a record write. The record must be a snapshot the caller no
// longer mutates; the shard loop builds it fresh per save.
func (s *Store) Save(rec RecordV2) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- req{kind: reqSave, serial: rec.Serial, rec: rec}
}

// Delete queues removal of a demolished house's row.
func (s *Store) Delete(serial uint32) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- req{kind: reqDelete, serial: serial}
}

// LoadAll reads every stored house, upgrading old record versions in place.
// Rows that fail to decode are skipped with a log line rather than aborting
// the boot; one corrupt house should not take the shard down.
func (s *Store) LoadAll() ([]RecordV2, error) {
	rows, err := s.db.Query(`SELECT serial, version, blob FROM houses ORDER BY serial`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordV2
	for rows.Next() {
		var serial uint32
		var version int
		var blob []byte
		if err := rows.Scan(&serial, &version, &blob); err != nil {
			return nil, err
		}
		raw, err := decodeBlob(blob)
		if err != nil {
			s.logger.Printf("load: house %d: %v (skipped)", serial, err)
			continue
		}
		rec, err := Upgrade(version, raw)
		if err != nil {
			s.logger.Printf("load: house %d: %v (skipped)", serial, err)
			continue
		}
		if rec.Serial != serial {
			s.logger.Printf("load: house %d: blob serial %d mismatch (skipped)", serial, rec.Serial)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) loop() {
	upsert, _ := s.db.Prepare(`INSERT OR REPLACE INTO houses(serial,version,owner,map,updated_at,blob) VALUES(?,?,?,?,?,?)`)
	del, _ := s.db.Prepare(`DELETE FROM houses WHERE serial=?`)
	defer func() {
		if upsert != nil {
			_ = upsert.Close()
		}
		if del != nil {
			_ = del.Close()
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqSave:
			blob, err := encodeRecord(r.rec)
			if err != nil {
				s.logger.Printf("save: house %d: %v", r.serial, err)
				continue
			}
			now := time.Now().UTC().Format(time.RFC3339Nano)
			if _, err := upsert.Exec(r.rec.Serial, CurrentVersion, r.rec.Owner, r.rec.MapName, now, blob); err != nil {
				s.logger.Printf("save: house %d: %v", r.serial, err)
			}
		case reqDelete:
			if _, err := del.Exec(r.serial); err != nil {
				s.logger.Printf("delete: house %d: %v", r.serial, err)
			}
		}
	}
}

// SaveV1 writes a record in the legacy format. Only migration tests use it;
// the server always writes CurrentVersion.
func (s *Store) SaveV1(rec RecordV1) error {
	var buf []byte
	{
		raw, err := gobEncodeV1(rec)
		if err != nil {
			return err
		}
		buf, err = compress(raw)
		if err != nil {
			return err
		}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`INSERT OR REPLACE INTO houses(serial,version,owner,map,updated_at,blob) VALUES(?,?,?,?,?,?)`,
		rec.Serial, 1, rec.Owner, rec.MapName, now, buf)
	return err
}
