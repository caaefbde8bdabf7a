// Package store keeps snapshots of the wall-strip collection in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/JMS2088/gablok/pkg/plan"
)

// ErrNoSnapshot is returned by LoadStrips when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// DefaultKeep is how many snapshots SaveStrips retains.
const DefaultKeep = 20

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    saved_at    TEXT    NOT NULL,
    strip_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS strips (
    snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    seq             INTEGER NOT NULL,
    id              TEXT    NOT NULL,
    level           INTEGER NOT NULL,
    x0 REAL NOT NULL, z0 REAL NOT NULL, x1 REAL NOT NULL, z1 REAL NOT NULL,
    thickness       REAL    NOT NULL,
    height          REAL    NOT NULL,
    base_y          REAL    NOT NULL,
    source_kind     TEXT    NOT NULL,
    owner_id        TEXT    NOT NULL DEFAULT '',
    outer_face_left INTEGER NOT NULL DEFAULT 0,
    interior_left   INTEGER NOT NULL DEFAULT 0,
    openings        TEXT    NOT NULL DEFAULT '[]',
    PRIMARY KEY (snapshot_id, seq)
);
`

// Snapshot describes one saved collection.
type Snapshot struct {
	ID         int64     `json:"id"`
	SavedAt    time.Time `json:"saved_at"`
	StripCount int       `json:"strip_count"`
}

// Store persists strip snapshots.
type Store struct {
	db   *sql.DB
	keep int
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, keep: DefaultKeep}, nil
}

// SetKeep changes how many snapshots are retained. Values below one are
// treated as one.
func (s *Store) SetKeep(n int) {
	s.keep = max(1, n)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveStrips writes the collection as a new snapshot and prunes old ones.
// Its signature matches the engine's persist hook.
func (s *Store) SaveStrips(ctx context.Context, strips []plan.WallStrip) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (saved_at, strip_count) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), len(strips))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO strips (snapshot_id, seq, id, level, x0, z0, x1, z1,
            thickness, height, base_y, source_kind, owner_id,
            outer_face_left, interior_left, openings)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare strip insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range strips {
		openings, err := json.Marshal(nonNil(st.Openings))
		if err != nil {
			return fmt.Errorf("strip %s openings: %w", st.ID, err)
		}
		_, err = stmt.ExecContext(ctx, snapID, i, st.ID, st.Level,
			st.X0, st.Z0, st.X1, st.Z1,
			st.Thickness, st.Height, st.BaseY,
			st.Source.Kind.String(), st.Source.OwnerID,
			st.OuterFaceLeft, st.InteriorLeft, string(openings))
		if err != nil {
			return fmt.Errorf("insert strip %s: %w", st.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
        DELETE FROM snapshots WHERE id NOT IN (
            SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
        )`, s.keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

func nonNil(ops []plan.ResolvedOpening) []plan.ResolvedOpening {
	if ops == nil {
		return []plan.ResolvedOpening{}
	}
	return ops
}

// LoadStrips returns the strips of the most recent snapshot in saved order.
func (s *Store) LoadStrips(ctx context.Context) ([]plan.WallStrip, error) {
	var snapID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&snapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.loadSnapshot(ctx, snapID)
}

func (s *Store) loadSnapshot(ctx context.Context, snapID int64) ([]plan.WallStrip, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, level, x0, z0, x1, z1, thickness, height, base_y,
            source_kind, owner_id, outer_face_left, interior_left, openings
        FROM strips
        WHERE snapshot_id = ?
        ORDER BY seq
    `, snapID)
	if err != nil {
		return nil, fmt.Errorf("query strips: %w", err)
	}
	defer rows.Close()

	strips := []plan.WallStrip{}
	for rows.Next() {
		var (
			st       plan.WallStrip
			kind     string
			openings string
		)
		if err := rows.Scan(&st.ID, &st.Level, &st.X0, &st.Z0, &st.X1, &st.Z1,
			&st.Thickness, &st.Height, &st.BaseY,
			&kind, &st.Source.OwnerID, &st.OuterFaceLeft, &st.InteriorLeft, &openings); err != nil {
			return nil, fmt.Errorf("scan strip: %w", err)
		}
		if err := st.Source.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("strip %s: %w", st.ID, err)
		}
		if err := json.Unmarshal([]byte(openings), &st.Openings); err != nil {
			return nil, fmt.Errorf("strip %s openings: %w", st.ID, err)
		}
		if len(st.Openings) == 0 {
			st.Openings = nil
		}
		strips = append(strips, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read strips: %w", err)
	}
	return strips, nil
}

// Snapshots lists the retained snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, saved_at, strip_count FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap  Snapshot
			saved string
		)
		if err := rows.Scan(&snap.ID, &saved, &snap.StripCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.SavedAt, err = time.Parse(time.RFC3339Nano, saved); err != nil {
			return nil, fmt.Errorf("snapshot %d time: %w", snap.ID, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
