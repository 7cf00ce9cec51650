package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLiteStore is the durable record store. Records and their vectors live in
// two tables inside one database file, so a single snapshot always covers
// both structures.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", ErrValidation)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %v", ErrStorageFailure, err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStorageFailure, err)
	}

	// The store serves one interactive CLI invocation; writers from separate
	// processes serialize on SQLite's own locking.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vectors (
		id INTEGER PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
		embedding BLOB NOT NULL,
		dim INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create tables: %v", ErrStorageFailure, err)
	}
	return nil
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Dimension returns the dimensionality of the stored vectors, or 0 when the
// store holds none yet.
func (s *SQLiteStore) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, "SELECT dim FROM vectors LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read dimension: %v", ErrStorageFailure, err)
	}
	return dim, nil
}

func (s *SQLiteStore) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrStorageFailure, err)
	}
	return tx, nil
}

// insertTx persists a new record and its vector inside tx and assigns the id.
func (s *SQLiteStore) insertTx(ctx context.Context, tx *sql.Tx, mem *Memory) error {
	tags, err := json.Marshal(mem.Tags)
	if err != nil {
		return fmt.Errorf("%w: marshal tags: %v", ErrStorageFailure, err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO memories (content, tags, created_at, updated_at) VALUES (?, ?, ?, ?)",
		mem.Content, string(tags),
		mem.CreatedAt.UTC().Format(timeLayout),
		mem.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: insert memory: %v", ErrStorageFailure, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: last insert id: %v", ErrStorageFailure, err)
	}
	mem.ID = id

	_, err = tx.ExecContext(ctx,
		"INSERT INTO vectors (id, embedding, dim) VALUES (?, ?, ?)",
		id, encodeVector(mem.Vector), len(mem.Vector))
	if err != nil {
		return fmt.Errorf("%w: insert vector: %v", ErrStorageFailure, err)
	}
	return nil
}

// updateTx rewrites content, tags and timestamps, replacing the vector row
// when the vector changed.
func (s *SQLiteStore) updateTx(ctx context.Context, tx *sql.Tx, mem *Memory, newVector bool) error {
	tags, err := json.Marshal(mem.Tags)
	if err != nil {
		return fmt.Errorf("%w: marshal tags: %v", ErrStorageFailure, err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE memories SET content = ?, tags = ?, updated_at = ? WHERE id = ?",
		mem.Content, string(tags), mem.UpdatedAt.UTC().Format(timeLayout), mem.ID)
	if err != nil {
		return fmt.Errorf("%w: update memory: %v", ErrStorageFailure, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if newVector {
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO vectors (id, embedding, dim) VALUES (?, ?, ?)",
			mem.ID, encodeVector(mem.Vector), len(mem.Vector))
		if err != nil {
			return fmt.Errorf("%w: replace vector: %v", ErrStorageFailure, err)
		}
	}
	return nil
}

// deleteTx removes the record and its vector. Deleting an unknown id is
// strict: it reports ErrNotFound.
func (s *SQLiteStore) deleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: delete memory: %v", ErrStorageFailure, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: delete vector: %v", ErrStorageFailure, err)
	}
	return nil
}

const selectColumns = `m.id, m.content, m.tags, m.created_at, m.updated_at, v.embedding
	FROM memories m LEFT JOIN vectors v ON v.id = m.id`

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Memory, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" WHERE m.id = ?", id)

	mem, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// List returns records ordered by created_at descending, then id descending.
// Without a tag filter, paging is pushed into the SQL; with one, records are
// filtered in Go first so offset/limit address the filtered sequence.
func (s *SQLiteStore) List(ctx context.Context, tags []string, limit, offset int) ([]*Memory, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", ErrValidation)
	}

	filter := NormalizeTags(tags)

	query := "SELECT " + selectColumns + " ORDER BY m.created_at DESC, m.id DESC"
	var args []any
	if len(filter) == 0 {
		sqlLimit := limit
		if sqlLimit <= 0 {
			sqlLimit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, sqlLimit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list memories: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	skipped := 0
	var out []*Memory

	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		if len(filter) > 0 {
			if !HasAnyTag(mem, filter) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		out = append(out, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list memories: %v", ErrStorageFailure, err)
	}
	return out, nil
}

// IDsByTags resolves a tag filter to the candidate id set for the index.
func (s *SQLiteStore) IDsByTags(ctx context.Context, tags []string) (map[int64]bool, error) {
	filter := NormalizeTags(tags)
	if len(filter) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, tags FROM memories")
	if err != nil {
		return nil, fmt.Errorf("%w: scan tags: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: scan tags: %v", ErrStorageFailure, err)
		}
		var recTags []string
		if err := json.Unmarshal([]byte(raw), &recTags); err != nil {
			return nil, fmt.Errorf("%w: decode tags for id %d: %v", ErrStorageFailure, id, err)
		}
		if HasAnyTag(&Memory{Tags: recTags}, filter) {
			ids[id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan tags: %v", ErrStorageFailure, err)
	}
	return ids, nil
}

// AllVectors streams the persisted (id, vector) pairs, used by startup
// reconciliation to converge the index without re-embedding.
func (s *SQLiteStore) AllVectors(ctx context.Context) (map[int64][]float32, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, embedding FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("%w: read vectors: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	out := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan vector: %v", ErrStorageFailure, err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: decode vector for id %d: %v", ErrStorageFailure, id, err)
		}
		out[id] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read vectors: %v", ErrStorageFailure, err)
	}
	return out, nil
}

// ExportAll returns every record in creation order.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]*Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" ORDER BY m.created_at ASC, m.id ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: export: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: export: %v", ErrStorageFailure, err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStorageFailure, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var (
		mem       Memory
		rawTags   string
		createdAt string
		updatedAt string
		blob      []byte
	)

	if err := row.Scan(&mem.ID, &mem.Content, &rawTags, &createdAt, &updatedAt, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan memory: %v", ErrStorageFailure, err)
	}

	if err := json.Unmarshal([]byte(rawTags), &mem.Tags); err != nil {
		return nil, fmt.Errorf("%w: decode tags for id %d: %v", ErrStorageFailure, mem.ID, err)
	}

	var err error
	if mem.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("%w: created_at for id %d: %v", ErrStorageFailure, mem.ID, err)
	}
	if mem.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("%w: updated_at for id %d: %v", ErrStorageFailure, mem.ID, err)
	}

	if blob != nil {
		if mem.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("%w: vector for id %d: %v", ErrStorageFailure, mem.ID, err)
		}
	}
	return &mem, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
