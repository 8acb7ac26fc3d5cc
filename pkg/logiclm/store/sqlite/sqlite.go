package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	text TEXT NOT NULL,
	vector BLOB,
	UNIQUE(source, text)
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	mode TEXT NOT NULL,
	description TEXT,
	context TEXT,
	logic TEXT,
	errors TEXT,
	refined INTEGER NOT NULL DEFAULT 0,
	derived TEXT,
	answer TEXT
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertDocument inserts a document or replaces the vector of an existing one.
func (s *sqliteStore) UpsertDocument(ctx context.Context, d store.Document) error {
	if d.Source == "" || d.Text == "" {
		return fmt.Errorf("%w: document needs source and text", internalerr.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (source, text, vector) VALUES (?, ?, ?)
ON CONFLICT(source, text) DO UPDATE SET vector=excluded.vector;
`, d.Source, d.Text, encodeVector(d.Vector))
	return err
}

// Documents returns the documents of a source in insertion order.
func (s *sqliteStore) Documents(ctx context.Context, source string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, text, vector
FROM documents
WHERE source = ?
ORDER BY id;
`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var d store.Document
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Source, &d.Text, &blob); err != nil {
			return nil, err
		}
		if d.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("document %d: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteSource removes every document of a source.
func (s *sqliteStore) DeleteSource(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source)
	return err
}

// ReplaceSource deletes and re-inserts a source's documents in one transaction.
func (s *sqliteStore) ReplaceSource(ctx context.Context, source string, docs []store.Document) error {
	if source == "" {
		return fmt.Errorf("%w: replace needs a source", internalerr.ErrInvalidInput)
	}
	for i, d := range docs {
		if d.Text == "" {
			return fmt.Errorf("%w: document %d has no text", internalerr.ErrInvalidInput, i+1)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO documents (source, text, vector) VALUES (?, ?, ?)
ON CONFLICT(source, text) DO UPDATE SET vector=excluded.vector;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range docs {
		if _, err := stmt.ExecContext(ctx, source, d.Text, encodeVector(d.Vector)); err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// SaveRun inserts or replaces a run.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	contextJSON, err := json.Marshal(r.Context)
	if err != nil {
		return err
	}
	errorsJSON, err := json.Marshal(r.Errors)
	if err != nil {
		return err
	}
	derivedJSON, err := json.Marshal(r.Derived)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, created_at, mode, description, context, logic, errors, refined, derived, answer)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at=excluded.created_at,
	mode=excluded.mode,
	description=excluded.description,
	context=excluded.context,
	logic=excluded.logic,
	errors=excluded.errors,
	refined=excluded.refined,
	derived=excluded.derived,
	answer=excluded.answer;
`,
		r.ID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Mode,
		r.Description,
		string(contextJSON),
		r.Logic,
		string(errorsJSON),
		r.Refined,
		string(derivedJSON),
		r.Answer,
	)
	return err
}

const runColumns = `id, created_at, mode, description, context, logic, errors, refined, derived, answer`

// GetRun loads a run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var r store.Run
	var created, contextJSON, errorsJSON, derivedJSON string
	var description, logicText, answer sql.NullString
	if err := sc.Scan(&r.ID, &created, &r.Mode, &description, &contextJSON, &logicText, &errorsJSON, &r.Refined, &derivedJSON, &answer); err != nil {
		return store.Run{}, err
	}
	r.Description = description.String
	r.Logic = logicText.String
	r.Answer = answer.String

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: created_at: %w", r.ID, err)
	}
	r.CreatedAt = t

	if err := unmarshalColumn(contextJSON, &r.Context); err != nil {
		return store.Run{}, fmt.Errorf("run %s: context: %w", r.ID, err)
	}
	if err := unmarshalColumn(errorsJSON, &r.Errors); err != nil {
		return store.Run{}, fmt.Errorf("run %s: errors: %w", r.ID, err)
	}
	var derived []logic.Fact
	if err := unmarshalColumn(derivedJSON, &derived); err != nil {
		return store.Run{}, fmt.Errorf("run %s: derived: %w", r.ID, err)
	}
	r.Derived = derived
	return r, nil
}

func unmarshalColumn(raw string, v any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector blob has %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
