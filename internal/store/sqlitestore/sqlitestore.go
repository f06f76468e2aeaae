// Package sqlitestore is a DocumentStore backed by a single SQLite file.
// Documents are stored as JSON text and filtered with the json_extract
// function, so dotted field paths map directly onto JSON paths.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"wordclash/internal/ports"
	"wordclash/internal/store/watch"
)

// Store implements ports.DocumentStore on SQLite.
type Store struct {
	db *sql.DB

	// mu serializes writes so hub notifications leave in commit order.
	mu  sync.Mutex
	hub *watch.Hub
}

// New opens or creates the database file and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, hub: watch.NewHub()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

var _ ports.DocumentStore = (*Store)(nil)

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks if the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection, id string, doc ports.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`,
		collection, id, string(raw))
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return err
	}
	s.notifyLocked(collection, id, string(raw))
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	raw, err := updateInTx(ctx, tx, collection, id, fields)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyLocked(collection, id, raw)
	return nil
}

func updateInTx(ctx context.Context, tx *sql.Tx, collection, id string, fields map[string]interface{}) (string, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	doc, err := decode(raw)
	if err != nil {
		return "", err
	}
	for path, value := range fields {
		ports.SetField(doc, path, value)
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		string(merged), collection, id)
	return string(merged), err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	s.notifyLocked(collection, id, "")
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q ports.Query) ([]ports.QueryResult, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, doc FROM documents WHERE collection = ?`)
	args := []interface{}{collection}

	for _, f := range q.Filters {
		sb.WriteString(` AND json_extract(doc, ?) = ?`)
		args = append(args, jsonPath(f.Field), filterArg(f.Value))
	}
	if q.OrderBy != "" {
		sb.WriteString(` ORDER BY json_extract(doc, ?)`)
		args = append(args, jsonPath(q.OrderBy))
		if !q.Asc {
			sb.WriteString(` DESC`)
		}
	} else {
		sb.WriteString(` ORDER BY id`)
	}
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.QueryResult
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.QueryResult{ID: id, Doc: doc})
	}
	return out, rows.Err()
}

// Transact runs fn inside one SQL transaction. The single connection
// serializes transactions, so fn runs at most once and conflicts do not
// occur; notifications for buffered writes leave after commit, in write
// order.
func (s *Store) Transact(ctx context.Context, fn func(tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	t := &tx{ctx: ctx, tx: sqlTx}
	if err := fn(t); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return err
	}
	for _, touched := range t.touched {
		s.notifyLocked(touched.collection, touched.id, touched.raw)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, fn func(ports.Change)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel := s.hub.Subscribe(collection, id, func() ports.Document {
		doc, err := s.Get(context.Background(), collection, id)
		if err != nil {
			return nil
		}
		return doc
	}, fn)
	return cancel, nil
}

// notifyLocked publishes one committed change; raw is "" for deletions.
func (s *Store) notifyLocked(collection, id, raw string) {
	var doc ports.Document
	if raw != "" {
		decoded, err := decode(raw)
		if err != nil {
			return
		}
		doc = decoded
	}
	s.hub.Notify(collection, id, doc)
}

type touchedDoc struct {
	collection string
	id         string
	raw        string
}

type tx struct {
	ctx     context.Context
	tx      *sql.Tx
	touched []touchedDoc
}

func (t *tx) Get(collection, id string) (ports.Document, error) {
	var raw string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (t *tx) Create(collection, id string, doc ports.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`,
		collection, id, string(raw))
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAlreadyExists
		}
		return err
	}
	t.touched = append(t.touched, touchedDoc{collection, id, string(raw)})
	return nil
}

func (t *tx) Update(collection, id string, fields map[string]interface{}) error {
	raw, err := updateInTx(t.ctx, t.tx, collection, id, fields)
	if err != nil {
		return err
	}
	t.touched = append(t.touched, touchedDoc{collection, id, raw})
	return nil
}

func (t *tx) Delete(collection, id string) error {
	result, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	t.touched = append(t.touched, touchedDoc{collection, id, ""})
	return nil
}

func decode(raw string) (ports.Document, error) {
	var doc ports.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func jsonPath(field string) string {
	return "$." + field
}

// filterArg widens integral values to float64 so bound parameters compare
// the way json_extract yields numbers from JSON text.
func filterArg(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return v
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
