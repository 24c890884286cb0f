package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/wagnerlima/promptmux/internal/models"
)

const (
	// DatabaseFile is the workspace database inside the data directory.
	DatabaseFile = "workspace.db"

	workspaceDocID = "workspace"

	// DefaultRevisionLimit is how many snapshots Save keeps.
	DefaultRevisionLimit = 100
)

// DocumentStore persists the workspace document, a trail of compressed
// revisions, and a full-text index of topics.
type DocumentStore struct {
	db      *sql.DB
	dataDir string
	keep    int
}

// Open opens (or creates) the workspace database under dataDir.
func Open(dataDir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite3", "file:"+dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	if _, err := db.Exec(DocumentSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate workspace db: %w", err)
	}
	if _, err := db.Exec(DocumentTriggers); err != nil {
		db.Close()
		return nil, fmt.Errorf("create workspace triggers: %w", err)
	}
	return &DocumentStore{db: db, dataDir: dataDir, keep: DefaultRevisionLimit}, nil
}

// Close closes the database connection.
func (d *DocumentStore) Close() error {
	return d.db.Close()
}

// DataDir returns the base data directory.
func (d *DocumentStore) DataDir() string {
	return d.dataDir
}

// SetRevisionLimit changes how many revisions Save keeps. n < 1 keeps one.
func (d *DocumentStore) SetRevisionLimit(n int) {
	d.keep = max(n, 1)
}

// Load returns the stored workspace, or nil if none has been saved.
func (d *DocumentStore) Load() (*models.Workspace, error) {
	var body string
	err := d.db.QueryRow(`SELECT body FROM documents WHERE id = ?`, workspaceDocID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var ws models.Workspace
	if err := json.Unmarshal([]byte(body), &ws); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	return &ws, nil
}

// Save replaces the stored workspace in one transaction: the document, a
// new revision, and the topic index either all change or none do.
func (d *DocumentStore) Save(ws *models.Workspace) error {
	body, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		workspaceDocID, string(body), now,
	)
	if err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO revisions (document_id, body, size, created_at) VALUES (?, ?, ?, ?)`,
		workspaceDocID, compress(body), len(body), now,
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	_, err = tx.Exec(
		`DELETE FROM revisions WHERE document_id = ? AND id NOT IN (
		     SELECT id FROM revisions WHERE document_id = ? ORDER BY id DESC LIMIT ?)`,
		workspaceDocID, workspaceDocID, d.keep,
	)
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}

	if err := reindexTopics(tx, ws); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Revisions lists the newest stored snapshots first.
func (d *DocumentStore) Revisions(limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = d.keep
	}
	rows, err := d.db.Query(
		`SELECT id, size, created_at FROM revisions WHERE document_id = ? ORDER BY id DESC LIMIT ?`,
		workspaceDocID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []models.Revision
	for rows.Next() {
		var (
			r       models.Revision
			created string
		)
		if err := rows.Scan(&r.ID, &r.Size, &created); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("revision %d: bad timestamp %q: %w", r.ID, created, err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// LoadRevision decodes one stored snapshot.
func (d *DocumentStore) LoadRevision(id int64) (*models.Workspace, error) {
	var (
		blob []byte
		size int
	)
	err := d.db.QueryRow(
		`SELECT body, size FROM revisions WHERE id = ? AND document_id = ?`, id, workspaceDocID,
	).Scan(&blob, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read revision %d: %w", id, err)
	}
	body, err := decompress(blob, size)
	if err != nil {
		return nil, fmt.Errorf("revision %d: %w", id, err)
	}
	var ws models.Workspace
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, fmt.Errorf("decode revision %d: %w", id, err)
	}
	return &ws, nil
}
