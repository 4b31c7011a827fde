// Package history keeps autosaved record drafts in a local SQLite
// database so a crashed or closed session can be restored.
package history

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cyrildacostabolant/Cahier-test/record"
)

// ErrDraftNotFound is returned when the requested draft id does not
// exist.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is one autosaved snapshot. Payload holds the canonical encoding
// of the record and is only populated by GetDraft; listings carry the
// metadata columns alone.
type Draft struct {
	ID         int64  `json:"id"`
	JiraNumber string `json:"jiraNumber"`
	JiraName   string `json:"jiraName"`
	Conclusion string `json:"conclusion"`
	Payload    []byte `json:"-"`
	CreatedAt  string `json:"createdAt"`
}

// Store manages the drafts database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the drafts database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open drafts database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			jira_number TEXT NOT NULL,
			jira_name TEXT NOT NULL,
			conclusion TEXT NOT NULL CHECK(conclusion IN ('pass', 'fail')),
			payload BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create drafts table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_drafts_created_at ON drafts(created_at)
	`)
	if err != nil {
		return fmt.Errorf("create drafts index: %w", err)
	}
	return nil
}

// SaveDraft encodes doc and stores it as a new draft row.
func (s *Store) SaveDraft(doc record.Document) (Draft, error) {
	payload, err := record.Encode(doc)
	if err != nil {
		return Draft{}, fmt.Errorf("encode draft: %w", err)
	}

	result, err := s.db.Exec(
		"INSERT INTO drafts (jira_number, jira_name, conclusion, payload) VALUES (?, ?, ?, ?)",
		doc.JiraNumber, doc.JiraName, string(doc.Conclusion), payload,
	)
	if err != nil {
		return Draft{}, fmt.Errorf("insert draft: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Draft{}, fmt.Errorf("draft id: %w", err)
	}
	return s.GetDraft(id)
}

// GetDraft retrieves one draft including its payload.
func (s *Store) GetDraft(id int64) (Draft, error) {
	var d Draft
	err := s.db.QueryRow(
		"SELECT id, jira_number, jira_name, conclusion, payload, created_at FROM drafts WHERE id = ?",
		id,
	).Scan(&d.ID, &d.JiraNumber, &d.JiraName, &d.Conclusion, &d.Payload, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// ListDrafts returns draft metadata, newest first. limit <= 0 means all.
func (s *Store) ListDrafts(limit int) ([]Draft, error) {
	query := "SELECT id, jira_number, jira_name, conclusion, created_at FROM drafts ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.ID, &d.JiraNumber, &d.JiraName, &d.Conclusion, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes one draft. Removing an absent id is not an error.
func (s *Store) DeleteDraft(id int64) error {
	if _, err := s.db.Exec("DELETE FROM drafts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Prune keeps the newest keep drafts and removes the rest.
func (s *Store) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.Exec(
		"DELETE FROM drafts WHERE id NOT IN (SELECT id FROM drafts ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return fmt.Errorf("prune drafts: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
