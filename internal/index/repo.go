package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Item kinds stored in the index.
const (
	KindOutcome = "outcome"
	KindProblem = "problem"
)

const metaDocChecksum = "doc_checksum"

// SearchResult represents one search hit.
type SearchResult struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	OutcomeID string `json:"outcomeId,omitempty"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Timeline  string `json:"timeline,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Reindex rebuilds the whole index from the document within a transaction
// and records the document checksum. The document is small enough that a
// full rebuild per revision beats incremental bookkeeping.
func (db *DB) Reindex(doc *models.Roadmap, docChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("index: clear items: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (id, kind, outcome_id, title, body, timeline, type, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range doc.Outcomes {
		sections := make([]string, len(o.Timeline.Sections))
		for i, s := range o.Timeline.Sections {
			sections[i] = string(s)
		}
		if _, err := stmt.Exec(o.ID, KindOutcome, "", o.Title, o.Description, strings.Join(sections, ","), "", ""); err != nil {
			return fmt.Errorf("index: insert outcome: %w", err)
		}
		for _, p := range o.Problems {
			if err := insertProblem(stmt, p, o.ID); err != nil {
				return err
			}
		}
	}
	for _, p := range doc.OrphanedProblems {
		if err := insertProblem(stmt, p, ""); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaDocChecksum, docChecksum); err != nil {
		return fmt.Errorf("index: record checksum: %w", err)
	}

	return tx.Commit()
}

func insertProblem(stmt *sql.Stmt, p models.Problem, outcomeID string) error {
	body := p.Description
	if p.SuccessCriteria != "" {
		body += "\n" + p.SuccessCriteria
	}
	if _, err := stmt.Exec(p.ID, KindProblem, outcomeID, p.Title, body, string(p.Timeline), string(p.Type), string(p.Priority)); err != nil {
		return fmt.Errorf("index: insert problem: %w", err)
	}
	return nil
}

// DocChecksum returns the checksum of the last indexed document revision,
// or empty string when nothing has been indexed yet.
func (db *DB) DocChecksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaDocChecksum).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// Search matches the query case-insensitively against titles and bodies.
// Outcomes sort before problems, then by title.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.conn.Query(`
		SELECT id, kind, outcome_id, title, body, timeline, type
		FROM items
		WHERE lower(title) LIKE ? OR lower(body) LIKE ?
		ORDER BY CASE kind WHEN 'outcome' THEN 0 ELSE 1 END, title
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var body string
		if err := rows.Scan(&r.ID, &r.Kind, &r.OutcomeID, &r.Title, &body, &r.Timeline, &r.Type); err != nil {
			return nil, err
		}
		r.Snippet = snippet(body)
		out = append(out, r)
	}
	return out, rows.Err()
}

// snippet truncates the body to a short display excerpt.
func snippet(body string) string {
	body = strings.ReplaceAll(body, "\n", " ")
	runes := []rune(body)
	if len(runes) <= 160 {
		return body
	}
	return string(runes[:160]) + "…"
}
