package storage

import (
	"database/sql"
	"fmt"

	"github.com/wagnerlima/promptmux/internal/models"
)

// reindexTopics rebuilds topic_index from ws inside tx. The FTS table
// follows through triggers.
func reindexTopics(tx *sql.Tx, ws *models.Workspace) error {
	if _, err := tx.Exec(`DELETE FROM topic_index`); err != nil {
		return fmt.Errorf("clear topic index: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO topic_index (topic_id, project_id, section_id, name, content) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare topic index: %w", err)
	}
	defer stmt.Close()

	for _, p := range ws.Projects {
		for _, s := range p.Sections {
			for _, t := range s.Topics {
				if _, err := stmt.Exec(t.ID, p.ID, s.ID, t.Name, t.Content); err != nil {
					return fmt.Errorf("index topic %s: %w", t.ID, err)
				}
			}
		}
	}
	return nil
}

// SearchTopics runs an FTS5 query over topic names and content, best
// matches first.
func (d *DocumentStore) SearchTopics(query string, limit int) ([]models.TopicHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT t.project_id, t.section_id, t.topic_id, t.name,
		        snippet(topics_fts, 1, '[', ']', '...', 12)
		 FROM topics_fts
		 JOIN topic_index t ON t.rowid = topics_fts.rowid
		 WHERE topics_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search topics fts: %w", err)
	}
	defer rows.Close()

	var hits []models.TopicHit
	for rows.Next() {
		var h models.TopicHit
		if err := rows.Scan(&h.ProjectID, &h.SectionID, &h.TopicID, &h.Name, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scan topic hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
