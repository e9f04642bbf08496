package database

import (
	"database/sql"
	"fmt"
)

// InsertSyncRun records a finished notes import.
func (db *DB) InsertSyncRun(found, added, fetched int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO sync_runs (notes_found, notes_new, notes_fetched) VALUES (?, ?, ?)`,
		found, added, fetched,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastSync returns the most recent sync run, or nil if none ran yet.
func (db *DB) GetLastSync() (*SyncRun, error) {
	var r SyncRun
	err := db.conn.QueryRow(
		`SELECT id, started_at, notes_found, notes_new, notes_fetched
		FROM sync_runs ORDER BY id DESC LIMIT 1`,
	).Scan(&r.ID, &r.StartedAt, &r.NotesFound, &r.NotesNew, &r.NotesFetched)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetStats returns aggregate counts.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	queries := []struct {
		dest  *int
		query string
	}{
		{&s.Notes, "SELECT COUNT(*) FROM notes"},
		{&s.NotesWithContent, "SELECT COUNT(*) FROM notes WHERE content IS NOT NULL AND content != ''"},
		{&s.Preferences, "SELECT COUNT(*) FROM preferences"},
		{&s.SyncRuns, "SELECT COUNT(*) FROM sync_runs"},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}
	return &s, nil
}
