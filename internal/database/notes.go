package database

import (
	"database/sql"
)

const noteColumns = `id, url, title, source, created_at, content, content_fetched, collected_at`

// InsertNote inserts a note. Returns the ID on success, 0 if the URL is
// already stored.
func (db *DB) InsertNote(url, title string, source, createdAt, content *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO notes (url, title, source, created_at, content)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT(url) DO NOTHING`,
		url, title, source, createdAt, content,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return result.LastInsertId()
}

// GetNotes returns notes newest first. A limit of zero returns all notes.
func (db *DB) GetNotes(limit int) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		ORDER BY COALESCE(created_at, collected_at) DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// GetNote returns a single note by ID, or nil if it does not exist.
func (db *DB) GetNote(noteID int64) (*Note, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, noteID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotesNeedingFetch returns notes with empty content that haven't been fetched.
func (db *DB) GetNotesNeedingFetch() ([]Note, error) {
	rows, err := db.conn.Query(
		`SELECT ` + noteColumns + ` FROM notes
		WHERE (content IS NULL OR content = '') AND content_fetched = 0
		ORDER BY collected_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// UpdateNoteContent stores fetched content.
func (db *DB) UpdateNoteContent(noteID int64, content *string) error {
	_, err := db.conn.Exec(
		"UPDATE notes SET content = ?, content_fetched = 1 WHERE id = ?",
		content, noteID,
	)
	return err
}

// MarkNoteFetchAttempted marks that we tried to fetch content.
func (db *DB) MarkNoteFetchAttempted(noteID int64) error {
	_, err := db.conn.Exec("UPDATE notes SET content_fetched = 1 WHERE id = ?", noteID)
	return err
}

// DeleteNote removes a note.
func (db *DB) DeleteNote(noteID int64) error {
	_, err := db.conn.Exec("DELETE FROM notes WHERE id = ?", noteID)
	return err
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		var n Note
		var fetched int
		if err := rows.Scan(&n.ID, &n.URL, &n.Title, &n.Source, &n.CreatedAt,
			&n.Content, &fetched, &n.CollectedAt); err != nil {
			return nil, err
		}
		n.ContentFetched = fetched != 0
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func scanNote(row *sql.Row) (*Note, error) {
	var n Note
	var fetched int
	if err := row.Scan(&n.ID, &n.URL, &n.Title, &n.Source, &n.CreatedAt,
		&n.Content, &fetched, &n.CollectedAt); err != nil {
		return nil, err
	}
	n.ContentFetched = fetched != 0
	return &n, nil
}
