package database

// Note is a bookmark imported from a feed.
type Note struct {
	ID             int64
	URL            string
	Title          string
	Source         *string
	CreatedAt      *string // YYYY-MM-DD
	Content        *string
	ContentFetched bool
	CollectedAt    *string
}

// SyncRun records one notes import.
type SyncRun struct {
	ID           int64
	StartedAt    string
	NotesFound   int
	NotesNew     int
	NotesFetched int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Notes            int
	NotesWithContent int
	Preferences      int
	SyncRuns         int
}
