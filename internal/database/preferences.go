package database

import (
	"database/sql"

	"go.uber.org/zap"
)

// GetPreference returns the stored value for key.
func (db *DB) GetPreference(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreference stores value under key, replacing any previous value.
func (db *DB) SetPreference(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		key, value,
	)
	return err
}

// DeletePreference removes key.
func (db *DB) DeletePreference(key string) error {
	_, err := db.conn.Exec("DELETE FROM preferences WHERE key = ?", key)
	return err
}

// PreferenceStore exposes the preferences table as a key-value store whose
// operations never fail: errors are logged, a failed read is reported as a
// missing value.
type PreferenceStore struct {
	db     *DB
	logger *zap.Logger
}

// Preferences returns a PreferenceStore backed by db. A nil logger falls
// back to the one db was opened with.
func (db *DB) Preferences(logger *zap.Logger) *PreferenceStore {
	if logger == nil {
		logger = db.logger
	}
	return &PreferenceStore{db: db, logger: logger}
}

func (s *PreferenceStore) Get(key string) (string, bool) {
	v, ok, err := s.db.GetPreference(key)
	if err != nil {
		s.logger.Warn("reading preference", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *PreferenceStore) Set(key, value string) {
	if err := s.db.SetPreference(key, value); err != nil {
		s.logger.Warn("writing preference", zap.String("key", key), zap.Error(err))
	}
}
