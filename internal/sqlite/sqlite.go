package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const _createKVTable = `CREATE TABLE IF NOT EXISTS kv_store (
							key_name   TEXT PRIMARY KEY,
							payload    TEXT NOT NULL,
							updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
						);`

// NewDB opens the database file at path, ":memory:" keeps everything in process.
func NewDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: can't open sqlite %s", err, path)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL;", "PRAGMA synchronous = NORMAL;"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: can't apply %q", err, pragma)
		}
	}

	if _, err := db.Exec(_createKVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: can't create kv table", err)
	}

	return db, nil
}
