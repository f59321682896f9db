package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	_queryValue  = "SELECT payload FROM kv_store WHERE key_name = ?"
	_upsertValue = `INSERT INTO kv_store (key_name, payload, updated_at)
						VALUES (?, ?, CURRENT_TIMESTAMP)
						ON CONFLICT (key_name)
						DO UPDATE SET
							payload = EXCLUDED.payload,
							updated_at = EXCLUDED.updated_at;`
)

// SQLStore keeps values in the kv_store table created by the postgres and sqlite packages.
type SQLStore struct {
	db *sqlx.DB

	queryValue  string
	upsertValue string
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:          db,
		queryValue:  db.Rebind(_queryValue),
		upsertValue: db.Rebind(_upsertValue),
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	if err := s.db.GetContext(ctx, &payload, s.queryValue, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: can't query %s", err, key)
	}
	return payload, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertValue, key, value); err != nil {
		return fmt.Errorf("%w: can't upsert %s", err, key)
	}
	return nil
}
