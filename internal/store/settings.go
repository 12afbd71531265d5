package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// Setting returns the stored value, or def if the setting was never set.
func (s *Store) Setting(ctx context.Context, name, def string) (string, error) {
	var value sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&value)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return def, nil
	case err != nil:
		return "", errors.Wrapf(err, "could not read setting '%s'", name)
	}

	return value.String, nil
}

func (s *Store) SetSetting(ctx context.Context, name, value string) error {
	if name == "" {
		return errors.New("setting name cannot be empty")
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.upsertSetting, name, value); err != nil {
		return errors.Wrapf(err, "could not write setting '%s'", name)
	}

	return nil
}
