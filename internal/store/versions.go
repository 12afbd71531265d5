package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// PromptVersion is an improved prompt, optionally linked to the prompt it
// was derived from.
type PromptVersion struct {
	Id               int64     `json:"id"`
	OriginalPromptId *int64    `json:"original_prompt_id"`
	ImprovedPrompt   string    `json:"improved_prompt"`
	ModelUsed        string    `json:"model_used,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

const versionColumns = `id, original_prompt_id, improved_prompt, model_used, created_at`

func scanVersion(row scanner) (PromptVersion, error) {
	var (
		v         PromptVersion
		original  sql.NullInt64
		modelUsed sql.NullString
		createdAt string
	)

	if err := row.Scan(&v.Id, &original, &v.ImprovedPrompt, &modelUsed, &createdAt); err != nil {
		return PromptVersion{}, err
	}

	if original.Valid {
		v.OriginalPromptId = &original.Int64
	}

	v.ModelUsed = modelUsed.String
	v.CreatedAt = parseTimestamp(createdAt)

	return v, nil
}

func (s *Store) CreatePromptVersion(ctx context.Context, promptId *int64, improved, modelUsed string) (int64, error) {
	if strings.TrimSpace(improved) == "" {
		return 0, errors.New("improved prompt cannot be empty")
	}

	var original sql.NullInt64

	if promptId != nil {
		original = sql.NullInt64{Int64: *promptId, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO prompt_versions (original_prompt_id, improved_prompt, model_used, created_at) VALUES (?, ?, ?, ?)`,
		original, improved, nullable(modelUsed), s.timestamp())
	if err != nil {
		return 0, errors.Wrap(err, "could not create prompt version")
	}

	return res.LastInsertId()
}

func (s *Store) PromptVersions(ctx context.Context, promptId int64) ([]PromptVersion, error) {
	return s.versions(ctx, ` WHERE original_prompt_id = ?`, promptId)
}

func (s *Store) AllPromptVersions(ctx context.Context) ([]PromptVersion, error) {
	return s.versions(ctx, "")
}

func (s *Store) versions(ctx context.Context, where string, args ...any) ([]PromptVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+versionColumns+` FROM prompt_versions`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "could not list prompt versions")
	}

	return collect(rows, scanVersion)
}

func (s *Store) DeletePromptVersion(ctx context.Context, id int64) error {
	if err := affected(s.db.ExecContext(ctx, `DELETE FROM prompt_versions WHERE id = ?`, id)); err != nil {
		return errors.Wrapf(err, "could not delete prompt version %d", id)
	}

	return nil
}
