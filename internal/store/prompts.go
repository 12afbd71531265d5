package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Prompt struct {
	Id   int64     `json:"id"`
	Date time.Time `json:"date"`
	Text string    `json:"prompt"`
	Tags string    `json:"tags,omitempty"`
}

const promptColumns = `id, date, prompt, tags`

func scanPrompt(row scanner) (Prompt, error) {
	var (
		p    Prompt
		date string
		tags sql.NullString
	)

	if err := row.Scan(&p.Id, &date, &p.Text, &tags); err != nil {
		return Prompt{}, err
	}

	p.Date = parseTimestamp(date)
	p.Tags = tags.String

	return p, nil
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)

	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) CreatePrompt(ctx context.Context, text, tags string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("prompt cannot be empty")
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO prompts (date, prompt, tags) VALUES (?, ?, ?)`, s.timestamp(), text, nullable(tags))
	if err != nil {
		return 0, errors.Wrap(err, "could not create prompt")
	}

	return res.LastInsertId()
}

func (s *Store) Prompt(ctx context.Context, id int64) (Prompt, error) {
	p, err := scanPrompt(s.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Prompt{}, errors.Wrapf(ErrNotFound, "prompt %d", id)
	case err != nil:
		return Prompt{}, errors.Wrap(err, "could not read prompt")
	}

	return p, nil
}

// Prompts returns every prompt, most recent first.
func (s *Store) Prompts(ctx context.Context) ([]Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promptColumns+` FROM prompts ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "could not list prompts")
	}

	return collect(rows, scanPrompt)
}

// SearchPrompts matches q against the prompt text and tags.
func (s *Store) SearchPrompts(ctx context.Context, q string) ([]Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE prompt LIKE ? OR tags LIKE ? ORDER BY date DESC, id DESC`, like(q), like(q))
	if err != nil {
		return nil, errors.Wrap(err, "could not search prompts")
	}

	return collect(rows, scanPrompt)
}

func (s *Store) UpdatePrompt(ctx context.Context, id int64, text, tags string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("prompt cannot be empty")
	}

	if err := affected(s.db.ExecContext(ctx, `UPDATE prompts SET prompt = ?, tags = ? WHERE id = ?`, text, nullable(tags), id)); err != nil {
		return errors.Wrapf(err, "could not update prompt %d", id)
	}

	return nil
}

// DeletePrompt removes a prompt and its saved results.
func (s *Store) DeletePrompt(ctx context.Context, id int64) error {
	if err := affected(s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)); err != nil {
		return errors.Wrapf(err, "could not delete prompt %d", id)
	}

	return nil
}
