package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/chatlist/fanout"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ResultInput is one model response to save for a prompt.
type ResultInput struct {
	PromptId int64
	ModelId  int64
	Response string
}

// Result is a saved response, joined with its prompt and model.
type Result struct {
	Id        int64     `json:"id"`
	PromptId  int64     `json:"prompt_id"`
	ModelId   int64     `json:"model_id"`
	Response  string    `json:"response_text"`
	CreatedAt time.Time `json:"created_at"`
	Prompt    string    `json:"prompt"`
	Tags      string    `json:"tags,omitempty"`
	ModelName string    `json:"model_name"`
}

// ResultsFromOutcomes keeps the successful outcomes of a dispatch.
func ResultsFromOutcomes(promptId int64, outcomes []fanout.Outcome) []ResultInput {
	return lo.FilterMap(outcomes, func(o fanout.Outcome, _ int) (ResultInput, bool) {
		if !o.Ok() {
			return ResultInput{}, false
		}

		return ResultInput{PromptId: promptId, ModelId: o.ModelId, Response: *o.Response}, true
	})
}

// SaveResults stores every result in one transaction and returns how many
// were saved.
func (s *Store) SaveResults(ctx context.Context, results []ResultInput) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not start transaction")
	}

	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (prompt_id, model_id, response_text, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "could not prepare statement")
	}

	defer stmt.Close()

	now := s.timestamp()

	for _, r := range results {
		if strings.TrimSpace(r.Response) == "" {
			return 0, errors.Newf("empty response for model %d", r.ModelId)
		}

		if _, err := stmt.ExecContext(ctx, r.PromptId, r.ModelId, r.Response, now); err != nil {
			return 0, errors.Wrapf(err, "could not save result for model %d", r.ModelId)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "could not commit results")
	}

	return len(results), nil
}

const resultQuery = `SELECT r.id, r.prompt_id, r.model_id, r.response_text, r.created_at, p.prompt, p.tags, m.name
	FROM results r
	LEFT JOIN prompts p ON r.prompt_id = p.id
	LEFT JOIN models m ON r.model_id = m.id`

const resultOrder = ` ORDER BY r.created_at DESC, r.id DESC`

func scanResult(row scanner) (Result, error) {
	var (
		r                       Result
		createdAt               string
		prompt, tags, modelName sql.NullString
	)

	if err := row.Scan(&r.Id, &r.PromptId, &r.ModelId, &r.Response, &createdAt, &prompt, &tags, &modelName); err != nil {
		return Result{}, err
	}

	r.CreatedAt = parseTimestamp(createdAt)
	r.Prompt = prompt.String
	r.Tags = tags.String
	r.ModelName = modelName.String

	return r, nil
}

func (s *Store) results(ctx context.Context, where string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, resultQuery+where+resultOrder, args...)
	if err != nil {
		return nil, errors.Wrap(err, "could not list results")
	}

	return collect(rows, scanResult)
}

// Results returns every saved result, most recent first.
func (s *Store) Results(ctx context.Context) ([]Result, error) {
	return s.results(ctx, "")
}

func (s *Store) ResultsByPrompt(ctx context.Context, promptId int64) ([]Result, error) {
	return s.results(ctx, ` WHERE r.prompt_id = ?`, promptId)
}

// SearchResults matches q against the response, the prompt and the model
// name.
func (s *Store) SearchResults(ctx context.Context, q string) ([]Result, error) {
	return s.results(ctx, ` WHERE r.response_text LIKE ? OR p.prompt LIKE ? OR m.name LIKE ?`, like(q), like(q), like(q))
}

func (s *Store) DeleteResult(ctx context.Context, id int64) error {
	if err := affected(s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)); err != nil {
		return errors.Wrapf(err, "could not delete result %d", id)
	}

	return nil
}
