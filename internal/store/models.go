package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/chatlist/fanout"
	"github.com/cockroachdb/errors"
)

const modelColumns = `id, name, api_url, api_id, is_active`

func scanModel(row scanner) (fanout.ModelConfig, error) {
	var m fanout.ModelConfig

	err := row.Scan(&m.Id, &m.Name, &m.Url, &m.CredentialRef, &m.Active)

	return m, err
}

func normalize(m fanout.ModelConfig) fanout.ModelConfig {
	m.Name = strings.TrimSpace(m.Name)
	m.Url = strings.TrimSpace(m.Url)
	m.CredentialRef = strings.TrimSpace(m.CredentialRef)

	return m
}

// CreateModel validates and stores a model configuration. Names are unique.
func (s *Store) CreateModel(ctx context.Context, model fanout.ModelConfig) (int64, error) {
	model = normalize(model)

	if err := model.Validate(); err != nil {
		return 0, err
	}

	if _, err := s.ModelByName(ctx, model.Name); err == nil {
		return 0, errors.Wrapf(ErrAlreadyExists, "model '%s'", model.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO models (name, api_url, api_id, is_active) VALUES (?, ?, ?, ?)`,
		model.Name, model.Url, model.CredentialRef, model.Active)
	if err != nil {
		return 0, errors.Wrap(err, "could not create model")
	}

	return res.LastInsertId()
}

func (s *Store) Model(ctx context.Context, id int64) (fanout.ModelConfig, error) {
	return s.model(ctx, `SELECT `+modelColumns+` FROM models WHERE id = ?`, id)
}

func (s *Store) ModelByName(ctx context.Context, name string) (fanout.ModelConfig, error) {
	return s.model(ctx, `SELECT `+modelColumns+` FROM models WHERE name = ?`, strings.TrimSpace(name))
}

func (s *Store) model(ctx context.Context, query string, arg any) (fanout.ModelConfig, error) {
	m, err := scanModel(s.db.QueryRowContext(ctx, query, arg))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fanout.ModelConfig{}, errors.Wrapf(ErrNotFound, "model %v", arg)
	case err != nil:
		return fanout.ModelConfig{}, errors.Wrap(err, "could not read model")
	}

	return m, nil
}

// Models returns every model, ordered by name.
func (s *Store) Models(ctx context.Context) ([]fanout.ModelConfig, error) {
	return s.models(ctx, `SELECT `+modelColumns+` FROM models ORDER BY name`)
}

// ActiveModels returns the models prompts are dispatched to.
func (s *Store) ActiveModels(ctx context.Context) ([]fanout.ModelConfig, error) {
	return s.models(ctx, `SELECT `+modelColumns+` FROM models WHERE is_active = 1 ORDER BY name`)
}

func (s *Store) models(ctx context.Context, query string) ([]fanout.ModelConfig, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "could not list models")
	}

	return collect(rows, scanModel)
}

// UpdateModel replaces every field of the model identified by model.Id.
func (s *Store) UpdateModel(ctx context.Context, model fanout.ModelConfig) error {
	model = normalize(model)

	if err := model.Validate(); err != nil {
		return err
	}

	if other, err := s.ModelByName(ctx, model.Name); err == nil && other.Id != model.Id {
		return errors.Wrapf(ErrAlreadyExists, "model '%s'", model.Name)
	}

	err := affected(s.db.ExecContext(ctx, `UPDATE models SET name = ?, api_url = ?, api_id = ?, is_active = ? WHERE id = ?`,
		model.Name, model.Url, model.CredentialRef, model.Active, model.Id))
	if err != nil {
		return errors.Wrapf(err, "could not update model %d", model.Id)
	}

	return nil
}

// ToggleModel flips the active flag and returns the new value.
func (s *Store) ToggleModel(ctx context.Context, id int64) (bool, error) {
	if err := affected(s.db.ExecContext(ctx, `UPDATE models SET is_active = 1 - is_active WHERE id = ?`, id)); err != nil {
		return false, errors.Wrapf(err, "could not toggle model %d", id)
	}

	m, err := s.Model(ctx, id)
	if err != nil {
		return false, err
	}

	return m.Active, nil
}

// DeleteModel fails while results from the model are stored.
func (s *Store) DeleteModel(ctx context.Context, id int64) error {
	var count int

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE model_id = ?`, id).Scan(&count); err != nil {
		return errors.Wrap(err, "could not count model results")
	}

	if count > 0 {
		return errors.Newf("model %d has %d saved results, delete them first", id, count)
	}

	if err := affected(s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)); err != nil {
		return errors.Wrapf(err, "could not delete model %d", id)
	}

	return nil
}
