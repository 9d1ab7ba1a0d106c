package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
)

// StepRepositoryConfig is the configuration for the SQLite step repository.
type StepRepositoryConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *StepRepositoryConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.StepRepository"})
	return nil
}

// StepRepository is a SQLite implementation of storage.StepRepository.
type StepRepository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.StepRepository = &StepRepository{}

// NewStepRepository creates a new SQLite step repository.
func NewStepRepository(cfg StepRepositoryConfig) (*StepRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &StepRepository{
		db:     cfg.DB,
		logger: cfg.Logger,
	}, nil
}

// AddSteps adds pending steps to a build, after the existing ones.
func (r *StepRepository) AddSteps(ctx context.Context, buildID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	var maxSeq int
	query := `SELECT COALESCE(MAX(sequence), 0) FROM steps WHERE build_id = ?`
	if err := tx.QueryRowContext(ctx, query, buildID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("could not get max sequence: %w", err)
	}

	insertQuery := `
		INSERT INTO steps (id, build_id, sequence, name, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, '', ?)
	`
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, name := range names {
		_, err := stmt.ExecContext(ctx, ulid.Make().String(), buildID, maxSeq+i+1, name, model.StepStatusPending, now.Unix())
		if err != nil {
			return fmt.Errorf("could not insert step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Added %d steps for build %s", len(names), buildID)
	return nil
}

// NextStep returns the first pending step of a build, or nil if every step is finished.
func (r *StepRepository) NextStep(ctx context.Context, buildID string) (*model.Step, error) {
	query := `
		SELECT id, build_id, sequence, name, status, error, created_at
		FROM steps
		WHERE build_id = ? AND status = ?
		ORDER BY sequence ASC
		LIMIT 1
	`

	s, err := scanStep(r.db.QueryRowContext(ctx, query, buildID, model.StepStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not query next step: %w", err)
	}

	return &s, nil
}

// CompleteStep marks a step as done.
func (r *StepRepository) CompleteStep(ctx context.Context, stepID string) error {
	if err := r.setStatus(ctx, stepID, model.StepStatusDone, ""); err != nil {
		return err
	}

	r.logger.Debugf("Completed step: %s", stepID)
	return nil
}

// FailStep marks a step as failed with an error message.
func (r *StepRepository) FailStep(ctx context.Context, stepID string, stepErr error) error {
	errMsg := ""
	if stepErr != nil {
		errMsg = stepErr.Error()
	}

	if err := r.setStatus(ctx, stepID, model.StepStatusFailed, errMsg); err != nil {
		return err
	}

	r.logger.Debugf("Failed step: %s (error: %s)", stepID, errMsg)
	return nil
}

func (r *StepRepository) setStatus(ctx context.Context, stepID string, status model.StepStatus, errMsg string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE steps SET status = ?, error = ? WHERE id = ?`, status, errMsg, stepID)
	if err != nil {
		return fmt.Errorf("could not update step: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("step %s: %w", stepID, model.ErrNotFound)
	}

	return nil
}

// ListSteps returns the steps of a build in order.
func (r *StepRepository) ListSteps(ctx context.Context, buildID string) ([]model.Step, error) {
	query := `
		SELECT id, build_id, sequence, name, status, error, created_at
		FROM steps
		WHERE build_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, buildID)
	if err != nil {
		return nil, fmt.Errorf("could not query steps: %w", err)
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		steps = append(steps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return steps, nil
}

func scanStep(s scanner) (model.Step, error) {
	var st model.Step
	var createdAt int64

	err := s.Scan(
		&st.ID,
		&st.BuildID,
		&st.Sequence,
		&st.Name,
		&st.Status,
		&st.Error,
		&createdAt,
	)
	if err != nil {
		return model.Step{}, err
	}

	st.CreatedAt = timeFromUnix(createdAt)
	return st, nil
}
