package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
	"github.com/slok/rtboot/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	*StepRepository

	db     *sql.DB
	logger log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	steps, err := NewStepRepository(StepRepositoryConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create step repository: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{StepRepository: steps, db: db, logger: cfg.Logger}, nil
}

// DB returns the underlying database.
func (r *Repository) DB() *sql.DB { return r.db }

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const buildColumns = `id, recipe, engine, image_tag, image_id, context_digest, status, error, created_at, finished_at`

// CreateBuild creates a new build in the repository.
func (r *Repository) CreateBuild(ctx context.Context, b model.Build) error {
	recipe, err := json.Marshal(b.Recipe)
	if err != nil {
		return fmt.Errorf("could not encode recipe: %w", err)
	}

	query := `
		INSERT INTO builds (
			id, recipe_name, recipe, engine,
			image_tag, image_id, context_digest,
			status, error,
			created_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		b.ID,
		b.Recipe.Name,
		string(recipe),
		b.Engine,
		b.ImageTag,
		b.ImageID,
		b.ContextDigest,
		b.Status,
		b.Error,
		b.CreatedAt.Unix(),
		unixOrNil(b.FinishedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: builds.") {
			return fmt.Errorf("build already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert build: %w", err)
	}

	r.logger.Debugf("Created build in repository: %s", b.ID)
	return nil
}

// GetBuild retrieves a build by ID.
func (r *Repository) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE id = ?`

	b, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("build %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query build: %w", err)
	}

	return &b, nil
}

// GetLatestBuild returns the most recent succeeded build of a recipe realized by the engine type.
func (r *Repository) GetLatestBuild(ctx context.Context, recipeName string, engineType model.EngineType) (*model.Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM builds
		WHERE recipe_name = ? AND status = ? AND engine = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	b, err := r.scanRow(r.db.QueryRowContext(ctx, query, recipeName, model.BuildStatusSucceeded, engineType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("succeeded %s build of recipe %s: %w", engineType, recipeName, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query build: %w", err)
	}

	return &b, nil
}

// ListBuilds returns the builds, newest first.
func (r *Repository) ListBuilds(ctx context.Context, opts storage.ListBuildsOpts) ([]model.Build, error) {
	var where []string
	var args []any
	if opts.RecipeName != "" {
		where = append(where, "recipe_name = ?")
		args = append(args, opts.RecipeName)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Engine != "" {
		where = append(where, "engine = ?")
		args = append(args, opts.Engine)
	}

	query := `SELECT ` + buildColumns + ` FROM builds`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query builds: %w", err)
	}
	defer rows.Close()

	var builds []model.Build
	for rows.Next() {
		b, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		builds = append(builds, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return builds, nil
}

// UpdateBuild updates an existing build.
func (r *Repository) UpdateBuild(ctx context.Context, b model.Build) error {
	recipe, err := json.Marshal(b.Recipe)
	if err != nil {
		return fmt.Errorf("could not encode recipe: %w", err)
	}

	query := `
		UPDATE builds
		SET
			recipe_name = ?,
			recipe = ?,
			engine = ?,
			image_tag = ?,
			image_id = ?,
			context_digest = ?,
			status = ?,
			error = ?,
			created_at = ?,
			finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		b.Recipe.Name,
		string(recipe),
		b.Engine,
		b.ImageTag,
		b.ImageID,
		b.ContextDigest,
		b.Status,
		b.Error,
		b.CreatedAt.Unix(),
		unixOrNil(b.FinishedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update build: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("build %s: %w", b.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated build in repository: %s", b.ID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.Build, error) {
	var b model.Build
	var recipe string
	var createdAt int64
	var finishedAt sql.NullInt64

	err := s.Scan(
		&b.ID,
		&recipe,
		&b.Engine,
		&b.ImageTag,
		&b.ImageID,
		&b.ContextDigest,
		&b.Status,
		&b.Error,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return model.Build{}, err
	}

	if err := json.Unmarshal([]byte(recipe), &b.Recipe); err != nil {
		return model.Build{}, fmt.Errorf("could not decode recipe of build %s: %w", b.ID, err)
	}

	b.CreatedAt = timeFromUnix(createdAt)
	if finishedAt.Valid {
		t := timeFromUnix(finishedAt.Int64)
		b.FinishedAt = &t
	}

	return b, nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
