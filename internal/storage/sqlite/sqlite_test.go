package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
	"github.com/slok/rtboot/internal/storage/sqlite"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func buildFixture(id, recipe string, status model.BuildStatus, createdAt time.Time) model.Build {
	r := model.DefaultRecipe()
	r.Name = recipe
	return model.Build{
		ID:        id,
		Recipe:    r,
		Engine:    model.EngineTypeDocker,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	b := buildFixture("b1", "app", model.BuildStatusPending, t0)
	require.NoError(t, repo.CreateBuild(ctx, b))

	got, err := repo.GetBuild(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b, *got)

	finished := t0.Add(time.Minute)
	b.Status = model.BuildStatusSucceeded
	b.ImageTag = "rtboot/app:0123456789ab"
	b.ImageID = "sha256:0123"
	b.ContextDigest = "abcd"
	b.FinishedAt = &finished
	require.NoError(t, repo.UpdateBuild(ctx, b))

	updated, err := repo.GetBuild(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b, *updated)

	latest, err := repo.GetLatestBuild(ctx, "app", model.EngineTypeDocker)
	require.NoError(t, err)
	assert.Equal(t, "b1", latest.ID)
}

func TestRepositoryRecipeRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	b := buildFixture("b1", "app", model.BuildStatusPending, t0)
	b.Recipe.SystemPackages = []string{}
	b.Recipe.ExtensionPackages = []string{"rich>=13"}
	b.Recipe.Env["APP_MODE"] = "prod"
	b.Recipe.ContextDir = "/home/u/src"
	require.NoError(t, repo.CreateBuild(ctx, b))

	got, err := repo.GetBuild(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b.Recipe, got.Recipe)
}

func TestRepositoryConstraints(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	b := buildFixture("b1", "app", model.BuildStatusPending, t0)
	require.NoError(t, repo.CreateBuild(ctx, b))

	err := repo.CreateBuild(ctx, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	err = repo.UpdateBuild(ctx, buildFixture("bx", "app", model.BuildStatusPending, t0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = repo.GetBuild(ctx, "bx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = repo.GetLatestBuild(ctx, "app", model.EngineTypeDocker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	// Steps need an existing build.
	err = repo.AddSteps(ctx, "bx", []string{"provision"})
	assert.Error(t, err)
}

func TestRepositoryListBuilds(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b1", "app", model.BuildStatusSucceeded, t0)))
	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b2", "app", model.BuildStatusFailed, t0.Add(time.Minute))))
	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b3", "cli", model.BuildStatusSucceeded, t0.Add(2*time.Minute))))
	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b4", "app", model.BuildStatusSucceeded, t0.Add(time.Minute))))

	tests := map[string]struct {
		opts   storage.ListBuildsOpts
		expIDs []string
	}{
		"Listing without filters should return every build newest first.": {
			expIDs: []string{"b3", "b4", "b2", "b1"},
		},

		"Listing by status should filter the builds.": {
			opts:   storage.ListBuildsOpts{Status: model.BuildStatusSucceeded},
			expIDs: []string{"b3", "b4", "b1"},
		},

		"Listing by recipe should filter the builds.": {
			opts:   storage.ListBuildsOpts{RecipeName: "app"},
			expIDs: []string{"b4", "b2", "b1"},
		},

		"Listing by recipe and status should filter the builds.": {
			opts:   storage.ListBuildsOpts{RecipeName: "app", Status: model.BuildStatusFailed},
			expIDs: []string{"b2"},
		},

		"Listing without matches should return nothing.": {
			opts: storage.ListBuildsOpts{RecipeName: "missing"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			builds, err := repo.ListBuilds(ctx, test.opts)
			require.NoError(t, err)

			var ids []string
			for _, b := range builds {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, test.expIDs, ids)
		})
	}

	latest, err := repo.GetLatestBuild(ctx, "app", model.EngineTypeDocker)
	require.NoError(t, err)
	assert.Equal(t, "b4", latest.ID)
}

func TestRepositoryLatestBuildByEngine(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	native := buildFixture("b1", "app", model.BuildStatusSucceeded, t0)
	native.Engine = model.EngineTypeNative
	require.NoError(t, repo.CreateBuild(ctx, native))
	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b2", "app", model.BuildStatusSucceeded, t0.Add(time.Minute))))

	latest, err := repo.GetLatestBuild(ctx, "app", model.EngineTypeNative)
	require.NoError(t, err)
	assert.Equal(t, "b1", latest.ID)

	latest, err = repo.GetLatestBuild(ctx, "app", model.EngineTypeDocker)
	require.NoError(t, err)
	assert.Equal(t, "b2", latest.ID)

	_, err = repo.GetLatestBuild(ctx, "app", model.EngineTypeFake)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	builds, err := repo.ListBuilds(ctx, storage.ListBuildsOpts{Engine: model.EngineTypeNative})
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "b1", builds[0].ID)
}

func TestRepositorySteps(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b1", "app", model.BuildStatusPending, t0)))
	require.NoError(t, repo.CreateBuild(ctx, buildFixture("b2", "app", model.BuildStatusPending, t0)))

	next, err := repo.NextStep(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, next)

	require.NoError(t, repo.AddSteps(ctx, "b1", []string{"provision", "launch"}))
	require.NoError(t, repo.AddSteps(ctx, "b1", []string{"realize"}))
	require.NoError(t, repo.AddSteps(ctx, "b2", []string{"provision"}))
	require.NoError(t, repo.AddSteps(ctx, "b2", nil))

	next, err = repo.NextStep(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "provision", next.Name)
	assert.Equal(t, 1, next.Sequence)
	assert.Equal(t, "b1", next.BuildID)
	require.NoError(t, repo.CompleteStep(ctx, next.ID))

	next, err = repo.NextStep(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "launch", next.Name)
	require.NoError(t, repo.FailStep(ctx, next.ID, errors.New("boom")))

	steps, err := repo.ListSteps(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{steps[0].Sequence, steps[1].Sequence, steps[2].Sequence})
	assert.Equal(t, model.StepStatusDone, steps[0].Status)
	assert.Equal(t, model.StepStatusFailed, steps[1].Status)
	assert.Equal(t, "boom", steps[1].Error)
	assert.Equal(t, model.StepStatusPending, steps[2].Status)
	assert.Equal(t, "realize", steps[2].Name)

	other, err := repo.ListSteps(ctx, "b2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	err = repo.CompleteStep(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
