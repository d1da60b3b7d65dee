package app_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nasermirzaei89/postapi/app"
	"github.com/nasermirzaei89/postapi/contents"
	"github.com/nasermirzaei89/postapi/database/jsonfile"
	"github.com/nasermirzaei89/postapi/database/memory"
	"github.com/nasermirzaei89/postapi/database/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected slog.Level
	}{
		{value: "debug", expected: slog.LevelDebug},
		{value: "info", expected: slog.LevelInfo},
		{value: "warn", expected: slog.LevelWarn},
		{value: "error", expected: slog.LevelError},
		{value: "verbose", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)

			assert.Equal(t, tt.expected, app.GetLogLevelFromEnv())
		})
	}
}

func TestNewPostRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("memory is the default", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "")

		repo, db, err := app.NewPostRepository(ctx)
		require.NoError(t, err)
		assert.Nil(t, db)
		assert.IsType(t, &memory.PostRepository{}, repo)

		posts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, contents.SeedPosts(), posts)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posts.json")

		t.Setenv("STORAGE_DRIVER", app.StorageDriverFile)
		t.Setenv("POSTS_FILE", path)

		repo, db, err := app.NewPostRepository(ctx)
		require.NoError(t, err)
		assert.Nil(t, db)
		require.IsType(t, &jsonfile.PostRepository{}, repo)

		_, err = repo.List(ctx)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", app.StorageDriverSQLite)
		t.Setenv("DB_DSN", "file:"+filepath.Join(t.TempDir(), "posts.db"))

		repo, db, err := app.NewPostRepository(ctx)
		require.NoError(t, err)
		require.NotNil(t, db)

		t.Cleanup(func() {
			_ = db.Close()
		})

		assert.IsType(t, &sqlite3.PostRepository{}, repo)

		posts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "redis")

		_, _, err := app.NewPostRepository(ctx)
		require.Error(t, err)

		var driverErr app.UnknownStorageDriverError
		require.ErrorAs(t, err, &driverErr)
		assert.Equal(t, "redis", driverErr.Driver)
	})
}
