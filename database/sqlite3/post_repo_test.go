package sqlite3_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nasermirzaei89/postapi/contents"
	"github.com/nasermirzaei89/postapi/database/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	return db
}

func TestPostRepository_Seeded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, contents.SeedPosts(), posts)
}

func TestPostRepository_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	post := &contents.Post{Title: "Third", Content: "Third content"}
	require.NoError(t, repo.Insert(ctx, post))
	assert.Equal(t, 3, post.ID)

	got, err := repo.Find(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, post, got)

	got.Content = "Changed"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Find(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Content)

	require.NoError(t, repo.Delete(ctx, 1))

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, 2, posts[0].ID)
	assert.Equal(t, 3, posts[1].ID)
}

func TestPostRepository_IDFollowsMaximum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	require.NoError(t, repo.Delete(ctx, 1))
	require.NoError(t, repo.Delete(ctx, 2))

	post := &contents.Post{Title: "t", Content: "c"}
	require.NoError(t, repo.Insert(ctx, post))
	assert.Equal(t, 1, post.ID)
}

func TestPostRepository_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	_, err := repo.Find(ctx, 10)
	require.ErrorAs(t, err, &contents.PostNotFoundError{})

	err = repo.Update(ctx, &contents.Post{ID: 10, Title: "t", Content: "c"})
	require.ErrorAs(t, err, &contents.PostNotFoundError{})

	err = repo.Delete(ctx, 10)
	require.ErrorAs(t, err, &contents.PostNotFoundError{})
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, sqlite3.MigrateDown(ctx, db))

	_, err := sqlite3.NewPostRepository(db).List(ctx)
	require.Error(t, err)
}

func TestNewDB_BusyTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+filepath.Join(t.TempDir(), "busy.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	var timeout int

	err = db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout)
	require.NoError(t, err)
	assert.Equal(t, sqlite3.BusyTimeoutMillis, timeout)
}

func TestPostRepository_ConcurrentWriterWaitsForLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "shared.db")

	serverDB, err := sqlite3.NewDB(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = serverDB.Close()
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, serverDB))

	cliDB, err := sqlite3.NewDB(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cliDB.Close()
	})

	tx, err := serverDB.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx, "INSERT INTO posts (title, content) VALUES ('Held', 'Held content')")
	require.NoError(t, err)

	committed := make(chan error, 1)

	go func() {
		time.Sleep(200 * time.Millisecond)

		committed <- tx.Commit()
	}()

	post := &contents.Post{Title: "Waiting", Content: "Waiting content"}
	require.NoError(t, sqlite3.NewPostRepository(cliDB).Insert(ctx, post))
	require.NoError(t, <-committed)

	assert.Equal(t, 4, post.ID)

	posts, err := sqlite3.NewPostRepository(serverDB).List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 4)
}
