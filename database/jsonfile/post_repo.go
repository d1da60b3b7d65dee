// Package jsonfile stores posts as a JSON array in a single file. The file is
// read in full at the start of every operation and written back in full after
// every mutation.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/nasermirzaei89/postapi/contents"
)

const (
	indent   = "    "
	filePerm = 0o644
)

type PostRepository struct {
	path string
	mu   sync.Mutex
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(path string) *PostRepository {
	return &PostRepository{path: path}
}

// load reads the whole file. A missing file is created with the seed posts.
// A file that cannot be parsed yields the seed posts without being rewritten.
func (repo *PostRepository) load(ctx context.Context) ([]*contents.Post, error) {
	data, err := os.ReadFile(repo.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read posts file: %w", err)
		}

		posts := contents.SeedPosts()

		err = repo.save(posts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize posts file: %w", err)
		}

		slog.InfoContext(ctx, "initialized posts file", "path", repo.path, "count", len(posts))

		return posts, nil
	}

	var posts []*contents.Post

	err = json.Unmarshal(data, &posts)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse posts file, using seed posts", "path", repo.path, "error", err)

		return contents.SeedPosts(), nil
	}

	posts = slices.DeleteFunc(posts, func(post *contents.Post) bool { return post == nil })

	if posts == nil {
		posts = make([]*contents.Post, 0)
	}

	return posts, nil
}

// save replaces the file through a temp file and rename, so readers never
// observe a partial write.
func (repo *PostRepository) save(posts []*contents.Post) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	err := enc.Encode(posts)
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	dir := filepath.Dir(repo.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(repo.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmp.Name())
	}()

	_, err = tmp.Write(buf.Bytes())
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// CreateTemp uses 0600, which the rename would carry over to the posts file.
	err = tmp.Chmod(filePerm)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to set posts file mode: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	err = os.Rename(tmp.Name(), repo.path)
	if err != nil {
		return fmt.Errorf("failed to replace posts file: %w", err)
	}

	return nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *contents.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	posts, err := repo.load(ctx)
	if err != nil {
		return err
	}

	post.ID = contents.NextID(posts)

	inserted := *post
	posts = append(posts, &inserted)

	return repo.save(posts)
}

func (repo *PostRepository) Find(ctx context.Context, postID int) (*contents.Post, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	posts, err := repo.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(posts, postID)
	if i == -1 {
		return nil, contents.PostNotFoundError{ID: postID}
	}

	return posts[i], nil
}

func (repo *PostRepository) List(ctx context.Context) ([]*contents.Post, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return repo.load(ctx)
}

func (repo *PostRepository) Update(ctx context.Context, post *contents.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	posts, err := repo.load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(posts, post.ID)
	if i == -1 {
		return contents.PostNotFoundError{ID: post.ID}
	}

	updated := *post
	posts[i] = &updated

	return repo.save(posts)
}

func (repo *PostRepository) Delete(ctx context.Context, postID int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	posts, err := repo.load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(posts, postID)
	if i == -1 {
		return contents.PostNotFoundError{ID: postID}
	}

	posts = slices.Delete(posts, i, i+1)

	return repo.save(posts)
}

func indexOf(posts []*contents.Post, postID int) int {
	return slices.IndexFunc(posts, func(post *contents.Post) bool {
		return post.ID == postID
	})
}
