// Package memory keeps posts in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/nasermirzaei89/postapi/contents"
)

type PostRepository struct {
	mu    sync.RWMutex
	posts []contents.Post
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(seed ...*contents.Post) *PostRepository {
	repo := &PostRepository{
		posts: make([]contents.Post, 0, len(seed)),
	}

	for _, post := range seed {
		repo.posts = append(repo.posts, *post)
	}

	return repo
}

func (repo *PostRepository) indexOf(postID int) int {
	return slices.IndexFunc(repo.posts, func(post contents.Post) bool {
		return post.ID == postID
	})
}

func (repo *PostRepository) Insert(_ context.Context, post *contents.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	maxID := 0
	for _, existing := range repo.posts {
		maxID = max(maxID, existing.ID)
	}

	post.ID = maxID + 1

	repo.posts = append(repo.posts, *post)

	return nil
}

func (repo *PostRepository) Find(_ context.Context, postID int) (*contents.Post, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	i := repo.indexOf(postID)
	if i == -1 {
		return nil, contents.PostNotFoundError{ID: postID}
	}

	post := repo.posts[i]

	return &post, nil
}

func (repo *PostRepository) List(_ context.Context) ([]*contents.Post, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	posts := make([]*contents.Post, 0, len(repo.posts))

	for _, post := range repo.posts {
		posts = append(posts, &post)
	}

	return posts, nil
}

func (repo *PostRepository) Update(_ context.Context, post *contents.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	i := repo.indexOf(post.ID)
	if i == -1 {
		return contents.PostNotFoundError{ID: post.ID}
	}

	repo.posts[i] = *post

	return nil
}

func (repo *PostRepository) Delete(_ context.Context, postID int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	i := repo.indexOf(postID)
	if i == -1 {
		return contents.PostNotFoundError{ID: postID}
	}

	repo.posts = slices.Delete(repo.posts, i, i+1)

	return nil
}
