package contents

import (
	"context"
	"fmt"
	"strings"
)

type Post struct {
	ID      int    `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Find(ctx context.Context, postID int) (post *Post, err error)
	List(ctx context.Context) (posts []*Post, err error)
	Update(ctx context.Context, post *Post) (err error)
	Delete(ctx context.Context, postID int) (err error)
}

// SeedPosts returns the posts a fresh store starts with.
func SeedPosts() []*Post {
	return []*Post{
		{ID: 1, Title: "First post", Content: "This is the first post."},
		{ID: 2, Title: "Second post", Content: "This is the second post."},
	}
}

// NextID returns the id a new post gets when appended to posts.
func NextID(posts []*Post) int {
	maxID := 0

	for _, post := range posts {
		if post.ID > maxID {
			maxID = post.ID
		}
	}

	return maxID + 1
}

type PostNotFoundError struct {
	ID int
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("Post with id %d not found", err.ID)
}

type ValidationError struct {
	Reason string
}

func (err ValidationError) Error() string {
	return err.Reason
}

type InvalidArgumentError struct {
	Name    string
	Value   string
	Allowed []string
}

func (err InvalidArgumentError) Error() string {
	return fmt.Sprintf("Invalid %s. Must be '%s'", err.Name, strings.Join(err.Allowed, "' or '"))
}

type PersistenceError struct {
	Op  string
	Err error
}

func (err PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", err.Op, err.Err)
}

func (err PersistenceError) Unwrap() error {
	return err.Err
}
