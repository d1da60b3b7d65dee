package contents

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

type Service struct {
	postRepo PostRepository

	// serializes load-mutate-save sequences
	mu sync.Mutex
}

func NewService(postRepo PostRepository) *Service {
	return &Service{
		postRepo: postRepo,
	}
}

type SortField string

const (
	SortFieldTitle   SortField = "title"
	SortFieldContent SortField = "content"
)

func (field SortField) IsValid() bool {
	switch field {
	case SortFieldTitle, SortFieldContent:
		return true
	default:
		return false
	}
}

func (field SortField) value(post *Post) string {
	if field == SortFieldContent {
		return post.Content
	}

	return post.Title
}

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

func (direction SortDirection) IsValid() bool {
	switch direction {
	case SortDirectionAsc, SortDirectionDesc:
		return true
	default:
		return false
	}
}

type ListPostsParams struct {
	Sort      SortField
	Direction SortDirection
}

func (params ListPostsParams) Validate() error {
	if params.Sort != "" && !params.Sort.IsValid() {
		return InvalidArgumentError{
			Name:    "sort field",
			Value:   string(params.Sort),
			Allowed: []string{string(SortFieldTitle), string(SortFieldContent)},
		}
	}

	if params.Direction != "" && !params.Direction.IsValid() {
		return InvalidArgumentError{
			Name:    "direction",
			Value:   string(params.Direction),
			Allowed: []string{string(SortDirectionAsc), string(SortDirectionDesc)},
		}
	}

	return nil
}

func (svc *Service) ListPosts(ctx context.Context, params ListPostsParams) ([]*Post, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	posts, err := svc.postRepo.List(ctx)
	if err != nil {
		return nil, PersistenceError{Op: "list posts", Err: err}
	}

	if params.Sort == "" {
		return posts, nil
	}

	sorted := slices.Clone(posts)

	slices.SortStableFunc(sorted, func(a, b *Post) int {
		keyA := strings.ToLower(params.Sort.value(a))
		keyB := strings.ToLower(params.Sort.value(b))

		if params.Direction == SortDirectionDesc {
			return cmp.Compare(keyB, keyA)
		}

		return cmp.Compare(keyA, keyB)
	})

	return sorted, nil
}

func (svc *Service) GetPost(ctx context.Context, postID int) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, wrapRepoError("find post", err)
	}

	return post, nil
}

type CreatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

var (
	errFieldsRequired = ValidationError{Reason: "Both 'title' and 'content' are required"}
	errFieldsEmpty    = ValidationError{Reason: "Both 'title' and 'content' must be non-empty"}
)

func (req CreatePostRequest) normalize() (string, string, error) {
	if req.Title == nil || req.Content == nil {
		return "", "", errFieldsRequired
	}

	title := strings.TrimSpace(*req.Title)
	content := strings.TrimSpace(*req.Content)

	if title == "" || content == "" {
		return "", "", errFieldsEmpty
	}

	return title, content, nil
}

func (svc *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	title, content, err := req.normalize()
	if err != nil {
		return nil, err
	}

	post := &Post{
		Title:   title,
		Content: content,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	err = svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, PersistenceError{Op: "create post", Err: err}
	}

	return post, nil
}

type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// apply overwrites the fields of post present in req. A field that is blank
// after trimming leaves the stored value untouched.
func (req UpdatePostRequest) apply(post *Post) {
	if req.Title != nil {
		if title := strings.TrimSpace(*req.Title); title != "" {
			post.Title = title
		}
	}

	if req.Content != nil {
		if content := strings.TrimSpace(*req.Content); content != "" {
			post.Content = content
		}
	}
}

func (svc *Service) UpdatePost(ctx context.Context, postID int, req UpdatePostRequest) (*Post, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, wrapRepoError("find post", err)
	}

	req.apply(post)

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, wrapRepoError("update post", err)
	}

	return post, nil
}

func (svc *Service) DeletePost(ctx context.Context, postID int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	err := svc.postRepo.Delete(ctx, postID)
	if err != nil {
		return wrapRepoError("delete post", err)
	}

	return nil
}

type SearchPostsParams struct {
	Title   string
	Content string
}

func (svc *Service) SearchPosts(ctx context.Context, params SearchPostsParams) ([]*Post, error) {
	titleQuery := strings.ToLower(strings.TrimSpace(params.Title))
	contentQuery := strings.ToLower(strings.TrimSpace(params.Content))

	result := make([]*Post, 0)

	if titleQuery == "" && contentQuery == "" {
		return result, nil
	}

	posts, err := svc.postRepo.List(ctx)
	if err != nil {
		return nil, PersistenceError{Op: "list posts", Err: err}
	}

	for _, post := range posts {
		titleMatch := titleQuery != "" && strings.Contains(strings.ToLower(post.Title), titleQuery)
		contentMatch := contentQuery != "" && strings.Contains(strings.ToLower(post.Content), contentQuery)

		if titleMatch || contentMatch {
			result = append(result, post)
		}
	}

	return result, nil
}

// wrapRepoError passes lookup failures through and reports everything else
// as a persistence failure.
func wrapRepoError(op string, err error) error {
	var notFoundErr PostNotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr
	}

	return PersistenceError{Op: op, Err: err}
}
