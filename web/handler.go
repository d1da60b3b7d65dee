package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/postapi/contents"
)

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	contentsSvc *contents.Service
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(contentsSvc *contents.Service, allowedOrigins []string) *Handler {
	h := &Handler{
		mux:         nil,
		handler:     nil,
		contentsSvc: contentsSvc,
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = http.HandlerFunc(h.serveMux)

		h.registerRoutes()
	}

	{
		h.handler = corsMiddleware(allowedOrigins)(h.handler)
		h.handler = logMiddleware(h.handler)
		h.handler = requestIDMiddleware(h.handler)
		h.handler = recoverMiddleware(h.handler)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// serveMux dispatches to the mux. Requests no route matches get the mux's own
// 404 or 405 (with its Allow header) in the JSON error shape.
func (h *Handler) serveMux(w http.ResponseWriter, r *http.Request) {
	handler, pattern := h.mux.Handler(r)
	if pattern == "" {
		handler.ServeHTTP(&errorBodyWriter{ResponseWriter: w}, r)

		return
	}

	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("GET /api/posts", h.HandleListPosts())
	h.mux.Handle("POST /api/posts", h.HandleCreatePost())
	h.mux.Handle("GET /api/posts/search", h.HandleSearchPosts())
	h.mux.Handle("GET /api/posts/{postId}", h.HandleGetPost())
	h.mux.Handle("PUT /api/posts/{postId}", h.HandleUpdatePost())
	h.mux.Handle("DELETE /api/posts/{postId}", h.HandleDeletePost())
}

func (h *Handler) HandleListPosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		posts, err := h.contentsSvc.ListPosts(r.Context(), contents.ListPostsParams{
			Sort:      contents.SortField(query.Get("sort")),
			Direction: contents.SortDirection(query.Get("direction")),
		})
		if err != nil {
			h.handleServiceError(w, r, "failed to list posts", err)

			return
		}

		writeJSON(w, http.StatusOK, posts)
	})
}

func (h *Handler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req contents.CreatePostRequest

		err := decodeBody(w, r, &req)
		if err != nil {
			slog.DebugContext(r.Context(), "failed to decode create post request", "error", err)
			writeError(w, http.StatusBadRequest, "Both 'title' and 'content' are required")

			return
		}

		post, err := h.contentsSvc.CreatePost(r.Context(), req)
		if err != nil {
			h.handleServiceError(w, r, "failed to create post", err)

			return
		}

		writeJSON(w, http.StatusCreated, post)
	})
}

func (h *Handler) HandleGetPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathPostID(w, r)
		if !ok {
			return
		}

		post, err := h.contentsSvc.GetPost(r.Context(), postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to get post", err)

			return
		}

		writeJSON(w, http.StatusOK, post)
	})
}

func (h *Handler) HandleUpdatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathPostID(w, r)
		if !ok {
			return
		}

		var req contents.UpdatePostRequest

		err := decodeBody(w, r, &req)
		if err != nil && !errors.Is(err, io.EOF) {
			slog.DebugContext(r.Context(), "failed to decode update post request", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")

			return
		}

		post, err := h.contentsSvc.UpdatePost(r.Context(), postID, req)
		if err != nil {
			h.handleServiceError(w, r, "failed to update post", err)

			return
		}

		writeJSON(w, http.StatusOK, post)
	})
}

func (h *Handler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathPostID(w, r)
		if !ok {
			return
		}

		err := h.contentsSvc.DeletePost(r.Context(), postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to delete post", err)

			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{
			Message: fmt.Sprintf("Post with id %d has been deleted successfully.", postID),
		})
	})
}

func (h *Handler) HandleSearchPosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		posts, err := h.contentsSvc.SearchPosts(r.Context(), contents.SearchPostsParams{
			Title:   query.Get("title"),
			Content: query.Get("content"),
		})
		if err != nil {
			h.handleServiceError(w, r, "failed to search posts", err)

			return
		}

		writeJSON(w, http.StatusOK, posts)
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var (
		validationErr      contents.ValidationError
		invalidArgumentErr contents.InvalidArgumentError
		notFoundErr        contents.PostNotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &invalidArgumentErr):
		writeError(w, http.StatusBadRequest, invalidArgumentErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	default:
		slog.ErrorContext(r.Context(), msg, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// pathPostID parses the postId path value. Anything that is not a positive
// integer cannot name a post, so it is answered with 404.
func pathPostID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("postId")

	postID, err := strconv.Atoi(raw)
	if err != nil || postID < 1 {
		writeError(w, http.StatusNotFound, "Not Found")

		return 0, false
	}

	return postID, true
}
