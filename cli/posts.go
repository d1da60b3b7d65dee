package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nasermirzaei89/postapi/app"
	"github.com/nasermirzaei89/postapi/contents"
	"github.com/spf13/cobra"
)

func newPostsCommand() *cobra.Command {
	var output string

	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage posts directly in the configured storage",
	}

	postsCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	postsCmd.AddCommand(
		newPostsListCommand(&output),
		newPostsGetCommand(&output),
		newPostsAddCommand(&output),
		newPostsUpdateCommand(&output),
		newPostsDeleteCommand(),
		newPostsSearchCommand(&output),
	)

	return postsCmd
}

// withService opens the configured storage for the duration of fn.
func withService(ctx context.Context, fn func(svc *contents.Service) error) error {
	postRepo, db, err := app.NewPostRepository(ctx)
	if err != nil {
		return fmt.Errorf("failed to create post repository: %w", err)
	}

	if db != nil {
		defer func() {
			err := db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}()
	}

	return fn(contents.NewService(postRepo))
}

// EphemeralStorageError is returned by mutating commands when the storage
// would be discarded as soon as the command exits.
type EphemeralStorageError struct {
	Driver string
}

func (err EphemeralStorageError) Error() string {
	return fmt.Sprintf("storage driver %q does not persist changes; set STORAGE_DRIVER to %q or %q", err.Driver, app.StorageDriverFile, app.StorageDriverSQLite)
}

// withWritableService is withService for commands that change posts.
func withWritableService(ctx context.Context, fn func(svc *contents.Service) error) error {
	driver := app.StorageDriverFromEnv()
	if driver == app.StorageDriverMemory {
		return EphemeralStorageError{Driver: driver}
	}

	return withService(ctx, fn)
}

func parsePostID(arg string) (int, error) {
	postID, err := strconv.Atoi(arg)
	if err != nil || postID < 1 {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}

	return postID, nil
}

// optionalFlag returns a pointer to the flag value when the flag was set.
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	value, _ := cmd.Flags().GetString(name)

	return &value
}

func newPostsListCommand(output *string) *cobra.Command {
	var sortField, direction string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, optionally sorted by title or content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(svc *contents.Service) error {
				posts, err := svc.ListPosts(cmd.Context(), contents.ListPostsParams{
					Sort:      contents.SortField(sortField),
					Direction: contents.SortDirection(direction),
				})
				if err != nil {
					return fmt.Errorf("failed to list posts: %w", err)
				}

				return renderPosts(cmd.OutOrStdout(), *output, posts)
			})
		},
	}

	cmd.Flags().StringVar(&sortField, "sort", "", "sort field: title or content")
	cmd.Flags().StringVar(&direction, "direction", "", "sort direction: asc or desc")

	return cmd
}

func newPostsGetCommand(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			return withService(cmd.Context(), func(svc *contents.Service) error {
				post, err := svc.GetPost(cmd.Context(), postID)
				if err != nil {
					return fmt.Errorf("failed to get post: %w", err)
				}

				return renderPost(cmd.OutOrStdout(), *output, post)
			})
		},
	}
}

func newPostsAddCommand(output *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := contents.CreatePostRequest{
				Title:   optionalFlag(cmd, "title"),
				Content: optionalFlag(cmd, "content"),
			}

			return withWritableService(cmd.Context(), func(svc *contents.Service) error {
				post, err := svc.CreatePost(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("failed to create post: %w", err)
				}

				return renderPost(cmd.OutOrStdout(), *output, post)
			})
		},
	}

	cmd.Flags().String("title", "", "post title")
	cmd.Flags().String("content", "", "post content")

	return cmd
}

func newPostsUpdateCommand(output *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the title and/or content of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			req := contents.UpdatePostRequest{
				Title:   optionalFlag(cmd, "title"),
				Content: optionalFlag(cmd, "content"),
			}

			return withWritableService(cmd.Context(), func(svc *contents.Service) error {
				post, err := svc.UpdatePost(cmd.Context(), postID, req)
				if err != nil {
					return fmt.Errorf("failed to update post: %w", err)
				}

				return renderPost(cmd.OutOrStdout(), *output, post)
			})
		},
	}

	cmd.Flags().String("title", "", "new post title")
	cmd.Flags().String("content", "", "new post content")

	return cmd
}

func newPostsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			return withWritableService(cmd.Context(), func(svc *contents.Service) error {
				err := svc.DeletePost(cmd.Context(), postID)
				if err != nil {
					return fmt.Errorf("failed to delete post: %w", err)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Post with id %d has been deleted successfully.\n", postID)

				return err
			})
		},
	}
}

func newPostsSearchCommand(output *string) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find posts whose title or content contains a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(svc *contents.Service) error {
				posts, err := svc.SearchPosts(cmd.Context(), contents.SearchPostsParams{
					Title:   title,
					Content: content,
				})
				if err != nil {
					return fmt.Errorf("failed to search posts: %w", err)
				}

				return renderPosts(cmd.OutOrStdout(), *output, posts)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "case-insensitive title query")
	cmd.Flags().StringVar(&content, "content", "", "case-insensitive content query")

	return cmd
}
