package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/livepager"
	"github.com/Alp4ka/livepager/internal/postdb"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the two initial posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, title := range []string{"first post", "second post"} {
				post, err := a.store.AddPost(cmd.Context(), title)
				if err != nil {
					return err
				}

				if err = writeJSON(cmd, post); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add [title]",
		Short: "Add a post at the end of the feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.store.AddPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd, post)
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete posts by id, or every post with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("%w: pass either post ids or --all", livepager.ErrInvalidArgument)
			}

			var ids []string
			if !all {
				ids = args
			}

			n, err := a.store.DeletePosts(cmd.Context(), ids)
			if err != nil {
				return err
			}

			return writeJSON(cmd, map[string]int64{"deleted": n})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every post")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Print a post by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.store.PostByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return writeJSON(cmd, post)
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.store.AllPosts(cmd.Context())
			if err != nil {
				return err
			}

			return writeJSON(cmd, posts)
		},
	}
}

// pageOutput is a Page with its next cursor rendered as a token.
type pageOutput[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
	HasMore       bool   `json:"hasMore"`
}

func newPageCommand(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Print one page of posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := livepager.DecodePageRequest[int64](a.cfg.Page.Limit, token)
			if err != nil {
				return err
			}

			page, err := a.store.Paginate(cmd.Context(), req)
			if err != nil {
				return err
			}

			return writeJSON(cmd, pageOutput[postdb.Post]{
				Items:         page.Items,
				NextPageToken: page.NextPageToken(),
				HasMore:       !page.IsLast(),
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "nextPageToken of the previous page")
	cmd.Flags().Int("limit", 0, "page size")
	return cmd
}
