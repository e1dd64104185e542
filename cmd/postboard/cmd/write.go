package cmd

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/store"
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := postInputFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.runOperation(cmd.Context(), func(s *store.Store) string {
				return s.CreatePost(input.Title, input.Body)
			})
			if err != nil {
				return err
			}

			printPost(cmd.OutOrStdout(), "Created", state.Posts[len(state.Posts)-1])
			return nil
		},
	}
	addPostFlags(createCmd)
	rootCmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update a post",
		Long: `Update a post.

Posts are fetched first, so the updated post can be shown in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, _ := cmd.Flags().GetInt("id")

			input, err := postInputFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.runOperation(cmd.Context(), (*store.Store).FetchPosts); err != nil {
				return err
			}

			state, err := a.runOperation(cmd.Context(), func(s *store.Store) string {
				return s.UpdatePost(postID, input.Title, input.Body)
			})
			if err != nil {
				return err
			}

			post, ok := lo.Find(state.Posts, func(post postboard.Post) bool {
				return post.ID == postID
			})
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Post %d updated, but it is not in the list\n", postID)
				return nil
			}

			printPost(cmd.OutOrStdout(), "Updated", post)
			return nil
		},
	}
	addIDFlag(updateCmd)
	addPostFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, _ := cmd.Flags().GetInt("id")

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = a.runOperation(cmd.Context(), func(s *store.Store) string {
				return s.DeletePost(postID)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d\n", postID)
			return nil
		},
	}
	addIDFlag(deleteCmd)
	rootCmd.AddCommand(deleteCmd)
}

func addIDFlag(cmd *cobra.Command) {
	cmd.Flags().Int("id", 0, "The id of the post")
	ensure(cmd.MarkFlagRequired("id"))
}

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "The title of the post")
	ensure(cmd.MarkFlagRequired("title"))

	cmd.Flags().String("body", "", "The body of the post")
	ensure(cmd.MarkFlagRequired("body"))
}

func postInputFromFlags(cmd *cobra.Command) (postboard.PostInput, error) {
	title, _ := cmd.Flags().GetString("title")
	body, _ := cmd.Flags().GetString("body")

	input := postboard.NewPostInput(title, body)
	return input, input.Validate()
}

func printPost(w io.Writer, verb string, post postboard.Post) {
	fmt.Fprintf(w, "%s post %d\nTitle: %s\nBody:\n%s\n", verb, post.ID, post.Title, post.Body)
}
