package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/store"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Fetch posts and print them as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.runOperation(cmd.Context(), (*store.Store).FetchPosts)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), postsTable(state.Posts))
			return nil
		},
	})
}

func postsTable(posts []postboard.Post) string {
	rows := lo.Map(posts, func(post postboard.Post, _ int) []string {
		return []string{
			strconv.Itoa(post.ID),
			post.Title,
			preview(post.Body, 50),
		}
	})

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "Body").
		Rows(rows...).
		String()
}

// preview flattens text to a single line of at most width runes.
func preview(text string, width int) string {
	line := []rune(strings.Join(strings.Fields(text), " "))
	if len(line) <= width {
		return string(line)
	}
	return string(line[:width-1]) + "…"
}
