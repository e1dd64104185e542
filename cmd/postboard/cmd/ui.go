package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ThreeDotsLabs/postboard/ui"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI (default)",
		Long: `Start the interactive terminal UI.

Posts are fetched once on start. Press r to fetch them again.`,
		RunE: runUI,
	})
}

func runUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Could not close store", err, nil)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	states, err := a.store.Subscribe(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(a.store, states), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "terminal UI failed")
	}

	return nil
}
