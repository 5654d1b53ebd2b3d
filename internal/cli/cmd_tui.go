// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/ui/editor"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
)

func (a *app) newTUICommand() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal editor (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), text)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Initial editor text")
	return cmd
}

func (a *app) runTUI(ctx context.Context, text string) error {
	if err := RequiresTTY("start the editor"); err != nil {
		return err
	}

	svc, err := a.openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.preflight(ctx, a.errOut, a.logger)

	model := editor.New(editor.Options{
		Transformer: svc.dispatcher,
		Parser:      svc.parser,
		Keys:        svc.keys,
		Recorder:    svc.recorder(),
		Logger:      a.logger.Named("editor"),
		Theme:       styles.NewTheme(),
		Context:     ctx,
		Backend:     svc.backend,
		InitialText: text,
	})

	a.logger.Info("terminal editor started", zap.String("backend", svc.backend))
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("terminal editor: %w", err)
	}

	// Leave the text where the user can copy it.
	if m, ok := final.(editor.Model); ok && m.Value() != "" {
		fmt.Fprintln(a.out, m.Value())
	}
	return nil
}
