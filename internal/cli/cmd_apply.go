// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/slashwrite/internal/suggest"
	"github.com/jeranaias/slashwrite/internal/surface"
)

// stdoutSurfaceID names the surface in the history journal.
const stdoutSurfaceID = "cli"

// silentPresenter shows nothing; apply accepts immediately.
type silentPresenter struct{}

func (silentPresenter) Show(suggest.Surface, string) suggest.Handle { return nil }
func (silentPresenter) Hide(suggest.Handle)                          {}

func (a *app) newApplyCommand() *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "apply [text]",
		Short: "Transform the command at the end of a text and print the result",
		Long: `Apply runs the same suggestion cycle as the editors and accepts the
result: the recognized command is sent to the backend and the rewritten
text is printed. With --html the input is treated as rich-text markup and
the output is escaped markup.`,
		Example: `  slashwrite apply "pls send the report by friday /ai"
  pbpaste | slashwrite apply > out.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readText(args)
			if err != nil {
				return err
			}

			var (
				target suggest.Surface
				read   func() (string, error)
			)
			if html {
				rich := surface.NewRichText(stdoutSurfaceID, text)
				target = rich
				read = func() (string, error) { return rich.Markup(), nil }
			} else {
				field := surface.NewField(stdoutSurfaceID, text)
				target, read = field, field.ReadText
			}

			ctx := cmd.Context()
			svc, err := a.openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			lc := suggest.NewLifecycle(svc.dispatcher, silentPresenter{}, svc.lifecycleOptions(a.logger)...)
			fetch, ok := lc.TextChanged(target)
			if !ok {
				return &NotFoundError{Resource: "command"}
			}
			pending, _ := lc.Pending()
			lc.Resolve(fetch.Run(ctx))
			lc.KeyDown(lc.Keys().Accept)

			result, err := read()
			if err != nil {
				return NewCommandError("apply", "read", "could not read the result", err)
			}
			data := ApplyData{
				Kind:     string(pending.Command.Kind),
				Original: text,
				Result:   result,
				Changed:  result != text,
			}
			return a.respond("apply", data, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, result)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Treat the input as rich-text markup")
	return cmd
}
