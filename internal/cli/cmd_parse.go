// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/slashwrite/internal/commands"
)

func (a *app) newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text]",
		Short: "Show the command recognized at the end of a text",
		Long: `Parse prints the recognized command as JSON, or "no command". With no
argument (or "-") the text is read from stdin.`,
		Example: `  slashwrite parse "Hello world /ai"
  echo "Hola /translate French/" | slashwrite parse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readText(args)
			if err != nil {
				return err
			}

			parser := commands.NewParser(commands.WithDefaultLanguage(a.cfg.Grammar.DefaultLanguage))
			data := parseData(parser, text)
			return a.respond("parse", data, func(w io.Writer) error {
				if !data.Matched {
					_, err := fmt.Fprintln(w, "no command")
					return err
				}
				return printJSON(w, data)
			})
		},
	}
}

func parseData(p *commands.Parser, text string) ParseData {
	cmd, ok := p.Parse(text)
	if !ok {
		return ParseData{}
	}
	return ParseData{
		Matched:  true,
		Kind:     string(cmd.Kind),
		Source:   cmd.Source,
		Language: cmd.Language,
		Form:     string(cmd.Form),
		Range:    &RangeData{Start: cmd.Range.Start, End: cmd.Range.End},
	}
}

// readText joins args, or reads stdin when there are none or the only one
// is "-". A single trailing newline from stdin is dropped.
func (a *app) readText(args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return "", ErrMissingArgument("text", `slashwrite parse "Hello world /ai"`)
	}
	return text, nil
}
