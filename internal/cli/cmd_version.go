// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			return a.respond("version", data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s version %s\n", TitleStyle.Render("slashwrite"), data.Version)
				fmt.Fprintf(w, "  Git commit: %s\n", data.GitCommit)
				fmt.Fprintf(w, "  Build date: %s\n", data.BuildDate)
				_, err := fmt.Fprintf(w, "  Go:         %s\n", data.GoVersion)
				return err
			})
		},
	}
}
