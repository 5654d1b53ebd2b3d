// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/slashwrite/internal/config"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
)

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with the defaults",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewCommandError("config", "init", "file exists (use --force to overwrite)", nil)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return NewCommandError("config", "init", "could not write config", err)
			}
			return a.respond("config init", ConfigPathData{Path: path, Exists: true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, styles.RenderSuccess("wrote "+path))
				return err
			})
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.respond("config show", a.cfg, func(w io.Writer) error {
					_, err := fmt.Fprint(w, a.cfg.String())
					return err
				})
			},
		},
		&cobra.Command{
			Use:         "path",
			Short:       "Print the config file path",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{skipConfigAnnotation: "true"},
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return err
				}
				_, statErr := os.Stat(path)
				data := ConfigPathData{Path: path, Exists: statErr == nil}
				return a.respond("config path", data, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, path)
					return err
				})
			},
		},
		initCmd,
	)
	return cmd
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}
