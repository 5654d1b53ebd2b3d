// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/slashwrite/internal/cloud"
	"github.com/jeranaias/slashwrite/internal/config"
	"github.com/jeranaias/slashwrite/internal/credential"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
)

func (a *app) newKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [key]",
			Short: "Save the API key (prompted when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := a.keyFromArgs(args)
				if err != nil {
					return err
				}
				path, err := config.CredentialsPath()
				if err != nil {
					return err
				}
				if err := credential.Save(path, key); err != nil {
					return NewCommandError("key", "set", "could not write key file", err)
				}
				if !cloud.ValidateAPIKey(key) {
					fmt.Fprintln(a.errOut, styles.RenderWarning("key does not look like an OpenAI key; saved anyway"))
				}
				return a.respond("key set", a.keyStatus(path), func(w io.Writer) error {
					_, err := fmt.Fprintln(w, styles.RenderSuccess("key saved "+cloud.MaskKey(key)))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the saved API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.CredentialsPath()
				if err != nil {
					return err
				}
				if err := credential.Clear(path); err != nil {
					return NewCommandError("key", "clear", "could not remove key file", err)
				}
				return a.respond("key clear", a.keyStatus(path), func(w io.Writer) error {
					_, err := fmt.Fprintln(w, styles.RenderSuccess("key removed"))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a key is configured (never prints the key)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.CredentialsPath()
				if err != nil {
					return err
				}
				status := a.keyStatus(path)
				return a.respond("key status", status, func(w io.Writer) error {
					state := ErrorStyle.Render("not set")
					if status.Configured {
						state = SuccessStyle.Render("set") + " (" + status.Source + ")"
					}
					fmt.Fprintf(w, "%s%s\n", RenderLabel("Key"), state)
					fmt.Fprintf(w, "%s%s\n", RenderLabel("Masked"), ValueStyle.Render(status.Masked))
					fmt.Fprintf(w, "%s%s\n", RenderLabel("File"), ValueStyle.Render(status.Path))
					if !status.NeedsKey {
						fmt.Fprintf(w, "%s%s\n", RenderLabel("Note"), DimStyle.Render(status.Provider+" does not need a key"))
					}
					return nil
				})
			},
		},
	)
	return cmd
}

// keyFromArgs returns the key argument, or prompts without echo on a
// terminal, or reads one line from a pipe.
func (a *app) keyFromArgs(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.errOut, "API key: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", ErrMissingArgument("key", "slashwrite key set sk-...")
	}
	return key, nil
}

// keyStatus reports the effective key the way the credential provider
// would resolve it.
func (a *app) keyStatus(path string) KeyStatusData {
	status := KeyStatusData{
		Path:     path,
		Provider: a.cfg.Backend.Provider,
		NeedsKey: a.cfg.Backend.NeedsCredential(),
	}

	key, source := "", ""
	if env := strings.TrimSpace(os.Getenv(credential.EnvAPIKey)); env != "" {
		key, source = env, "env"
	} else if fileKey, err := credential.Load(path); err == nil && fileKey != "" {
		key, source = fileKey, "file"
	}

	status.Configured = key != ""
	status.Source = source
	status.Masked = cloud.MaskKey(key)
	status.LooksValid = cloud.ValidateAPIKey(key)
	return status
}
