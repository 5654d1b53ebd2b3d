// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/slashwrite/internal/browser"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
)

func (a *app) newBrowserCommand() *cobra.Command {
	var (
		debuggerURL string
		url         string
		headless    bool
	)
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Offer suggestions inside a Chrome page",
		Long: `Attach to a running Chrome (--debugger-url ws://...) or launch one, open
--url, and offer suggestions in every text field and rich editor of the
page until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Browser
			if cmd.Flags().Changed("debugger-url") {
				cfg.DebuggerURL = debuggerURL
			}
			if cmd.Flags().Changed("url") {
				cfg.URL = url
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}

			ctx := cmd.Context()
			svc, err := a.openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			host := browser.New(cfg, svc.keys, a.logger)
			if err := host.Start(ctx); err != nil {
				return NewCommandError("browser", "start", "could not open page", err)
			}
			defer host.Close()

			svc.preflight(ctx, a.errOut, a.logger)
			fmt.Fprintln(a.errOut, styles.RenderInfo(fmt.Sprintf("watching the page (%s). Ctrl+C to stop.", svc.backend)))
			return host.Run(ctx, svc.dispatcher, svc.lifecycleOptions(a.logger)...)
		},
	}
	cmd.Flags().StringVar(&debuggerURL, "debugger-url", "", "DevTools websocket URL of a running Chrome")
	cmd.Flags().StringVar(&url, "url", "", "Page to open")
	cmd.Flags().BoolVar(&headless, "headless", false, "Launch Chrome headless")
	return cmd
}
