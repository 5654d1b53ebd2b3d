// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/slashwrite/internal/config"
	"github.com/jeranaias/slashwrite/internal/suggest"
)

// maxDrainFailures ends the poll loop when the page stays unreachable.
const maxDrainFailures = 50

// ErrNotStarted is returned by Run before Start.
var ErrNotStarted = errors.New("browser host not started")

// =============================================================================
// HOST
// =============================================================================

// Host owns the browser connection and the page being edited.
type Host struct {
	cfg    config.BrowserConfig
	keys   suggest.Keys
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// New creates a host. Nothing is launched until Start.
func New(cfg config.BrowserConfig, keys suggest.Keys, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollMS <= 0 {
		cfg.PollMS = config.Default().Browser.PollMS
	}
	return &Host{
		cfg:    cfg,
		keys:   keys,
		logger: logger.Named("browser"),
	}
}

// Start attaches to DebuggerURL, or launches Chrome when it is empty, then
// opens a page with the hook installed and navigates to the configured URL.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.page != nil {
		return nil
	}

	controlURL := h.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(h.cfg.Headless)
		url, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		h.launcher = l
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		h.cleanupLocked()
		return fmt.Errorf("connect to chrome: %w", err)
	}
	h.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		h.cleanupLocked()
		return fmt.Errorf("create page: %w", err)
	}
	h.page = page

	if _, err := page.EvalOnNewDocument(hookSource(h.keys.Accept)); err != nil {
		h.cleanupLocked()
		return fmt.Errorf("install hook: %w", err)
	}

	if h.cfg.URL != "" {
		if err := page.Navigate(h.cfg.URL); err != nil {
			h.cleanupLocked()
			return fmt.Errorf("navigate to %s: %w", h.cfg.URL, err)
		}
		if err := page.WaitLoad(); err != nil {
			h.logger.Warn("page did not finish loading", zap.String("url", h.cfg.URL), zap.Error(err))
		}
	}

	h.logger.Info("browser host started",
		zap.Bool("attached", h.cfg.DebuggerURL != ""),
		zap.String("url", h.cfg.URL),
	)
	return nil
}

// Run drives the suggestion lifecycle for the page until ctx is done or
// the page becomes unreachable.
func (h *Host) Run(ctx context.Context, transformer suggest.Transformer, opts ...suggest.Option) error {
	h.mu.Lock()
	page := h.page
	h.mu.Unlock()
	if page == nil {
		return ErrNotStarted
	}

	return h.run(ctx, func(c context.Context) evaluator { return page.Context(c) }, transformer, opts...)
}

// run wires a lifecycle, its loop and the poller to the page returned by
// bind for the run's context.
func (h *Host) run(ctx context.Context, bind func(context.Context) evaluator, transformer suggest.Transformer, opts ...suggest.Option) error {
	g, gctx := errgroup.WithContext(ctx)
	page := bind(gctx)

	lcOpts := append([]suggest.Option{}, opts...)
	lcOpts = append(lcOpts, suggest.WithKeys(h.keys), suggest.WithLogger(h.logger))
	lc := suggest.NewLifecycle(transformer, newTooltip(page, h.keys, h.logger), lcOpts...)
	loop := suggest.NewLoop(lc,
		suggest.WithLoopLogger(h.logger),
		suggest.WithResolveHook(func(r suggest.Resolution, applied bool) {
			// Stale results are dropped without a trace.
			if applied {
				h.logger.Debug("suggestion ready", zap.Uint64("request_id", r.RequestID))
			}
		}),
	)

	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return h.poll(gctx, page, loop)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// poll drains the page queue every PollMS and forwards events in order.
func (h *Host) poll(ctx context.Context, page evaluator, loop *suggest.Loop) error {
	reg := newRegistry(page)
	ticker := time.NewTicker(time.Duration(h.cfg.PollMS) * time.Millisecond)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		events, err := drain(page)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Navigations briefly destroy the execution context.
			failures++
			h.logger.Debug("drain failed", zap.Int("failures", failures), zap.Error(err))
			if failures >= maxDrainFailures {
				return fmt.Errorf("page unreachable: %w", err)
			}
			continue
		}
		failures = 0

		for _, ev := range events {
			if err := h.dispatch(ctx, loop, reg, ev); err != nil {
				return err
			}
		}
	}
}

func (h *Host) dispatch(ctx context.Context, loop *suggest.Loop, reg *registry, ev pageEvent) error {
	s, ok := reg.resolve(ev.Surface)
	if !ok {
		return nil
	}
	switch ev.Type {
	case eventKeyDown:
		_, err := loop.KeyDown(ctx, ev.Key)
		return err
	case eventKeyUp, eventInput:
		return loop.TextChanged(ctx, s)
	default:
		h.logger.Debug("ignoring page event", zap.String("type", ev.Type))
		return nil
	}
}

// Close closes the page. A launched browser is shut down; an attached one
// is left running.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cleanupLocked()
}

func (h *Host) cleanupLocked() error {
	var errs []error
	if h.page != nil {
		if err := h.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		h.page = nil
	}
	if h.launcher != nil {
		if h.browser != nil {
			_ = h.browser.Close()
		}
		h.launcher.Kill()
		h.launcher.Cleanup()
		h.launcher = nil
	}
	h.browser = nil
	return errors.Join(errs...)
}
