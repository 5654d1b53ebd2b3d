// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/cloud"
	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/config"
	"github.com/jeranaias/slashwrite/internal/credential"
	"github.com/jeranaias/slashwrite/internal/history"
	"github.com/jeranaias/slashwrite/internal/ollama"
	"github.com/jeranaias/slashwrite/internal/suggest"
	"github.com/jeranaias/slashwrite/internal/transform"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
)

// services is everything a host needs to run the lifecycle.
type services struct {
	dispatcher *transform.Dispatcher
	parser     *commands.Parser
	keys       suggest.Keys
	provider   *credential.Provider
	journal    *history.Journal
	backend    string

	// local is set when the backend is an Ollama server
	local *ollama.Client
}

// preflightTimeout bounds the local backend check at host start.
const preflightTimeout = 3 * time.Second

// lifecycleOptions returns the options shared by every host.
func (s *services) lifecycleOptions(logger *zap.Logger) []suggest.Option {
	opts := []suggest.Option{
		suggest.WithParser(s.parser),
		suggest.WithKeys(s.keys),
		suggest.WithLogger(logger),
	}
	if s.journal != nil {
		opts = append(opts, suggest.WithRecorder(s.journal))
	}
	return opts
}

// recorder returns the journal as a Recorder, or nil when disabled.
func (s *services) recorder() suggest.Recorder {
	if s.journal == nil {
		return nil
	}
	return s.journal
}

func (s *services) Close() error {
	var errs []error
	if s.provider != nil {
		errs = append(errs, s.provider.Close())
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	return errors.Join(errs...)
}

// preflight warns on w when the local backend is down or lacks the model.
// It never fails the command: suggestions degrade to unchanged text.
func (s *services) preflight(ctx context.Context, w io.Writer, logger *zap.Logger) {
	if s.local == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	if err := s.local.CheckRunning(ctx); err != nil {
		logger.Warn("backend preflight failed", zap.Error(err))
		switch {
		case ollama.IsNotRunning(err):
			fmt.Fprintln(w, styles.RenderWarning("Ollama is not running; commands will leave text unchanged"))
		case ollama.IsTimeout(err):
			fmt.Fprintln(w, styles.RenderWarning("Ollama did not answer in time"))
		default:
			fmt.Fprintln(w, styles.RenderWarning("Ollama check failed: "+err.Error()))
		}
		return
	}

	models, err := s.local.ListModels(ctx)
	if err != nil {
		logger.Debug("could not list models", zap.Error(err))
		return
	}
	want := s.local.Model()
	if !hasModel(models, want) {
		fmt.Fprintln(w, styles.RenderWarning(fmt.Sprintf("model %q is not pulled; run: ollama pull %s", want, want)))
	}
}

// hasModel matches name with or without a tag ("llama3.2" vs "llama3.2:latest").
func hasModel(models []ollama.ModelInfo, name string) bool {
	for _, m := range models {
		if m.Name == name || strings.HasPrefix(m.Name, name+":") {
			return true
		}
	}
	return false
}

// openServices wires config into a backend, credential provider, dispatcher
// and journal. The provider is started; call Close when done.
func (a *app) openServices(ctx context.Context) (*services, error) {
	cfg := a.cfg
	s := &services{
		parser: commands.NewParser(commands.WithDefaultLanguage(cfg.Grammar.DefaultLanguage)),
		keys:   suggest.Keys{Accept: cfg.Keys.Accept, Reject: cfg.Keys.Reject},
	}

	backend, label := a.newBackend()
	s.backend = label
	if local, ok := backend.(*ollama.Client); ok {
		s.local = local
	}

	dispatchOpts := []transform.Option{
		transform.WithPrompts(transform.Prompts{
			Improve:   cfg.Prompts.Improve,
			Elaborate: cfg.Prompts.Elaborate,
			Translate: cfg.Prompts.Translate,
		}),
		transform.WithRequestsPerMinute(cfg.Backend.RequestsPerMinute),
		transform.WithLogger(a.logger),
	}

	var keys transform.KeySource
	if cfg.Backend.NeedsCredential() {
		path, err := config.CredentialsPath()
		if err != nil {
			return nil, err
		}
		s.provider = credential.NewProvider(path, credential.WithLogger(a.logger))
		if err := s.provider.Start(ctx); err != nil {
			return nil, NewCommandError("credential", "start", "could not watch key file", err)
		}
		// Dispatching before the first load would see no key.
		select {
		case <-s.provider.Ready():
		case <-ctx.Done():
			s.Close()
			return nil, ctx.Err()
		}
		keys = s.provider
	} else {
		dispatchOpts = append(dispatchOpts, transform.WithoutCredential())
	}
	s.dispatcher = transform.NewDispatcher(backend, keys, dispatchOpts...)

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			s.Close()
			return nil, err
		}
		journal, err := history.Open(path, history.WithLogger(a.logger))
		if err != nil {
			// The journal is optional; suggestions still work without it.
			a.logger.Warn("history disabled", zap.String("path", path), zap.Error(err))
		} else {
			s.journal = journal
		}
	}
	return s, nil
}

// newBackend builds the configured completion backend and a display label.
func (a *app) newBackend() (transform.Backend, string) {
	b := a.cfg.Backend
	timeout := time.Duration(b.TimeoutSecs) * time.Second

	if strings.EqualFold(b.Provider, config.ProviderOllama) {
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      b.ResolvedBaseURL(),
			Timeout:      timeout,
			DefaultModel: b.ResolvedModel(),
			MaxTokens:    b.MaxTokens,
			Temperature:  b.Temperature,
		}).WithLogger(a.logger.Named("ollama"))
		return client, "ollama · " + client.Model()
	}

	client := cloud.NewClient().
		WithBaseURL(b.ResolvedBaseURL()).
		WithModel(b.ResolvedModel()).
		WithTimeout(timeout).
		WithMaxRetries(b.MaxRetries).
		WithMaxTokens(b.MaxTokens).
		WithTemperature(b.Temperature).
		WithLogger(a.logger.Named("cloud"))
	return client, "openai · " + client.Model()
}
