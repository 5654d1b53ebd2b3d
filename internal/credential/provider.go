// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/util"
)

// EnvAPIKey overrides the key file when set.
const EnvAPIKey = "SLASHWRITE_API_KEY"

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("credential provider already started")

// =============================================================================
// KEY FILE
// =============================================================================

type keyFile struct {
	APIKey string `toml:"api_key"`
}

// Load reads the key from path. A missing file is an empty key, not an error.
func Load(path string) (string, error) {
	var kf keyFile
	if _, err := toml.DecodeFile(path, &kf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return strings.TrimSpace(kf.APIKey), nil
}

// Save writes key to path atomically with owner-only permissions.
func Save(path, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key must not be empty")
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(keyFile{APIKey: key}); err != nil {
		return fmt.Errorf("failed to encode key file: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Clear removes the key file.
func Clear(path string) error {
	return util.RemoveIfExists(path)
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider holds the current key. It is safe for concurrent use.
type Provider struct {
	path   string
	lookup func(string) (string, bool)
	logger *zap.Logger

	mu     sync.RWMutex
	key    string
	source string

	ready     chan struct{}
	readyOnce sync.Once
	reload    chan struct{}

	startMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEnv replaces os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(p *Provider) {
		if lookup != nil {
			p.lookup = lookup
		}
	}
}

// NewProvider creates a provider for the key file at path.
func NewProvider(path string, opts ...Option) *Provider {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := &Provider{
		path:   filepath.Clean(path),
		lookup: os.LookupEnv,
		logger: zap.NewNop(),
		ready:  make(chan struct{}),
		reload: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the watched key file.
func (p *Provider) Path() string {
	return p.path
}

// Key returns the current key. Until the first load completes, and whenever
// no key is configured, it reports false.
func (p *Provider) Key() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.key, p.key != ""
}

// Source reports where the current key came from: "env", "file" or "".
func (p *Provider) Source() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// Ready is closed once the first load has finished.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Start begins the background load and watches the key file's directory.
// It returns without waiting for the key.
func (p *Provider) Start(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.done != nil {
		return ErrAlreadyStarted
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, watcher)
	return nil
}

// Reload schedules a reload. It never blocks.
func (p *Provider) Reload() {
	select {
	case p.reload <- struct{}{}:
	default:
	}
}

// Close stops the watcher and waits for it to exit.
func (p *Provider) Close() error {
	p.startMu.Lock()
	cancel, done := p.cancel, p.done
	p.startMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (p *Provider) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(p.done)
	defer watcher.Close()

	p.load()
	p.readyOnce.Do(func() { close(p.ready) })

	for {
		select {
		case <-ctx.Done():
			return

		case <-p.reload:
			p.load()

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				p.load()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("key file watcher error", zap.Error(err))
		}
	}
}

func (p *Provider) load() {
	key, source := "", ""
	if v, ok := p.lookup(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		key, source = strings.TrimSpace(v), "env"
	} else {
		k, err := Load(p.path)
		if err != nil {
			// Keep the previous key; a half-written file is transient.
			p.logger.Warn("failed to load key file", zap.String("path", p.path), zap.Error(err))
			return
		}
		if k != "" {
			key, source = k, "file"
		}
	}

	p.mu.Lock()
	changed := p.key != key
	p.key, p.source = key, source
	p.mu.Unlock()

	if changed {
		p.logger.Info("credential updated",
			zap.String("source", source),
			zap.Bool("present", key != ""),
		)
	}
}
