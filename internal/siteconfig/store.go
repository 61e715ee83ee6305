// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"sync"

	"promptlib/internal/models"
)

// Backend persists the site configuration for a Store.
type Backend interface {
	// Mode reports which persistence mode the backend implements.
	Mode() models.StorageMode

	// Load returns the persisted document, or nil if nothing is stored.
	Load(ctx context.Context) (json.RawMessage, error)

	// Save writes the full configuration.
	Save(ctx context.Context, cfg models.SiteConfig) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed load and save failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// mutation transforms the current configuration into the next one.
type mutation func(models.SiteConfig) models.SiteConfig

// Store holds one session's view of the site configuration. Reads are
// served from memory; every mutation after the initial load is handed to
// a single background writer, newest snapshot first.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	cfg      models.SiteConfig
	loaded   bool
	syncing  int
	early    []mutation // applied before the initial load landed
	pending  *models.SiteConfig
	queued   uint64
	saved    uint64
	progress chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   bool
	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	loadDone  chan struct{}
}

// New returns a Store seeded with the default configuration. Call Start to
// load persisted state and begin persisting changes.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		logger:   slog.Default(),
		cfg:      models.DefaultSiteConfig(),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		loadDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start kicks off the initial load and the persistence worker. Only the
// first call has any effect. ctx bounds the initial load only.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()

		go s.writer()
		go s.initialLoad(ctx)
	})
}

// Config returns a snapshot of the current configuration.
func (s *Store) Config() models.SiteConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// IsLoading is true until the initial load completes and while a
// SyncFromServer call is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loaded || s.syncing > 0
}

// Update merges p into the current configuration and schedules a save.
func (s *Store) Update(p Patch) {
	s.apply(func(c models.SiteConfig) models.SiteConfig {
		return Merge(c, p)
	}, false)
}

// Reset restores the built-in defaults and schedules a save.
func (s *Store) Reset() {
	s.apply(func(models.SiteConfig) models.SiteConfig {
		return models.DefaultSiteConfig()
	}, false)
}

// SyncFromServer refetches the remote document and merges it onto the
// current state. It does nothing for a local backend. Failures are logged
// and leave the state untouched.
func (s *Store) SyncFromServer(ctx context.Context) {
	if s.backend.Mode() != models.StorageD1 {
		return
	}

	s.mu.Lock()
	s.syncing++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing--
		s.mu.Unlock()
	}()

	raw, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Error("failed to sync site config from server", "error", err)
		return
	}
	p, ok, err := s.decodeStored(raw)
	if err != nil {
		s.logger.Error("failed to sync site config from server", "error", err)
		return
	}
	if !ok {
		return
	}

	s.apply(func(c models.SiteConfig) models.SiteConfig {
		return Merge(c, p)
	}, true)
}

// WaitLoaded blocks until the initial load has completed.
func (s *Store) WaitLoaded(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.loaded {
			s.mu.Unlock()
			return nil
		}
		ch := s.progress
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush blocks until every save scheduled before the call has been
// attempted.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.queued
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.saved >= target {
			s.mu.Unlock()
			return nil
		}
		ch := s.progress
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close waits for an in-flight initial load, writes any pending snapshot
// (including replayed early mutations) and stops the persistence worker.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()

		if started {
			<-s.loadDone
		}
		close(s.quit)
		if started {
			<-s.done
		}
	})
	return nil
}

func (s *Store) initialLoad(ctx context.Context) {
	defer close(s.loadDone)
	cfg := models.DefaultSiteConfig()

	raw, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load site config, using defaults",
			"mode", s.backend.Mode(), "error", err)
	} else if p, ok, err := s.decodeStored(raw); err != nil {
		s.logger.Error("failed to parse stored site config, using defaults",
			"mode", s.backend.Mode(), "error", err)
	} else if ok {
		cfg = Merge(cfg, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fn := range s.early {
		cfg = fn(cfg)
	}
	replay := len(s.early) > 0
	s.early = nil
	s.cfg = cfg
	s.loaded = true
	if replay {
		s.enqueueLocked()
	}
	s.signalLocked()

	s.logger.Debug("site config loaded", "mode", s.backend.Mode(), "replayed", replay)
}

// apply runs fn against the current state. Before the initial load lands
// the mutation is remembered so it can be replayed on top of the loaded
// state; afterwards the result is queued for persistence.
func (s *Store) apply(fn mutation, onlyIfChanged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cfg
	s.cfg = fn(s.cfg)

	if !s.loaded {
		s.early = append(s.early, fn)
		return
	}
	if onlyIfChanged && reflect.DeepEqual(before, s.cfg) {
		return
	}
	s.enqueueLocked()
}

func (s *Store) enqueueLocked() {
	snap := s.cfg.Clone()
	s.pending = &snap
	s.queued++

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) signalLocked() {
	close(s.progress)
	s.progress = make(chan struct{})
}

func (s *Store) writer() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.saveLatest()
		case <-s.quit:
			s.saveLatest()
			return
		}
	}
}

func (s *Store) saveLatest() {
	s.mu.Lock()
	snap, gen := s.pending, s.queued
	s.pending = nil
	s.mu.Unlock()

	if snap == nil {
		return
	}

	if err := s.backend.Save(context.Background(), *snap); err != nil {
		s.logger.Error("failed to save site config", "mode", s.backend.Mode(), "error", err)
	}

	s.mu.Lock()
	s.saved = gen
	s.signalLocked()
	s.mu.Unlock()
}

// decodeStored turns a persisted document into a Patch. ok is false when
// nothing meaningful is stored (missing, null, or an empty object).
// Mistyped fields are dropped and logged; the rest still applies.
func (s *Store) decodeStored(raw json.RawMessage) (p Patch, ok bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return Patch{}, false, nil
	}
	p, skipped, err := DecodeStored(trimmed)
	if err != nil {
		return Patch{}, false, err
	}
	if len(skipped) > 0 {
		s.logger.Warn("ignoring mistyped site config fields",
			"mode", s.backend.Mode(), "fields", skipped)
	}
	return p, true, nil
}
