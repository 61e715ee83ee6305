// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"promptlib/internal/models"
)

type mapKV struct {
	mu  sync.Mutex
	m   map[string]string
	err error
}

func (kv *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return "", false, kv.err
	}
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *mapKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return kv.err
	}
	if kv.m == nil {
		kv.m = map[string]string{}
	}
	kv.m[key] = value
	return nil
}

func TestLocalBackendRoundTrip(t *testing.T) {
	kv := &mapKV{}
	b := NewLocalBackend(kv)
	ctx := context.Background()

	if b.Mode() != models.StorageLocal {
		t.Errorf("Mode = %q", b.Mode())
	}

	raw, err := b.Load(ctx)
	if err != nil || raw != nil {
		t.Fatalf("Load on empty store = %s, %v", raw, err)
	}

	cfg := models.DefaultSiteConfig()
	cfg.WorkflowsPage.Title = "Flows"
	if err := b.Save(ctx, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := kv.m[LocalKey]; !ok {
		t.Fatalf("value not stored under %q", LocalKey)
	}

	raw, err = b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var got models.SiteConfig
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if got.WorkflowsPage.Title != "Flows" {
		t.Errorf("WorkflowsPage.Title = %q", got.WorkflowsPage.Title)
	}
}

func TestLocalBackendErrors(t *testing.T) {
	boom := errors.New("disk gone")
	b := NewLocalBackend(&mapKV{err: boom})

	if _, err := b.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Load err = %v", err)
	}
	if err := b.Save(context.Background(), models.DefaultSiteConfig()); !errors.Is(err, boom) {
		t.Errorf("Save err = %v", err)
	}
}

func TestLocalBackendWithStore(t *testing.T) {
	kv := &mapKV{m: map[string]string{LocalKey: `{"announcement":{"enabled":false}}`}}
	s := New(NewLocalBackend(kv), WithLogger(quietLogger()))
	s.Start(context.Background())
	defer s.Close()
	if err := s.WaitLoaded(testCtx(t)); err != nil {
		t.Fatalf("WaitLoaded: %v", err)
	}

	if s.Config().Announcement.Enabled {
		t.Error("stored announcement.enabled=false not applied")
	}
	if s.Config().Announcement.Title != models.DefaultSiteConfig().Announcement.Title {
		t.Error("announcement title should fall back to default")
	}
}
