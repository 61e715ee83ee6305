// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test doubles for the handler tests.
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"promptlib/internal/siteconfig"
)

// fakeRepo is an in-memory SettingsRepository.
type fakeRepo struct {
	mu       sync.Mutex
	docs     map[string]map[string]any
	getErr   error
	mergeErr error
	reads    int
	merges   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[string]map[string]any{}}
}

func (f *fakeRepo) Document(_ context.Context, key string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[key]
	if !ok {
		return map[string]any{}, nil
	}
	return siteconfig.MergeJSON(nil, doc), nil
}

func (f *fakeRepo) MergeDocument(_ context.Context, key string, patch map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.docs[key] = siteconfig.MergeJSON(f.docs[key], patch)
	return nil
}

// gatedRepo holds its first Document call after the read, until release
// is closed. read is closed once that read has happened.
type gatedRepo struct {
	*fakeRepo
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedRepo(inner *fakeRepo) *gatedRepo {
	return &gatedRepo{fakeRepo: inner, read: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRepo) Document(ctx context.Context, key string) (map[string]any, error) {
	doc, err := g.fakeRepo.Document(ctx, key)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.read)
		<-g.release
	}
	return doc, err
}

// fakeCache is an in-memory SettingsCache.
type fakeCache struct {
	mu          sync.Mutex
	docs        map[string]map[string]any
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: map[string]map[string]any{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[key]
	return doc, ok
}

func (c *fakeCache) Set(_ context.Context, key string, doc map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = doc
}

func (c *fakeCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, key)
	c.invalidated++
}

// decodeBody parses a JSON response body into a generic envelope.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}
