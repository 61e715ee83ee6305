// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"promptlib/internal/metrics"
	"promptlib/internal/models"
)

// maxSettingsBody bounds the settings POST body.
const maxSettingsBody = 1 << 20

// Settings serves the admin settings document.
type Settings struct {
	mode  models.StorageMode
	repo  SettingsRepository
	cache SettingsCache
	group singleflight.Group

	// cacheMu orders cache fills against invalidations. gen moves on every
	// write; a fill that started under an older gen must not be stored.
	cacheMu sync.Mutex
	gen     uint64
}

// NewSettings creates the settings handlers. cache may be nil.
func NewSettings(mode models.StorageMode, repo SettingsRepository, cache SettingsCache) *Settings {
	return &Settings{mode: mode, repo: repo, cache: cache}
}

// Get returns the stored settings document wrapped in a success envelope.
func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	if h.mode != models.StorageD1 {
		h.fail(w, r, http.StatusBadRequest, errD1Only)
		return
	}

	doc, err := h.document(r)
	if err != nil {
		slog.Error("get admin settings failed", "error", err)
		h.fail(w, r, http.StatusInternalServerError, "Failed to get admin settings")
		return
	}

	h.count(r, http.StatusOK)
	writeSuccess(w, doc)
}

// RequireD1 answers the local-mode error ahead of the rest of the chain,
// so credential checks never mask it.
func (h *Settings) RequireD1(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.mode != models.StorageD1 {
			h.fail(w, r, http.StatusBadRequest, errD1Only)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Update deep-merges the posted JSON object into the stored document.
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	if h.mode != models.StorageD1 {
		h.fail(w, r, http.StatusBadRequest, errD1Only)
		return
	}

	patch, ok := decodeObject(w, r, maxSettingsBody)
	if !ok {
		h.fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.repo.MergeDocument(r.Context(), models.AdminSettingsKey, patch); err != nil {
		slog.Error("update admin settings failed", "error", err)
		h.fail(w, r, http.StatusInternalServerError, "Failed to update admin settings")
		return
	}
	h.invalidate(r.Context())

	slog.Info("admin settings updated", "keys", len(patch), "remote", r.RemoteAddr)
	h.count(r, http.StatusOK)
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// document reads through the cache. Concurrent misses share one query.
func (h *Settings) document(r *http.Request) (map[string]any, error) {
	ctx := r.Context()
	if h.cache != nil {
		if doc, ok := h.cache.Get(ctx, models.AdminSettingsKey); ok {
			return doc, nil
		}
	}

	v, err, _ := h.group.Do(models.AdminSettingsKey, func() (any, error) {
		h.cacheMu.Lock()
		gen := h.gen
		h.cacheMu.Unlock()

		doc, err := h.repo.Document(ctx, models.AdminSettingsKey)
		if err != nil {
			return nil, err
		}
		h.fill(ctx, gen, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// fill caches doc unless a write landed since the read began.
func (h *Settings) fill(ctx context.Context, gen uint64, doc map[string]any) {
	if h.cache == nil {
		return
	}
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()
	if h.gen != gen {
		return
	}
	h.cache.Set(ctx, models.AdminSettingsKey, doc)
}

func (h *Settings) invalidate(ctx context.Context) {
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()
	h.gen++
	// Reads arriving from now on must not join a flight that began before
	// the write.
	h.group.Forget(models.AdminSettingsKey)
	if h.cache != nil {
		h.cache.Invalidate(ctx, models.AdminSettingsKey)
	}
}

func (h *Settings) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.count(r, status)
	writeError(w, status, msg)
}

func (h *Settings) count(r *http.Request, status int) {
	metrics.SettingsRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
}

// decodeObject reads a body that must be a single JSON object. JSON null,
// arrays, scalars and trailing garbage are all rejected.
func decodeObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, false
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
