// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the promptlib API.
// Handlers are grouped by concern (settings, invite, workflows) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// errD1Only is returned by every endpoint that needs the database backend
// when the server runs in local mode.
const errD1Only = "Admin settings API only available in D1 mode"

// SettingsRepository is the persistence the settings handlers need.
// *store.SettingsStore satisfies it.
type SettingsRepository interface {
	Document(ctx context.Context, key string) (map[string]any, error)
	MergeDocument(ctx context.Context, key string, patch map[string]any) error
}

// SettingsCache is an optional read-through cache for settings documents.
// *cache.SettingsCache satisfies it.
type SettingsCache interface {
	Get(ctx context.Context, key string) (map[string]any, bool)
	Set(ctx context.Context, key string, doc map[string]any)
	Invalidate(ctx context.Context, key string)
}

// apiResponse is the envelope every JSON endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON encodes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Error: msg})
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}
