// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"promptlib/internal/models"
	"promptlib/internal/siteconfig"
)

// Invite checks registration invite codes against the stored settings.
type Invite struct {
	mode models.StorageMode
	repo SettingsRepository
}

// NewInvite creates the invite handlers.
func NewInvite(mode models.StorageMode, repo SettingsRepository) *Invite {
	return &Invite{mode: mode, repo: repo}
}

type verifyRequest struct {
	Code string `json:"code"`
}

// Verify reports whether the posted code passes the invite gate.
func (h *Invite) Verify(w http.ResponseWriter, r *http.Request) {
	if h.mode != models.StorageD1 {
		writeError(w, http.StatusBadRequest, errD1Only)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.repo.Document(r.Context(), models.AdminSettingsKey)
	if err != nil {
		slog.Error("load invite settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get admin settings")
		return
	}

	// Stored documents may be partial; merge onto defaults first. A gate
	// that cannot be read must not fall back to the open default.
	raw, err := json.Marshal(doc)
	if err != nil {
		slog.Error("encode invite settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get admin settings")
		return
	}
	p, skipped, err := siteconfig.DecodeStored(raw)
	if err == nil && inviteFieldSkipped(skipped) {
		err = fmt.Errorf("mistyped invite settings: %s", strings.Join(skipped, ", "))
	}
	if err != nil {
		slog.Error("stored invite settings unreadable", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get admin settings")
		return
	}
	cfg := siteconfig.Merge(models.DefaultSiteConfig(), p)

	writeSuccess(w, map[string]bool{"valid": cfg.InviteCode.Accepts(req.Code)})
}

func inviteFieldSkipped(paths []string) bool {
	for _, p := range paths {
		if p == "inviteCode" || strings.HasPrefix(p, "inviteCode.") {
			return true
		}
	}
	return false
}
