// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package siteconfig owns the site configuration as seen by a client
// session: the hard-coded defaults, the deep-merge rules used to overlay
// persisted overrides, and a Store that keeps the in-memory copy in sync
// with either the remote settings API or a local key/value file.
package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"promptlib/internal/models"
)

// Patch is a partial SiteConfig. A nil field means "not supplied"; the
// merge falls back to the base value for it.
type Patch struct {
	HomeTitle       *string            `json:"homeTitle,omitempty"`
	TypewriterTexts *[]string          `json:"typewriterTexts,omitempty"`
	Announcement    *AnnouncementPatch `json:"announcement,omitempty"`
	PromptsPage     *PageCopyPatch     `json:"promptsPage,omitempty"`
	WorkflowsPage   *PageCopyPatch     `json:"workflowsPage,omitempty"`
	UserSettings    *UserSettingsPatch `json:"userSettings,omitempty"`
	InviteCode      *InviteCodePatch   `json:"inviteCode,omitempty"`
}

type AnnouncementPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type PageCopyPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type AutoCleanupPatch struct {
	Enabled       *bool `json:"enabled,omitempty"`
	RetentionDays *int  `json:"retentionDays,omitempty"`
}

type UserSettingsPatch struct {
	AllowRegistration *bool             `json:"allowRegistration,omitempty"`
	UserCount         *int              `json:"userCount,omitempty"`
	AutoCleanup       *AutoCleanupPatch `json:"autoCleanup,omitempty"`
}

type InviteCodePatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Code    *string `json:"code,omitempty"`
}

// DecodePatch parses a JSON patch strictly: a field of the wrong type
// fails the whole patch. Unknown keys are ignored; null values count as
// absent.
func DecodePatch(raw []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("decode site config: %w", err)
	}
	return p, nil
}

// DecodeStored parses a persisted or remote document field by field. A
// field whose JSON type does not match is treated as absent and reported
// in skipped as a dotted path, so one bad value cannot hide the rest of
// the document. Only a document that is not a JSON object is an error.
func DecodeStored(raw []byte) (p Patch, skipped []string, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Patch{}, nil, fmt.Errorf("decode site config: %w", err)
	}

	d := &storedDecoder{}
	p.HomeTitle = field[string](d, top, "homeTitle")
	p.TypewriterTexts = field[[]string](d, top, "typewriterTexts")
	if m := d.object(top, "announcement"); m != nil {
		p.Announcement = &AnnouncementPatch{
			Enabled: field[bool](d, m, "announcement.enabled"),
			Title:   field[string](d, m, "announcement.title"),
			Content: field[string](d, m, "announcement.content"),
		}
	}
	p.PromptsPage = d.pageCopy(top, "promptsPage")
	p.WorkflowsPage = d.pageCopy(top, "workflowsPage")
	if m := d.object(top, "userSettings"); m != nil {
		us := &UserSettingsPatch{
			AllowRegistration: field[bool](d, m, "userSettings.allowRegistration"),
			UserCount:         field[int](d, m, "userSettings.userCount"),
		}
		if ac := d.object(m, "userSettings.autoCleanup"); ac != nil {
			us.AutoCleanup = &AutoCleanupPatch{
				Enabled:       field[bool](d, ac, "userSettings.autoCleanup.enabled"),
				RetentionDays: field[int](d, ac, "userSettings.autoCleanup.retentionDays"),
			}
		}
		p.UserSettings = us
	}
	if m := d.object(top, "inviteCode"); m != nil {
		p.InviteCode = &InviteCodePatch{
			Enabled: field[bool](d, m, "inviteCode.enabled"),
			Code:    field[string](d, m, "inviteCode.code"),
		}
	}
	return p, d.skipped, nil
}

// storedDecoder collects the paths DecodeStored had to drop.
type storedDecoder struct {
	skipped []string
}

// lookup returns the raw value at the last segment of path, or nil when it
// is missing or null.
func lookup(obj map[string]json.RawMessage, path string) json.RawMessage {
	key := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		key = path[i+1:]
	}
	raw, ok := obj[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func field[T any](d *storedDecoder, obj map[string]json.RawMessage, path string) *T {
	raw := lookup(obj, path)
	if raw == nil {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.skipped = append(d.skipped, path)
		return nil
	}
	return &v
}

func (d *storedDecoder) object(obj map[string]json.RawMessage, path string) map[string]json.RawMessage {
	raw := lookup(obj, path)
	if raw == nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		d.skipped = append(d.skipped, path)
		return nil
	}
	return m
}

func (d *storedDecoder) pageCopy(obj map[string]json.RawMessage, path string) *PageCopyPatch {
	m := d.object(obj, path)
	if m == nil {
		return nil
	}
	return &PageCopyPatch{
		Title:       field[string](d, m, path+".title"),
		Description: field[string](d, m, path+".description"),
	}
}

// FullPatch converts a complete SiteConfig into a Patch with every field
// present. Merging it onto anything yields c.
func FullPatch(c models.SiteConfig) Patch {
	texts := append([]string(nil), c.TypewriterTexts...)
	return Patch{
		HomeTitle:       &c.HomeTitle,
		TypewriterTexts: &texts,
		Announcement: &AnnouncementPatch{
			Enabled: &c.Announcement.Enabled,
			Title:   &c.Announcement.Title,
			Content: &c.Announcement.Content,
		},
		PromptsPage: &PageCopyPatch{
			Title:       &c.PromptsPage.Title,
			Description: &c.PromptsPage.Description,
		},
		WorkflowsPage: &PageCopyPatch{
			Title:       &c.WorkflowsPage.Title,
			Description: &c.WorkflowsPage.Description,
		},
		UserSettings: &UserSettingsPatch{
			AllowRegistration: &c.UserSettings.AllowRegistration,
			UserCount:         &c.UserSettings.UserCount,
			AutoCleanup: &AutoCleanupPatch{
				Enabled:       &c.UserSettings.AutoCleanup.Enabled,
				RetentionDays: &c.UserSettings.AutoCleanup.RetentionDays,
			},
		},
		InviteCode: &InviteCodePatch{
			Enabled: &c.InviteCode.Enabled,
			Code:    &c.InviteCode.Code,
		},
	}
}
