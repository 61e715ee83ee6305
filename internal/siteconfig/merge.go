// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import "promptlib/internal/models"

// Merge overlays p onto base, field by field and block by block. Fields
// missing from p keep base's value at every nesting level. Neither input
// is modified.
func Merge(base models.SiteConfig, p Patch) models.SiteConfig {
	out := base.Clone()

	if p.HomeTitle != nil {
		out.HomeTitle = *p.HomeTitle
	}
	if p.TypewriterTexts != nil {
		out.TypewriterTexts = append([]string{}, (*p.TypewriterTexts)...)
	}
	if a := p.Announcement; a != nil {
		setBool(&out.Announcement.Enabled, a.Enabled)
		setString(&out.Announcement.Title, a.Title)
		setString(&out.Announcement.Content, a.Content)
	}
	mergePageCopy(&out.PromptsPage, p.PromptsPage)
	mergePageCopy(&out.WorkflowsPage, p.WorkflowsPage)
	if u := p.UserSettings; u != nil {
		setBool(&out.UserSettings.AllowRegistration, u.AllowRegistration)
		setInt(&out.UserSettings.UserCount, u.UserCount)
		if ac := u.AutoCleanup; ac != nil {
			setBool(&out.UserSettings.AutoCleanup.Enabled, ac.Enabled)
			setInt(&out.UserSettings.AutoCleanup.RetentionDays, ac.RetentionDays)
		}
	}
	if ic := p.InviteCode; ic != nil {
		setBool(&out.InviteCode.Enabled, ic.Enabled)
		setString(&out.InviteCode.Code, ic.Code)
	}

	return out
}

func mergePageCopy(dst *models.PageCopy, p *PageCopyPatch) {
	if p == nil {
		return
	}
	setString(&dst.Title, p.Title)
	setString(&dst.Description, p.Description)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// MergeJSON applies the same right-biased rule to untyped JSON objects:
// nested objects merge recursively, every other value (scalars, arrays,
// null) replaces what base had. Returns a new map; inputs are untouched.
func MergeJSON(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = copyJSON(v)
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = MergeJSON(bv, ov)
				continue
			}
		}
		out[k] = copyJSON(v)
	}
	return out
}

func copyJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = copyJSON(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = copyJSON(vv)
		}
		return s
	default:
		return v
	}
}
