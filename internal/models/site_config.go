// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// StorageMode selects where site configuration is persisted. It is fixed
// for the lifetime of a process.
type StorageMode string

const (
	// StorageD1 persists settings in the database behind the admin
	// settings API.
	StorageD1 StorageMode = "d1"

	// StorageLocal keeps settings in a local key/value file owned by the
	// client. The admin settings API is unavailable in this mode.
	StorageLocal StorageMode = "local"
)

// ParseStorageMode validates a mode string from configuration.
func ParseStorageMode(s string) (StorageMode, error) {
	switch StorageMode(strings.ToLower(strings.TrimSpace(s))) {
	case StorageD1:
		return StorageD1, nil
	case StorageLocal:
		return StorageLocal, nil
	}
	return "", fmt.Errorf("unknown storage mode %q (want %q or %q)", s, StorageD1, StorageLocal)
}

// Announcement is the banner shown on the home page.
type Announcement struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// PageCopy is the heading and description block of a listing page.
type PageCopy struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// AutoCleanup controls pruning of inactive user accounts.
type AutoCleanup struct {
	Enabled       bool `json:"enabled" yaml:"enabled"`
	RetentionDays int  `json:"retentionDays" yaml:"retentionDays"`
}

// UserSettings groups registration and account housekeeping options.
type UserSettings struct {
	AllowRegistration bool        `json:"allowRegistration" yaml:"allowRegistration"`
	UserCount         int         `json:"userCount" yaml:"userCount"`
	AutoCleanup       AutoCleanup `json:"autoCleanup" yaml:"autoCleanup"`
}

// InviteCode gates registration behind a shared code when enabled.
type InviteCode struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Code    string `json:"code" yaml:"code"`
}

// Accepts reports whether the supplied code passes the invite gate.
// A disabled gate accepts everything; an enabled gate with no configured
// code accepts nothing.
func (ic InviteCode) Accepts(code string) bool {
	if !ic.Enabled {
		return true
	}
	want := strings.TrimSpace(ic.Code)
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(want)) == 1
}

// SiteConfig is the full, admin-editable configuration of the public site.
type SiteConfig struct {
	HomeTitle       string       `json:"homeTitle" yaml:"homeTitle"`
	TypewriterTexts []string     `json:"typewriterTexts" yaml:"typewriterTexts"`
	Announcement    Announcement `json:"announcement" yaml:"announcement"`
	PromptsPage     PageCopy     `json:"promptsPage" yaml:"promptsPage"`
	WorkflowsPage   PageCopy     `json:"workflowsPage" yaml:"workflowsPage"`
	UserSettings    UserSettings `json:"userSettings" yaml:"userSettings"`
	InviteCode      InviteCode   `json:"inviteCode" yaml:"inviteCode"`
}

// DefaultSiteConfig returns the built-in configuration. Each call returns
// an independent value.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		HomeTitle:       "掌握与AI对话的<br/>",
		TypewriterTexts: []string{"终极艺术", "顶级技巧", "思维能力"},
		Announcement: Announcement{
			Enabled: true,
			Title:   "🎉 欢迎来到 PromptMaster",
			Content: "这是一个全新的 AI 提示词管理平台。现在支持管理员在线编辑所有内容！",
		},
		PromptsPage: PageCopy{
			Title:       "提示词指南",
			Description: "发现复制高质量的ai提示词,高效完成你的ai创意",
		},
		WorkflowsPage: PageCopy{
			Title:       "工作流库",
			Description: "探索精选的 AI 工作流模板，包括 n8n、ComfyUI、Dify 等平台的自动化流程，助你快速搭建智能工作流。",
		},
		UserSettings: UserSettings{
			AllowRegistration: true,
			UserCount:         0,
			AutoCleanup: AutoCleanup{
				Enabled:       false,
				RetentionDays: 30,
			},
		},
		InviteCode: InviteCode{
			Enabled: false,
			Code:    "",
		},
	}
}

// Clone returns a deep copy so callers can't alias the typewriter slice.
func (c SiteConfig) Clone() SiteConfig {
	out := c
	if c.TypewriterTexts != nil {
		out.TypewriterTexts = append([]string(nil), c.TypewriterTexts...)
	}
	return out
}
