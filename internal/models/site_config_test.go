// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"testing"
)

func TestParseStorageMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StorageMode
		wantErr bool
	}{
		{"d1", StorageD1, false},
		{"D1", StorageD1, false},
		{" local ", StorageLocal, false},
		{"", "", true},
		{"redis", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStorageMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStorageMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStorageMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultSiteConfig(t *testing.T) {
	c := DefaultSiteConfig()

	if c.HomeTitle != "掌握与AI对话的<br/>" {
		t.Errorf("HomeTitle = %q", c.HomeTitle)
	}
	if len(c.TypewriterTexts) != 3 || c.TypewriterTexts[0] != "终极艺术" {
		t.Errorf("TypewriterTexts = %v", c.TypewriterTexts)
	}
	if !c.Announcement.Enabled {
		t.Error("announcement should be enabled by default")
	}
	if !c.UserSettings.AllowRegistration {
		t.Error("registration should be allowed by default")
	}
	if c.UserSettings.AutoCleanup.Enabled || c.UserSettings.AutoCleanup.RetentionDays != 30 {
		t.Errorf("AutoCleanup = %+v, want disabled/30", c.UserSettings.AutoCleanup)
	}
	if c.InviteCode.Enabled || c.InviteCode.Code != "" {
		t.Errorf("InviteCode = %+v, want disabled and empty", c.InviteCode)
	}
}

func TestDefaultSiteConfigIndependent(t *testing.T) {
	a := DefaultSiteConfig()
	a.TypewriterTexts[0] = "changed"
	a.HomeTitle = "changed"

	b := DefaultSiteConfig()
	if b.TypewriterTexts[0] == "changed" || b.HomeTitle == "changed" {
		t.Error("DefaultSiteConfig values share state")
	}
}

func TestSiteConfigClone(t *testing.T) {
	a := DefaultSiteConfig()
	b := a.Clone()
	b.TypewriterTexts[1] = "x"
	if a.TypewriterTexts[1] == "x" {
		t.Error("Clone aliases the typewriter slice")
	}
}

func TestSiteConfigJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DefaultSiteConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"homeTitle", "typewriterTexts", "announcement", "promptsPage", "workflowsPage", "userSettings", "inviteCode"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing JSON key %q", k)
		}
	}
	us := m["userSettings"].(map[string]any)
	ac, ok := us["autoCleanup"].(map[string]any)
	if !ok {
		t.Fatal("userSettings.autoCleanup missing")
	}
	if ac["retentionDays"] != float64(30) {
		t.Errorf("retentionDays = %v", ac["retentionDays"])
	}
}

func TestInviteCodeAccepts(t *testing.T) {
	tests := []struct {
		name string
		gate InviteCode
		code string
		want bool
	}{
		{"disabled accepts anything", InviteCode{Enabled: false, Code: "abc"}, "zzz", true},
		{"disabled accepts empty", InviteCode{}, "", true},
		{"enabled matches", InviteCode{Enabled: true, Code: "abc"}, "abc", true},
		{"enabled trims input", InviteCode{Enabled: true, Code: "abc"}, "  abc ", true},
		{"enabled rejects wrong", InviteCode{Enabled: true, Code: "abc"}, "abd", false},
		{"enabled rejects empty", InviteCode{Enabled: true, Code: "abc"}, "", false},
		{"enabled without code rejects", InviteCode{Enabled: true, Code: "  "}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gate.Accepts(tt.code); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
