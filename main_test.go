// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/rigrun-chat/internal/config"
)

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		saved      config.Theme
		configured string
		want       config.Theme
	}{
		{"flag beats saved preference", "dark", config.ThemeLight, "light", config.ThemeDark},
		{"flag is case-insensitive", "LIGHT", config.ThemeDark, "dark", config.ThemeLight},
		{"saved preference beats config", "", config.ThemeDark, "light", config.ThemeDark},
		{"config when nothing saved", "", "", "dark", config.ThemeDark},
		{"invalid flag falls through", "sepia", config.ThemeDark, "light", config.ThemeDark},
		{"light by default", "", "", "", config.ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTheme(tt.flag, tt.saved, tt.configured))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}
