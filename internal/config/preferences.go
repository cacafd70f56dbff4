// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// THEME
// =============================================================================

// Theme is the light/dark display preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// =============================================================================
// PREFERENCES FILE
// =============================================================================

// Preferences are user choices that persist across runs. They live in
// their own small file so that toggling the theme never rewrites config.toml.
type Preferences struct {
	Theme Theme `toml:"theme"`
}

// PreferencesPath returns ~/.rigrun-chat/preferences.toml.
func PreferencesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.toml"), nil
}

// LoadPreferences reads the preference file. A missing file yields the
// fallback theme and no error; an unreadable or invalid one yields the
// fallback and the error.
func LoadPreferences(path string, fallback Theme) (Preferences, error) {
	prefs := Preferences{Theme: fallback}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	}

	var raw struct {
		Theme string `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return prefs, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if raw.Theme == "" {
		return prefs, nil
	}
	theme, err := ParseTheme(raw.Theme)
	if err != nil {
		return prefs, err
	}
	prefs.Theme = theme
	return prefs, nil
}

// SavePreferences writes the preference file atomically.
func SavePreferences(path string, prefs Preferences) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(prefs); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
