// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for rigrun-chat.
//
// Configuration is read from ~/.rigrun-chat/config.toml, overlaid with
// RIGRUN_CHAT_* environment variables and validated with struct tags. The
// theme preference is kept separately in preferences.toml, which the
// front-ends rewrite on toggle and watch for outside edits.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ChatConfig: reply timeout, simulated latency and throttling
//   - Preferences: persisted theme choice
//   - PreferenceWatcher: fsnotify-based reload of Preferences
//
// # Usage
//
//	cfg, err := config.Load()
//	timeout := cfg.Chat.ReplyTimeout()
//
//	path, _ := config.PreferencesPath()
//	prefs, _ := config.LoadPreferences(path, config.Theme(cfg.UI.Theme))
package config
