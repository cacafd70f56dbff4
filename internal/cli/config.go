// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for rigrun-chat.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display every setting
//   get <key>           Print one setting
//   set <key> <value>   Change a setting and save
//   reset               Write the default configuration
//   path                Show configuration file path
//
// Keys use dot notation, e.g. chat.reply_timeout_secs or ui.theme.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// HandleConfig runs the config command against the file at args.ConfigPath,
// or the default location when that is empty.
func HandleConfig(args Args, out io.Writer) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	p := &printer{out: out, theme: styles.NewThemeWithProfile(config.ThemeLight, ColorProfile())}

	switch args.Subcommand {
	case "show":
		cfg, err := LoadConfig(path)
		if err != nil {
			return err
		}
		p.title("Configuration")
		p.muted("%s", path)
		for _, key := range config.GetAllKeys() {
			v, err := cfg.Get(key)
			if err != nil {
				return err
			}
			p.line(fmt.Sprintf("  %-32s %v", key, v))
		}

	case "get":
		cfg, err := LoadConfig(path)
		if err != nil {
			return err
		}
		v, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return err
		}
		p.line(fmt.Sprint(v))

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return fmt.Errorf("usage: rigrun-chat config set KEY VALUE")
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			return err
		}
		if err := saveAt(cfg, path); err != nil {
			return err
		}
		p.ok("%s = %s", args.ConfigKey, args.ConfigVal)

	case "reset":
		if err := saveAt(config.Default(), path); err != nil {
			return err
		}
		p.ok("Configuration reset to defaults")

	case "path":
		p.line(path)

	default:
		return fmt.Errorf("unknown config subcommand %q (show, get, set, reset, path)", args.Subcommand)
	}
	return nil
}

// LoadConfig reads the config at path, or the defaults when there is
// none. An empty path means the default location.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default()
		if err := cfg.ApplyEnvOverrides(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadFromPath(path)
}

func saveAt(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return config.SaveTOML(cfg, path)
}
