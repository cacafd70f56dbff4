// rigrun-chat - a terminal chat client with copyable code blocks and tables.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/cli"
	"github.com/jeranaias/rigrun-chat/internal/clipboard"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/respond"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	uichat "github.com/jeranaias/rigrun-chat/internal/ui/chat"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	// A .env next to the binary may carry RIGRUN_CHAT_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env: %v\n", err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdConfig:
		if err := cli.HandleConfig(args, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := run(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// app holds the collaborators shared by both front ends.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	ctl       *chatcore.Controller
	sessions  *session.Manager
	theme     *styles.Theme
	prefsPath string
}

func run(cmd cli.Command, args cli.Args) error {
	cfg, err := cli.LoadConfig(args.ConfigPath)
	if err != nil {
		return err
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	if args.Model != "" {
		cfg.Chat.DefaultModel = args.Model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := openLog(cfg, args.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	a, err := wire(cfg, args.Theme, logger)
	if err != nil {
		return err
	}
	defer a.ctl.Close()

	if cmd == cli.CmdChat || cli.UseLineMode(args.Line || cfg.UI.LineMode) {
		return a.runLine()
	}
	return a.runTUI()
}

// wire builds the store, controller and session manager from cfg.
// themeFlag is the --theme value, empty when not given.
func wire(cfg *config.Config, themeFlag string, logger *slog.Logger) (*app, error) {
	store := storage.NewConversationStore(storage.WithDefaultModel(cfg.Chat.DefaultModel))
	sessions := session.NewManager(store, session.Config{Logger: logger})

	minLatency, maxLatency := cfg.Chat.Latency()
	opts := chatcore.OptionsFromConfig(cfg)
	opts.Source = respond.NewCannedSeeded(uint64(time.Now().UnixNano()), minLatency, maxLatency)
	opts.Clipboard = clipboard.Default()
	opts.Logger = logger
	ctl, err := chatcore.New(store, opts)
	if err != nil {
		return nil, err
	}

	var saved config.Theme
	prefsPath, err := config.PreferencesPath()
	if err != nil {
		logger.Warn("preferences unavailable", "error", err)
		prefsPath = ""
	} else if prefs, err := config.LoadPreferences(prefsPath, ""); err != nil {
		logger.Warn("ignoring preferences", "path", prefsPath, "error", err)
	} else {
		saved = prefs.Theme
	}
	mode := resolveTheme(themeFlag, saved, cfg.UI.Theme)

	return &app{
		cfg:       cfg,
		logger:    logger,
		ctl:       ctl,
		sessions:  sessions,
		theme:     styles.NewThemeWithProfile(mode, cli.ColorProfile()),
		prefsPath: prefsPath,
	}, nil
}

func (a *app) runLine() error {
	repl, err := cli.NewREPL(cli.Options{
		Controller: a.ctl,
		Sessions:   a.sessions,
		Config:     a.cfg,
		Theme:      a.theme,
		PrefsPath:  a.prefsPath,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	defer repl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return repl.Run(ctx)
}

func (a *app) runTUI() error {
	m, err := uichat.New(uichat.Options{
		Controller: a.ctl,
		Sessions:   a.sessions,
		Config:     a.cfg,
		Theme:      a.theme,
		PrefsPath:  a.prefsPath,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Theme changes made by another instance apply here too.
	if a.prefsPath != "" {
		w, err := config.WatchPreferences(a.prefsPath, a.theme.Mode, func(prefs config.Preferences) {
			p.Send(uichat.PreferencesMsg(prefs))
		}, a.logger)
		if err != nil {
			a.logger.Warn("not watching preferences", "error", err)
		} else {
			defer w.Close()
		}
	}

	_, err = p.Run()
	return err
}

// resolveTheme picks the starting theme: an explicit flag first, then the
// saved preference, then ui.theme from the config, then light.
func resolveTheme(flag string, saved config.Theme, configured string) config.Theme {
	if t, err := config.ParseTheme(flag); err == nil {
		return t
	}
	if saved != "" {
		return saved
	}
	if t, err := config.ParseTheme(configured); err == nil {
		return t
	}
	return config.ThemeLight
}

// openLog sends slog output to the configured log file. The terminal
// belongs to the UI, so nothing is logged to stderr.
func openLog(cfg *config.Config, verbose bool) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
