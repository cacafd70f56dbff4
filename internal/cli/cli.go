// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level action selected on the command line.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Theme      string
	Model      string
	ConfigPath string
	Line       bool
	Verbose    bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds positionals after the command name.
	Raw []string
}

const usageText = `rigrun-chat - a terminal chat client

Usage:
  rigrun-chat                     Start the full-screen chat (default)
  rigrun-chat chat                Start the line-mode chat
  rigrun-chat config [show]       Show the configuration
  rigrun-chat config get KEY      Print one value (dot notation)
  rigrun-chat config set KEY VAL  Change a value and save
  rigrun-chat config path         Print the config file location
  rigrun-chat version             Show version information

Global Flags:
  --line            Use line mode even on a terminal
  --theme NAME      light or dark for this run
  --model ID        Model for new chats (gpt-4.1, gpt-3.5, claude-3, gemini)
  --config FILE     Read configuration from FILE
  -v, --verbose     Log at debug level

Environment:
  RIGRUN_CHAT_*     Overrides config values, e.g. RIGRUN_CHAT_UI_THEME=dark
  NO_COLOR          Disables colors

Version: %s
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "rigrun-chat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse turns raw arguments (without the program name) into a command.
func Parse(raw []string) (Command, Args) {
	p := NewArgParser(raw, "line", "verbose", "v", "help", "h", "version")
	args := Args{
		Theme:      p.Flag("theme"),
		Model:      p.Flag("model", "m"),
		ConfigPath: p.Flag("config", "c"),
		Line:       p.Bool("line"),
		Verbose:    p.Bool("verbose", "v"),
		Raw:        p.PositionalFrom(1),
	}

	if p.Bool("help", "h") {
		return CmdHelp, args
	}
	if p.Bool("version") {
		return CmdVersion, args
	}

	switch strings.ToLower(p.Positional(0)) {
	case "":
		if args.Line {
			return CmdChat, args
		}
		return CmdTUI, args
	case "chat":
		return CmdChat, args
	case "config":
		args.Subcommand = strings.ToLower(p.Positional(1))
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
		args.ConfigKey = p.Positional(2)
		args.ConfigVal = strings.Join(p.PositionalFrom(3), " ")
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	default:
		return CmdHelp, args
	}
}
