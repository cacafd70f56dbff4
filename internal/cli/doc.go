// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing, the config command and the
// line-mode chat for rigrun-chat.
//
// # Key Types
//
//   - Command / Args: the parsed command line
//   - ArgParser: flag and positional splitting shared by every command
//   - REPL: the line-mode chat, used when there is no terminal or with --line
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    repl, err := cli.NewREPL(cli.Options{Controller: ctl, Sessions: sessions, Config: cfg})
//	    ...
//	    err = repl.Run(ctx)
//	case cli.CmdConfig:
//	    err = cli.HandleConfig(args, os.Stdout)
//	}
package cli
