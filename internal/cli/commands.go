// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/export"
	"github.com/jeranaias/rigrun-chat/internal/extract"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const replHelp = `Chats:
  /new                      start a new chat
  /chats [query]            list chats, optionally filtered
  /switch <n|id>            switch to a chat from /chats
  /rename <title>           rename this chat
  /delete [n|id]            delete a chat (default: this one)
  /clear                    clear this chat
  /model [id]               show models or pick one for this chat

Messages:
  /show                     print this chat again
  /transcript               print this chat as formatted markdown
  /prompt <n>               send a quick prompt
  /regen [n]                regenerate reply n (default: the last one)
  /rate <n> up|down         rate reply n
  /copy <n> [block] [fmt]   copy message n, or one of its blocks
                            fmt is markdown, csv or plain (tables only)

Attachments:
  /attach <path>            attach a file to the next message
  /attachments              list pending attachments
  /detach <n>               remove pending attachment n

Other:
  /export [format]          export this chat (markdown, json, html)
  /theme                    toggle light and dark
  /config [key [value]]     show or change a setting for this run
  /status                   session summary
  /quit                     leave`

// command runs a slash command and reports whether to stop.
func (r *REPL) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "/"), fields[0]))
	convID := r.store.ActiveID()

	switch name {
	case "quit", "exit", "q":
		return true, nil

	case "help", "h", "?":
		r.p.line(replHelp)

	case "new":
		r.sessions.NewChat()
		conv, err := r.store.Active()
		if err != nil {
			return false, err
		}
		r.p.ok("Started %q", conv.Title)
		r.printConversation(conv)
		r.printQuickPrompts()

	case "chats", "ls":
		r.p.line(session.FormatChatList(r.sessions.Chats(rest), time.Now()))

	case "switch", "open":
		id, err := r.sessions.Resolve(rest)
		if err != nil {
			return false, err
		}
		if err := r.sessions.Switch(id); err != nil {
			return false, err
		}
		conv, err := r.store.Active()
		if err != nil {
			return false, err
		}
		r.p.ok("Switched to %q", conv.Title)
		r.printConversation(conv)

	case "rename":
		if err := r.sessions.Rename(convID, rest); err != nil {
			return false, err
		}
		r.p.ok("Renamed")

	case "delete":
		target := convID
		if rest != "" {
			id, err := r.sessions.Resolve(rest)
			if err != nil {
				return false, err
			}
			target = id
		}
		if err := r.sessions.Delete(target); err != nil {
			return false, err
		}
		r.p.ok("Chat deleted")

	case "clear":
		if err := r.store.ClearConversation(convID); err != nil {
			return false, err
		}
		r.p.ok("Chat cleared")

	case "model":
		return false, r.model(convID, rest)

	case "show", "history":
		conv, err := r.store.Active()
		if err != nil {
			return false, err
		}
		r.printConversation(conv)

	case "transcript":
		conv, err := r.store.Active()
		if err != nil {
			return false, err
		}
		out, err := renderTranscript(conv, r.p.theme, r.width)
		if err != nil {
			return false, err
		}
		r.p.line(out)

	case "prompt":
		n, err := position(args, 0, len(model.QuickPrompts))
		if err != nil {
			return false, err
		}
		return false, r.send(ctx, model.QuickPrompts[n].Prompt)

	case "regen", "regenerate":
		return false, r.regenerate(ctx, convID, args)

	case "rate":
		return false, r.rate(args)

	case "copy":
		return false, r.copy(ctx, args)

	case "attach":
		if rest == "" {
			return false, errors.New("usage: /attach <path>")
		}
		att, err := r.ctl.AttachFile(rest)
		if err != nil {
			return false, err
		}
		r.p.ok("Attached %s", components.AttachmentChip(r.p.theme, att))

	case "attachments":
		atts := r.ctl.Draft().Attachments()
		if len(atts) == 0 {
			r.p.muted("No pending attachments.")
		}
		for i, a := range atts {
			r.p.line(fmt.Sprintf("  %d. %s", i+1, components.AttachmentChip(r.p.theme, a)))
		}

	case "detach":
		atts := r.ctl.Draft().Attachments()
		n, err := position(args, 0, len(atts))
		if err != nil {
			return false, err
		}
		r.ctl.RemoveAttachment(atts[n].ID)
		r.p.ok("Removed %s", atts[n].Name)

	case "export":
		return false, r.export(rest)

	case "theme":
		return false, r.toggleTheme()

	case "config":
		return false, r.config(args)

	case "status":
		st := r.sessions.GetStatus()
		r.p.line(fmt.Sprintf("Session %s, up %s, idle %s", st.SessionID,
			session.FormatDuration(st.Duration), session.FormatDuration(st.IdleTime)))
		r.p.line(fmt.Sprintf("%d chats, active %q", st.Chats, st.ActiveTitle))
		if n := r.ctl.ComposingCount(); n > 0 {
			r.p.line(fmt.Sprintf("%d replies in progress", n))
		}
		r.p.muted("Tasks: %s", r.ctl.Runner().Queue().Summary())

	default:
		return false, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, nil
}

// position parses args[i] as a 1-based position in [1, count] and returns
// it 0-based.
func position(args []string, i, count int) (int, error) {
	if i >= len(args) {
		return 0, errors.New("missing number")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[i], "#"))
	if err != nil || n < 1 || n > count {
		return 0, errs.New(errs.KindInvalidIndex, "position", fmt.Sprintf("%q is not between 1 and %d", args[i], count))
	}
	return n - 1, nil
}

// =============================================================================
// MESSAGE COMMANDS
// =============================================================================

func (r *REPL) regenerate(ctx context.Context, convID string, args []string) error {
	conv, err := r.store.Conversation(convID)
	if err != nil {
		return err
	}
	index := -1
	if len(args) > 0 {
		if index, err = position(args, 0, len(conv.Messages)); err != nil {
			return err
		}
	} else {
		for i := len(conv.Messages) - 1; i > 0; i-- {
			if conv.Messages[i].Role == model.RoleAssistant {
				index = i
				break
			}
		}
		if index < 0 {
			return errors.New("nothing to regenerate yet")
		}
	}
	if err := r.ctl.Regenerate(convID, index); err != nil {
		return err
	}
	return r.awaitReply(ctx, convID, chatcore.EventRegenerated)
}

func (r *REPL) rate(args []string) error {
	conv, err := r.store.Active()
	if err != nil {
		return err
	}
	n, err := position(args, 0, len(conv.Messages))
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: /rate <n> up|down")
	}
	var choice model.Rating
	switch strings.ToLower(args[1]) {
	case "up", "+", "good":
		choice = model.RatingUp
	case "down", "-", "bad":
		choice = model.RatingDown
	default:
		return fmt.Errorf("rating must be up or down, not %q", args[1])
	}
	got, err := r.ctl.Rate(conv.Messages[n].ID, choice)
	if err != nil {
		return err
	}
	if got == model.RatingNone {
		r.p.ok("Rating cleared")
	} else {
		r.p.ok("Rated %s", got)
	}
	return nil
}

func (r *REPL) copy(ctx context.Context, args []string) error {
	conv, err := r.store.Active()
	if err != nil {
		return err
	}
	n, err := position(args, 0, len(conv.Messages))
	if err != nil {
		return err
	}
	msg := conv.Messages[n]

	if len(args) < 2 {
		if err := r.ctl.CopyMessage(msg.ID); err != nil {
			return err
		}
		return r.awaitCopy(ctx, msg.ID)
	}

	nodes := render.ProjectText(msg.Content, render.State{}).Actionable()
	if msg.Role != model.RoleAssistant || len(nodes) == 0 {
		return errors.New("that message has no copyable blocks")
	}
	b, err := position(args, 1, len(nodes))
	if err != nil {
		return err
	}
	format := extract.FormatPlain
	if len(args) > 2 {
		if format, err = extract.ParseFormat(args[2]); err != nil {
			return err
		}
	} else if nodes[b].Kind == render.KindTable {
		format = extract.FormatMarkdown
	}
	if err := r.ctl.CopyBlock(msg.ID, nodes[b].ID, format); err != nil {
		return err
	}
	return r.awaitCopy(ctx, msg.ID)
}

func (r *REPL) awaitCopy(ctx context.Context, messageID string) error {
	ev, err := r.await(ctx, 5*time.Second, func(ev chatcore.Event) bool {
		return ev.MessageID == messageID && (ev.Kind == chatcore.EventCopied || ev.Kind == chatcore.EventCopyFailed)
	})
	if err != nil {
		return err
	}
	if ev.Kind == chatcore.EventCopyFailed {
		return fmt.Errorf("copy failed: %w", ev.Err)
	}
	r.p.ok("Copied to clipboard")
	return nil
}

// =============================================================================
// CHAT SETTINGS
// =============================================================================

func (r *REPL) model(convID, name string) error {
	if name == "" {
		current := ""
		if conv, err := r.store.Conversation(convID); err == nil {
			current = conv.Model
		}
		for _, info := range model.Models {
			marker := "  "
			if info.ID == current {
				marker = "* "
			}
			r.p.line(fmt.Sprintf("%s%-10s %-14s %s", marker, info.ID, info.Name, info.Description))
		}
		return nil
	}
	info, ok := model.GetModelInfo(name)
	if !ok {
		return fmt.Errorf("unknown model %q (known: %s)", name, strings.Join(model.ModelIDs(), ", "))
	}
	if err := r.store.SetModel(convID, info.ID); err != nil {
		return err
	}
	r.p.ok("Model: %s", info.Name)
	return nil
}

func (r *REPL) export(formatName string) error {
	if formatName == "" {
		formatName = r.cfg.Export.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	conv, err := r.store.Active()
	if err != nil {
		return err
	}
	opts := export.OptionsFromConfig(r.cfg.Export, r.p.theme.Mode)
	exporter, err := export.New(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	r.p.ok("Exported to %s", path)
	return nil
}

func (r *REPL) toggleTheme() error {
	r.p.theme = r.p.theme.Toggle()
	r.p.ok("Theme: %s", r.p.theme.Mode)
	if r.prefsPath == "" {
		return nil
	}
	return config.SavePreferences(r.prefsPath, config.Preferences{Theme: r.p.theme.Mode})
}

// config shows or changes settings for this run. Changes are not saved;
// `rigrun-chat config set` does that.
func (r *REPL) config(args []string) error {
	switch len(args) {
	case 0:
		r.p.line(r.cfg.String())
	case 1:
		v, err := r.cfg.Get(args[0])
		if err != nil {
			return err
		}
		r.p.line(fmt.Sprintf("%s = %v", args[0], v))
	default:
		if err := r.cfg.Set(args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		r.p.ok("%s updated for this session", args[0])
	}
	return nil
}
