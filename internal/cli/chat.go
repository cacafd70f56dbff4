// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for rigrun-chat.
//
// Runs when stdin or stdout is not a terminal, or with --line. Each
// message is sent and the loop waits for its reply before prompting
// again. Messages are numbered so slash commands can refer to them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// INPUT
// =============================================================================

// LineReader reads one line of input. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lineInput wraps liner with a history file.
type lineInput struct {
	*liner.State
	historyFile string
}

func newLineInput(historyFile string) *lineInput {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	in := &lineInput{State: state, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return in
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (in *lineInput) Close() error {
	if in.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(in.historyFile), 0o700); err == nil {
			if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				_, _ = in.WriteHistory(f)
				f.Close()
			}
		}
	}
	return in.State.Close()
}

// HistoryPath is where line-mode input history is kept.
func HistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// REPL
// =============================================================================

// Options wires the line-mode chat.
type Options struct {
	Controller *chatcore.Controller
	Sessions   *session.Manager
	Config     *config.Config
	Theme      *styles.Theme

	// PrefsPath is where /theme saves the choice. Empty disables saving.
	PrefsPath string

	// Input defaults to liner on stdin with HistoryPath().
	Input LineReader
	// Output defaults to stdout.
	Output io.Writer
	// Width defaults to TerminalWidth().
	Width int

	Logger *slog.Logger
}

// REPL is the line-mode chat loop.
type REPL struct {
	ctl       *chatcore.Controller
	store     *storage.ConversationStore
	sessions  *session.Manager
	cfg       *config.Config
	prefsPath string
	logger    *slog.Logger

	in     LineReader
	closer io.Closer
	p      *printer
	width  int
}

// NewREPL creates the line-mode chat.
func NewREPL(opts Options) (*REPL, error) {
	if opts.Controller == nil || opts.Sessions == nil {
		return nil, errors.New("line mode needs a controller and a session manager")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewThemeWithProfile(config.ThemeLight, ColorProfile())
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}
	if cfg.UI.WrapWidth > 0 {
		width = min(width, cfg.UI.WrapWidth)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &REPL{
		ctl:       opts.Controller,
		store:     opts.Controller.Store(),
		sessions:  opts.Sessions,
		cfg:       cfg,
		prefsPath: opts.PrefsPath,
		logger:    logger,
		in:        opts.Input,
		p:         &printer{out: out, theme: theme},
		width:     width,
	}
	if r.in == nil {
		li := newLineInput(HistoryPath())
		r.in, r.closer = li, li
	}
	theme.SetSize(width, 0)
	return r, nil
}

// Close releases the terminal.
func (r *REPL) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Run reads lines until /quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.welcome()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt(r.prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			r.p.muted("(type /quit to leave)")
			continue
		case errors.Is(err, io.EOF):
			r.p.line("")
			r.goodbye()
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		if quit := r.Execute(ctx, line); quit {
			r.goodbye()
			return nil
		}
	}
}

// Execute handles one line of input and reports whether to stop.
func (r *REPL) Execute(ctx context.Context, line string) bool {
	r.sessions.RecordActivity()
	if strings.HasPrefix(line, "/") {
		quit, err := r.command(ctx, line)
		if err != nil {
			r.p.fail(err)
		}
		return quit
	}
	if err := r.send(ctx, line); err != nil {
		r.p.fail(err)
	}
	return false
}

func (r *REPL) prompt() string {
	title := "chat"
	if conv, err := r.store.Active(); err == nil {
		title = conv.Title
	}
	return title + "> "
}

func (r *REPL) welcome() {
	r.p.title("rigrun chat")
	r.p.muted("Type a message and press enter. /help lists commands, /quit leaves.")
	if conv, err := r.store.Active(); err == nil {
		r.printConversation(conv)
		if len(conv.Messages) <= 1 {
			r.printQuickPrompts()
		}
	}
}

func (r *REPL) goodbye() {
	st := r.sessions.GetStatus()
	r.p.muted("Session %s: %d chats, %s.", st.SessionID, st.Chats, session.FormatDuration(st.Duration))
}

// =============================================================================
// SENDING AND WAITING
// =============================================================================

// send appends a user message with the pending attachments and waits for
// the reply.
func (r *REPL) send(ctx context.Context, text string) error {
	convID := r.store.ActiveID()
	r.ctl.Draft().SetText(text)
	if _, err := r.ctl.SendDraft(convID); err != nil {
		if errors.Is(err, errs.ErrInvalidState) {
			return errors.New("nothing to send: type a message or /attach a file")
		}
		return err
	}
	return r.awaitReply(ctx, convID, chatcore.EventReplyReady)
}

// awaitReply waits for a reply event for convID and prints the latest
// message.
func (r *REPL) awaitReply(ctx context.Context, convID string, want chatcore.EventKind) error {
	r.p.muted("Assistant is typing...")
	ev, err := r.await(ctx, r.cfg.Chat.ReplyTimeout()+time.Second, func(ev chatcore.Event) bool {
		return ev.ConversationID == convID && (ev.Kind == want || ev.Kind == chatcore.EventReplyFailed)
	})
	if err != nil {
		return err
	}
	if ev.Kind == chatcore.EventReplyFailed {
		return fmt.Errorf("reply failed: %w", ev.Err)
	}
	conv, err := r.store.Conversation(convID)
	if err != nil {
		return err
	}
	idx := conv.IndexOf(ev.MessageID)
	if idx < 0 {
		idx = len(conv.Messages) - 1
	}
	r.printMessage(idx, conv.Messages[idx])
	return nil
}

// await reads controller events until match accepts one. Other events
// are dropped; line mode has nothing else to refresh.
func (r *REPL) await(ctx context.Context, timeout time.Duration, match func(chatcore.Event) bool) (chatcore.Event, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-r.ctl.Events():
			if !ok {
				return chatcore.Event{}, errs.New(errs.KindInvalidState, "wait", "controller closed")
			}
			if match(ev) {
				return ev, nil
			}
			r.logger.Debug("line mode skipped event", "kind", ev.Kind, "conversation", ev.ConversationID)
		case <-deadline.C:
			return chatcore.Event{}, errs.New(errs.KindExternalFailure, "wait", "no answer within "+timeout.String())
		case <-ctx.Done():
			return chatcore.Event{}, ctx.Err()
		}
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *REPL) printConversation(conv *model.Conversation) {
	for i, msg := range conv.Messages {
		r.printMessage(i, msg)
	}
}

// printMessage prints one numbered message and, for replies, the blocks
// that /copy can reach.
func (r *REPL) printMessage(index int, msg model.Message) {
	r.p.muted("#%d", index+1)
	bubble := components.NewMessageBubble(r.p.theme, msg, r.width)
	r.p.line(bubble.Render())

	if msg.Role != model.RoleAssistant {
		return
	}
	nodes := render.ProjectText(msg.Content, render.State{}).Actionable()
	if len(nodes) == 0 {
		return
	}
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		labels[i] = strconv.Itoa(i+1) + " " + blockLabel(n)
	}
	r.p.muted("blocks: %s  (/copy %d <block> [format])", strings.Join(labels, ", "), index+1)
}

func (r *REPL) printQuickPrompts() {
	r.p.muted("Try one of these (/prompt <n>):")
	for i, qp := range model.QuickPrompts {
		r.p.line(fmt.Sprintf("  %d. %s: %s", i+1, qp.Label, qp.Prompt))
	}
}

// blockLabel names an actionable node for the blocks line.
func blockLabel(n *render.Node) string {
	if n.Kind == render.KindTable {
		return "table"
	}
	if n.Language != "" {
		return "code (" + n.Language + ")"
	}
	return "code"
}
