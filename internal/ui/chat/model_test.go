// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/clipboard"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/respond"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

const eventWait = 2 * time.Second

type screen struct {
	m         Model
	ctl       *chatcore.Controller
	store     *storage.ConversationStore
	sessions  *session.Manager
	clip      *clipboard.Memory
	prefsPath string
}

func newScreen(t *testing.T, source respond.SourceFunc) *screen {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := storage.NewConversationStore()
	sessions := session.NewManager(store, session.Config{Logger: logger})
	clip := clipboard.NewMemory()
	ctl, err := chatcore.New(store, chatcore.Options{Source: source, Clipboard: clip, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(ctl.Close)

	s := &screen{
		ctl:       ctl,
		store:     store,
		sessions:  sessions,
		clip:      clip,
		prefsPath: filepath.Join(t.TempDir(), "preferences.yaml"),
	}
	s.m, err = New(Options{
		Controller: ctl,
		Sessions:   sessions,
		Config:     config.Default(),
		Theme:      styles.NewThemeWithProfile(config.ThemeLight, termenv.Ascii),
		PrefsPath:  s.prefsPath,
		Logger:     logger,
	})
	require.NoError(t, err)
	s.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return s
}

func replyWith(text string) respond.SourceFunc {
	return func(context.Context, string) (string, error) { return text, nil }
}

// send feeds msg to the model and returns the command it produced.
func (s *screen) send(msg tea.Msg) tea.Cmd {
	next, cmd := s.m.Update(msg)
	s.m = next.(Model)
	return cmd
}

func (s *screen) key(k tea.KeyType) tea.Cmd {
	return s.send(tea.KeyMsg{Type: k})
}

func (s *screen) runes(text string) tea.Cmd {
	return s.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func (s *screen) typeAndSubmit(text string) tea.Cmd {
	s.runes(text)
	return s.key(tea.KeyEnter)
}

// await reads controller events until one of kind arrives, then feeds it
// to the model.
func (s *screen) await(t *testing.T, kind chatcore.EventKind) chatcore.Event {
	t.Helper()
	deadline := time.After(eventWait)
	for {
		select {
		case ev, ok := <-s.ctl.Events():
			require.True(t, ok, "event channel closed")
			s.send(EventMsg(ev))
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within %v", kind, eventWait)
			return chatcore.Event{}
		}
	}
}

func (s *screen) active(t *testing.T) *model.Conversation {
	t.Helper()
	conv, err := s.store.Active()
	require.NoError(t, err)
	return conv
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestView_Welcome(t *testing.T) {
	s := newScreen(t, replyWith("hi"))

	view := s.m.View()
	assert.Contains(t, view, "rigrun chat")
	assert.Contains(t, view, "alt+1")
	assert.Equal(t, FocusInput, s.m.Focus())
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_ShowsReply(t *testing.T) {
	s := newScreen(t, replyWith("The answer is **42**."))

	s.typeAndSubmit("what is the answer?")
	conv := s.active(t)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "what is the answer?", conv.Messages[1].Content)
	assert.Contains(t, s.m.View(), "Assistant is typing...")

	s.await(t, chatcore.EventReplyReady)
	view := s.m.View()
	assert.Contains(t, view, "The answer is 42.")
	assert.NotContains(t, view, "Assistant is typing...")
}

func TestSend_EmptyDraftWarns(t *testing.T) {
	s := newScreen(t, replyWith("unused"))

	s.key(tea.KeyEnter)
	assert.Equal(t, components.NoticeWarning, s.m.Notice().Kind)
	assert.Len(t, s.active(t).Messages, 1)
}

func TestSend_QuickPrompt(t *testing.T) {
	s := newScreen(t, replyWith("ok"))

	s.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	conv := s.active(t)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.QuickPrompts[0].Prompt, conv.Messages[1].Content)
}

func TestSend_ReplyForOtherChatNotifies(t *testing.T) {
	release := make(chan struct{})
	s := newScreen(t, func(ctx context.Context, _ string) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "late reply", nil
	})

	s.typeAndSubmit("first")
	first := s.store.ActiveID()
	s.key(tea.KeyCtrlN)
	require.NotEqual(t, first, s.store.ActiveID())

	close(release)
	ev := s.await(t, chatcore.EventReplyReady)
	assert.Equal(t, first, ev.ConversationID)
	assert.Contains(t, s.m.Notice().Text, "Reply ready in")
	assert.NotContains(t, s.m.View(), "late reply")
}

// =============================================================================
// BROWSING AND COPYING
// =============================================================================

func TestBrowse_CopyCodeBlock(t *testing.T) {
	s := newScreen(t, replyWith("Run this:\n\n```go\nfmt.Println(1)\n```\n"))
	s.typeAndSubmit("show code")
	s.await(t, chatcore.EventReplyReady)

	s.key(tea.KeyEsc)
	require.Equal(t, FocusBrowse, s.m.Focus())
	s.key(tea.KeyTab)
	s.key(tea.KeyEnter)

	ev := s.await(t, chatcore.EventCopied)
	assert.Equal(t, "fmt.Println(1)", s.clip.Text())
	st := s.m.State(ev.MessageID)
	assert.Equal(t, ev.BlockID, st.Copied)
	assert.Contains(t, s.m.View(), components.CopiedLabel)

	// A stale clear is ignored; the current one ends the feedback.
	s.send(clearCopiedMsg{MessageID: ev.MessageID, Seq: 0})
	assert.Equal(t, ev.BlockID, s.m.State(ev.MessageID).Copied)
	s.send(clearCopiedMsg{MessageID: ev.MessageID, Seq: 1})
	assert.Empty(t, s.m.State(ev.MessageID).Copied)
}

func TestBrowse_TableCopyAsMenu(t *testing.T) {
	s := newScreen(t, replyWith("| name | qty |\n|---|---|\n| apple | 3 |\n"))
	s.typeAndSubmit("table please")
	s.await(t, chatcore.EventReplyReady)

	s.key(tea.KeyEsc)
	s.key(tea.KeyEnter)
	reply := s.active(t).Messages[2]
	require.NotEmpty(t, s.m.State(reply.ID).OpenMenu)
	assert.Contains(t, s.m.View(), "CSV")

	s.runes("2")
	s.await(t, chatcore.EventCopied)
	assert.Contains(t, s.clip.Text(), "name,qty")
	assert.Empty(t, s.m.State(reply.ID).OpenMenu)
}

func TestBrowse_CopyMessage(t *testing.T) {
	s := newScreen(t, replyWith("plain reply"))
	s.typeAndSubmit("hi")
	s.await(t, chatcore.EventReplyReady)

	s.key(tea.KeyEsc)
	s.runes("y")
	s.await(t, chatcore.EventCopied)
	assert.Equal(t, "plain reply", s.clip.Text())
	assert.Equal(t, "Message copied", s.m.Notice().Text)
}

func TestBrowse_RateAndRegenerate(t *testing.T) {
	s := newScreen(t, replyWith("reply"))
	s.typeAndSubmit("hi")
	s.await(t, chatcore.EventReplyReady)

	s.key(tea.KeyEsc)
	s.runes("+")
	assert.Equal(t, model.RatingUp, s.active(t).Messages[2].Rating)

	s.runes("r")
	s.await(t, chatcore.EventRegenerated)
	conv := s.active(t)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, model.RatingNone, conv.Messages[2].Rating)
}

func TestBrowse_RateUserMessageWarns(t *testing.T) {
	s := newScreen(t, replyWith("reply"))
	s.typeAndSubmit("hi")
	s.await(t, chatcore.EventReplyReady)

	s.key(tea.KeyEsc)
	s.key(tea.KeyUp)
	s.runes("-")
	assert.Equal(t, components.NoticeWarning, s.m.Notice().Kind)
}

func TestBrowse_BackReturnsToInput(t *testing.T) {
	s := newScreen(t, replyWith("reply"))

	s.key(tea.KeyEsc)
	require.Equal(t, FocusBrowse, s.m.Focus())
	s.key(tea.KeyEsc)
	assert.Equal(t, FocusInput, s.m.Focus())
}

func TestCycleBlock(t *testing.T) {
	nodes := []*render.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Equal(t, "a", cycleBlock(nodes, "", true))
	assert.Equal(t, "c", cycleBlock(nodes, "", false))
	assert.Equal(t, "a", cycleBlock(nodes, "c", true))
	assert.Equal(t, "c", cycleBlock(nodes, "a", false))
	assert.Empty(t, cycleBlock(nil, "a", true))
}

// =============================================================================
// THEME
// =============================================================================

func TestToggleTheme_SavesPreferences(t *testing.T) {
	s := newScreen(t, replyWith("x"))

	cmd := s.key(tea.KeyCtrlT)
	assert.Equal(t, config.ThemeDark, s.m.Theme().Mode)
	require.NotNil(t, cmd)
	cmd()

	prefs, err := config.LoadPreferences(s.prefsPath, config.ThemeLight)
	require.NoError(t, err)
	assert.Equal(t, config.ThemeDark, prefs.Theme)
}

func TestPreferencesMsg_SwapsTheme(t *testing.T) {
	s := newScreen(t, replyWith("x"))

	s.send(PreferencesMsg{Theme: config.ThemeDark})
	assert.Equal(t, config.ThemeDark, s.m.Theme().Mode)
	assert.Equal(t, termenv.Ascii, s.m.Theme().ColorProfile)
}

// =============================================================================
// COMMANDS AND OVERLAYS
// =============================================================================

func TestCommands(t *testing.T) {
	s := newScreen(t, replyWith("x"))

	s.typeAndSubmit("/rename Groceries")
	assert.Equal(t, "Groceries", s.active(t).Title)

	s.typeAndSubmit("/model gemini")
	assert.Equal(t, "gemini", s.active(t).Model)

	s.typeAndSubmit("/new")
	assert.Equal(t, 2, s.store.Len())

	s.typeAndSubmit("/bogus")
	assert.Equal(t, components.NoticeWarning, s.m.Notice().Kind)

	s.typeAndSubmit("/help")
	assert.Equal(t, FocusHelp, s.m.Focus())
	assert.Contains(t, s.m.View(), "/attach <path>")
	s.runes("q")
	assert.Equal(t, FocusInput, s.m.Focus())
}

func TestCommands_AttachAndDetach(t *testing.T) {
	s := newScreen(t, replyWith("x"))
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("remember the milk"), 0o600))

	cmd := s.typeAndSubmit("/attach " + path)
	require.NotNil(t, cmd)
	s.send(cmd())
	assert.Equal(t, components.NoticeSuccess, s.m.Notice().Kind)
	assert.Len(t, s.ctl.Draft().Attachments(), 1)
	assert.Contains(t, s.m.View(), "notes.txt")

	s.typeAndSubmit("/detach 1")
	assert.Empty(t, s.ctl.Draft().Attachments())
}

func TestCommands_ExportWritesFile(t *testing.T) {
	s := newScreen(t, replyWith("x"))
	s.m.cfg.Export.OutputDir = t.TempDir()

	cmd := s.typeAndSubmit("/export json")
	require.NotNil(t, cmd)
	s.send(cmd())
	require.Equal(t, components.NoticeSuccess, s.m.Notice().Kind, s.m.Notice().Text)
	assert.Contains(t, s.m.Notice().Text, ".json")
}

func TestChatList_SwitchAndDelete(t *testing.T) {
	s := newScreen(t, replyWith("x"))
	first := s.store.ActiveID()
	s.key(tea.KeyCtrlN)

	s.key(tea.KeyCtrlL)
	require.Equal(t, FocusChats, s.m.Focus())
	assert.Contains(t, s.m.View(), "Chats")

	for _, c := range s.sessions.Chats("") {
		if c.ID == first {
			break
		}
		s.key(tea.KeyDown)
	}
	s.key(tea.KeyEnter)
	assert.Equal(t, FocusInput, s.m.Focus())
	assert.Equal(t, first, s.store.ActiveID())

	s.key(tea.KeyCtrlL)
	s.key(tea.KeyCtrlD)
	assert.Equal(t, 1, s.store.Len())
}

func TestModelPicker(t *testing.T) {
	s := newScreen(t, replyWith("x"))

	s.key(tea.KeyCtrlP)
	require.Equal(t, FocusModels, s.m.Focus())
	s.key(tea.KeyDown)
	s.key(tea.KeyEnter)

	assert.Equal(t, model.Models[1].ID, s.active(t).Model)
	assert.Equal(t, FocusInput, s.m.Focus())
}
