// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus says which part of the screen receives keys.
type Focus int

const (
	FocusInput  Focus = iota // typing a message
	FocusBrowse              // moving between messages and blocks
	FocusChats               // chat list overlay
	FocusModels              // model picker overlay
	FocusHelp                // key help overlay
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options wires the chat screen to the rest of the app.
type Options struct {
	Controller *chatcore.Controller
	Sessions   *session.Manager
	Config     *config.Config
	Theme      *styles.Theme

	// PrefsPath is where the theme choice is saved. Empty disables saving.
	PrefsPath string

	Logger *slog.Logger
}

// Model is the Bubble Tea model for the chat screen. The conversation
// itself lives in the store; the model only keeps what the store must not:
// focus, open menus and copied flags.
type Model struct {
	ctl      *chatcore.Controller
	store    *storage.ConversationStore
	sessions *session.Manager
	cfg      *config.Config
	logger   *slog.Logger

	// Styling
	theme     *styles.Theme
	prefsPath string

	// Dimensions
	width  int
	height int

	// UI Components
	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	search    textinput.Model
	header    *components.Header
	statusBar *components.StatusBar
	keys      KeyMap

	// Focus and selection
	focus       Focus
	selected    int    // message index while browsing
	block       string // focused actionable node ID within the selection
	chatCursor  int
	modelCursor int

	// Presentation state per message ID
	states    map[string]render.State
	copiedSeq map[string]int
	copySeq   int

	ticking  bool
	quitting bool
}

// New creates the chat screen.
func New(opts Options) (Model, error) {
	if opts.Controller == nil || opts.Sessions == nil {
		return Model{}, errors.New("chat screen needs a controller and a session manager")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(themeFor(cfg))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message... (/help for commands)"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 16000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: styles.DotsSpinner.Frames, FPS: styles.DotsSpinner.Duration()}
	sp.Style = theme.Spinner

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "filter chats"
	search.CharLimit = 256

	return Model{
		ctl:       opts.Controller,
		store:     opts.Controller.Store(),
		sessions:  opts.Sessions,
		cfg:       cfg,
		logger:    logger,
		theme:     theme,
		prefsPath: opts.PrefsPath,
		width:     80,
		height:    24,
		viewport:  vp,
		input:     ta,
		spinner:   sp,
		search:    search,
		header:    components.NewHeader(theme),
		statusBar: components.NewStatusBar(theme),
		keys:      DefaultKeyMap(),
		states:    make(map[string]render.State),
		copiedSeq: make(map[string]int),
	}, nil
}

// Init starts listening for controller events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.ctl.Events()))
}

// Theme returns the current theme.
func (m Model) Theme() *styles.Theme {
	return m.theme
}

// Focus returns which part of the screen has the keyboard.
func (m Model) Focus() Focus {
	return m.focus
}

// State returns the presentation state for a message.
func (m Model) State(messageID string) render.State {
	return m.states[messageID]
}

// Notice returns the status bar notice.
func (m Model) Notice() components.Notice {
	return m.statusBar.Notice
}

// setTheme swaps the theme in every component.
func (m *Model) setTheme(theme *styles.Theme) {
	theme.SetSize(m.width, m.height)
	m.theme = theme
	m.header.SetTheme(theme)
	m.statusBar.SetTheme(theme)
	m.spinner.Style = theme.Spinner
}

// notify sets the status bar notice.
func (m *Model) notify(kind components.NoticeKind, text string) {
	m.statusBar.SetNotice(kind, text)
}

// startSpinner begins ticking unless already running.
func (m *Model) startSpinner() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

// scheduleClearCopied ends the copied feedback after styles.CopiedFeedback.
func scheduleClearCopied(messageID string, seq int) tea.Cmd {
	return tea.Tick(styles.CopiedFeedback, func(time.Time) tea.Msg {
		return clearCopiedMsg{MessageID: messageID, Seq: seq}
	})
}
