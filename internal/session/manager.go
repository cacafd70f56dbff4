// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat list manager.
package session

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the chat list and session activity.
type Manager struct {
	mu sync.Mutex

	store  *storage.ConversationStore
	logger *slog.Logger

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	now func() time.Time
}

// Config holds configuration for the session manager.
type Config struct {
	// Logger receives chat list events. Nil uses slog.Default().
	Logger *slog.Logger

	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{}
}

// NewManager creates a manager over store. If the store is empty a first
// conversation is created so that an active chat always exists.
func NewManager(store *storage.ConversationStore, cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	started := now()
	m := &Manager{
		store:        store,
		logger:       logger,
		sessionID:    "sess_" + uuid.NewString()[:8],
		startTime:    started,
		lastActivity: started,
		now:          now,
	}
	if store.Len() == 0 {
		id := store.CreateConversation()
		logger.Debug("created initial conversation", "conversation", id)
	}
	return m
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Sub(m.lastActivity)
}

// RecordActivity updates the last activity timestamp.
// Front-ends call this on user input.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
}

// =============================================================================
// CHAT LIST
// =============================================================================

// ChatSummary is one row of the chat list.
type ChatSummary struct {
	ID           string
	Title        string
	Preview      string
	Model        string
	MessageCount int
	UpdatedAt    time.Time
	Active       bool
}

// Chats returns the chat list, most recently updated first. A non-empty
// query filters by title, preview and message content.
func (m *Manager) Chats(query string) []ChatSummary {
	var metas []model.ConversationMeta
	if strings.TrimSpace(query) == "" {
		metas = m.store.List()
	} else {
		hits := lo.SliceToMap(append(m.store.Search(query), m.store.SearchMessages(query)...),
			func(c model.ConversationMeta) (string, bool) { return c.ID, true })
		metas = lo.Filter(m.store.List(), func(c model.ConversationMeta, _ int) bool { return hits[c.ID] })
	}

	active := m.store.ActiveID()
	return lo.Map(metas, func(c model.ConversationMeta, _ int) ChatSummary {
		return ChatSummary{
			ID:           c.ID,
			Title:        c.Title,
			Preview:      c.Preview,
			Model:        c.Model,
			MessageCount: c.MessageCount,
			UpdatedAt:    c.UpdatedAt,
			Active:       c.ID == active,
		}
	})
}

// NewChat creates a conversation and makes it active.
func (m *Manager) NewChat() string {
	m.RecordActivity()
	id := m.store.CreateConversation()
	m.logger.Info("new chat", "conversation", id)
	return id
}

// Switch activates a conversation by ID.
func (m *Manager) Switch(id string) error {
	m.RecordActivity()
	if err := m.store.SetActive(id); err != nil {
		return err
	}
	m.logger.Debug("switched chat", "conversation", id)
	return nil
}

// Resolve maps a 1-based position in the unfiltered chat list, or an ID
// prefix, to a conversation ID.
func (m *Manager) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	chats := m.Chats("")

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(chats) {
			return "", errs.New(errs.KindNotFound, "resolve chat", "no chat at position "+ref)
		}
		return chats[n-1].ID, nil
	}

	matches := lo.Filter(chats, func(c ChatSummary, _ int) bool {
		return ref != "" && strings.HasPrefix(c.ID, ref)
	})
	if len(matches) != 1 {
		return "", errs.New(errs.KindNotFound, "resolve chat", "no unique chat matches "+ref)
	}
	return matches[0].ID, nil
}

// Delete removes a conversation. The store refuses to delete the last one.
func (m *Manager) Delete(id string) error {
	m.RecordActivity()
	if err := m.store.DeleteConversation(id); err != nil {
		return err
	}
	m.logger.Info("deleted chat", "conversation", id, "active", m.store.ActiveID())
	return nil
}

// Rename sets a conversation title.
func (m *Manager) Rename(id, title string) error {
	m.RecordActivity()
	return m.store.RenameConversation(id, title)
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID   string
	Chats       int
	ActiveID    string
	ActiveTitle string
	Duration    time.Duration
	IdleTime    time.Duration
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	st := Status{
		Chats:    m.store.Len(),
		ActiveID: m.store.ActiveID(),
	}
	if conv, err := m.store.Conversation(st.ActiveID); err == nil {
		st.ActiveTitle = conv.Title
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	st.SessionID = m.sessionID
	st.Duration = now.Sub(m.startTime)
	st.IdleTime = now.Sub(m.lastActivity)
	return st
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatChatList renders the chat list as a borderless table. The active
// chat is marked with '*'.
func FormatChatList(chats []ChatSummary, now time.Time) string {
	if len(chats) == 0 {
		return "No chats found."
	}

	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"#", "", "Title", "Updated", "Msgs", "Last message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for i, c := range chats {
		marker := ""
		if c.Active {
			marker = "*"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			marker,
			util.TruncateWidth(c.Title, 34),
			FormatRelative(c.UpdatedAt, now),
			strconv.Itoa(c.MessageCount),
			util.TruncateWidth(c.Preview, 40),
		})
	}
	table.Render()
	return strings.TrimRight(sb.String(), "\n")
}

// FormatRelative describes how long ago t was.
func FormatRelative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h ago"
	case d < 7*24*time.Hour:
		return strconv.Itoa(int(d.Hours()/24)) + "d ago"
	default:
		return t.Format("2006-01-02")
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
}
