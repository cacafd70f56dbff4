// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-chat/internal/util"
)

const (
	// DefaultTitle is the placeholder title of a fresh conversation. The title
	// follows the first user message only while it still reads DefaultTitle.
	DefaultTitle = "New Chat"

	// UntitledTitle replaces a blank title on rename.
	UntitledTitle = "Untitled Chat"

	// Greeting seeds every new conversation.
	Greeting = "Hello! I'm your AI assistant. How can I help you today?"

	// TitleRunes and PreviewRunes bound the derived title and preview;
	// longer text is cut and suffixed with "...".
	TitleRunes   = 30
	PreviewRunes = 50
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one ordered thread of messages with its metadata.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastMessagePreview is a one-line prefix of the latest message.
	LastMessagePreview string `json:"last_message_preview"`

	// Messages
	Messages []Message `json:"messages"`

	// Model is the catalog ID chosen for this conversation.
	Model string `json:"model,omitempty"`
}

// NewConversation creates a conversation seeded with the assistant greeting.
func NewConversation(now time.Time) *Conversation {
	greeting := NewMessage(RoleAssistant, Greeting)
	greeting.CreatedAt = now
	return &Conversation{
		ID:                 NewConversationID(),
		Title:              DefaultTitle,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastMessagePreview: util.PrefixRunes(Greeting, PreviewRunes),
		Messages:           []Message{greeting},
		Model:              DefaultModel,
	}
}

// NewConversationID returns a time-ordered conversation identifier.
func NewConversationID() string {
	return "conv_" + uuid.Must(uuid.NewV7()).String()
}

// =============================================================================
// MESSAGE LOOKUP
// =============================================================================

// IndexOf returns the position of the message with the given ID, or -1.
func (c *Conversation) IndexOf(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// LastUserMessage returns the most recent user message, or nil.
func (c *Conversation) LastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return &c.Messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// HasUserMessages reports whether the user has said anything yet.
// Front-ends show the quick prompts until this is true.
func (c *Conversation) HasUserMessages() bool {
	return c.LastUserMessage() != nil
}

// =============================================================================
// TITLE AND PREVIEW
// =============================================================================

// Touch refreshes the preview from msg and bumps UpdatedAt.
func (c *Conversation) Touch(msg Message, now time.Time) {
	c.LastMessagePreview = msg.Preview(PreviewRunes)
	c.UpdatedAt = now
}

// DeriveTitle sets the title from the first user message while the title is
// still DefaultTitle. Attachment-only messages use the first attachment name.
func (c *Conversation) DeriveTitle(msg Message) {
	if c.Title != DefaultTitle || msg.Role != RoleUser {
		return
	}
	source := util.SingleLine(msg.Content)
	if source == "" && len(msg.Attachments) > 0 {
		source = msg.Attachments[0].Name
	}
	if source == "" {
		return
	}
	c.Title = util.PrefixRunes(source, TitleRunes)
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

// Meta returns metadata about the conversation.
func (c *Conversation) Meta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		Title:        c.Title,
		Model:        c.Model,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Preview:      c.LastMessagePreview,
	}
}

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return &clone
}
