// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// RATING TYPE
// =============================================================================

// Rating is the user's feedback on a message. The zero value is RatingNone.
type Rating string

const (
	RatingNone Rating = ""
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Toggle applies a rating click: choosing the current rating clears it,
// choosing the other one replaces it.
func (r Rating) Toggle(choice Rating) Rating {
	if r == choice {
		return RatingNone
	}
	return choice
}

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	return r == RatingNone || r == RatingUp || r == RatingDown
}

// String returns "none" for the zero rating.
func (r Rating) String() string {
	if r == RatingNone {
		return "none"
	}
	return string(r)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// ID is immutable; Content and Rating are the only fields that change
// after creation.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Rating      Rating       `json:"rating,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewMessageID returns a time-ordered identifier. UUIDv7 values from one
// process compare lexically in creation order.
func NewMessageID() string {
	return "msg_" + uuid.Must(uuid.NewV7()).String()
}

// Preview returns the first n runes of the message as one line, followed by
// "..." when cut. Attachment-only messages preview their first file name.
func (m Message) Preview(n int) string {
	text := util.SingleLine(m.Content)
	if text == "" && len(m.Attachments) > 0 {
		text = m.Attachments[0].Name
	}
	return util.PrefixRunes(text, n)
}

// IsEmpty returns true if the message has neither content nor attachments.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.Attachments) == 0
}

// Clone returns a copy that shares no mutable state with m.
func (m Message) Clone() Message {
	out := m
	if m.Attachments != nil {
		out.Attachments = make([]Attachment, len(m.Attachments))
		for i, a := range m.Attachments {
			out.Attachments[i] = a.Clone()
		}
	}
	return out
}
