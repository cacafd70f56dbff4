// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the in-memory conversation store.
package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore owns every conversation of the session.
// All mutations run under one mutex and read methods return deep copies, so
// callers never hold a reference into the store.
type ConversationStore struct {
	mu sync.Mutex

	convs  map[string]*model.Conversation
	order  []string          // creation order
	owner  map[string]string // message ID -> conversation ID
	active string

	defaultModel string
	now          func() time.Time
}

// Option configures a ConversationStore.
type Option func(*ConversationStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ConversationStore) {
		s.now = now
	}
}

// WithDefaultModel sets the model new conversations start with. Empty
// keeps model.DefaultModel.
func WithDefaultModel(id string) Option {
	return func(s *ConversationStore) {
		s.defaultModel = id
	}
}

// NewConversationStore creates an empty store. Callers create the first
// conversation with CreateConversation.
func NewConversationStore(opts ...Option) *ConversationStore {
	s := &ConversationStore{
		convs: make(map[string]*model.Conversation),
		owner: make(map[string]string),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// CreateConversation adds a conversation seeded with the assistant greeting
// and makes it active.
func (s *ConversationStore) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation(s.now())
	if s.defaultModel != "" {
		conv.Model = s.defaultModel
	}
	s.convs[conv.ID] = conv
	s.order = append(s.order, conv.ID)
	s.indexMessages(conv)
	s.active = conv.ID
	return conv.ID
}

// DeleteConversation removes a conversation. The last remaining one cannot
// be deleted. Deleting the active conversation activates the most recently
// updated of the rest.
func (s *ConversationStore) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok {
		return notFound("delete conversation", id)
	}
	if len(s.convs) == 1 {
		return errs.New(errs.KindInvalidState, "delete conversation", "cannot delete the last conversation")
	}

	s.unindexMessages(conv)
	delete(s.convs, id)
	s.order = lo.Without(s.order, id)

	if s.active == id {
		s.active = s.mostRecentLocked()
	}
	return nil
}

// RenameConversation sets the title. A blank title becomes
// model.UntitledTitle.
func (s *ConversationStore) RenameConversation(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok {
		return notFound("rename conversation", id)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.UntitledTitle
	}
	conv.Title = title
	return nil
}

// ClearConversation drops every message and reseeds the greeting. The
// conversation keeps its ID, title reverts to the placeholder.
func (s *ConversationStore) ClearConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok {
		return notFound("clear conversation", id)
	}
	s.unindexMessages(conv)

	fresh := model.NewConversation(s.now())
	conv.Title = fresh.Title
	conv.Messages = fresh.Messages
	conv.LastMessagePreview = fresh.LastMessagePreview
	conv.UpdatedAt = fresh.UpdatedAt
	s.indexMessages(conv)
	return nil
}

// SetModel records the catalog model chosen for a conversation.
func (s *ConversationStore) SetModel(id, modelID string) error {
	info, ok := model.GetModelInfo(modelID)
	if !ok {
		return errs.New(errs.KindInvalidState, "set model", "unknown model "+modelID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, found := s.convs[id]
	if !found {
		return notFound("set model", id)
	}
	conv.Model = info.ID
	return nil
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

// ActiveID returns the active conversation ID, or "" while the store is empty.
func (s *ConversationStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive switches the active conversation.
func (s *ConversationStore) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return notFound("set active", id)
	}
	s.active = id
	return nil
}

// mostRecentLocked returns the conversation with the latest UpdatedAt. Ties
// go to the one created later.
func (s *ConversationStore) mostRecentLocked() string {
	best := ""
	var bestAt time.Time
	for _, id := range s.order {
		at := s.convs[id].UpdatedAt
		if best == "" || !at.Before(bestAt) {
			best, bestAt = id, at
		}
	}
	return best
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendUserMessage appends a user message. A message with blank text and
// no attachments is rejected with errs.ErrInvalidState.
func (s *ConversationStore) AppendUserMessage(convID, text string, attachments []model.Attachment) (model.Message, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return model.Message{}, errs.New(errs.KindInvalidState, "append user message", "message has no text and no attachments")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok {
		return model.Message{}, notFound("append user message", convID)
	}

	msg := model.NewMessage(model.RoleUser, text)
	msg.CreatedAt = s.now()
	for _, a := range attachments {
		msg.Attachments = append(msg.Attachments, a.Clone())
	}

	s.appendLocked(conv, msg)
	conv.DeriveTitle(msg)
	return msg.Clone(), nil
}

// AppendAssistantMessage appends an assistant reply at the tail.
func (s *ConversationStore) AppendAssistantMessage(convID, text string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok {
		return model.Message{}, notFound("append assistant message", convID)
	}

	msg := model.NewMessage(model.RoleAssistant, text)
	msg.CreatedAt = s.now()
	s.appendLocked(conv, msg)
	return msg, nil
}

func (s *ConversationStore) appendLocked(conv *model.Conversation, msg model.Message) {
	conv.Messages = append(conv.Messages, msg)
	s.owner[msg.ID] = conv.ID
	conv.Touch(msg, msg.CreatedAt)
}

// RegenerationTarget validates a regenerate request and returns the ID of
// the assistant message to replace and the user prompt that preceded it.
func (s *ConversationStore) RegenerationTarget(convID string, index int) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok {
		return "", "", notFound("regenerate", convID)
	}
	if err := checkRegenerateIndex(conv, index); err != nil {
		return "", "", err
	}
	return conv.Messages[index].ID, conv.Messages[index-1].Content, nil
}

// RegenerateAt replaces the assistant message at index with new content.
// The message keeps its position but gets a fresh ID and no rating; the
// message count and every other ID are unchanged.
func (s *ConversationStore) RegenerateAt(convID string, index int, content string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok {
		return model.Message{}, notFound("regenerate", convID)
	}
	if err := checkRegenerateIndex(conv, index); err != nil {
		return model.Message{}, err
	}
	return s.replaceLocked(conv, index, content), nil
}

// ReplaceMessage replaces a message found by ID, for regenerations that
// complete asynchronously. If the conversation or message is gone the
// store is left untouched and errs.ErrNotFound is returned.
func (s *ConversationStore) ReplaceMessage(convID, targetID, content string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok {
		return model.Message{}, notFound("replace message", convID)
	}
	index := conv.IndexOf(targetID)
	if index < 0 {
		return model.Message{}, notFound("replace message", targetID)
	}
	if err := checkRegenerateIndex(conv, index); err != nil {
		return model.Message{}, err
	}
	return s.replaceLocked(conv, index, content), nil
}

func (s *ConversationStore) replaceLocked(conv *model.Conversation, index int, content string) model.Message {
	old := conv.Messages[index]
	msg := model.NewMessage(model.RoleAssistant, content)
	msg.CreatedAt = s.now()

	conv.Messages[index] = msg
	delete(s.owner, old.ID)
	s.owner[msg.ID] = conv.ID

	if index == len(conv.Messages)-1 {
		conv.Touch(msg, msg.CreatedAt)
	} else {
		conv.UpdatedAt = msg.CreatedAt
	}
	return msg
}

// checkRegenerateIndex requires an assistant message directly after a
// user message.
func checkRegenerateIndex(conv *model.Conversation, index int) error {
	if index <= 0 || index >= len(conv.Messages) {
		return errs.New(errs.KindInvalidIndex, "regenerate", "index out of range")
	}
	if conv.Messages[index].Role != model.RoleAssistant {
		return errs.New(errs.KindInvalidIndex, "regenerate", "target is not an assistant message")
	}
	if conv.Messages[index-1].Role != model.RoleUser {
		return errs.New(errs.KindInvalidIndex, "regenerate", "target does not follow a user message")
	}
	return nil
}

// Rate toggles a rating on any message and returns the resulting rating.
// Choosing the current rating clears it.
func (s *ConversationStore) Rate(messageID string, choice model.Rating) (model.Rating, error) {
	if choice != model.RatingUp && choice != model.RatingDown {
		return model.RatingNone, errs.New(errs.KindInvalidState, "rate", "rating must be up or down")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.messageLocked(messageID)
	if msg == nil {
		return model.RatingNone, notFound("rate", messageID)
	}
	msg.Rating = msg.Rating.Toggle(choice)
	return msg.Rating, nil
}

// SetAttachmentPreview stores a computed preview on every sent message that
// carries the attachment. It reports whether any attachment matched.
func (s *ConversationStore) SetAttachmentPreview(attachmentID string, preview model.Preview) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, conv := range s.convs {
		for i := range conv.Messages {
			atts := conv.Messages[i].Attachments
			for j := range atts {
				if atts[j].ID == attachmentID {
					p := preview
					atts[j].Preview = &p
					found = true
				}
			}
		}
	}
	return found
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Conversation returns a deep copy of a conversation.
func (s *ConversationStore) Conversation(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[id]
	if !ok {
		return nil, notFound("get conversation", id)
	}
	return conv.Clone(), nil
}

// Active returns a deep copy of the active conversation.
func (s *ConversationStore) Active() (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[s.active]
	if !ok {
		return nil, notFound("get active conversation", s.active)
	}
	return conv.Clone(), nil
}

// Message returns a copy of a message and the ID of its conversation.
func (s *ConversationStore) Message(id string) (model.Message, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.messageLocked(id)
	if msg == nil {
		return model.Message{}, "", notFound("get message", id)
	}
	return msg.Clone(), s.owner[id], nil
}

// Conversations returns metadata for every conversation in creation order.
func (s *ConversationStore) Conversations() []model.ConversationMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.order, func(id string, _ int) model.ConversationMeta {
		return s.convs[id].Meta()
	})
}

// Len returns the number of conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// List returns conversation metadata, most recently updated first.
func (s *ConversationStore) List() []model.ConversationMeta {
	metas := s.Conversations()
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas
}

// Search finds conversations whose title or preview contains query,
// case-insensitively. An empty query returns List.
func (s *ConversationStore) Search(query string) []model.ConversationMeta {
	query = strings.ToLower(strings.TrimSpace(query))
	all := s.List()
	if query == "" {
		return all
	}
	return lo.Filter(all, func(m model.ConversationMeta, _ int) bool {
		return strings.Contains(strings.ToLower(m.Title), query) ||
			strings.Contains(strings.ToLower(m.Preview), query)
	})
}

// SearchMessages finds conversations where any message contains query,
// case-insensitively.
func (s *ConversationStore) SearchMessages(query string) []model.ConversationMeta {
	query = strings.ToLower(strings.TrimSpace(query))
	all := s.List()
	if query == "" {
		return all
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Filter(all, func(m model.ConversationMeta, _ int) bool {
		conv, ok := s.convs[m.ID]
		if !ok {
			return false
		}
		return lo.ContainsBy(conv.Messages, func(msg model.Message) bool {
			return strings.Contains(strings.ToLower(msg.Content), query)
		})
	})
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *ConversationStore) messageLocked(id string) *model.Message {
	convID, ok := s.owner[id]
	if !ok {
		return nil
	}
	conv := s.convs[convID]
	if i := conv.IndexOf(id); i >= 0 {
		return &conv.Messages[i]
	}
	return nil
}

func (s *ConversationStore) indexMessages(conv *model.Conversation) {
	for _, m := range conv.Messages {
		s.owner[m.ID] = conv.ID
	}
}

func (s *ConversationStore) unindexMessages(conv *model.Conversation) {
	for _, m := range conv.Messages {
		delete(s.owner, m.ID)
	}
}

func notFound(op, id string) error {
	return errs.New(errs.KindNotFound, op, "no such id "+id)
}
