// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
)

// fakeClock advances one second per call so UpdatedAt ordering is exact.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() *ConversationStore {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewConversationStore(WithClock(clock.Now))
}

// =============================================================================
// CONVERSATION LIFECYCLE TESTS
// =============================================================================

func TestCreateConversation(t *testing.T) {
	store := newTestStore()
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.ActiveID())

	id := store.CreateConversation()

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, id, store.ActiveID())

	conv, err := store.Conversation(id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, model.RoleAssistant, conv.Messages[0].Role)
	assert.Equal(t, model.DefaultTitle, conv.Title)
}

func TestCreateConversation_DefaultModel(t *testing.T) {
	store := NewConversationStore(WithDefaultModel("claude-3"))
	conv, err := store.Conversation(store.CreateConversation())
	require.NoError(t, err)
	assert.Equal(t, "claude-3", conv.Model)

	plain := newTestStore()
	conv, err = plain.Conversation(plain.CreateConversation())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModel, conv.Model)
}

func TestDeleteConversation_LastFails(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	err := store.DeleteConversation(id)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, id, store.ActiveID())
}

func TestDeleteConversation_ReassignsActive(t *testing.T) {
	store := newTestStore()
	first := store.CreateConversation()
	second := store.CreateConversation()
	require.Equal(t, second, store.ActiveID())

	require.NoError(t, store.DeleteConversation(second))
	assert.Equal(t, first, store.ActiveID())
	assert.Equal(t, 1, store.Len())

	_, err := store.Conversation(second)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteConversation_PicksMostRecentlyUpdated(t *testing.T) {
	store := newTestStore()
	a := store.CreateConversation()
	b := store.CreateConversation()
	c := store.CreateConversation()

	// a becomes the most recently updated.
	_, err := store.AppendUserMessage(a, "bump", nil)
	require.NoError(t, err)
	require.NoError(t, store.SetActive(c))

	require.NoError(t, store.DeleteConversation(c))
	assert.Equal(t, a, store.ActiveID())

	// Deleting an inactive conversation leaves activity alone.
	require.NoError(t, store.DeleteConversation(b))
	assert.Equal(t, a, store.ActiveID())
}

func TestDeleteConversation_Unknown(t *testing.T) {
	store := newTestStore()
	store.CreateConversation()
	assert.ErrorIs(t, store.DeleteConversation("nope"), errs.ErrNotFound)
}

func TestRenameConversation(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	require.NoError(t, store.RenameConversation(id, "  Trip planning "))
	conv, _ := store.Conversation(id)
	assert.Equal(t, "Trip planning", conv.Title)

	require.NoError(t, store.RenameConversation(id, "   "))
	conv, _ = store.Conversation(id)
	assert.Equal(t, model.UntitledTitle, conv.Title)

	assert.ErrorIs(t, store.RenameConversation("missing", "x"), errs.ErrNotFound)
}

func TestClearConversation(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	msg, err := store.AppendUserMessage(id, "hello there", nil)
	require.NoError(t, err)

	require.NoError(t, store.ClearConversation(id))

	conv, _ := store.Conversation(id)
	assert.Len(t, conv.Messages, 1)
	assert.Equal(t, model.DefaultTitle, conv.Title)

	_, _, err = store.Message(msg.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSetModel(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	require.NoError(t, store.SetModel(id, "Claude-3"))
	conv, _ := store.Conversation(id)
	assert.Equal(t, "claude-3", conv.Model)

	assert.ErrorIs(t, store.SetModel(id, "gpt-9"), errs.ErrInvalidState)
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestAppendUserMessage_EmptyRejected(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	_, err := store.AppendUserMessage(id, "", nil)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	_, err = store.AppendUserMessage(id, " \n\t", []model.Attachment{})
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	conv, _ := store.Conversation(id)
	assert.Len(t, conv.Messages, 1)
}

func TestAppendUserMessage_AttachmentOnly(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	att := model.Attachment{ID: "att-1", Name: "notes.txt", SizeBytes: 3, MimeType: "text/plain", Data: []byte("abc")}
	msg, err := store.AppendUserMessage(id, "", []model.Attachment{att})
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)

	conv, _ := store.Conversation(id)
	assert.Equal(t, "notes.txt", conv.Title)
	assert.Equal(t, "notes.txt", conv.LastMessagePreview)
}

func TestAppendUserMessage_TitleAndPreview(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	before, _ := store.Conversation(id)

	long := strings.Repeat("word ", 20)
	_, err := store.AppendUserMessage(id, long, nil)
	require.NoError(t, err)

	conv, _ := store.Conversation(id)
	assert.Equal(t, strings.TrimSpace(long)[:30]+"...", conv.Title)
	assert.Equal(t, strings.TrimSpace(long)[:50]+"...", conv.LastMessagePreview)
	assert.True(t, conv.UpdatedAt.After(before.UpdatedAt))

	// Title sticks after the first message.
	_, err = store.AppendUserMessage(id, "another topic", nil)
	require.NoError(t, err)
	conv, _ = store.Conversation(id)
	assert.Equal(t, strings.TrimSpace(long)[:30]+"...", conv.Title)
	assert.Equal(t, "another topic", conv.LastMessagePreview)
}

func TestAppendUserMessage_RenamedTitleIsKept(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	require.NoError(t, store.RenameConversation(id, "Mine"))

	_, err := store.AppendUserMessage(id, "hello", nil)
	require.NoError(t, err)
	conv, _ := store.Conversation(id)
	assert.Equal(t, "Mine", conv.Title)
}

func TestMessageIDsAreUniqueAndOrdered(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	for i := 0; i < 20; i++ {
		_, err := store.AppendUserMessage(id, fmt.Sprintf("q%d", i), nil)
		require.NoError(t, err)
		_, err = store.AppendAssistantMessage(id, fmt.Sprintf("a%d", i))
		require.NoError(t, err)
	}

	conv, _ := store.Conversation(id)
	seen := map[string]bool{}
	for i, m := range conv.Messages {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
		if i > 0 {
			assert.Less(t, conv.Messages[i-1].ID, m.ID)
		}
	}
}

func TestReadsAreCopies(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()

	conv, _ := store.Conversation(id)
	conv.Messages[0].Content = "tampered"
	conv.Title = "tampered"

	again, _ := store.Conversation(id)
	assert.Equal(t, model.Greeting, again.Messages[0].Content)
	assert.Equal(t, model.DefaultTitle, again.Title)
}

// =============================================================================
// REGENERATE TESTS
// =============================================================================

func seedExchange(t *testing.T, store *ConversationStore) string {
	t.Helper()
	id := store.CreateConversation()
	_, err := store.AppendUserMessage(id, "question one", nil)
	require.NoError(t, err)
	_, err = store.AppendAssistantMessage(id, "answer one")
	require.NoError(t, err)
	_, err = store.AppendUserMessage(id, "question two", nil)
	require.NoError(t, err)
	_, err = store.AppendAssistantMessage(id, "answer two")
	require.NoError(t, err)
	return id
}

func TestRegenerateAt_ReplacesInPlace(t *testing.T) {
	store := newTestStore()
	id := seedExchange(t, store)
	before, _ := store.Conversation(id)

	msg, err := store.RegenerateAt(id, 2, "better answer")
	require.NoError(t, err)

	after, _ := store.Conversation(id)
	require.Len(t, after.Messages, len(before.Messages))
	for i := range after.Messages {
		if i == 2 {
			assert.NotEqual(t, before.Messages[i].ID, after.Messages[i].ID)
			assert.Equal(t, msg.ID, after.Messages[i].ID)
			assert.Equal(t, "better answer", after.Messages[i].Content)
			continue
		}
		assert.Equal(t, before.Messages[i].ID, after.Messages[i].ID)
		assert.Equal(t, before.Messages[i].Content, after.Messages[i].Content)
	}

	// The replaced ID no longer resolves.
	_, _, err = store.Message(before.Messages[2].ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRegenerateAt_ResetsRating(t *testing.T) {
	store := newTestStore()
	id := seedExchange(t, store)
	conv, _ := store.Conversation(id)

	_, err := store.Rate(conv.Messages[4].ID, model.RatingDown)
	require.NoError(t, err)

	msg, err := store.RegenerateAt(id, 4, "retry")
	require.NoError(t, err)
	assert.Equal(t, model.RatingNone, msg.Rating)

	conv, _ = store.Conversation(id)
	assert.Equal(t, "retry", conv.LastMessagePreview)
}

func TestRegenerateAt_InvalidIndex(t *testing.T) {
	store := newTestStore()
	id := seedExchange(t, store)
	before, _ := store.Conversation(id)

	tests := []struct {
		name  string
		index int
	}{
		{"greeting has no user predecessor", 0},
		{"user message", 1},
		{"negative", -1},
		{"past end", 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.RegenerateAt(id, tc.index, "x")
			assert.ErrorIs(t, err, errs.ErrInvalidIndex)
		})
	}

	after, _ := store.Conversation(id)
	assert.Equal(t, before, after)
}

func TestRegenerateAt_AssistantAfterAssistant(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	_, err := store.AppendAssistantMessage(id, "unprompted")
	require.NoError(t, err)

	_, err = store.RegenerateAt(id, 1, "x")
	assert.ErrorIs(t, err, errs.ErrInvalidIndex)
}

func TestRegenerationTargetAndReplace(t *testing.T) {
	store := newTestStore()
	id := seedExchange(t, store)

	targetID, prompt, err := store.RegenerationTarget(id, 2)
	require.NoError(t, err)
	assert.Equal(t, "question one", prompt)

	msg, err := store.ReplaceMessage(id, targetID, "async answer")
	require.NoError(t, err)

	conv, _ := store.Conversation(id)
	assert.Equal(t, msg.ID, conv.Messages[2].ID)
	assert.Len(t, conv.Messages, 5)
}

func TestReplaceMessage_VanishedTargetIsNoop(t *testing.T) {
	store := newTestStore()
	id := seedExchange(t, store)

	targetID, _, err := store.RegenerationTarget(id, 2)
	require.NoError(t, err)
	require.NoError(t, store.ClearConversation(id))
	before, _ := store.Conversation(id)

	_, err = store.ReplaceMessage(id, targetID, "late")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	after, _ := store.Conversation(id)
	assert.Equal(t, before, after)

	store.CreateConversation()
	require.NoError(t, store.DeleteConversation(id))
	_, err = store.ReplaceMessage(id, targetID, "later")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// =============================================================================
// RATING TESTS
// =============================================================================

func TestRate_Toggles(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	conv, _ := store.Conversation(id)
	msgID := conv.Messages[0].ID

	r, err := store.Rate(msgID, model.RatingUp)
	require.NoError(t, err)
	assert.Equal(t, model.RatingUp, r)

	r, err = store.Rate(msgID, model.RatingUp)
	require.NoError(t, err)
	assert.Equal(t, model.RatingNone, r)

	_, err = store.Rate(msgID, model.RatingUp)
	require.NoError(t, err)
	r, err = store.Rate(msgID, model.RatingDown)
	require.NoError(t, err)
	assert.Equal(t, model.RatingDown, r)

	msg, _, err := store.Message(msgID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingDown, msg.Rating)
}

func TestRate_Errors(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	conv, _ := store.Conversation(id)

	_, err := store.Rate(conv.Messages[0].ID, model.RatingNone)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	_, err = store.Rate("missing", model.RatingUp)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// =============================================================================
// PREVIEW, LIST AND SEARCH TESTS
// =============================================================================

func TestSetAttachmentPreview(t *testing.T) {
	store := newTestStore()
	id := store.CreateConversation()
	att := model.Attachment{ID: "img-1", Name: "a.png", MimeType: "image/png"}
	msg, err := store.AppendUserMessage(id, "look", []model.Attachment{att})
	require.NoError(t, err)
	assert.Nil(t, msg.Attachments[0].Preview)

	assert.True(t, store.SetAttachmentPreview("img-1", model.Preview{DataURL: "data:image/png;base64,AA==", Width: 1, Height: 1}))
	assert.False(t, store.SetAttachmentPreview("unknown", model.Preview{}))

	got, _, err := store.Message(msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Attachments[0].Preview)
	assert.Equal(t, 1, got.Attachments[0].Preview.Width)
}

func TestListAndSearch(t *testing.T) {
	store := newTestStore()
	a := store.CreateConversation()
	b := store.CreateConversation()
	_, err := store.AppendUserMessage(a, "Go generics question", nil)
	require.NoError(t, err)
	_, err = store.AppendAssistantMessage(b, "something about Rust lifetimes")
	require.NoError(t, err)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].ID)
	assert.Equal(t, a, list[1].ID)

	assert.Equal(t, []string{a, b}, []string{store.Conversations()[0].ID, store.Conversations()[1].ID})

	found := store.Search("GENERICS")
	require.Len(t, found, 1)
	assert.Equal(t, a, found[0].ID)

	assert.Len(t, store.Search(""), 2)

	byContent := store.SearchMessages("lifetimes")
	require.Len(t, byContent, 1)
	assert.Equal(t, b, byContent[0].ID)

	greeted := store.SearchMessages("assistant")
	assert.Len(t, greeted, 2)
}

func TestConcurrentMutations(t *testing.T) {
	store := NewConversationStore()
	id := store.CreateConversation()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.AppendUserMessage(id, fmt.Sprintf("u%d", i), nil)
			_, _ = store.AppendAssistantMessage(id, fmt.Sprintf("a%d", i))
		}(i)
	}
	wg.Wait()

	conv, err := store.Conversation(id)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 101)
}
