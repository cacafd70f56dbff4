// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/jeranaias/rigrun-chat/internal/model"
)

// Draft is the message being composed: its text and the attachments
// picked so far. It is safe for concurrent use.
type Draft struct {
	mu          sync.Mutex
	text        string
	attachments []model.Attachment
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{}
}

// SetText replaces the draft text.
func (d *Draft) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

// Text returns the draft text.
func (d *Draft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Add appends an attachment.
func (d *Draft) Add(att model.Attachment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attachments = append(d.attachments, att)
}

// Remove drops the attachment with the given ID. It reports whether one
// was found.
func (d *Draft) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, idx, found := lo.FindIndexOf(d.attachments, func(a model.Attachment) bool { return a.ID == id })
	if !found {
		return false
	}
	d.attachments = append(d.attachments[:idx], d.attachments[idx+1:]...)
	return true
}

// Attachments returns copies of the pending attachments.
func (d *Draft) Attachments() []model.Attachment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Map(d.attachments, func(a model.Attachment, _ int) model.Attachment { return a.Clone() })
}

// SetPreview stores a preview on a pending attachment. It reports whether
// the attachment is still in the draft.
func (d *Draft) SetPreview(id string, preview model.Preview) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.attachments {
		if d.attachments[i].ID == id {
			p := preview
			d.attachments[i].Preview = &p
			return true
		}
	}
	return false
}

// IsEmpty reports whether sending the draft would be rejected.
func (d *Draft) IsEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.text) == "" && len(d.attachments) == 0
}

// Clear empties the draft.
func (d *Draft) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = ""
	d.attachments = nil
}

// take returns the text and attachments and leaves the draft untouched.
func (d *Draft) take() (string, []model.Attachment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, lo.Map(d.attachments, func(a model.Attachment, _ int) model.Attachment { return a.Clone() })
}
