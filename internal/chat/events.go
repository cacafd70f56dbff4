// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// EventKind identifies what changed after an asynchronous completion.
type EventKind int

const (
	// EventReplyReady means an assistant reply was appended.
	EventReplyReady EventKind = iota

	// EventRegenerated means an assistant message was replaced in place.
	EventRegenerated

	// EventReplyFailed means reply generation failed or timed out. The
	// store was not touched.
	EventReplyFailed

	// EventPreviewReady means an attachment preview landed, either in the
	// store or in the draft.
	EventPreviewReady

	// EventCopied means a clipboard write succeeded.
	EventCopied

	// EventCopyFailed means a clipboard write failed.
	EventCopyFailed
)

// String returns the event name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventReplyReady:
		return "reply_ready"
	case EventRegenerated:
		return "regenerated"
	case EventReplyFailed:
		return "reply_failed"
	case EventPreviewReady:
		return "preview_ready"
	case EventCopied:
		return "copied"
	case EventCopyFailed:
		return "copy_failed"
	default:
		return "unknown"
	}
}

// Event tells a front-end to refresh. Fields are set as they apply:
// BlockID only for block copies, AttachmentID only for previews.
type Event struct {
	Kind           EventKind
	ConversationID string
	MessageID      string
	BlockID        string
	AttachmentID   string
	Err            error
}

// IsFailure reports whether the event carries an error.
func (e Event) IsFailure() bool {
	return e.Kind == EventReplyFailed || e.Kind == EventCopyFailed
}
