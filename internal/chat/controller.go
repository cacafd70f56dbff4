// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-chat/internal/attach"
	"github.com/jeranaias/rigrun-chat/internal/clipboard"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/extract"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/respond"
	"github.com/jeranaias/rigrun-chat/internal/storage"
	"github.com/jeranaias/rigrun-chat/internal/tasks"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultReplyTimeout bounds one reply generation.
	DefaultReplyTimeout = 30 * time.Second

	// copyTimeout bounds one clipboard write.
	copyTimeout = 5 * time.Second

	// mutationBuffer is the capacity of the mutation queue.
	mutationBuffer = 64

	// taskHistory is how many finished jobs an owned runner remembers.
	taskHistory = 100

	// eventBuffer is the capacity of the event channel. Events beyond it
	// are dropped; front-ends re-read the store on the next event anyway.
	eventBuffer = 128

	taskKindReply     = "reply"
	taskKindClipboard = "clipboard"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errs.New(errs.KindInvalidState, "chat", "controller is closed")

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Source produces assistant replies. Required.
	Source respond.Source

	// Clipboard receives copies. Defaults to clipboard.Default().
	Clipboard clipboard.Sink

	// Runner executes asynchronous jobs. When nil the controller starts
	// its own with Workers slots and stops it on Close.
	Runner  *tasks.Runner
	Workers int

	// ReplyTimeout bounds each reply. Zero means DefaultReplyTimeout.
	ReplyTimeout time.Duration

	// Limiter throttles reply generation. Nil means unlimited.
	Limiter *rate.Limiter

	// MaxAttachmentSize is passed to the attachment pipeline. Zero means
	// no limit.
	MaxAttachmentSize int64

	Logger *slog.Logger
}

// OptionsFromConfig fills the tunables of Options from the loaded config.
// Source and Clipboard are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:           cfg.Attachments.Workers,
		ReplyTimeout:      cfg.Chat.ReplyTimeout(),
		Limiter:           NewLimiter(cfg.Chat.RepliesPerMinute, cfg.Chat.ReplyBurst),
		MaxAttachmentSize: cfg.Attachments.MaxSizeBytes(),
	}
}

// NewLimiter builds a reply limiter. A non-positive rate disables limiting.
func NewLimiter(perMinute float64, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), max(burst, 1))
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller coordinates the conversation store with asynchronous work.
//
// Every store mutation made by the controller runs on one goroutine that
// drains the mutation queue. Public methods post their mutation and wait
// for it; finished jobs post theirs and return. A reply is always applied
// to the conversation it was requested for.
type Controller struct {
	store    *storage.ConversationStore
	source   respond.Source
	sink     clipboard.Sink
	runner   *tasks.Runner
	ownsRun  bool
	pipeline *attach.Pipeline
	draft    *Draft
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger

	// queueMu guards closed and sends on mutations.
	queueMu   sync.RWMutex
	closed    bool
	mutations chan func()
	loopDone  chan struct{}
	closeOnce sync.Once

	events chan Event

	composingMu sync.Mutex
	composing   map[string]int
}

// New builds a controller over store and starts its mutation loop.
func New(store *storage.ConversationStore, opts Options) (*Controller, error) {
	if store == nil {
		return nil, errs.New(errs.KindInvalidState, "new controller", "store is required")
	}
	if opts.Source == nil {
		return nil, errs.New(errs.KindInvalidState, "new controller", "reply source is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Clipboard
	if sink == nil {
		sink = clipboard.Default()
	}
	timeout := opts.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	c := &Controller{
		store:     store,
		source:    opts.Source,
		sink:      sink,
		runner:    opts.Runner,
		draft:     NewDraft(),
		limiter:   limiter,
		timeout:   timeout,
		logger:    logger,
		mutations: make(chan func(), mutationBuffer),
		loopDone:  make(chan struct{}),
		events:    make(chan Event, eventBuffer),
		composing: make(map[string]int),
	}

	if c.runner == nil {
		queue := tasks.NewQueueWithOptions(taskHistory, 0)
		c.runner = tasks.NewRunnerWithOptions(queue, tasks.RunnerOptions{
			MaxConcurrent: opts.Workers,
			Logger:        logger,
		})
		c.runner.Start()
		c.ownsRun = true
	}

	pipeOpts := []attach.Option{attach.WithLogger(logger)}
	if opts.MaxAttachmentSize > 0 {
		pipeOpts = append(pipeOpts, attach.WithMaxSize(opts.MaxAttachmentSize))
	}
	c.pipeline = attach.NewPipeline(c.runner, c.deliverPreview, pipeOpts...)

	go c.loop()
	return c, nil
}

// Store returns the underlying conversation store.
func (c *Controller) Store() *storage.ConversationStore {
	return c.store
}

// Draft returns the composer draft.
func (c *Controller) Draft() *Draft {
	return c.draft
}

// Events delivers refresh notifications. The channel is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Runner returns the runner executing the controller's jobs.
func (c *Controller) Runner() *tasks.Runner {
	return c.runner
}

// Close stops the runner if the controller owns it, applies every
// mutation already posted, and closes the event channel. With an owned
// runner, in-flight replies are canceled and reported as failures. With a
// runner from Options.Runner, jobs keep running and results that arrive
// after Close are dropped.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		if c.ownsRun {
			c.runner.Stop()
		}

		c.queueMu.Lock()
		c.closed = true
		close(c.mutations)
		c.queueMu.Unlock()

		<-c.loopDone
		close(c.events)
	})
}

// =============================================================================
// MUTATION QUEUE
// =============================================================================

func (c *Controller) loop() {
	defer close(c.loopDone)
	for fn := range c.mutations {
		fn()
	}
}

// post enqueues fn. It reports false once the controller is closed.
func (c *Controller) post(fn func()) bool {
	c.queueMu.RLock()
	defer c.queueMu.RUnlock()
	if c.closed {
		return false
	}
	c.mutations <- fn
	return true
}

// exec runs fn on the mutation loop and waits for it. It must not be
// called from the loop itself.
func (c *Controller) exec(fn func()) error {
	done := make(chan struct{})
	if !c.post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}
	<-done
	return nil
}

// Sync waits until every mutation posted before the call has been applied.
func (c *Controller) Sync() error {
	return c.exec(func() {})
}

// emit delivers an event without blocking the loop.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event dropped", "kind", ev.Kind.String(), "conversation", ev.ConversationID)
	}
}

// =============================================================================
// COMPOSING INDICATOR
// =============================================================================

// Composing reports whether a reply is pending for the conversation.
func (c *Controller) Composing(convID string) bool {
	c.composingMu.Lock()
	defer c.composingMu.Unlock()
	return c.composing[convID] > 0
}

// ComposingCount returns the number of pending replies across all
// conversations.
func (c *Controller) ComposingCount() int {
	c.composingMu.Lock()
	defer c.composingMu.Unlock()
	return lo.Sum(lo.Values(c.composing))
}

func (c *Controller) beginComposing(convID string) {
	c.composingMu.Lock()
	defer c.composingMu.Unlock()
	c.composing[convID]++
}

func (c *Controller) endComposing(convID string) {
	c.composingMu.Lock()
	defer c.composingMu.Unlock()
	if c.composing[convID] <= 1 {
		delete(c.composing, convID)
		return
	}
	c.composing[convID]--
}

// =============================================================================
// SENDING
// =============================================================================

// Send appends a user message to convID and requests a reply for it.
func (c *Controller) Send(convID, text string, attachments []model.Attachment) (model.Message, error) {
	var msg model.Message
	var err error
	if qerr := c.exec(func() {
		msg, err = c.sendLocked(convID, text, attachments)
	}); qerr != nil {
		return model.Message{}, qerr
	}
	return msg, err
}

// SendDraft sends the composer draft to convID and clears it on success.
// A preview that lands while the draft is being sent ends up on the
// stored attachment.
func (c *Controller) SendDraft(convID string) (model.Message, error) {
	var msg model.Message
	var err error
	if qerr := c.exec(func() {
		text, atts := c.draft.take()
		msg, err = c.sendLocked(convID, text, atts)
		if msg.ID != "" {
			c.draft.Clear()
		}
	}); qerr != nil {
		return model.Message{}, qerr
	}
	return msg, err
}

// sendLocked runs on the mutation loop.
func (c *Controller) sendLocked(convID, text string, attachments []model.Attachment) (model.Message, error) {
	msg, err := c.store.AppendUserMessage(convID, text, attachments)
	if err != nil {
		return model.Message{}, err
	}

	err = c.startReply(convID, promptFor(msg), "reply", EventReplyReady, func(reply string) (model.Message, error) {
		return c.store.AppendAssistantMessage(convID, reply)
	})
	if err != nil {
		return msg, err
	}
	return msg, nil
}

// Regenerate replaces the assistant message at index with a fresh reply to
// the user message before it. The index is validated now; the replacement
// is applied by message ID when the reply arrives, and is dropped if that
// message no longer exists.
func (c *Controller) Regenerate(convID string, index int) error {
	var err error
	if qerr := c.exec(func() {
		var targetID, prompt string
		targetID, prompt, err = c.store.RegenerationTarget(convID, index)
		if err != nil {
			return
		}
		err = c.startReply(convID, prompt, "regenerate", EventRegenerated, func(reply string) (model.Message, error) {
			return c.store.ReplaceMessage(convID, targetID, reply)
		})
	}); qerr != nil {
		return qerr
	}
	return err
}

// startReply schedules reply generation. apply runs on the mutation loop
// with the reply text.
func (c *Controller) startReply(convID, prompt, op string, kind EventKind, apply func(reply string) (model.Message, error)) error {
	c.beginComposing(convID)

	_, err := c.runner.Submit(taskKindReply, op+" for "+convID, func(ctx context.Context, _ *tasks.Task) error {
		reply, genErr := c.generate(ctx, prompt)
		posted := c.post(func() {
			defer c.endComposing(convID)
			if genErr != nil {
				c.replyFailed(convID, op, genErr)
				return
			}
			msg, applyErr := apply(reply)
			switch {
			case errors.Is(applyErr, errs.ErrNotFound):
				c.logger.Info("reply target gone, dropping reply", "op", op, "conversation", convID, "error", applyErr)
			case applyErr != nil:
				c.logger.Error("applying reply failed", "op", op, "conversation", convID, "error", applyErr)
			default:
				c.emit(Event{Kind: kind, ConversationID: convID, MessageID: msg.ID})
			}
		})
		if !posted {
			c.endComposing(convID)
			c.logger.Debug("reply arrived after close", "op", op, "conversation", convID)
		}
		return genErr
	})
	if err != nil {
		c.endComposing(convID)
		return errs.Wrap(errs.KindExternalFailure, op, err)
	}
	return nil
}

func (c *Controller) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for reply slot: %w", err)
	}
	reply, err := c.source.GenerateReply(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("reply timed out after %v: %w", c.timeout, err)
		}
		return "", err
	}
	return reply, nil
}

func (c *Controller) replyFailed(convID, op string, err error) {
	c.logger.Warn("reply failed", "op", op, "conversation", convID, "error", err)
	c.emit(Event{
		Kind:           EventReplyFailed,
		ConversationID: convID,
		Err:            errs.Wrap(errs.KindExternalFailure, op, err),
	})
}

// promptFor is the text sent to the reply source. Attachment-only
// messages are described by their file names.
func promptFor(msg model.Message) string {
	if text := strings.TrimSpace(msg.Content); text != "" {
		return text
	}
	names := lo.Map(msg.Attachments, func(a model.Attachment, _ int) string { return a.Name })
	return "Attached: " + strings.Join(names, ", ")
}

// =============================================================================
// RATING
// =============================================================================

// Rate applies a thumbs click to a message and returns the new rating.
func (c *Controller) Rate(messageID string, choice model.Rating) (model.Rating, error) {
	var got model.Rating
	var err error
	if qerr := c.exec(func() {
		got, err = c.store.Rate(messageID, choice)
	}); qerr != nil {
		return model.RatingNone, qerr
	}
	return got, err
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachFile reads a file and adds it to the draft.
func (c *Controller) AttachFile(path string) (model.Attachment, error) {
	blob, err := c.pipeline.ReadFile(path)
	if err != nil {
		return model.Attachment{}, err
	}
	return c.AttachBlob(blob)
}

// AttachPasted adds pasted image data to the draft.
func (c *Controller) AttachPasted(data []byte, mimeType string) (model.Attachment, error) {
	var att model.Attachment
	var err error
	if qerr := c.exec(func() {
		att, err = c.pipeline.IngestPasted(data, mimeType, time.Now())
		if err == nil {
			c.draft.Add(att)
		}
	}); qerr != nil {
		return model.Attachment{}, qerr
	}
	return att, err
}

// AttachBlob ingests a blob and adds it to the draft. Ingest and the draft
// update happen in one mutation so the preview job cannot land first.
func (c *Controller) AttachBlob(blob attach.Blob) (model.Attachment, error) {
	var att model.Attachment
	var err error
	if qerr := c.exec(func() {
		att, err = c.pipeline.Ingest(blob)
		if err == nil {
			c.draft.Add(att)
		}
	}); qerr != nil {
		return model.Attachment{}, qerr
	}
	return att, err
}

// RemoveAttachment drops a pending attachment from the draft.
func (c *Controller) RemoveAttachment(id string) bool {
	return c.draft.Remove(id)
}

// deliverPreview is the pipeline's PreviewFunc. It runs on a job
// goroutine and hands the preview to the mutation loop.
func (c *Controller) deliverPreview(attachmentID string, preview model.Preview) {
	c.post(func() {
		if c.store.SetAttachmentPreview(attachmentID, preview) || c.draft.SetPreview(attachmentID, preview) {
			c.emit(Event{Kind: EventPreviewReady, AttachmentID: attachmentID})
			return
		}
		c.logger.Debug("preview for unknown attachment", "attachment", attachmentID)
	})
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// CopyBlock copies a code block, or a table in format, from an assistant
// message. The text is taken from the parsed message, never from rendered
// output. The write itself is asynchronous; its outcome arrives as
// EventCopied or EventCopyFailed.
func (c *Controller) CopyBlock(messageID, blockID string, format extract.Format) error {
	msg, _, err := c.store.Message(messageID)
	if err != nil {
		return err
	}
	node := render.ProjectText(msg.Content, render.State{}).Find(blockID)
	if node == nil {
		return errs.New(errs.KindNotFound, "copy block", fmt.Sprintf("block %s not found in message %s", blockID, messageID))
	}
	text, err := node.Copy(format)
	if err != nil {
		return err
	}
	return c.copyText(Event{MessageID: messageID, BlockID: blockID}, text)
}

// CopyMessage copies a message's full content.
func (c *Controller) CopyMessage(messageID string) error {
	msg, _, err := c.store.Message(messageID)
	if err != nil {
		return err
	}
	return c.copyText(Event{MessageID: messageID}, msg.Content)
}

func (c *Controller) copyText(ev Event, text string) error {
	_, err := c.runner.Submit(taskKindClipboard, "copy "+ev.MessageID, func(ctx context.Context, _ *tasks.Task) error {
		ctx, cancel := context.WithTimeout(ctx, copyTimeout)
		defer cancel()

		writeErr := c.sink.WriteText(ctx, text)
		c.post(func() {
			out := ev
			if writeErr != nil {
				c.logger.Warn("clipboard write failed", "message", ev.MessageID, "block", ev.BlockID, "error", writeErr)
				out.Kind = EventCopyFailed
				out.Err = errs.Wrap(errs.KindExternalFailure, "copy", writeErr)
			} else {
				out.Kind = EventCopied
			}
			c.emit(out)
		})
		return writeErr
	})
	if err != nil {
		return errs.Wrap(errs.KindExternalFailure, "copy", err)
	}
	return nil
}
