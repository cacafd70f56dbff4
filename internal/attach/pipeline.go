// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF for DecodeConfig
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/tasks"
)

// =============================================================================
// TYPES
// =============================================================================

// Blob is raw content handed over by the front-end: a picked file or a
// pasted image.
type Blob struct {
	Name     string
	MimeType string
	Data     []byte
}

// PreviewFunc receives a finished preview. It is called from a background
// task goroutine.
type PreviewFunc func(attachmentID string, preview model.Preview)

// Scheduler runs preview jobs in the background.
type Scheduler interface {
	Submit(kind, description string, job tasks.Job) (*tasks.Task, error)
}

// DefaultName is used when a blob arrives without a usable name.
const DefaultName = "attachment"

// Pipeline ingests blobs into attachments.
type Pipeline struct {
	scheduler Scheduler
	onPreview PreviewFunc
	maxSize   int64
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxSize rejects blobs larger than n bytes. Zero means no limit.
func WithMaxSize(n int64) Option {
	return func(p *Pipeline) { p.maxSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline that schedules image previews on
// scheduler and delivers them to onPreview.
func NewPipeline(scheduler Scheduler, onPreview PreviewFunc, opts ...Option) *Pipeline {
	p := &Pipeline{
		scheduler: scheduler,
		onPreview: onPreview,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// =============================================================================
// INGESTION
// =============================================================================

// Ingest captures a blob as an attachment. It returns before any preview
// exists; for image/* blobs a preview task is scheduled.
func (p *Pipeline) Ingest(blob Blob) (model.Attachment, error) {
	size := int64(len(blob.Data))
	if p.maxSize > 0 && size > p.maxSize {
		return model.Attachment{}, errs.New(errs.KindInvalidState, "ingest",
			fmt.Sprintf("%s is %s, limit is %s", blob.Name, model.FormatFileSize(size), model.FormatFileSize(p.maxSize)))
	}

	att := model.Attachment{
		ID:        "att_" + uuid.NewString(),
		Name:      CleanName(blob.Name),
		SizeBytes: size,
		MimeType:  detectMime(blob.MimeType, blob.Data),
		Data:      blob.Data,
	}

	if att.IsImage() {
		p.schedulePreview(att)
	}

	p.logger.Debug("attachment ingested",
		"id", att.ID, "name", att.Name, "mime", att.MimeType, "size", att.SizeBytes)
	return att, nil
}

// IngestPasted captures pasted image data, naming it after the paste time.
func (p *Pipeline) IngestPasted(data []byte, mimeType string, now time.Time) (model.Attachment, error) {
	mimeType = detectMime(mimeType, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return model.Attachment{}, errs.New(errs.KindInvalidState, "ingest paste",
			"pasted content is "+mimeType+", not an image")
	}
	return p.Ingest(Blob{Name: ScreenshotName(now), MimeType: mimeType, Data: data})
}

// IngestFile reads a regular file from disk and ingests it.
func (p *Pipeline) IngestFile(path string) (model.Attachment, error) {
	blob, err := p.ReadFile(path)
	if err != nil {
		return model.Attachment{}, err
	}
	return p.Ingest(blob)
}

// ReadFile loads a regular file into a Blob, enforcing the size limit
// before reading. The mime type is left for Ingest to sniff.
func (p *Pipeline) ReadFile(path string) (Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Blob{}, errs.Wrap(errs.KindNotFound, "read file", err)
		}
		return Blob{}, errs.Wrap(errs.KindExternalFailure, "read file", err)
	}
	if !info.Mode().IsRegular() {
		return Blob{}, errs.New(errs.KindInvalidState, "read file", path+" is not a regular file")
	}
	if p.maxSize > 0 && info.Size() > p.maxSize {
		return Blob{}, errs.New(errs.KindInvalidState, "read file",
			fmt.Sprintf("%s is %s, limit is %s", filepath.Base(path), model.FormatFileSize(info.Size()), model.FormatFileSize(p.maxSize)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Blob{}, errs.Wrap(errs.KindExternalFailure, "read file", err)
	}
	return Blob{Name: filepath.Base(path), Data: data}, nil
}

// ScreenshotName names a pasted image.
func ScreenshotName(now time.Time) string {
	return "Screenshot-" + now.Format("2006-01-02 15-04-05") + ".png"
}

// CleanName normalizes a blob name to NFC, drops any directory part and
// control characters, and falls back to DefaultName.
func CleanName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return DefaultName
	}
	return name
}

// detectMime keeps a declared type, lowercased and without parameters, or
// sniffs the content when none was given.
func detectMime(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		declared = mimetype.Detect(data).String()
	}
	base, _, _ := strings.Cut(declared, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// =============================================================================
// PREVIEWS
// =============================================================================

func (p *Pipeline) schedulePreview(att model.Attachment) {
	if p.scheduler == nil || p.onPreview == nil {
		return
	}

	id, mimeType, data := att.ID, att.MimeType, att.Data
	_, err := p.scheduler.Submit("preview", "Preview "+att.Name, func(ctx context.Context, _ *tasks.Task) error {
		preview := BuildPreview(data, mimeType)
		if err := ctx.Err(); err != nil {
			return err
		}
		p.onPreview(id, preview)
		return nil
	})
	if err != nil {
		// The attachment is still usable without a preview.
		p.logger.Warn("preview not scheduled", "attachment", id, "error", err)
	}
}

// BuildPreview encodes data as a data: URL and decodes the image header
// for its dimensions. Undecodable images keep zero dimensions.
func BuildPreview(data []byte, mimeType string) model.Preview {
	pv := model.Preview{
		DataURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		pv.Width, pv.Height = cfg.Width, cfg.Height
	}
	return pv
}
