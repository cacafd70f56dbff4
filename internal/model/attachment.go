// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a file or pasted image sent with a user message.
// SizeBytes is len(Data) at capture time and never changes.
type Attachment struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	SizeBytes int64    `json:"size_bytes"`
	MimeType  string   `json:"mime_type"`
	Data      []byte   `json:"-"`
	Preview   *Preview `json:"preview,omitempty"`
}

// Preview is a pre-rendered thumbnail for image attachments.
type Preview struct {
	// DataURL is a data: URL of the image bytes.
	DataURL string `json:"data_url"`

	// Width and Height are zero when the image header could not be decoded.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// IsImage reports whether the attachment is eligible for a preview.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// HasPreview reports whether the background preview has landed.
func (a Attachment) HasPreview() bool {
	return a.Preview != nil
}

// FormattedSize returns the size the way the attachment chip shows it.
func (a Attachment) FormattedSize() string {
	return FormatFileSize(a.SizeBytes)
}

// Kind returns the file category used to pick an icon.
func (a Attachment) Kind() FileKind {
	return ClassifyMime(a.MimeType)
}

// Clone returns a copy that shares no mutable state with a. The blob is
// shared; it is never written after capture.
func (a Attachment) Clone() Attachment {
	out := a
	if a.Preview != nil {
		p := *a.Preview
		out.Preview = &p
	}
	return out
}

// =============================================================================
// FILE SIZE
// =============================================================================

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with base-1024 units and at most two
// decimals: 0 Bytes, 512 Bytes, 1.5 KB, 2 MB.
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := 0
	for scaled := n; scaled >= 1024 && i < len(sizeUnits)-1; scaled /= 1024 {
		i++
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// =============================================================================
// FILE KIND
// =============================================================================

// FileKind is a coarse file category derived from the mime type.
type FileKind string

const (
	FileImage        FileKind = "image"
	FilePDF          FileKind = "pdf"
	FileDocument     FileKind = "document"
	FileSpreadsheet  FileKind = "spreadsheet"
	FilePresentation FileKind = "presentation"
	FileText         FileKind = "text"
	FileArchive      FileKind = "archive"
	FileOther        FileKind = "other"
)

// ClassifyMime maps a mime type to a FileKind. Order matters: a
// "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" is a
// document by substring but shows as a spreadsheet.
func ClassifyMime(mime string) FileKind {
	m := strings.ToLower(mime)
	switch {
	case strings.HasPrefix(m, "image/"):
		return FileImage
	case strings.Contains(m, "pdf"):
		return FilePDF
	case strings.Contains(m, "excel") || strings.Contains(m, "spreadsheet"):
		return FileSpreadsheet
	case strings.Contains(m, "powerpoint") || strings.Contains(m, "presentation"):
		return FilePresentation
	case strings.Contains(m, "word") || strings.Contains(m, "document"):
		return FileDocument
	case strings.Contains(m, "text"):
		return FileText
	case strings.Contains(m, "zip") || strings.Contains(m, "rar"):
		return FileArchive
	default:
		return FileOther
	}
}

// Icon returns a short terminal-safe tag for the kind.
func (k FileKind) Icon() string {
	switch k {
	case FileImage:
		return "[img]"
	case FilePDF:
		return "[pdf]"
	case FileDocument:
		return "[doc]"
	case FileSpreadsheet:
		return "[xls]"
	case FilePresentation:
		return "[ppt]"
	case FileText:
		return "[txt]"
	case FileArchive:
		return "[zip]"
	default:
		return "[file]"
	}
}
