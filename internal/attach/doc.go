// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach turns raw blobs into message attachments.
//
// Ingestion is synchronous and cheap: it names, sizes and classifies the
// blob and returns an Attachment with no preview. For images a background
// task builds a data URL preview and hands it to the PreviewFunc; the
// caller decides how that lands in the store.
//
// # Usage
//
//	p := attach.NewPipeline(runner, func(id string, pv model.Preview) {
//	    store.SetAttachmentPreview(id, pv)
//	})
//	att, err := p.IngestFile("diagram.png")
package attach
