// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes an entry in the model picker.
// The chat core never talks to these models; the choice is recorded on the
// conversation and passed to the response source as metadata.
type ModelInfo struct {
	// ID is the stable identifier stored on conversations.
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who provides the model
	Provider string `json:"provider"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// DefaultModel is the catalog ID used for new conversations.
const DefaultModel = "gpt-4.1"

// Models is the catalog in display order.
var Models = []ModelInfo{
	{ID: "gpt-4.1", Name: "GPT-4.1", Provider: "OpenAI", Description: "Most capable model"},
	{ID: "gpt-3.5", Name: "GPT-3.5 Turbo", Provider: "OpenAI", Description: "Fast and efficient"},
	{ID: "claude-3", Name: "Claude-3", Provider: "Anthropic", Description: "Thoughtful responses"},
	{ID: "gemini", Name: "Gemini Pro", Provider: "Google", Description: "Google's latest"},
}

// QuickPrompt is a canned starter shown on a conversation that only holds
// its greeting.
type QuickPrompt struct {
	Label  string
	Prompt string
}

// QuickPrompts in display order.
var QuickPrompts = []QuickPrompt{
	{Label: "Explain a complex topic", Prompt: "Explain quantum computing in simple terms"},
	{Label: "Help me write", Prompt: "Help me write a professional email"},
	{Label: "Analyze data", Prompt: "Help me analyze this data and find insights"},
	{Label: "Creative ideas", Prompt: "Give me creative ideas for a project"},
	{Label: "Debug code", Prompt: "Help me debug this code"},
	{Label: "Learn something", Prompt: "Teach me about machine learning basics"},
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by ID or display name, case-insensitively.
// Returns the ModelInfo and true if found, otherwise empty ModelInfo and false.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	for _, info := range Models {
		if strings.EqualFold(info.ID, nameOrID) || strings.EqualFold(info.Name, nameOrID) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ModelIDs returns the catalog IDs in display order.
func ModelIDs() []string {
	ids := make([]string, len(Models))
	for i, info := range Models {
		ids[i] = info.ID
	}
	return ids
}
