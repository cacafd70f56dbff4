// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errs defines the error taxonomy shared by the chat core.
//
// Every error returned across a package boundary carries a Kind. Callers
// compare with errors.Is against the sentinels:
//
//	if errors.Is(err, errs.ErrInvalidState) {
//	    // empty submission, deleting the last conversation, ...
//	}
package errs

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies an error.
type Kind int

const (
	// KindInvalidState means the operation violates a store invariant.
	KindInvalidState Kind = iota + 1

	// KindInvalidIndex means a regenerate target does not sit after a user message.
	KindInvalidIndex

	// KindExternalFailure means a collaborator (clipboard, response source) failed.
	KindExternalFailure

	// KindNotFound means the referenced conversation, message or attachment is gone.
	KindNotFound
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidState:
		return "invalid state"
	case KindInvalidIndex:
		return "invalid index"
	case KindExternalFailure:
		return "external failure"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. Sentinels carry
// no Op, so errors.Is(err, ErrInvalidState) matches any invalid-state error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrInvalidIndex    = &Error{Kind: KindInvalidIndex}
	ErrExternalFailure = &Error{Kind: KindExternalFailure}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// New creates a classified error with a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap classifies an existing error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
