// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

// Package pipeline drives a bounded, cursor-paginated collection run and
// dispatches every collected item to an injected processor.
package pipeline

import (
	"context"
	"encoding/json"
)

// Cursor is an opaque continuation token issued by a paginated API.
// The zero value means "no cursor", which is distinct from an empty-string cursor.
type Cursor struct {
	value string
	valid bool
}

// NewCursor wraps a server-issued token.
func NewCursor(token string) Cursor {
	return Cursor{value: token, valid: true}
}

// IsZero reports whether the cursor is absent.
func (c Cursor) IsZero() bool {
	return !c.valid
}

// String returns the raw token, or "" when absent. Only for logging.
func (c Cursor) String() string {
	return c.value
}

// MarshalJSON encodes an absent cursor as null.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON decodes null as an absent cursor.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Cursor{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = NewCursor(s)
	return nil
}

// Page is one batch of results plus continuation state.
// NextCursor is only meaningful when HasNextPage is true.
type Page[T any] struct {
	Items       []T
	HasNextPage bool
	NextCursor  Cursor
}

// Fetcher issues one paginated query for the given cursor.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, pageSize int, cursor Cursor) (Page[T], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, pageSize int, cursor Cursor) (Page[T], error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, pageSize int, cursor Cursor) (Page[T], error) {
	return f(ctx, pageSize, cursor)
}

// Processor performs the expensive per-item side effect.
// A non-nil error marks the item as failed; it never aborts the run.
type Processor[T any] interface {
	Process(ctx context.Context, item T) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc[T any] func(ctx context.Context, item T) error

// Process calls f.
func (f ProcessorFunc[T]) Process(ctx context.Context, item T) error {
	return f(ctx, item)
}

// Chain runs processors in order and stops at the first error, which becomes
// the item's failure.
func Chain[T any](processors ...Processor[T]) Processor[T] {
	return ProcessorFunc[T](func(ctx context.Context, item T) error {
		for _, p := range processors {
			if err := p.Process(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
}
