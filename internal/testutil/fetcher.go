// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/llbbl/repstudy/internal/pipeline"
)

// CannedFetcher serves pre-built pages in order. Page i is returned for the
// i-th call regardless of cursor; calls past the last page return an empty page.
type CannedFetcher[T any] struct {
	mu      sync.Mutex
	Pages   []pipeline.Page[T]
	Errors  map[int]error // 1-based call number -> error
	Cursors []pipeline.Cursor
}

// NewCannedFetcher splits items into pages of pageSize. The last page reports
// hasNextPage=false.
func NewCannedFetcher[T any](items []T, pageSize int) *CannedFetcher[T] {
	f := &CannedFetcher[T]{Errors: map[int]error{}}
	for start := 0; start < len(items); start += pageSize {
		end := min(start+pageSize, len(items))
		n := len(f.Pages) + 1
		f.Pages = append(f.Pages, pipeline.Page[T]{
			Items:       items[start:end],
			HasNextPage: end < len(items),
			NextCursor:  pipeline.NewCursor(fmt.Sprintf("cursor-%d", n)),
		})
	}
	return f
}

// FailOn makes the n-th call (1-based) return err.
func (f *CannedFetcher[T]) FailOn(n int, err error) *CannedFetcher[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[n] = err
	return f
}

// Fetch implements pipeline.Fetcher.
func (f *CannedFetcher[T]) Fetch(ctx context.Context, pageSize int, cursor pipeline.Cursor) (pipeline.Page[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Cursors = append(f.Cursors, cursor)
	call := len(f.Cursors)

	if err := ctx.Err(); err != nil {
		return pipeline.Page[T]{}, err
	}
	if err, ok := f.Errors[call]; ok {
		return pipeline.Page[T]{}, err
	}
	if call > len(f.Pages) {
		return pipeline.Page[T]{}, nil
	}
	return f.Pages[call-1], nil
}

// CallCount returns the number of Fetch calls made.
func (f *CannedFetcher[T]) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Cursors)
}

// NoSleep is a pipeline.Sleeper that returns immediately.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
