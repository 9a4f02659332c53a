// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package ck

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Cloner fetches a repository working tree into dir.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner performs shallow clones with go-git.
type GitCloner struct {
	// Depth is the number of commits to fetch. Zero means 1.
	Depth int
}

// Clone fetches the default branch at the configured depth without tags.
func (g GitCloner) Clone(ctx context.Context, url, dir string) error {
	depth := g.Depth
	if depth == 0 {
		depth = 1
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// ClonerFunc adapts a function to the Cloner interface.
type ClonerFunc func(ctx context.Context, url, dir string) error

// Clone calls f.
func (f ClonerFunc) Clone(ctx context.Context, url, dir string) error {
	return f(ctx, url, dir)
}
