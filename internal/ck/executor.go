// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package ck

import (
	"context"
	"os/exec"
	"time"
)

// DefaultTimeout bounds one CK invocation. Large repositories can take minutes.
const DefaultTimeout = 30 * time.Minute

// CommandExecutor is an interface for running external commands.
// This abstraction enables mocking in tests without hitting real external commands.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealExecutor implements CommandExecutor using os/exec.
type RealExecutor struct {
	Timeout time.Duration
}

// Execute runs the command and returns its combined output.
// The command is killed when ctx is cancelled or the timeout elapses.
func (r *RealExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
