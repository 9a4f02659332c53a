// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// MockExecutor implements ck.CommandExecutor for testing.
// It records every java invocation; ExecuteFunc decides the response.
type MockExecutor struct {
	mu          sync.Mutex
	ExecuteFunc func(name string, args ...string) ([]byte, error)
	Calls       [][]string // Record all calls for verification
}

// NewMockExecutor creates a new MockExecutor with no default behavior.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Calls: make([][]string, 0),
	}
}

// Execute runs the configured ExecuteFunc or returns nil if not set.
// All calls are recorded in the Calls slice for verification.
func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call: first element is the command name, rest are args
	call := append([]string{name}, args...)
	m.Calls = append(m.Calls, call)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(name, args...)
	}
	return nil, nil
}

// NewCKExecutor returns a MockExecutor that behaves like a CK run producing
// report as class.csv. "java -version" succeeds without writing anything.
func NewCKExecutor(report string) *MockExecutor {
	m := NewMockExecutor()
	m.ExecuteFunc = CKReport(report)
	return m
}

// CKReport returns an ExecuteFunc that writes report to class.csv in the
// output directory CK was given as its last argument.
func CKReport(report string) func(name string, args ...string) ([]byte, error) {
	return func(name string, args ...string) ([]byte, error) {
		if len(args) == 1 && args[0] == "-version" {
			return []byte("openjdk version \"21\""), nil
		}
		out := CKOutputDir(args)
		if out == "" {
			return nil, errors.New("ck: missing output directory")
		}
		return []byte("done"), os.WriteFile(filepath.Join(out, "class.csv"), []byte(report), 0o600)
	}
}

// CKOutputDir extracts the output directory from CK arguments. CK expects it
// last and with a trailing separator.
func CKOutputDir(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// Reset clears all recorded calls.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([][]string, 0)
}

// CallCount returns the number of Execute calls made.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GetCall returns the call at the given index, or nil if out of range.
func (m *MockExecutor) GetCall(index int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.Calls) {
		return nil
	}
	return m.Calls[index]
}
