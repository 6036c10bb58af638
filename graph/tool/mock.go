package tool

import (
	"context"
	"sync"
)

// MockTool is a test Tool with a canned result, error injection, and call
// recording.
type MockTool struct {
	ToolName        string
	ToolDescription string
	ToolSchema      map[string]any

	// Result is returned by every Invoke, unless Err is set.
	Result string

	// Err, if set, is returned instead of Result.
	Err error

	mu    sync.Mutex
	calls []map[string]any
}

// Name implements Tool.
func (m *MockTool) Name() string { return m.ToolName }

// Description implements Tool.
func (m *MockTool) Description() string { return m.ToolDescription }

// Schema implements Tool.
func (m *MockTool) Schema() map[string]any { return m.ToolSchema }

// Invoke implements Tool, recording the args it was called with.
func (m *MockTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	m.calls = append(m.calls, args)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Result, nil
}

// Calls returns the recorded invocation args, oldest first.
func (m *MockTool) Calls() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.calls))
	copy(out, m.calls)
	return out
}
