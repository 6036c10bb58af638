package model

import (
	"context"
	"errors"
	"testing"
)

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()

	t.Run("responses in order, last repeats", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{
			{Text: "one"},
			{Text: "two"},
		}}

		for _, want := range []string{"one", "two", "two", "two"} {
			out, err := m.Chat(ctx, nil, nil)
			if err != nil {
				t.Fatalf("chat: %v", err)
			}
			if out.Text != want {
				t.Errorf("expected %q, got %q", want, out.Text)
			}
		}
		if m.CallCount() != 4 {
			t.Errorf("expected 4 recorded calls, got %d", m.CallCount())
		}
	})

	t.Run("records messages and tools", func(t *testing.T) {
		m := &MockChatModel{}
		msgs := []Message{{Role: RoleHuman, Content: "research ai"}}
		specs := []ToolSpec{{Name: "web_search"}}

		if _, err := m.Chat(ctx, msgs, specs); err != nil {
			t.Fatalf("chat: %v", err)
		}
		if len(m.Calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(m.Calls))
		}
		if m.Calls[0].Messages[0].Content != "research ai" {
			t.Errorf("messages not recorded: %+v", m.Calls[0])
		}
		if m.Calls[0].Tools[0].Name != "web_search" {
			t.Errorf("tools not recorded: %+v", m.Calls[0])
		}
	})

	t.Run("error injection", func(t *testing.T) {
		boom := errors.New("rate limited")
		m := &MockChatModel{Err: boom}
		if _, err := m.Chat(ctx, nil, nil); !errors.Is(err, boom) {
			t.Errorf("expected injected error, got %v", err)
		}
		if m.CallCount() != 1 {
			t.Error("failing call should still be recorded")
		}
	})

	t.Run("reset restarts the sequence", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{{Text: "first"}, {Text: "second"}}}
		m.Chat(ctx, nil, nil)
		m.Chat(ctx, nil, nil)
		m.Reset()

		out, _ := m.Chat(ctx, nil, nil)
		if out.Text != "first" {
			t.Errorf("expected sequence restart, got %q", out.Text)
		}
		if m.CallCount() != 1 {
			t.Errorf("expected history cleared, got %d calls", m.CallCount())
		}
	})
}
