package usecases_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/core/usecases"
)

// --- Mock ChatStreamer ---

type mockStreamer struct {
	streamFn func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error
}

func (m *mockStreamer) StreamCompletion(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
	if m.streamFn != nil {
		return m.streamFn(ctx, system, prompt, onDelta)
	}
	return nil
}

// --- Tests ---

func TestChatService_Stream_ForwardsDeltas(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			for _, tok := range []string{"La ", "zona ", "quemada"} {
				if err := onDelta(tok); err != nil {
					return err
				}
			}
			return nil
		},
	}

	svc := usecases.NewChatService(streamer, "")

	var sb strings.Builder
	var finish *domain.FinishInfo
	err := svc.Stream(context.Background(),
		[]domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}},
		func(delta string) error { sb.WriteString(delta); return nil },
		func(fi domain.FinishInfo) { finish = &fi },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sb.String(); got != "La zona quemada" {
		t.Errorf("unexpected streamed text: %q", got)
	}
	if finish == nil {
		t.Fatal("finish callback was not invoked")
	}
	if finish.Aborted {
		t.Error("expected Aborted=false on clean completion")
	}
}

func TestChatService_Stream_UsesDefaultSystemPrompt(t *testing.T) {
	var gotSystem string
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			gotSystem = system
			return nil
		},
	}

	svc := usecases.NewChatService(streamer, "")
	_ = svc.Stream(context.Background(),
		[]domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}}, nil, nil)

	if !strings.Contains(gotSystem, "incendios forestales") {
		t.Errorf("expected the built-in system prompt, got %q", gotSystem)
	}
}

func TestChatService_Stream_AbortIsNotAnError(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			_ = onDelta("partial")
			return context.Canceled
		},
	}

	svc := usecases.NewChatService(streamer, "")

	var finish *domain.FinishInfo
	err := svc.Stream(context.Background(),
		[]domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}},
		func(string) error { return nil },
		func(fi domain.FinishInfo) { finish = &fi },
	)
	if err != nil {
		t.Fatalf("abort must not surface as an error, got %v", err)
	}
	if finish == nil || !finish.Aborted {
		t.Fatalf("finish callback should observe the abort, got %+v", finish)
	}
}

func TestChatService_Stream_ClientGoneCountsAsAbort(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			// The delta callback fails because the client closed the
			// response stream mid-write.
			return onDelta("partial")
		},
	}

	svc := usecases.NewChatService(streamer, "")

	var finish *domain.FinishInfo
	err := svc.Stream(context.Background(),
		[]domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}},
		func(string) error {
			return fmt.Errorf("%w: broken pipe", domain.ErrStreamClosed)
		},
		func(fi domain.FinishInfo) { finish = &fi },
	)
	if err != nil {
		t.Fatalf("client disconnect must not surface as an error, got %v", err)
	}
	if finish == nil || !finish.Aborted {
		t.Fatalf("finish callback should observe the abort, got %+v", finish)
	}
}

func TestChatService_Stream_DeadlineCountsAsAbort(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			return fmt.Errorf("stream recv: %w", context.DeadlineExceeded)
		},
	}

	svc := usecases.NewChatService(streamer, "")

	var finish *domain.FinishInfo
	err := svc.Stream(context.Background(), []domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}},
		nil, func(fi domain.FinishInfo) { finish = &fi })
	if err != nil {
		t.Fatalf("deadline must not surface as an error, got %v", err)
	}
	if finish == nil || !finish.Aborted {
		t.Fatalf("expected Aborted=true, got %+v", finish)
	}
}

func TestChatService_Stream_UpstreamFailure(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			return fmt.Errorf("upstream: connection refused")
		},
	}

	svc := usecases.NewChatService(streamer, "")

	var finish *domain.FinishInfo
	err := svc.Stream(context.Background(), []domain.PromptMessage{{Role: domain.RoleUser, Content: "hola"}},
		nil, func(fi domain.FinishInfo) { finish = &fi })
	if err == nil {
		t.Fatal("expected upstream error to propagate")
	}
	if finish == nil {
		t.Fatal("finish callback must run even on failure")
	}
	if finish.Aborted {
		t.Error("upstream failure is not an abort")
	}
}

func TestToPromptMessages(t *testing.T) {
	msgs := []domain.Message{
		{ID: "m1", Role: "user", Parts: []domain.MessagePart{{Type: "text", Text: "¿Qué especies "}, {Type: "text", Text: "recolonizan?"}}},
		{ID: "m2", Role: "assistant", Parts: []domain.MessagePart{{Type: "text", Text: "Varias."}}},
		{ID: "m3", Role: "user", Parts: []domain.MessagePart{{Type: "image", Text: ""}}},
	}

	prompt, err := domain.ToPromptMessages(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prompt) != 2 {
		t.Fatalf("expected 2 prompt messages, got %d", len(prompt))
	}
	if prompt[0].Content != "¿Qué especies recolonizan?" {
		t.Errorf("text parts not concatenated: %q", prompt[0].Content)
	}
}

func TestToPromptMessages_UnknownRole(t *testing.T) {
	_, err := domain.ToPromptMessages([]domain.Message{
		{ID: "m1", Role: "tool", Parts: []domain.MessagePart{{Type: "text", Text: "x"}}},
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestToPromptMessages_Empty(t *testing.T) {
	if _, err := domain.ToPromptMessages(nil); err == nil {
		t.Fatal("expected error for empty conversation")
	}
	_, err := domain.ToPromptMessages([]domain.Message{
		{ID: "m1", Role: "user", Parts: []domain.MessagePart{{Type: "image"}}},
	})
	if err == nil {
		t.Fatal("expected error when no message has text content")
	}
}
