package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp/fasthttputil"

	handler "github.com/imiranda/rebrota/internal/adapters/http"
	"github.com/imiranda/rebrota/internal/core/domain"
	"github.com/imiranda/rebrota/internal/core/usecases"
)

// ---- Mock streamer ----

type mockStreamer struct {
	streamFn func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error
}

func (m *mockStreamer) StreamCompletion(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
	if m.streamFn != nil {
		return m.streamFn(ctx, system, prompt, onDelta)
	}
	return nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func chatDeps(streamer *mockStreamer) *handler.Dependencies {
	return &handler.Dependencies{
		Detections: usecases.NewDetectionService(&mockDetectionRepo{}, nil),
		Chat:       usecases.NewChatService(streamer, ""),
	}
}

func chatBody(texts ...string) string {
	msgs := make([]domain.Message, 0, len(texts))
	for i, txt := range texts {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msgs = append(msgs, domain.Message{
			ID:    "m" + string(rune('0'+i)),
			Role:  role,
			Parts: []domain.MessagePart{{Type: "text", Text: txt}},
		})
	}
	data, _ := json.Marshal(map[string]interface{}{"messages": msgs})
	return string(data)
}

// parseFrames reads SSE data lines and decodes the JSON frames, returning
// the frame types in order plus the concatenated text deltas.
func parseFrames(t *testing.T, body string) (types []string, text string, done bool) {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			done = true
			continue
		}
		var frame struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			t.Fatalf("bad frame %q: %v", payload, err)
		}
		types = append(types, frame.Type)
		text += frame.Delta
	}
	return types, text, done
}

// ---- /api/chat tests ----

func TestChat_StreamsReply(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			for _, d := range []string{"La ", "zona ", "quemada"} {
				if err := onDelta(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	app := setupApp(chatDeps(streamer))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(chatBody("¿Qué pasó aquí?")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("expected event-stream content type, got %q", ct)
	}
	if v := resp.Header.Get("x-vercel-ai-ui-message-stream"); v != "v1" {
		t.Errorf("expected ui message stream header v1, got %q", v)
	}

	types, text, done := parseFrames(t, string(readBody(t, resp.Body)))

	want := []string{"start", "text-start", "text-delta", "text-delta", "text-delta", "text-end", "finish"}
	if len(types) != len(want) {
		t.Fatalf("expected frames %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("frame %d: expected %s, got %s (all: %v)", i, want[i], types[i], types)
		}
	}
	if text != "La zona quemada" {
		t.Errorf("unexpected streamed text: %q", text)
	}
	if !done {
		t.Error("expected terminal [DONE] line")
	}
}

func TestChat_PassesConversation(t *testing.T) {
	var gotPrompt []domain.PromptMessage
	var gotSystem string
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			gotSystem = system
			gotPrompt = prompt
			return onDelta("ok")
		},
	}
	app := setupApp(chatDeps(streamer))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(chatBody("hola", "buenas", "sigue")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp.Body)

	if len(gotPrompt) != 3 {
		t.Fatalf("expected 3 prompt messages, got %d", len(gotPrompt))
	}
	if gotPrompt[1].Role != domain.RoleAssistant || gotPrompt[1].Content != "buenas" {
		t.Errorf("unexpected prompt message: %+v", gotPrompt[1])
	}
	if !strings.Contains(gotSystem, "incendios forestales") {
		t.Errorf("expected default system prompt, got %q", gotSystem)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	app := setupApp(chatDeps(&mockStreamer{}))

	for name, body := range map[string]string{
		"not json":       "{",
		"no messages":    `{"messages":[]}`,
		"unknown role":   `{"messages":[{"id":"m0","role":"tool","parts":[{"type":"text","text":"x"}]}]}`,
		"no text parts":  `{"messages":[{"id":"m0","role":"user","parts":[]}]}`,
		"empty text":     `{"messages":[{"id":"m0","role":"user","parts":[{"type":"text","text":""}]}]}`,
		"non-text parts": `{"messages":[{"id":"m0","role":"user","parts":[{"type":"file","text":""}]}]}`,
	} {
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", name, resp.StatusCode)
		}
	}
}

func TestChat_UpstreamFailure(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			_ = onDelta("par")
			return errors.New("model unavailable")
		},
	}
	app := setupApp(chatDeps(streamer))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(chatBody("hola")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	// The stream opened with 200; failures surface as an in-stream error frame.
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := string(readBody(t, resp.Body))
	types, _, done := parseFrames(t, body)

	last := types[len(types)-1]
	if last != "error" {
		t.Errorf("expected terminal error frame, got %v", types)
	}
	if strings.Contains(body, "model unavailable") {
		t.Error("upstream error detail must not leak to the client")
	}
	if !done {
		t.Error("expected terminal [DONE] line")
	}
}

// TestChat_DeltasArriveBeforeGenerationCompletes drives the endpoint over a
// real listener: app.Test buffers the whole response, which would mask any
// middleware that forces the body stream into memory. The generator blocks
// after its first delta until the client has seen that delta on the wire, so
// the read below can only succeed if delivery is incremental.
func TestChat_DeltasArriveBeforeGenerationCompletes(t *testing.T) {
	release := make(chan struct{})
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			if err := onDelta("primera"); err != nil {
				return err
			}
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
			return onDelta("segunda")
		},
	}
	app := setupApp(chatDeps(streamer))

	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	conn, err := ln.Dial()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	body := chatBody("hola")
	fmt.Fprintf(conn,
		"POST /api/chat HTTP/1.1\r\nHost: test\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		len(body), body)

	reader := bufio.NewReader(conn)
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("first delta never arrived while generation was still running: %v", err)
		}
		if strings.Contains(line, `"text-delta"`) && strings.Contains(line, "primera") {
			break
		}
	}
	close(release)

	var rest strings.Builder
	for {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		rest.WriteString(line)
		if strings.Contains(line, "[DONE]") {
			break
		}
	}
	if !strings.Contains(rest.String(), "segunda") {
		t.Errorf("second delta missing after release: %q", rest.String())
	}
	if !strings.Contains(rest.String(), `"finish"`) {
		t.Errorf("finish frame missing: %q", rest.String())
	}
}

func TestChat_AbortEndsCleanly(t *testing.T) {
	streamer := &mockStreamer{
		streamFn: func(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(string) error) error {
			_ = onDelta("primer")
			return context.Canceled
		},
	}
	app := setupApp(chatDeps(streamer))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(chatBody("hola")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	types, _, _ := parseFrames(t, string(readBody(t, resp.Body)))

	// Abort is not an error: the stream closes with text-end/finish, no error frame.
	for _, typ := range types {
		if typ == "error" {
			t.Fatalf("abort must not produce an error frame: %v", types)
		}
	}
	last := types[len(types)-1]
	if last != "finish" {
		t.Errorf("expected finish frame last, got %v", types)
	}
}
