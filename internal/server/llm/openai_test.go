package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newStreamServer returns an httptest server that answers every chat
// completion request with an SSE stream of the given deltas.
func newStreamServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i, d := range deltas {
			fmt.Fprintf(w,
				"data: {\"id\":\"%d\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n",
				i, d)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStream_DeliversChunksInOrder(t *testing.T) {
	deltas := []string{"Hel", "lo ", "world"}
	srv := newStreamServer(t, deltas)
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", "test-model")

	ch, err := c.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	var got []string
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("unexpected chunk error: %v", chunk.Err)
		}
		got = append(got, chunk.Content)
	}

	if len(got) != len(deltas) {
		t.Fatalf("got %d chunks, want %d: %v", len(got), len(deltas), got)
	}
	for i := range deltas {
		if got[i] != deltas[i] {
			t.Fatalf("chunk %d out of order: got %q want %q", i, got[i], deltas[i])
		}
	}
}

func TestStream_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", "test-model")

	_, err := c.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected error for failing upstream, got nil")
	}
}

func TestComplete_ReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", "test-model")

	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}
