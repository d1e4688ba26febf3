package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ChatRequest is the part of a chat completion request the mock inspects
type ChatRequest struct {
	Path          string
	Authorization string
	Model         string  `json:"model"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float32 `json:"temperature"`
	Messages      []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// Prompt returns the content of the first message
func (r ChatRequest) Prompt() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Content
}

// ChatReply is what the mock answers to one request
type ChatReply struct {
	// Status defaults to 200
	Status  int
	Content string
	// Delay holds the response back; it ends early if the client goes away
	Delay time.Duration
}

// ChatReplyFunc decides the reply to the call-th request (1-based)
type ChatReplyFunc func(call int, req ChatRequest) ChatReply

// MockChatServer mocks an OpenAI-compatible chat completions endpoint
type MockChatServer struct {
	*httptest.Server

	reply ChatReplyFunc

	mu       sync.Mutex
	requests []ChatRequest

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

// NewMockChatServer starts a mock endpoint that is closed with the test
func NewMockChatServer(t *testing.T, reply ChatReplyFunc) *MockChatServer {
	t.Helper()

	m := &MockChatServer{reply: reply}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Close)
	return m
}

func (m *MockChatServer) handle(w http.ResponseWriter, r *http.Request) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
		return
	}
	req.Path = r.URL.Path
	req.Authorization = r.Header.Get("Authorization")

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	call := int(m.calls.Add(1))
	reply := m.reply(call, req)

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": fmt.Sprintf("mock failure on call %d", call),
				"type":    "server_error",
			},
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      fmt.Sprintf("chatcmpl-%d", call),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": reply.Content,
				},
			},
		},
	})
}

// Calls returns the number of requests received
func (m *MockChatServer) Calls() int {
	return int(m.calls.Load())
}

// PeakInFlight returns the largest number of concurrent requests seen
func (m *MockChatServer) PeakInFlight() int {
	return int(m.peak.Load())
}

// Requests returns a copy of the received requests in arrival order
func (m *MockChatServer) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}

var numberedLine = regexp.MustCompile(`^\d+\. (.*)$`)

// PromptKeywords extracts the keywords of a numbered prompt
func PromptKeywords(prompt string) []string {
	var out []string
	for _, line := range strings.Split(prompt, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// PrefixReply answers every prompt with "<n>. <prefix><keyword>" lines
func PrefixReply(prefix string) ChatReplyFunc {
	return func(_ int, req ChatRequest) ChatReply {
		keywords := PromptKeywords(req.Prompt())
		lines := make([]string, len(keywords))
		for i, kw := range keywords {
			lines[i] = fmt.Sprintf("%d. %s%s", i+1, prefix, kw)
		}
		return ChatReply{Content: strings.Join(lines, "\n")}
	}
}
