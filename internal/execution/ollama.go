package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultHost is the Ollama endpoint used when none is configured.
const DefaultHost = "http://127.0.0.1:11434"

// OllamaEngine talks to a local Ollama server over its /api/chat HTTP
// API. One request per call, no streaming.
type OllamaEngine struct {
	host   string
	client *http.Client
}

// NewOllamaEngine creates an engine for the given host. The timeout
// bounds the whole exchange, including model inference time.
func NewOllamaEngine(host string, timeout time.Duration) *OllamaEngine {
	if host == "" {
		host = DefaultHost
	}
	return &OllamaEngine{
		host:   strings.TrimRight(host, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatReply struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Chat performs exactly one request/response exchange. Transport,
// timeout and endpoint-level errors are returned as errors; the caller
// converts them into failure-shaped results.
func (e *OllamaEngine) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	payload := chatPayload{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:   false,
	}
	if req.JSONFormat {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %s: %s", resp.Status, truncateBody(data))
	}

	var reply chatReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}

	slog.Debug("ollama chat complete",
		"model", reply.Model,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"content_len", len(reply.Message.Content),
	)

	return &ChatResponse{Model: reply.Model, Content: reply.Message.Content}, nil
}

func truncateBody(data []byte) string {
	const maxLen = 200
	s := string(data)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
