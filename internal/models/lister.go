package models

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/wutianlong220/keywords-tools/internal/translation"
)

// chatHints are substrings of model ids that can serve chat completions
var chatHints = []string{"chat", "gpt", "deepseek", "qwen", "glm", "moonshot", "llama", "mistral", "gemini", "claude"}

// Lister lists the models an OpenAI-compatible endpoint offers
type Lister struct {
	apiKey  string
	current string
	client  *openai.Client
	out     io.Writer
}

// NewLister creates a model lister for endpoint. current is the configured
// model and is marked in the listing.
func NewLister(endpoint, apiKey, current string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		config.BaseURL = translation.BaseURL(endpoint)
	}
	return &Lister{
		apiKey:  apiKey,
		current: current,
		client:  openai.NewClientWithConfig(config),
		out:     os.Stdout,
	}
}

// SetOutput redirects the listing
func (l *Lister) SetOutput(w io.Writer) {
	l.out = w
}

// Categorize splits model ids into chat capable and other models, both sorted
func Categorize(ids []string) (chat, other []string) {
	for _, id := range ids {
		lower := strings.ToLower(id)
		if isChat(lower) {
			chat = append(chat, id)
		} else {
			other = append(other, id)
		}
	}
	sort.Strings(chat)
	sort.Strings(other)
	return chat, other
}

func isChat(id string) bool {
	if strings.Contains(id, "embed") || strings.Contains(id, "tts") ||
		strings.Contains(id, "whisper") || strings.Contains(id, "dall-e") {
		return false
	}
	for _, hint := range chatHints {
		if strings.Contains(id, hint) {
			return true
		}
	}
	return false
}

// ListAvailableModels prints the endpoint's models grouped by kind
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	if l.apiKey == "" {
		return fmt.Errorf("API key not found. Set KWOCEAN_API_KEY or DEEPSEEK_API_KEY, or run 'kwocean config save --api-key ...'")
	}

	list, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, model := range list.Models {
		ids = append(ids, model.ID)
	}
	chat, other := Categorize(ids)

	fmt.Fprintln(l.out, "Available models:")
	fmt.Fprintln(l.out, "\nChat/Translation Models:")
	if len(chat) == 0 {
		fmt.Fprintln(l.out, "  No chat models found")
	}
	for _, id := range chat {
		marker := ""
		if id == l.current {
			marker = " (configured)"
		}
		fmt.Fprintf(l.out, "  %s%s\n", id, marker)
	}

	if len(other) > 0 {
		fmt.Fprintln(l.out, "\nOther Models:")
		for _, id := range other {
			fmt.Fprintf(l.out, "  %s\n", id)
		}
	}

	return nil
}
