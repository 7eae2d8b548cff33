package llm

import (
	"context"
	"sync"
)

// SessionConfig configures a chat session bound to the gateway.
type SessionConfig struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64

	// History seeds the session with prior turns.
	History []ChatMessage
}

// ChatSession holds the turns exchanged within one session. Every Send
// goes through the gateway's rotate-and-retry wrapper; the gateway itself
// stays stateless with respect to session content.
type ChatSession struct {
	gw  *Gateway
	cfg SessionConfig

	mu       sync.Mutex
	messages []ChatMessage
}

// CreateChatSession creates a session with a bound Send.
func (g *Gateway) CreateChatSession(cfg SessionConfig) *ChatSession {
	messages := make([]ChatMessage, 0, len(cfg.History)+8)
	if cfg.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: cfg.SystemPrompt})
	}
	messages = append(messages, cfg.History...)

	return &ChatSession{gw: g, cfg: cfg, messages: messages}
}

// Send appends the user text, generates a reply through the gateway, and
// records both in the session. On failure the session is left unchanged.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	request := make([]ChatMessage, len(s.messages), len(s.messages)+1)
	copy(request, s.messages)
	s.mu.Unlock()

	request = append(request, ChatMessage{Role: "user", Content: text})

	resp, err := s.gw.GenerateContent(ctx, &GenerateRequest{
		Model:       s.cfg.Model,
		Messages:    request,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.messages = append(s.messages,
		ChatMessage{Role: "user", Content: text},
		ChatMessage{Role: "assistant", Content: resp.Text},
	)
	s.mu.Unlock()

	return resp.Text, nil
}

// Messages returns a copy of the session transcript.
func (s *ChatSession) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
