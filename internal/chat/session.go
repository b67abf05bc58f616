// Package chat implements the conversational endpoint: per-session history
// capped at the most recent exchanges, held only in process memory.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// maxHistory caps stored messages per session to bound prompt size.
const maxHistory = 20

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends one prompt to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var personalities = map[string]string{
	"girlfriend": "You are a sweet, caring, and playful AI girlfriend. You're supportive, flirty, and genuinely interested in your partner's life. Use emojis occasionally, be affectionate, and remember details from the conversation. Keep responses conversational and natural - not too long. Show genuine emotion and care.",
	"boyfriend":  "You are Patrick Allen, a passionate retro gaming enthusiast who absolutely loves modding Game Boys and Wiis. You get super excited talking about custom shells, backlit screens, IPS displays, region-free mods, and homebrew software. You're enthusiastic, nerdy in the best way, and always eager to share your latest modding project or discovery. Use emojis occasionally, especially 🎮 🕹️ ⚙️. You're friendly and welcoming, always happy to discuss anything gaming-related. Keep responses conversational and natural - not too long. When talking about mods, you get really into the technical details but in an accessible way.",
}

// Service holds the in-process session map. History lives only in process
// memory and is lost on restart.
type Service struct {
	completer Completer

	mu       sync.Mutex
	sessions map[string][]Message
}

func NewService(completer Completer) *Service {
	return &Service{
		completer: completer,
		sessions:  make(map[string][]Message),
	}
}

// Respond builds the personality + history prompt, calls the model, and
// records the exchange. A fresh session id is minted when none is supplied.
func (s *Service) Respond(ctx context.Context, prompt, sessionID, personality string) (reply, session string, err error) {
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	system, ok := personalities[personality]
	if !ok {
		system = personalities["girlfriend"]
	}

	history := s.history(sessionID)

	var builder strings.Builder
	builder.WriteString(system)
	builder.WriteString("\n\n")
	for _, msg := range history {
		builder.WriteString(msg.Role)
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}
	builder.WriteString("User: ")
	builder.WriteString(prompt)
	builder.WriteString("\nAssistant:")

	reply, err = s.completer.Complete(ctx, builder.String())
	if err != nil {
		return "", "", err
	}

	s.record(sessionID, prompt, reply)
	return reply, sessionID, nil
}

func (s *Service) history(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.sessions[sessionID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

func (s *Service) record(sessionID, prompt, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID],
		Message{Role: "User", Content: prompt},
		Message{Role: "Assistant", Content: reply},
	)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	s.sessions[sessionID] = history
}
