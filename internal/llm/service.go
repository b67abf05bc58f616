package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"intern-match/internal/logger"
)

// ErrNotConfigured is returned when no Gemini API key was provided at startup.
var ErrNotConfigured = errors.New("gemini api key is not configured")

const previewLen = 200

// Service wraps the Google GenAI client behind a single Complete call.
// It holds no conversation state; history is a caller-side concern.
type Service struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewService creates a Gemini-backed Service. An empty apiKey yields a
// Service whose Complete always fails with ErrNotConfigured, so callers
// can wire the dependency unconditionally and fail at call time.
func NewService(ctx context.Context, apiKey, model string, log *zap.Logger) (*Service, error) {
	s := &Service{model: model, logger: log}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	s.client = client
	return s, nil
}

// Complete sends a single prompt to the configured model and returns the
// text of the first candidate. No retries; the caller decides.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNotConfigured
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	s.logger.Debug("gemini request",
		zap.String("model", s.model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, previewLen)),
	)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", errors.New("gemini api returned empty response")
	}

	s.logger.Debug("gemini response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", logger.Preview(text, previewLen)),
	)

	return text, nil
}

// Model reports the configured model name.
func (s *Service) Model() string {
	if s == nil {
		return ""
	}
	return s.model
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			return text
		}
	}
	return ""
}
