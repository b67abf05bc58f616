package api

import (
	"context"

	"go.uber.org/zap"

	"intern-match/internal/jobs"
	"intern-match/internal/match"
	"intern-match/internal/pdf"
)

// ChatService answers conversational prompts with per-session history.
type ChatService interface {
	Respond(ctx context.Context, prompt, sessionID, personality string) (reply, session string, err error)
}

// Completer sends one prompt to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor asks a web-extraction service to pull text from one URL.
type Extractor interface {
	Extract(ctx context.Context, targetURL, instruction string) (string, error)
}

// Refresher replaces the stored job collections with a fresh harvest.
type Refresher interface {
	Refresh(ctx context.Context) (*jobs.RefreshStats, error)
}

// Matcher scores a resume against the stored postings for a city.
type Matcher interface {
	Match(ctx context.Context, resumeText, city, titleFilter string) (*match.Result, error)
}

// API holds every collaborator a handler needs. All state is injected; the
// handlers themselves own nothing.
type API struct {
	chat      ChatService
	llm       Completer
	scraper   Extractor
	refresher Refresher
	matcher   Matcher

	refreshToken string
	staticDir    string

	// resumeText converts a resume payload (plain text or base64 PDF) to
	// plain text. Swappable so tests can observe the routing decision.
	resumeText func(string) (string, error)

	logger *zap.Logger
}

// Deps bundles the collaborators for NewAPI.
type Deps struct {
	Chat         ChatService
	LLM          Completer
	Scraper      Extractor
	Refresher    Refresher
	Matcher      Matcher
	RefreshToken string
	StaticDir    string
	Logger       *zap.Logger
}

func NewAPI(d Deps) *API {
	return &API{
		chat:         d.Chat,
		llm:          d.LLM,
		scraper:      d.Scraper,
		refresher:    d.Refresher,
		matcher:      d.Matcher,
		refreshToken: d.RefreshToken,
		staticDir:    d.StaticDir,
		resumeText:   pdf.ResumeText,
		logger:       d.Logger,
	}
}
