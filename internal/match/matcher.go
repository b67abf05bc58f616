// Package match scores a resume against the stored postings for one city
// using a single strict-JSON LLM call.
package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"intern-match/internal/jobs"
	"intern-match/internal/llm"
	"intern-match/internal/storage"
)

var (
	// ErrMissingCity means the request did not name a target city.
	ErrMissingCity = errors.New("city is required")
	// ErrEmptyResume means no resume text remained after any PDF extraction.
	ErrEmptyResume = errors.New("resume text is empty")
)

// maxCandidates bounds how many postings are embedded in the matching
// prompt. Truncation is first-N; no ranking happens before the model sees
// the list.
const maxCandidates = 60

// Store is the lookup slice of the document store the matcher needs.
type Store interface {
	CityCollection(ctx context.Context, normalizedCity string) (*storage.CityJobCollection, error)
}

// Completer sends one prompt to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Match is one scored resume-to-posting pairing as reported by the model.
type Match struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	URL            string   `json:"url"`
	MatchScore     float64  `json:"matchScore"`
	Explanation    string   `json:"explanation"`
	MatchingSkills []string `json:"matchingSkills"`
	MissingSkills  []string `json:"missingSkills"`
}

// Result carries either scored matches or a neutral message when the city
// has no stored postings. An empty city is informational, never an error.
type Result struct {
	Matches []Match `json:"matches"`
	Message string  `json:"message,omitempty"`
}

type matchesEnvelope struct {
	Matches []Match `json:"matches"`
}

type Matcher struct {
	store     Store
	completer Completer
	logger    *zap.Logger
}

func NewMatcher(store Store, completer Completer, logger *zap.Logger) *Matcher {
	return &Matcher{store: store, completer: completer, logger: logger}
}

// Match loads the postings for city, optionally filters them by a job-title
// substring, and asks the model to score resume fit.
func (m *Matcher) Match(ctx context.Context, resumeText, city, titleFilter string) (*Result, error) {
	if strings.TrimSpace(city) == "" {
		return nil, ErrMissingCity
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, ErrEmptyResume
	}

	normalized := jobs.NormalizeCity(city)
	collection, err := m.store.CityCollection(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("load city collection: %w", err)
	}
	if collection == nil || len(collection.Jobs) == 0 {
		return &Result{
			Matches: []Match{},
			Message: fmt.Sprintf("No jobs found for %s. Try refreshing the job listings first.", city),
		}, nil
	}

	candidates := collection.Jobs
	if titleFilter = strings.TrimSpace(titleFilter); titleFilter != "" {
		candidates = filterByTitle(candidates, titleFilter)
		if len(candidates) == 0 {
			return &Result{
				Matches: []Match{},
				Message: fmt.Sprintf("No jobs matching %q found in %s.", titleFilter, city),
			}, nil
		}
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	m.logger.Debug("matching resume",
		zap.String("city", normalized),
		zap.Int("candidates", len(candidates)),
	)

	prompt, err := buildPrompt(resumeText, candidates)
	if err != nil {
		return nil, err
	}

	raw, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var envelope matchesEnvelope
	if err := llm.DecodeObject(raw, &envelope); err != nil {
		return nil, err
	}

	return &Result{Matches: sanitizeMatches(envelope.Matches)}, nil
}

func filterByTitle(jobs []storage.JobPosting, filter string) []storage.JobPosting {
	filter = strings.ToLower(filter)
	var out []storage.JobPosting
	for _, job := range jobs {
		if strings.Contains(strings.ToLower(job.Title), filter) {
			out = append(out, job)
		}
	}
	return out
}

func buildPrompt(resumeText string, candidates []storage.JobPosting) (string, error) {
	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("marshal candidate jobs: %w", err)
	}

	return fmt.Sprintf(`You are an expert technical recruiter. Compare this resume against the job listings below.

Resume:
"""
%s
"""

Job listings (JSON):
%s

Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{"matches": [{"title": "", "company": "", "location": "", "url": "", "matchScore": 0, "explanation": "", "matchingSkills": [], "missingSkills": []}]}

Rules:
- matchScore is 0-100 (100 = perfect fit)
- Sort matches by descending matchScore
- Include only jobs that are a relevant fit for this resume
- explanation is 1-2 sentences on why the candidate does or does not fit`, resumeText, candidatesJSON), nil
}

// sanitizeMatches clamps model-reported scores into [0, 100] and defaults
// nil skill arrays. The model's ordering and field shapes are otherwise
// trusted as-is.
func sanitizeMatches(matches []Match) []Match {
	if matches == nil {
		return []Match{}
	}
	for i := range matches {
		if matches[i].MatchScore < 0 {
			matches[i].MatchScore = 0
		}
		if matches[i].MatchScore > 100 {
			matches[i].MatchScore = 100
		}
		if matches[i].MatchingSkills == nil {
			matches[i].MatchingSkills = []string{}
		}
		if matches[i].MissingSkills == nil {
			matches[i].MissingSkills = []string{}
		}
	}
	return matches
}
