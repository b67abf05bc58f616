package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"intern-match/internal/storage"
)

type stubStore struct {
	collections map[string]*storage.CityJobCollection
}

func (s *stubStore) CityCollection(_ context.Context, normalizedCity string) (*storage.CityJobCollection, error) {
	return s.collections[normalizedCity], nil
}

type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func torontoStore(jobs ...storage.JobPosting) *stubStore {
	return &stubStore{collections: map[string]*storage.CityJobCollection{
		"toronto": {City: "Toronto", NormalizedCity: "toronto", Jobs: jobs},
	}}
}

func TestMatcherValidation(t *testing.T) {
	m := NewMatcher(torontoStore(), &stubCompleter{}, zap.NewNop())

	if _, err := m.Match(context.Background(), "resume text", "", ""); !errors.Is(err, ErrMissingCity) {
		t.Fatalf("expected ErrMissingCity, got %v", err)
	}
	if _, err := m.Match(context.Background(), "  ", "Toronto", ""); !errors.Is(err, ErrEmptyResume) {
		t.Fatalf("expected ErrEmptyResume, got %v", err)
	}
}

func TestMatcherUnknownCityIsNotAnError(t *testing.T) {
	completer := &stubCompleter{}
	m := NewMatcher(&stubStore{collections: map[string]*storage.CityJobCollection{}}, completer, zap.NewNop())

	result, err := m.Match(context.Background(), "resume text", "Atlantis", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message == "" {
		t.Fatal("expected an informational message")
	}
	if len(result.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Matches))
	}
	if completer.calls != 0 {
		t.Fatal("model must not be called for an unknown city")
	}
}

func TestMatcherCityLookupIsCaseInsensitive(t *testing.T) {
	completer := &stubCompleter{response: `{"matches": []}`}
	m := NewMatcher(torontoStore(storage.JobPosting{Title: "SWE Intern"}), completer, zap.NewNop())

	if _, err := m.Match(context.Background(), "resume", "  TORONTO ", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer.calls != 1 {
		t.Fatal("expected the model to be consulted")
	}
}

func TestMatcherTitleFilter(t *testing.T) {
	completer := &stubCompleter{response: `{"matches": []}`}
	m := NewMatcher(torontoStore(
		storage.JobPosting{Title: "Software Engineering Intern"},
		storage.JobPosting{Title: "Data Science Intern"},
		storage.JobPosting{Title: "Marketing Intern"},
	), completer, zap.NewNop())

	if _, err := m.Match(context.Background(), "resume", "Toronto", "software"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(completer.lastPrompt, "Software Engineering Intern") {
		t.Fatal("filtered-in job missing from prompt")
	}
	if strings.Contains(completer.lastPrompt, "Data Science Intern") {
		t.Fatal("filtered-out job leaked into prompt")
	}
}

func TestMatcherTitleFilterNoHitsIsNotAnError(t *testing.T) {
	completer := &stubCompleter{}
	m := NewMatcher(torontoStore(storage.JobPosting{Title: "Marketing Intern"}), completer, zap.NewNop())

	result, err := m.Match(context.Background(), "resume", "Toronto", "embedded")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message == "" || len(result.Matches) != 0 {
		t.Fatalf("expected empty informational result, got %+v", result)
	}
	if completer.calls != 0 {
		t.Fatal("model must not be called when the filter removes everything")
	}
}

func TestMatcherTruncatesCandidateList(t *testing.T) {
	jobs := make([]storage.JobPosting, maxCandidates+20)
	for i := range jobs {
		jobs[i] = storage.JobPosting{Title: fmt.Sprintf("Intern %03d", i)}
	}

	completer := &stubCompleter{response: `{"matches": []}`}
	m := NewMatcher(torontoStore(jobs...), completer, zap.NewNop())

	if _, err := m.Match(context.Background(), "resume", "Toronto", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First-N truncation: the job at the cap boundary stays, the next is cut.
	last := fmt.Sprintf("Intern %03d", maxCandidates-1)
	cut := fmt.Sprintf("Intern %03d", maxCandidates)
	if !strings.Contains(completer.lastPrompt, last) {
		t.Fatalf("job %q should be inside the cap", last)
	}
	if strings.Contains(completer.lastPrompt, cut) {
		t.Fatalf("job %q should have been truncated", cut)
	}
}

func TestMatcherParsesAndSanitizesResponse(t *testing.T) {
	completer := &stubCompleter{response: "```json\n" + `{"matches": [
		{"title": "SWE Intern", "company": "Acme", "matchScore": 120, "explanation": "great fit"},
		{"title": "Data Intern", "company": "Globex", "matchScore": -5}
	]}` + "\n```"}
	m := NewMatcher(torontoStore(storage.JobPosting{Title: "SWE Intern"}), completer, zap.NewNop())

	result, err := m.Match(context.Background(), "resume", "Toronto", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].MatchScore != 100 {
		t.Fatalf("score not clamped to 100: %v", result.Matches[0].MatchScore)
	}
	if result.Matches[1].MatchScore != 0 {
		t.Fatalf("score not clamped to 0: %v", result.Matches[1].MatchScore)
	}
	if result.Matches[0].MatchingSkills == nil || result.Matches[0].MissingSkills == nil {
		t.Fatal("nil skill arrays not defaulted")
	}
}

func TestMatcherPromptEmbedsResume(t *testing.T) {
	completer := &stubCompleter{response: `{"matches": []}`}
	m := NewMatcher(torontoStore(storage.JobPosting{Title: "SWE Intern"}), completer, zap.NewNop())

	resume := "Jane Doe, Go developer, 2 internships at Acme"
	if _, err := m.Match(context.Background(), resume, "Toronto", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(completer.lastPrompt, resume) {
		t.Fatal("resume text missing from prompt")
	}
}
