package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"intern-match/internal/llm"
	"intern-match/internal/storage"
	pkghttp "intern-match/pkg/http"
)

// ErrNoJobsFound means a harvest produced zero records. Partial success is
// not an error; only a fully empty result is fatal.
var ErrNoJobsFound = errors.New("no jobs could be harvested from the source document")

const (
	// sourcePrefixLimit bounds how much of the source markdown is fed to the
	// URL-extraction prompt, to respect model context limits.
	sourcePrefixLimit = 20000

	// maxJobURLs caps how many posting URLs one refresh will visit.
	maxJobURLs = 200

	// healthyJobCount is the soft lower bound for a harvest. Fewer jobs logs
	// a warning but still counts as success.
	healthyJobCount = 50

	fetchTimeout = 30 * time.Second
)

// Completer sends one prompt to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor asks a web-extraction service to pull text from one URL.
type Extractor interface {
	Extract(ctx context.Context, targetURL, instruction string) (string, error)
}

// Summary describes the per-item outcome of one harvest attempt, so callers
// and tests can assert on partial-failure shape instead of reading logs.
type Summary struct {
	Strategy   string   `json:"strategy"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	FailedURLs []string `json:"failedUrls,omitempty"`
}

// Result is the outcome of a successful harvest.
type Result struct {
	Jobs    []storage.JobPosting
	Summary Summary
}

// Strategy is one way of turning the source document into job postings.
// Strategies are tried in order; the first one that yields jobs wins.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context) (*Result, error)
}

// Harvester drives an ordered list of strategies with first-success selection.
type Harvester struct {
	strategies []Strategy
	logger     *zap.Logger
}

func NewHarvester(logger *zap.Logger, strategies ...Strategy) *Harvester {
	return &Harvester{strategies: strategies, logger: logger}
}

// Harvest runs each strategy until one returns jobs. All strategies failing,
// or none being configured, is ErrNoJobsFound.
func (h *Harvester) Harvest(ctx context.Context) (*Result, error) {
	for _, s := range h.strategies {
		res, err := s.Attempt(ctx)
		if err != nil {
			h.logger.Warn("harvest strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(res.Jobs) == 0 {
			h.logger.Warn("harvest strategy yielded no jobs", zap.String("strategy", s.Name()))
			continue
		}

		if len(res.Jobs) < healthyJobCount {
			h.logger.Warn("harvest yield below healthy threshold",
				zap.String("strategy", s.Name()),
				zap.Int("jobs", len(res.Jobs)),
				zap.Int("threshold", healthyJobCount),
			)
		}

		h.logger.Info("harvest complete",
			zap.String("strategy", s.Name()),
			zap.Int("jobs", len(res.Jobs)),
			zap.Int("failed_urls", res.Summary.Failed),
		)
		return res, nil
	}

	return nil, ErrNoJobsFound
}

// jobsEnvelope is the strict-JSON schema both strategies ask the model for.
type jobsEnvelope struct {
	Jobs []storage.JobPosting `json:"jobs"`
}

const jobSchemaHint = `{"title": "", "company": "", "location": "", "city": "", "url": "", "description": "", "skills": []}`

// ---------------------------------------------------------------------------
// Per-URL strategy: fetch the source README, extract posting URLs with the
// LLM, then visit each URL independently. Higher yield than the bulk pass
// because every posting gets its own focused extraction and formatting call.
// ---------------------------------------------------------------------------

// PerURLStrategy harvests one job per discovered posting URL. The loop is
// intentionally sequential: each URL issues two chained external calls, and
// uncontrolled fan-out would rate-limit the extraction and LLM providers.
type PerURLStrategy struct {
	sourceURL string
	fetcher   *pkghttp.Client
	extractor Extractor
	completer Completer
	logger    *zap.Logger
}

func NewPerURLStrategy(sourceURL string, extractor Extractor, completer Completer, logger *zap.Logger) *PerURLStrategy {
	return &PerURLStrategy{
		sourceURL: sourceURL,
		fetcher:   pkghttp.NewClient(fetchTimeout),
		extractor: extractor,
		completer: completer,
		logger:    logger,
	}
}

func (s *PerURLStrategy) Name() string { return "per-url" }

func (s *PerURLStrategy) Attempt(ctx context.Context) (*Result, error) {
	doc, err := s.fetchSource(ctx)
	if err != nil {
		return nil, err
	}

	urls, err := s.extractJobURLs(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no posting urls found in source document")
	}

	s.logger.Info("extracted posting urls", zap.Int("count", len(urls)))

	result := &Result{Summary: Summary{Strategy: s.Name()}}
	now := time.Now().UTC()

	for _, jobURL := range urls {
		job, err := s.harvestOne(ctx, jobURL)
		if err != nil {
			// One bad source never aborts the batch: record and move on.
			s.logger.Debug("skipping posting url", zap.String("url", jobURL), zap.Error(err))
			result.Summary.Failed++
			result.Summary.FailedURLs = append(result.Summary.FailedURLs, jobURL)
			continue
		}
		job.LastUpdated = now
		result.Jobs = append(result.Jobs, *job)
		result.Summary.Succeeded++
	}

	if len(result.Jobs) == 0 {
		return nil, fmt.Errorf("all %d posting urls failed", len(urls))
	}

	return result, nil
}

// fetchSource downloads the source markdown over plain HTTP and truncates it
// to a bounded prefix.
func (s *PerURLStrategy) fetchSource(ctx context.Context) (string, error) {
	resp, err := s.fetcher.Get(ctx, s.sourceURL)
	if err != nil {
		return "", fmt.Errorf("fetch source document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("fetch source document: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, sourcePrefixLimit+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	doc := string(body)
	if len(doc) > sourcePrefixLimit {
		doc = doc[:sourcePrefixLimit]
	}
	return doc, nil
}

// extractJobURLs asks the model for every distinct external URL in the
// document, then drops self-referential links and caps the list.
func (s *PerURLStrategy) extractJobURLs(ctx context.Context, doc string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract every distinct external URL referenced in this markdown document.
Return ONLY a JSON array of strings, no markdown, no explanation, e.g. ["https://...", "https://..."].

Document:
"""
%s
"""`, doc)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract urls: %w", err)
	}

	candidates, err := parseURLArray(raw)
	if err != nil {
		return nil, err
	}

	sourceHost := hostOf(s.sourceURL)

	var urls []string
	seen := make(map[string]bool)
	for _, u := range candidates {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		// Skip links pointing back at the source's own domain.
		if sourceHost != "" && hostOf(u) == sourceHost {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if len(urls) >= maxJobURLs {
			break
		}
	}

	return urls, nil
}

// harvestOne runs the two-pass extraction for a single posting URL: a
// free-form extraction answer first, then a second model call that only has
// to coerce that answer into the strict schema. Splitting the passes keeps
// the machine-parseable step small and reliable.
func (s *PerURLStrategy) harvestOne(ctx context.Context, jobURL string) (*storage.JobPosting, error) {
	text, err := s.extractor.Extract(ctx, jobURL,
		"Extract the job posting from this page: title, company, location, description, required skills.")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Convert this extracted job posting text into strict JSON matching exactly:
%s
Return ONLY the JSON object, no markdown, no explanation. Use empty strings or arrays for missing fields.
The posting was found at %s.

Text:
"""
%s
"""`, jobSchemaHint, jobURL, text)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	job, err := decodeJob(raw)
	if err != nil {
		return nil, err
	}

	if job.URL == "" {
		job.URL = jobURL
	}
	return job, nil
}

// ---------------------------------------------------------------------------
// Bulk strategy: one extraction call against the whole source document,
// followed by one formatting-repair call. Cheaper but lower yield; kept as
// the fallback attempt.
// ---------------------------------------------------------------------------

type BulkStrategy struct {
	sourceURL string
	extractor Extractor
	completer Completer
}

func NewBulkStrategy(sourceURL string, extractor Extractor, completer Completer) *BulkStrategy {
	return &BulkStrategy{sourceURL: sourceURL, extractor: extractor, completer: completer}
}

func (s *BulkStrategy) Name() string { return "bulk" }

func (s *BulkStrategy) Attempt(ctx context.Context) (*Result, error) {
	text, err := s.extractor.Extract(ctx, s.sourceURL,
		"List every internship job posting in this document with title, company, location, url and description.")
	if err != nil {
		return nil, err
	}

	// The extraction answer is free-form; a second pass repairs it into the
	// strict schema before parsing.
	prompt := fmt.Sprintf(`Convert this text into strict JSON: {"jobs": [%s, ...]}.
Return ONLY the JSON object, no markdown, no explanation. Use empty strings or arrays for missing fields.

Text:
"""
%s
"""`, jobSchemaHint, text)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var envelope jobsEnvelope
	if err := llm.DecodeObject(raw, &envelope); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	jobs := envelope.Jobs[:0]
	for _, job := range envelope.Jobs {
		if job.Title == "" && job.Company == "" {
			continue // no identifying payload
		}
		job.LastUpdated = now
		jobs = append(jobs, job)
	}

	return &Result{
		Jobs:    jobs,
		Summary: Summary{Strategy: s.Name(), Succeeded: len(jobs)},
	}, nil
}

// ---------------------------------------------------------------------------
// parsing helpers
// ---------------------------------------------------------------------------

// decodeJob parses a model response into one posting. Models sometimes wrap
// the object as {"jobs": [job]} despite being asked for a bare object; the
// first element is unwrapped in that case.
func decodeJob(raw string) (*storage.JobPosting, error) {
	var envelope jobsEnvelope
	if err := llm.DecodeObject(raw, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Jobs) > 0 {
		return validateJob(envelope.Jobs[0])
	}

	var job storage.JobPosting
	if err := llm.DecodeObject(raw, &job); err != nil {
		return nil, err
	}
	return validateJob(job)
}

func validateJob(job storage.JobPosting) (*storage.JobPosting, error) {
	if job.Title == "" && job.Company == "" {
		return nil, errors.New("posting has no identifying payload")
	}
	if job.Skills == nil {
		job.Skills = []string{}
	}
	return &job, nil
}

// parseURLArray recovers a JSON string array from free-form model output,
// tolerating markdown fences and an {"urls": [...]} envelope.
func parseURLArray(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "["); i != -1 {
		if j := strings.LastIndex(text, "]"); j > i {
			var urls []string
			if err := json.Unmarshal([]byte(text[i:j+1]), &urls); err == nil {
				return urls, nil
			}
		}
	}

	var envelope struct {
		URLs []string `json:"urls"`
	}
	if err := llm.DecodeObject(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse url list: %w", err)
	}
	return envelope.URLs, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
