package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"intern-match/internal/jobs"
)

// ChatHandler answers a conversational prompt
// @Summary Chat with the model
// @Description Send a prompt with optional session and personality; history is kept per session
// @Tags chat
// @Accept json
// @Produce json
// @Param request body object true "prompt, sessionId, personality"
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/gemini [post]
func (a *API) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Prompt      string `json:"prompt"`
		SessionID   string `json:"sessionId"`
		Personality string `json:"personality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusInternalServerError, "invalid JSON body")
		return
	}

	reply, sessionID, err := a.chat.Respond(r.Context(), req.Prompt, req.SessionID, req.Personality)
	if err != nil {
		a.serverError(w, "chat", err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{
		"response":  reply,
		"sessionId": sessionID,
	})
}

// AnalyzeResumeHandler analyzes a resume with the model
// @Summary Analyze a resume
// @Description Accepts plain text or a base64 PDF (detected by magic bytes) and returns an analysis
// @Tags resume
// @Accept json
// @Produce json
// @Param request body object true "resumeContent"
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/analyze-resume [post]
func (a *API) AnalyzeResumeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		ResumeContent string `json:"resumeContent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusInternalServerError, "invalid JSON body")
		return
	}

	text, err := a.resumeText(req.ResumeContent)
	if err != nil {
		a.serverError(w, "analyze-resume pdf extraction", err)
		return
	}
	if text == "" {
		a.writeError(w, http.StatusInternalServerError, "resume text is empty")
		return
	}

	prompt := fmt.Sprintf(`You are an experienced career coach. Analyze this resume and provide concrete feedback:
strengths, weaknesses, missing information, and suggestions to improve it for internship applications.

Resume:
"""
%s
"""`, text)

	analysis, err := a.llm.Complete(r.Context(), prompt)
	if err != nil {
		a.serverError(w, "analyze-resume completion", err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

// ScrapeAndProcessHandler extracts a page and optionally post-processes it
// @Summary Scrape a URL and process the result
// @Description Runs the web-extraction gateway against a URL, then optionally feeds the text through the model
// @Tags scrape
// @Accept json
// @Produce json
// @Param request body object true "url, extractPrompt, processPrompt"
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/scrape-and-process [post]
func (a *API) ScrapeAndProcessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		URL           string `json:"url"`
		ExtractPrompt string `json:"extractPrompt"`
		ProcessPrompt string `json:"processPrompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusInternalServerError, "invalid JSON body")
		return
	}

	result, err := a.scraper.Extract(r.Context(), req.URL, req.ExtractPrompt)
	if err != nil {
		a.serverError(w, "scrape", err)
		return
	}

	if req.ProcessPrompt != "" {
		result, err = a.llm.Complete(r.Context(), req.ProcessPrompt+"\n\n"+result)
		if err != nil {
			a.serverError(w, "scrape post-processing", err)
			return
		}
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// RefreshJobsHandler replaces the stored job collections
// @Summary Refresh job listings
// @Description Harvests the source document and replaces all stored city collections
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body object false "authToken"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/refresh-jobs [post]
func (a *API) RefreshJobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		AuthToken string `json:"authToken"`
	}
	// An empty body is fine when no token is configured.
	_ = json.NewDecoder(r.Body).Decode(&req)

	// The token check runs before any gateway is touched.
	if a.refreshToken != "" && req.AuthToken != a.refreshToken {
		a.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := a.refresher.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, jobs.ErrRefreshInProgress) {
			a.writeError(w, http.StatusConflict, err.Error())
			return
		}
		a.serverError(w, "refresh-jobs", err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Jobs refreshed: %d postings across %d cities", stats.TotalJobs, stats.TotalCities),
		"totalCities": stats.TotalCities,
		"totalJobs":   stats.TotalJobs,
	})
}

// CompareResumeHandler matches a resume against stored postings
// @Summary Compare a resume against a city's jobs
// @Description Scores the resume against stored postings for the city; an empty city yields a message, not an error
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body object true "resumeContent, city, jobTitle"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /api/compare-resume [post]
func (a *API) CompareResumeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		ResumeContent string `json:"resumeContent"`
		City          string `json:"city"`
		JobTitle      string `json:"jobTitle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusInternalServerError, "invalid JSON body")
		return
	}

	// PDF payloads are converted before the matcher sees them.
	text, err := a.resumeText(req.ResumeContent)
	if err != nil {
		a.serverError(w, "compare-resume pdf extraction", err)
		return
	}

	result, err := a.matcher.Match(r.Context(), text, req.City, req.JobTitle)
	if err != nil {
		a.serverError(w, "compare-resume", err)
		return
	}

	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("encode response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}

// serverError is the catch-all boundary: log, then 500 with the error text.
func (a *API) serverError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	a.writeError(w, http.StatusInternalServerError, err.Error())
}
