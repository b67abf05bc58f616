package api

import (
	"net/http"
	"path/filepath"

	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation - must be registered first
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Static page
	mux.HandleFunc("/", a.IndexHandler)

	// API endpoints
	mux.HandleFunc("/api/gemini", a.ChatHandler)
	mux.HandleFunc("/api/analyze-resume", a.AnalyzeResumeHandler)
	mux.HandleFunc("/api/scrape-and-process", a.ScrapeAndProcessHandler)
	mux.HandleFunc("/api/refresh-jobs", a.RefreshJobsHandler)
	mux.HandleFunc("/api/compare-resume", a.CompareResumeHandler)

	return withCORS(mux)
}

// withCORS adds permissive CORS headers and short-circuits preflight
// requests with HTTP 200.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IndexHandler serves the static HTML page at the root path only; every
// unregistered path falls through to here and gets a 404.
func (a *API) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(a.staticDir, "index.html"))
}
