package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("GET /students", s.protect(s.listStudentsHandler))
	mux.HandleFunc("POST /students", s.protect(s.createStudentHandler))
	mux.HandleFunc("GET /students/{id}", s.protect(s.getStudentHandler))
	mux.HandleFunc("PUT /students/{id}", s.protect(s.updateStudentHandler))
	mux.HandleFunc("DELETE /students/{id}", s.protect(s.deactivateStudentHandler))
	mux.HandleFunc("GET /students/{id}/matches", s.protect(s.matchJobsHandler))

	mux.HandleFunc("GET /companies", s.protect(s.listCompaniesHandler))
	mux.HandleFunc("POST /companies", s.protect(s.createCompanyHandler))

	mux.HandleFunc("GET /jobs", s.protect(s.listJobsHandler))
	mux.HandleFunc("POST /jobs", s.protect(s.createJobHandler))
	mux.HandleFunc("GET /jobs/{id}", s.protect(s.getJobHandler))

	mux.HandleFunc("GET /applications", s.protect(s.listApplicationsHandler))
	mux.HandleFunc("POST /applications", s.protect(s.applyHandler))

	mux.HandleFunc("GET /reports", s.protect(s.reportHandler))
	mux.HandleFunc("GET /reports/statistics", s.protect(s.statisticsHandler))
	mux.HandleFunc("GET /reports/breakdown", s.protect(s.breakdownHandler))
	mux.HandleFunc("GET /reports/students.csv", s.protect(s.exportCSVHandler))

	mux.HandleFunc("POST /analysis", s.protect(s.analysisHandler))

	return mux
}

// Handler returns the routed handler wrapped in the tracing middleware.
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.setupRoutes())
}

// protect applies rate limiting, authentication and the request size limit
func (s *Server) protect(h http.HandlerFunc) http.HandlerFunc {
	return s.rateLimitMiddleware()(s.authMiddleware(s.requestSizeLimitMiddleware()(h)))
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to an Authorization Bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
