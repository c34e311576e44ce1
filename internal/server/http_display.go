package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                   - Health check")
	fmt.Println("  GET    /stats                    - Server statistics")
	fmt.Println("  GET    /students                 - List students (course, department, year, placed, active)")
	fmt.Println("  POST   /students                 - Create student")
	fmt.Println("  GET    /students/{id}            - Get student")
	fmt.Println("  PUT    /students/{id}            - Update student")
	fmt.Println("  DELETE /students/{id}            - Deactivate student")
	fmt.Println("  GET    /students/{id}/matches    - Rank open jobs for a student")
	fmt.Println("  GET    /companies                - List companies")
	fmt.Println("  POST   /companies                - Create company")
	fmt.Println("  GET    /jobs                     - List jobs (open)")
	fmt.Println("  POST   /jobs                     - Create job")
	fmt.Println("  GET    /jobs/{id}                - Get job")
	fmt.Println("  GET    /applications             - List applications (studentId, jobId)")
	fmt.Println("  POST   /applications             - Apply to a job")
	fmt.Println("  GET    /reports                  - Statistics with every breakdown")
	fmt.Println("  GET    /reports/statistics       - Placement statistics")
	fmt.Println("  GET    /reports/breakdown?by=    - Breakdown by course, department or year")
	fmt.Println("  GET    /reports/students.csv     - Student report as CSV")
	fmt.Println("  POST   /analysis                 - Answer a placement question")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to all endpoints except /health and /stats")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter != nil {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
