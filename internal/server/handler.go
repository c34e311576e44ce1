package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	appErrors "placement/internal/errors"
	"placement/internal/placement"
	"placement/internal/service"
	"placement/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "placement.api"

// startSpan opens a span for an API operation and returns the request
// carrying it.
func (s *Server) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), name)
	return r.WithContext(ctx), span
}

func (s *Server) listStudentsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.list")
	defer span.End()

	q := r.URL.Query()
	filter := service.StudentFilter{
		Course:     q.Get("course"),
		Department: q.Get("department"),
		Year:       q.Get("year"),
	}
	placed, err := parseBoolQuery(r, "placed")
	if err != nil {
		s.badRequest(w, span, "Invalid placed filter", err)
		return
	}
	filter.Placed = placed
	if active, err := parseBoolQuery(r, "active"); err != nil {
		s.badRequest(w, span, "Invalid active filter", err)
		return
	} else if active != nil {
		filter.ActiveOnly = *active
	}

	students, err := s.service.ListStudents(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("response.count", len(students)))
	writeJSON(w, http.StatusOK, students)
}

func (s *Server) createStudentHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.create")
	defer span.End()

	var st placement.Student
	if err := parseJSONRequest(r, &st); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}

	created, err := s.service.CreateStudent(r.Context(), st)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getStudentHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.get")
	defer span.End()

	st, err := s.service.GetStudent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, placement.Normalize(st))
}

func (s *Server) updateStudentHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.update")
	defer span.End()

	var st placement.Student
	if err := parseJSONRequest(r, &st); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}
	st.ID = r.PathValue("id")

	updated, err := s.service.UpdateStudent(r.Context(), st)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// deactivateStudentHandler soft-deletes; the record stays for reports.
func (s *Server) deactivateStudentHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.deactivate")
	defer span.End()

	if err := s.service.DeactivateStudent(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) matchJobsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.students.matches")
	defer span.End()

	eligibleOnly, err := parseBoolQuery(r, "eligibleOnly")
	if err != nil {
		s.badRequest(w, span, "Invalid eligibleOnly filter", err)
		return
	}

	results, err := s.service.MatchJobs(r.Context(), r.PathValue("id"), eligibleOnly != nil && *eligibleOnly)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("response.count", len(results)))
	if len(results) > 0 {
		span.SetAttributes(attribute.Int("match.top_score", results[0].Score))
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) listCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.companies.list")
	defer span.End()

	companies, err := s.service.ListCompanies(r.Context())
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) createCompanyHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.companies.create")
	defer span.End()

	var c placement.Company
	if err := parseJSONRequest(r, &c); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}

	created, err := s.service.CreateCompany(r.Context(), c)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.jobs.list")
	defer span.End()

	open, err := parseBoolQuery(r, "open")
	if err != nil {
		s.badRequest(w, span, "Invalid open filter", err)
		return
	}

	jobs, err := s.service.ListJobs(r.Context(), open != nil && *open)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.jobs.create")
	defer span.End()

	var j placement.Job
	if err := parseJSONRequest(r, &j); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}

	created, err := s.service.CreateJob(r.Context(), j)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.jobs.get")
	defer span.End()

	job, err := s.service.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.applications.list")
	defer span.End()

	apps, err := s.service.ListApplications(r.Context(), store.ApplicationFilter{
		StudentID: r.URL.Query().Get("studentId"),
		JobID:     r.URL.Query().Get("jobId"),
	})
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) applyHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.applications.create")
	defer span.End()

	var req ApplyRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.StudentID) == "" || strings.TrimSpace(req.JobID) == "" {
		s.badRequest(w, span, "Missing identifiers", fmt.Errorf("studentId and jobId fields are required"))
		return
	}
	span.SetAttributes(
		attribute.String("student.id", req.StudentID),
		attribute.String("job.id", req.JobID),
	)

	app, err := s.service.Apply(r.Context(), req.StudentID, req.JobID)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.reports.full")
	defer span.End()

	report, err := s.service.FullReport(r.Context())
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.reports.statistics")
	defer span.End()

	stats, err := s.service.Statistics(r.Context())
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) breakdownHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.reports.breakdown")
	defer span.End()

	by := r.URL.Query().Get("by")
	span.SetAttributes(attribute.String("breakdown.by", by))

	rows, err := s.service.Breakdown(r.Context(), by)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) exportCSVHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.reports.csv")
	defer span.End()

	// Buffer so a store failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := s.service.ExportCSV(r.Context(), &buf); err != nil {
		s.writeServiceError(w, span, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.Logger.LogError(err, "Failed to write CSV response")
	}
}

func (s *Server) analysisHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.analysis")
	defer span.End()

	var req AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.badRequest(w, span, "Invalid request body", err)
		return
	}
	span.SetAttributes(attribute.Int("request.question_length", len(req.Question)))

	result, err := s.service.Analyze(r.Context(), req.Question)
	if err != nil {
		s.writeServiceError(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("analysis.source", result.Source),
		attribute.String("analysis.type", result.Type),
		attribute.Int64("analysis.duration_ms", result.DurationMS),
	)
	if result.FallbackReason != "" {
		span.SetAttributes(attribute.String("analysis.fallback_reason", result.FallbackReason))
	}
	writeJSON(w, http.StatusOK, result)
}

// parseBoolQuery returns nil when the parameter is absent.
func parseBoolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &v, nil
}

func (s *Server) badRequest(w http.ResponseWriter, span trace.Span, title string, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(appErrors.ErrorTypeValidation)))
	writeErrorResponse(w, title, err.Error(), http.StatusBadRequest)
}
