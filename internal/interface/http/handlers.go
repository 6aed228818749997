package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/application/command"
	"github.com/alem-hub/curriculum-hub/internal/application/query"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
	"github.com/alem-hub/curriculum-hub/internal/infrastructure/catalogimport"
	"github.com/alem-hub/curriculum-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth runs every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.deps.HealthChecker.Check(r.Context())
	health.Version = s.config.Version
	health.Uptime = s.Uptime().Round(time.Second).String()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, health)
}

// handleReady reports whether the server can take traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if health := s.deps.HealthChecker.Check(r.Context()); !health.Healthy {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", health.Message)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive is the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAvailable handles GET /api/v1/students/{id}/available?career_id=
func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	result, err := s.deps.GetAvailableCourses.Handle(r.Context(), query.GetAvailableCoursesQuery{
		StudentID: r.PathValue("id"),
		CareerID:  r.URL.Query().Get("career_id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type validateRequest struct {
	CourseID string `json:"course_id"`
}

// handleValidate handles POST /api/v1/students/{id}/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	var req validateRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	logger.Annotate(r.Context(), logger.CourseID(req.CourseID))
	result, err := s.deps.ValidatePrerequisites.Handle(r.Context(), query.ValidatePrerequisitesQuery{
		StudentID: r.PathValue("id"),
		CourseID:  req.CourseID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type suggestRequest struct {
	MaxCredits *int `json:"max_credits"`
}

// handleSuggest handles POST /api/v1/students/{id}/suggest?career_id=
// An empty body uses the default credit cap.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	var req suggestRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.SuggestNextSemester.Handle(r.Context(), query.SuggestNextSemesterQuery{
		StudentID:  r.PathValue("id"),
		CareerID:   r.URL.Query().Get("career_id"),
		MaxCredits: req.MaxCredits,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// handleSetCourseStatus handles PUT /api/v1/students/{id}/courses/{course_id}
func (s *Server) handleSetCourseStatus(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	var req setStatusRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.SetCourseStatus.Handle(r.Context(), command.SetCourseStatusCommand{
		StudentID: r.PathValue("id"),
		CourseID:  r.PathValue("course_id"),
		Status:    req.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleRecompute handles POST /api/v1/students/{id}/recompute-semester
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	result, err := s.deps.RecomputeSemester.Handle(r.Context(), command.RecomputeSemesterCommand{
		StudentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetTerm handles GET /api/v1/admin/semester
func (s *Server) handleGetTerm(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetGlobalTerm.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleAdvance handles POST /api/v1/admin/semester/advance
// The run is detached from the client: once the global term moves, every
// student must be processed, so a disconnect must not cancel the fan-out.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	result, err := s.deps.AdvanceSemester.Handle(ctx, command.AdvanceSemesterCommand{
		RequestedBy:   "http:" + getClientIP(r),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	logger.Annotate(r.Context(), logger.RunID(result.RunID), logger.Term(result.NewGlobalTerm))
	writeJSON(w, r, http.StatusOK, result)
}

// handleSetTerm handles POST /api/v1/admin/semester/set?value=
func (s *Server) handleSetTerm(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	value, err := strconv.Atoi(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "value must be an integer")
		return
	}

	logger.Annotate(r.Context(), logger.Term(value))
	result, err := s.deps.SetGlobalTerm.Handle(r.Context(), command.SetGlobalTermCommand{Value: value})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleListStudents handles GET /api/v1/admin/students?page=&page_size=
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListStudents.Handle(r.Context(), query.ListStudentsQuery{
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", 50),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type registerRequest struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CareerID  string `json:"career_id"`
}

// handleRegisterStudent handles POST /api/v1/admin/students
func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	logger.Annotate(r.Context(), logger.CareerID(req.CareerID))
	student, err := s.deps.RegisterStudent.Handle(r.Context(), command.RegisterStudentCommand{
		StudentID: req.StudentID,
		Email:     req.Email,
		Name:      req.Name,
		CareerID:  req.CareerID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, student)
}

// handleReset handles POST /api/v1/admin/students/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	annotateStudent(r)
	result, err := s.deps.ResetProgress.Handle(r.Context(), command.ResetProgressCommand{
		StudentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleImportCareer handles POST /api/v1/admin/import/career/{name}
// The body is a JSON document, or YAML when the content type says so.
func (s *Server) handleImportCareer(w http.ResponseWriter, r *http.Request) {
	format := catalogimport.FormatJSON
	if ct := strings.ToLower(r.Header.Get("Content-Type")); strings.Contains(ct, "yaml") {
		format = catalogimport.FormatYAML
	}

	data, err := catalogimport.Decode(r.Body, format, r.PathValue("name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.ImportCareer.Handle(r.Context(), command.ImportCareerCommand{Data: data})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	logger.Annotate(r.Context(), logger.CareerID(result.CareerID))
	writeJSON(w, r, http.StatusCreated, result)
}

// annotateStudent tags the access log with the path's student and the career query.
func annotateStudent(r *http.Request) {
	fields := []logger.Field{logger.StudentID(r.PathValue("id"))}
	if career := r.URL.Query().Get("career_id"); career != "" {
		fields = append(fields, logger.CareerID(career))
	}
	if course := r.PathValue("course_id"); course != "" {
		fields = append(fields, logger.CourseID(course))
	}
	logger.Annotate(r.Context(), fields...)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads a JSON request body into dst. allowEmpty accepts a missing body.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return shared.NewDomainError("http", "Decode", shared.ErrInvalidInput, "request body is required")
	default:
		return shared.WrapError("http", "Decode", shared.ErrInvalidInput, "malformed request body", err)
	}
}
