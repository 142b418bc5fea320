package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attendtrack/internal/authz"
	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/service"
	"attendtrack/internal/validation"
)

// ClassHandler serves the teacher-facing class and attendance routes
type ClassHandler struct {
	classRepo         *repository.ClassRepository
	attendanceRepo    *repository.AttendanceRepository
	attendanceService *service.AttendanceService
}

// NewClassHandler creates a new class handler
func NewClassHandler(classRepo *repository.ClassRepository, attendanceRepo *repository.AttendanceRepository, attendanceService *service.AttendanceService) *ClassHandler {
	return &ClassHandler{
		classRepo:         classRepo,
		attendanceRepo:    attendanceRepo,
		attendanceService: attendanceService,
	}
}

// ListClasses returns every class for admins and owned classes for teachers
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	var (
		classes []models.ClassSummary
		err     error
	)
	if teacherID, scoped := authz.TeacherFilter(GetPrincipalFromContext(r.Context())); scoped {
		classes, err = h.classRepo.ListClassesForTeacher(teacherID)
	} else {
		classes, err = h.classRepo.ListClasses()
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load classes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// ListStudents returns the active roster of a class
func (h *ClassHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	classID, ok := urlID(w, r, "classId")
	if !ok {
		return
	}
	students, err := h.classRepo.ListEnrolledStudents(classID, true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load students", "", err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// GetAttendance returns a class's attendance on one date
func (h *ClassHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	classID, ok := urlID(w, r, "classId")
	if !ok {
		return
	}
	date := chi.URLParam(r, "date")
	if err := validation.ValidateDate("date", date); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	records, err := h.attendanceRepo.ListForClass(classID, date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load attendance", "", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type recordAttendanceRequest struct {
	Records []service.AttendanceInput `json:"records"`
}

// RecordAttendance upserts a batch of attendance records
func (h *ClassHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req recordAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Records) == 0 {
		respondWithError(w, http.StatusBadRequest, "records is required", "", nil)
		return
	}

	summary, err := h.attendanceService.Record(GetPrincipalFromContext(r.Context()), req.Records)
	if errors.Is(err, authz.ErrDenied) {
		respondWithError(w, http.StatusForbidden, ErrAccessDenied, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to record attendance", "", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
