package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/service"
	"attendtrack/internal/validation"
)

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
	reportService  *service.ReportService
	studentRepo    *repository.StudentRepository
	classRepo      *repository.ClassRepository
	userRepo       *repository.UserRepository
	now            func() time.Time
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, studentService *service.StudentService, reportService *service.ReportService, studentRepo *repository.StudentRepository, classRepo *repository.ClassRepository, userRepo *repository.UserRepository) *AdminHandler {
	return &AdminHandler{
		authService:    authService,
		studentService: studentService,
		reportService:  reportService,
		studentRepo:    studentRepo,
		classRepo:      classRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

type createdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ListStudents returns every student
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentRepo.ListStudents()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load students", "", err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// CreateStudent adds one student
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var student models.Student
	if !decodeJSON(w, r, &student) {
		return
	}

	id, err := h.studentService.Create(&student)
	if errors.Is(err, service.ErrDuplicateStudentID) {
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
		return
	}
	if err != nil {
		respondWithValidation(w, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: "Student created successfully"})
}

// UpdateStudent overwrites a student
func (h *AdminHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if !h.studentExists(w, id) {
		return
	}

	var student models.Student
	if !decodeJSON(w, r, &student) {
		return
	}

	err := h.studentService.Update(id, &student)
	if errors.Is(err, service.ErrDuplicateStudentID) {
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
		return
	}
	if err != nil {
		respondWithValidation(w, "Failed to update student", err)
		return
	}
	writeMessage(w, "Student updated successfully")
}

// DeleteStudent removes a student with its attendance and enrollments
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if !h.studentExists(w, id) {
		return
	}
	if err := h.studentRepo.DeleteStudent(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete student", "", err)
		return
	}
	writeMessage(w, "Student deleted successfully")
}

func (h *AdminHandler) studentExists(w http.ResponseWriter, id int64) bool {
	student, err := h.studentRepo.GetStudentByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load student", err)
		return false
	}
	if student == nil {
		respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
		return false
	}
	return true
}

type importStudentsRequest struct {
	Students []models.Student `json:"students"`
}

// ImportStudents stores a list of students row by row
func (h *AdminHandler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	var req importStudentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Students) == 0 {
		respondWithError(w, http.StatusBadRequest, "students is required", "", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.studentService.Import(req.Students))
}

// ListClasses returns every class
func (h *AdminHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classRepo.ListClasses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load classes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// CreateClass adds a class
func (h *AdminHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var class models.Class
	if !decodeJSON(w, r, &class) {
		return
	}
	if !h.validClass(w, &class) {
		return
	}

	id, err := h.classRepo.CreateClass(&class)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create class", "", err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: "Class created successfully"})
}

// UpdateClass overwrites a class
func (h *AdminHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if !h.classExists(w, id) {
		return
	}

	var class models.Class
	if !decodeJSON(w, r, &class) {
		return
	}
	if !h.validClass(w, &class) {
		return
	}

	if err := h.classRepo.UpdateClass(id, &class); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update class", "", err)
		return
	}
	writeMessage(w, "Class updated successfully")
}

func (h *AdminHandler) validClass(w http.ResponseWriter, class *models.Class) bool {
	if err := validation.Required("name", class.Name); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return false
	}
	if class.GradeID <= 0 || class.SubjectID <= 0 || class.TeacherID <= 0 {
		respondWithError(w, http.StatusBadRequest, "grade_id, subject_id and teacher_id are required", "", nil)
		return false
	}

	teacher, err := h.userRepo.GetUserByID(class.TeacherID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load teacher", err)
		return false
	}
	if teacher == nil {
		respondWithError(w, http.StatusBadRequest, "teacher_id does not reference a user", "", nil)
		return false
	}
	return true
}

func (h *AdminHandler) classExists(w http.ResponseWriter, id int64) bool {
	class, err := h.classRepo.GetClass(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load class", err)
		return false
	}
	if class == nil {
		respondWithError(w, http.StatusNotFound, "Class not found", "", nil)
		return false
	}
	return true
}

// ListEnrollments returns every enrollment of a class, active or not
func (h *AdminHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	students, err := h.classRepo.ListEnrolledStudents(id, false)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load enrollments", "", err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

type enrollRequest struct {
	StudentID int64 `json:"student_id"`
}

// AddEnrollment enrolls a student in a class as of today
func (h *AdminHandler) AddEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req enrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StudentID <= 0 {
		respondWithError(w, http.StatusBadRequest, "student_id is required", "", nil)
		return
	}
	if !h.classExists(w, id) || !h.studentExists(w, req.StudentID) {
		return
	}

	err := h.classRepo.Enroll(id, req.StudentID, h.now().UTC().Format(validation.DateLayout))
	if h.classRepo.IsUniqueViolation(err) {
		respondWithError(w, http.StatusConflict, "Student already enrolled", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to enroll student", "", err)
		return
	}
	writeMessage(w, "Student enrolled successfully")
}

// RemoveEnrollment removes a student from a class
func (h *AdminHandler) RemoveEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := urlID(w, r, "studentId")
	if !ok {
		return
	}
	if err := h.classRepo.Unenroll(id, studentID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to remove student from class", "", err)
		return
	}
	writeMessage(w, "Student removed from class successfully")
}

// TeacherClasses returns a teacher's classes with active enrollment counts
func (h *AdminHandler) TeacherClasses(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	classes, err := h.classRepo.ListClassesWithCounts(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load classes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// StudentAttendance returns a student's record and attendance history
func (h *AdminHandler) StudentAttendance(w http.ResponseWriter, r *http.Request) {
	classID, ok := queryID(w, r, "class_id")
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := repository.AttendanceFilter{
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
		ClassID:   classID,
	}

	result, err := h.reportService.StudentAttendance(chi.URLParam(r, "studentId"), filter)
	if err != nil {
		respondWithValidation(w, "Failed to load student attendance", err)
		return
	}
	if result == nil {
		respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListUsers returns every staff account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.ListUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load users", "", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserResponse struct {
	ID                int64  `json:"id"`
	Message           string `json:"message"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// CreateUser adds a staff account
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.NewUser
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	user, temporary, err := h.authService.CreateUser(req)
	if errors.Is(err, service.ErrUserExists) {
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
		return
	}
	if err != nil {
		respondWithValidation(w, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusOK, createUserResponse{ID: user.ID, Message: "User created successfully", TemporaryPassword: temporary})
}

// DashboardStats returns the dashboard counters
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.Dashboard()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get dashboard stats", "", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AttendanceSummary returns per-student status counts for a date range
func (h *AdminHandler) AttendanceSummary(w http.ResponseWriter, r *http.Request) {
	classID, ok := queryID(w, r, "class_id")
	if !ok {
		return
	}
	query := r.URL.Query()
	summary, err := h.reportService.AttendanceSummary(query.Get("start_date"), query.Get("end_date"), classID)
	if err != nil {
		respondWithValidation(w, "Failed to build attendance summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
