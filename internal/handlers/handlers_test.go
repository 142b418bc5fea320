package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"attendtrack/internal/auth"
	"attendtrack/internal/authz"
	"attendtrack/internal/database"
	"attendtrack/internal/metrics"
	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/security"
	"attendtrack/internal/service"
	"attendtrack/internal/session"
)

type apiEnv struct {
	server   http.Handler
	users    *repository.UserRepository
	students *repository.StudentRepository
	classes  *repository.ClassRepository
	admin    *models.User
	teacher  *models.User
	ownClass int64
	other    int64
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	store := session.NewSQLStore(userRepo, 24*time.Hour)
	gate := authz.NewGate(classRepo)
	m := metrics.New()

	authService := service.NewAuthService(userRepo, store)
	studentService := service.NewStudentService(studentRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, gate)
	reportService := service.NewReportService(reportRepo, studentRepo, attendanceRepo)

	env := &apiEnv{users: userRepo, students: studentRepo, classes: classRepo}
	env.server = NewRouter(Handlers{
		Middleware: NewMiddleware(auth.NewAuthenticator(store), gate, m),
		Auth:       NewAuthHandler(authService, m),
		Class:      NewClassHandler(classRepo, attendanceRepo, attendanceService),
		Reference:  NewReferenceHandler(referenceRepo),
		Admin:      NewAdminHandler(authService, studentService, reportService, studentRepo, classRepo, userRepo),
		Metrics:    m,
	})

	env.admin, err = userRepo.CreateUser("admin", "admin@school.local", security.Digest("admin123"), models.RoleAdmin, "System", "Administrator")
	if err != nil {
		t.Fatalf("CreateUser admin failed: %v", err)
	}
	hash, err := security.HashPassword("teach123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	env.teacher, err = userRepo.CreateUser("mr.t", "t@school.local", hash, models.RoleTeacher, "Tom", "Tan")
	if err != nil {
		t.Fatalf("CreateUser teacher failed: %v", err)
	}
	colleague, err := userRepo.CreateUser("ms.c", "c@school.local", hash, models.RoleTeacher, "Cai", "Chen")
	if err != nil {
		t.Fatalf("CreateUser colleague failed: %v", err)
	}

	env.ownClass, err = classRepo.CreateClass(&models.Class{Name: "Physics 9", GradeID: 1, SubjectID: 1, TeacherID: env.teacher.ID})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}
	env.other, err = classRepo.CreateClass(&models.Class{Name: "Art 9", GradeID: 1, SubjectID: 1, TeacherID: colleague.ID})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string           `json:"token"`
		User  models.Principal `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "admin123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User["role"] != "admin" || resp.User["username"] != "admin" {
		t.Errorf("unexpected user %v", resp.User)
	}
	if _, leaked := resp.User["password_hash"]; leaked {
		t.Error("password hash must not be returned")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body.Bytes()); msg != ErrInvalidCredentials {
		t.Errorf("expected %q, got %q", ErrInvalidCredentials, msg)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin", "admin123")

	if rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("me before logout: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body.Bytes()); msg != ErrUnauthorized {
		t.Errorf("expected %q, got %q", ErrUnauthorized, msg)
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	env := newAPIEnv(t)

	for _, path := range []string{"/api/classes", "/api/admin/students", "/api/reports/attendance-summary"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/api/classes", "not-a-session", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown token: expected 401, got %d", rec.Code)
	}
}

func TestTeacherScope(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "mr.t", "teach123")

	rec := env.do(t, http.MethodGet, "/api/classes", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list classes: %d", rec.Code)
	}
	var classes []models.ClassSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &classes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(classes) != 1 || classes[0].ID != env.ownClass {
		t.Fatalf("teacher should only see the owned class, got %+v", classes)
	}

	own := "/api/classes/" + itoa(env.ownClass) + "/students"
	if rec := env.do(t, http.MethodGet, own, token, nil); rec.Code != http.StatusOK {
		t.Errorf("owned class roster: expected 200, got %d", rec.Code)
	}

	other := "/api/classes/" + itoa(env.other) + "/students"
	rec = env.do(t, http.MethodGet, other, token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unowned class roster: expected 403, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body.Bytes()); msg != ErrAccessDenied {
		t.Errorf("expected %q, got %q", ErrAccessDenied, msg)
	}

	if rec := env.do(t, http.MethodGet, "/api/attendance/"+itoa(env.other)+"/2024-09-02", token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("unowned class attendance: expected 403, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/students", token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("admin route for teacher: expected 403, got %d", rec.Code)
	}
}

func TestRecordAttendanceRejectsUnownedClass(t *testing.T) {
	env := newAPIEnv(t)
	studentID, err := env.students.CreateStudent(&models.Student{StudentID: "S100", FirstName: "Lin", LastName: "Wu", GradeID: 1})
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}
	token := env.login(t, "mr.t", "teach123")

	body := map[string]interface{}{"records": []service.AttendanceInput{
		{StudentID: studentID, ClassID: env.ownClass, Date: "2024-09-02", Status: "present"},
		{StudentID: studentID, ClassID: env.other, Date: "2024-09-02", Status: "absent"},
	}}
	if rec := env.do(t, http.MethodPost, "/api/attendance", token, body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	body["records"] = []service.AttendanceInput{{StudentID: studentID, ClassID: env.ownClass, Date: "2024-09-02", Status: "late"}}
	rec := env.do(t, http.MethodPost, "/api/attendance", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.BatchSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.SuccessCount != 1 || summary.ErrorCount != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}

	rec = env.do(t, http.MethodGet, "/api/attendance/"+itoa(env.ownClass)+"/2024-09-02", token, nil)
	var rows []models.ClassAttendanceRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != models.StatusLate {
		t.Errorf("unexpected attendance rows %+v", rows)
	}
}

func TestImportStudentsReportsRows(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin", "admin123")

	body := map[string]interface{}{"students": []models.Student{
		{StudentID: "S1", FirstName: "A", LastName: "One", GradeID: 1},
		{StudentID: "S1", FirstName: "B", LastName: "Two", GradeID: 1},
		{StudentID: "S3", FirstName: "C", LastName: "Three", GradeID: 1},
	}}
	rec := env.do(t, http.MethodPost, "/api/admin/students/import", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.BatchSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.SuccessCount != 2 || summary.ErrorCount != 1 {
		t.Fatalf("expected 2/1, got %+v", summary)
	}
	if len(summary.Errors) != 1 || !strings.HasPrefix(summary.Errors[0], "Row 2:") {
		t.Errorf("expected a Row 2 error, got %v", summary.Errors)
	}
}

func TestStudentLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin", "admin123")

	student := models.Student{StudentID: "S9", FirstName: "Eve", LastName: "Ng", GradeID: 2}
	rec := env.do(t, http.MethodPost, "/api/admin/students", token, student)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == 0 {
		t.Fatalf("create response: %s", rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/admin/students", token, student); rec.Code != http.StatusConflict {
		t.Errorf("duplicate student_id: expected 409, got %d", rec.Code)
	}

	enroll := "/api/admin/classes/" + itoa(env.ownClass) + "/enrollments"
	if rec := env.do(t, http.MethodPost, enroll, token, map[string]int64{"student_id": created.ID}); rec.Code != http.StatusOK {
		t.Fatalf("enroll: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, enroll, token, map[string]int64{"student_id": created.ID}); rec.Code != http.StatusConflict {
		t.Errorf("second enroll: expected 409, got %d", rec.Code)
	}

	student.LastName = "Ng-Lee"
	if rec := env.do(t, http.MethodPut, "/api/admin/students/"+itoa(created.ID), token, student); rec.Code != http.StatusOK {
		t.Errorf("update: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodDelete, "/api/admin/students/"+itoa(created.ID), token, nil); rec.Code != http.StatusOK {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/admin/students/"+itoa(created.ID), token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: expected 404, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/student-attendance/S9", token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("attendance for deleted student: expected 404, got %d", rec.Code)
	}
}

func TestCreateUserWithoutPassword(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin", "admin123")

	body := map[string]string{"username": "ms.new", "email": "new@school.local", "role": "teacher", "first_name": "Nia", "last_name": "Park"}
	rec := env.do(t, http.MethodPost, "/api/admin/users", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create user: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID                int64  `json:"id"`
		TemporaryPassword string `json:"temporary_password"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TemporaryPassword == "" {
		t.Fatal("expected a temporary password")
	}
	env.login(t, "ms.new", resp.TemporaryPassword)

	if rec := env.do(t, http.MethodPost, "/api/admin/users", token, body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate user: expected 409, got %d", rec.Code)
	}
}

func TestReportsRequireDateRange(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin", "admin123")

	if rec := env.do(t, http.MethodGet, "/api/reports/attendance-summary", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing dates: expected 400, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/reports/attendance-summary?start_date=2024-09-01&end_date=2024-09-30", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("summary: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/dashboard-stats", token, nil); rec.Code != http.StatusOK {
		t.Errorf("dashboard: expected 200, got %d", rec.Code)
	}
}

func TestHealthNotFoundAndCORS(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/nowhere", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body.Bytes()); msg != ErrNotFound {
		t.Errorf("expected %q, got %q", ErrNotFound, msg)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	pre := httptest.NewRecorder()
	env.server.ServeHTTP(pre, req)
	if pre.Code >= 300 {
		t.Errorf("preflight: expected success, got %d", pre.Code)
	}
	if got := pre.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("preflight allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodGet, "/health", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "attendance_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
