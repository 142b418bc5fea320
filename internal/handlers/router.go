package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"attendtrack/internal/metrics"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Class      *ClassHandler
	Reference  *ReferenceHandler
	Admin      *AdminHandler
	Metrics    *metrics.Metrics
}

// NewRouter builds the HTTP surface. CORS headers are applied to every
// response, including preflight requests.
func NewRouter(h Handlers) http.Handler {
	m := h.Middleware
	r := chi.NewRouter()
	r.Use(m.Logging)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, ErrNotFound, "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", m.RequireAuth(h.Auth.Logout))
		r.Get("/auth/me", m.RequireAuth(h.Auth.Me))

		r.Get("/classes", m.RequireAuth(h.Class.ListClasses))
		r.Get("/classes/{classId}/students", m.RequireClassAccess("classId", h.Class.ListStudents))
		r.Get("/attendance/{classId}/{date}", m.RequireClassAccess("classId", h.Class.GetAttendance))
		r.Post("/attendance", m.RequireAuth(h.Class.RecordAttendance))

		r.Get("/grades", m.RequireAuth(h.Reference.ListGrades))
		r.Get("/subjects", m.RequireAuth(h.Reference.ListSubjects))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/students", m.RequireAdmin(h.Admin.ListStudents))
			r.Post("/students", m.RequireAdmin(h.Admin.CreateStudent))
			r.Post("/students/import", m.RequireAdmin(h.Admin.ImportStudents))
			r.Put("/students/{id}", m.RequireAdmin(h.Admin.UpdateStudent))
			r.Delete("/students/{id}", m.RequireAdmin(h.Admin.DeleteStudent))

			r.Get("/classes", m.RequireAdmin(h.Admin.ListClasses))
			r.Post("/classes", m.RequireAdmin(h.Admin.CreateClass))
			r.Put("/classes/{id}", m.RequireAdmin(h.Admin.UpdateClass))
			r.Get("/classes/{id}/enrollments", m.RequireAdmin(h.Admin.ListEnrollments))
			r.Post("/classes/{id}/enrollments", m.RequireAdmin(h.Admin.AddEnrollment))
			r.Delete("/classes/{id}/enrollments/{studentId}", m.RequireAdmin(h.Admin.RemoveEnrollment))

			r.Get("/student-attendance/{studentId}", m.RequireAdmin(h.Admin.StudentAttendance))
			r.Get("/dashboard-stats", m.RequireAdmin(h.Admin.DashboardStats))

			r.Get("/users", m.RequireAdmin(h.Admin.ListUsers))
			r.Post("/users", m.RequireAdmin(h.Admin.CreateUser))
		})

		r.Get("/users/{id}/classes", m.RequireAdmin(h.Admin.TeacherClasses))

		r.Get("/reports/attendance-summary", m.RequireAdmin(h.Admin.AttendanceSummary))
	})

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}
