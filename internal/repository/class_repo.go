package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"attendtrack/internal/database"
	"attendtrack/internal/models"
)

const classSummarySelect = `
	SELECT c.id, c.name, c.grade_id, c.subject_id, c.teacher_id, COALESCE(c.room, ''),
		COALESCE(c.schedule_time, ''), c.created_at,
		g.name, s.name, s.code, u.first_name, u.last_name
	FROM classes c
	JOIN grades g ON c.grade_id = g.id
	JOIN subjects s ON c.subject_id = s.id
	JOIN users u ON c.teacher_id = u.id`

// ClassRepository handles database operations for classes and enrollments
type ClassRepository struct {
	db *database.DB
}

// NewClassRepository creates a new class repository
func NewClassRepository(db *database.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListClasses retrieves every class with grade, subject and teacher names
func (r *ClassRepository) ListClasses() ([]models.ClassSummary, error) {
	return r.queryClasses(classSummarySelect + " ORDER BY c.name")
}

// ListClassesForTeacher retrieves the classes owned by teacherID
func (r *ClassRepository) ListClassesForTeacher(teacherID int64) ([]models.ClassSummary, error) {
	return r.queryClasses(classSummarySelect+" WHERE c.teacher_id = ? ORDER BY c.name", teacherID)
}

func (r *ClassRepository) queryClasses(query string, args ...interface{}) ([]models.ClassSummary, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	classes := []models.ClassSummary{}
	for rows.Next() {
		var c models.ClassSummary
		if err := rows.Scan(
			&c.ID, &c.Name, &c.GradeID, &c.SubjectID, &c.TeacherID, &c.Room,
			&c.ScheduleTime, &c.CreatedAt,
			&c.GradeName, &c.SubjectName, &c.SubjectCode, &c.TeacherFirstName, &c.TeacherLastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// ListClassesWithCounts retrieves a teacher's classes with active enrollment counts
func (r *ClassRepository) ListClassesWithCounts(teacherID int64) ([]models.ClassSummary, error) {
	query := `
		SELECT c.id, c.name, c.grade_id, c.subject_id, c.teacher_id, COALESCE(c.room, ''),
			COALESCE(c.schedule_time, ''), c.created_at, g.name, s.name, s.code,
			(SELECT COUNT(*) FROM class_enrollments ce WHERE ce.class_id = c.id AND ce.status = 'active')
		FROM classes c
		JOIN grades g ON c.grade_id = g.id
		JOIN subjects s ON c.subject_id = s.id
		WHERE c.teacher_id = ?
		ORDER BY c.name
	`
	rows, err := r.db.Query(query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teacher classes: %w", err)
	}
	defer rows.Close()

	classes := []models.ClassSummary{}
	for rows.Next() {
		var c models.ClassSummary
		var count int
		if err := rows.Scan(
			&c.ID, &c.Name, &c.GradeID, &c.SubjectID, &c.TeacherID, &c.Room,
			&c.ScheduleTime, &c.CreatedAt, &c.GradeName, &c.SubjectName, &c.SubjectCode,
			&count,
		); err != nil {
			return nil, fmt.Errorf("failed to scan teacher class: %w", err)
		}
		c.StudentCount = &count
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// GetClass retrieves a class by ID
func (r *ClassRepository) GetClass(id int64) (*models.Class, error) {
	query := `
		SELECT id, name, grade_id, subject_id, teacher_id, COALESCE(room, ''), COALESCE(schedule_time, ''), created_at
		FROM classes
		WHERE id = ?
	`
	var c models.Class
	err := r.db.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.GradeID, &c.SubjectID, &c.TeacherID, &c.Room, &c.ScheduleTime, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return &c, nil
}

// ClassTeacher returns the owning teacher of a class. found is false when the class does not exist.
func (r *ClassRepository) ClassTeacher(classID int64) (teacherID int64, found bool, err error) {
	err = r.db.QueryRow("SELECT teacher_id FROM classes WHERE id = ?", classID).Scan(&teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get class owner: %w", err)
	}
	return teacherID, true, nil
}

// CreateClass inserts a class and returns its ID
func (r *ClassRepository) CreateClass(c *models.Class) (int64, error) {
	query := `
		INSERT INTO classes (name, grade_id, subject_id, teacher_id, room, schedule_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, c.Name, c.GradeID, c.SubjectID, c.TeacherID, nullString(c.Room), nullString(c.ScheduleTime))
	if err != nil {
		return 0, fmt.Errorf("failed to create class: %w", err)
	}
	return id, nil
}

// UpdateClass overwrites a class
func (r *ClassRepository) UpdateClass(id int64, c *models.Class) error {
	query := `
		UPDATE classes
		SET name = ?, grade_id = ?, subject_id = ?, teacher_id = ?, room = ?, schedule_time = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, c.Name, c.GradeID, c.SubjectID, c.TeacherID, nullString(c.Room), nullString(c.ScheduleTime), id); err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	return nil
}

// ListEnrolledStudents retrieves the students enrolled in a class. With activeOnly
// set, withdrawn enrollments are left out.
func (r *ClassRepository) ListEnrolledStudents(classID int64, activeOnly bool) ([]models.EnrolledStudent, error) {
	query := `SELECT ` + studentColumns + `, ce.enrollment_date, ce.status
		FROM students s
		JOIN class_enrollments ce ON s.id = ce.student_id
		JOIN grades g ON s.grade_id = g.id
		WHERE ce.class_id = ?`
	if activeOnly {
		query += " AND ce.status = 'active'"
	}
	query += " ORDER BY s.last_name, s.first_name"

	rows, err := r.db.Query(query, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	students := []models.EnrolledStudent{}
	for rows.Next() {
		var e models.EnrolledStudent
		targets := append(studentScanTargets(&e.Student), &e.EnrollmentDate, &e.EnrollmentStatus)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		students = append(students, e)
	}
	return students, rows.Err()
}

// Enroll adds an active enrollment of studentID in classID
func (r *ClassRepository) Enroll(classID, studentID int64, enrollmentDate string) error {
	query := `
		INSERT INTO class_enrollments (student_id, class_id, enrollment_date, status)
		VALUES (?, ?, ?, 'active')
	`
	if _, err := r.db.Exec(query, studentID, classID, enrollmentDate); err != nil {
		return fmt.Errorf("failed to enroll student: %w", err)
	}
	return nil
}

// Unenroll removes a student from a class
func (r *ClassRepository) Unenroll(classID, studentID int64) error {
	if _, err := r.db.Exec("DELETE FROM class_enrollments WHERE class_id = ? AND student_id = ?", classID, studentID); err != nil {
		return fmt.Errorf("failed to remove enrollment: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint
func (r *ClassRepository) IsUniqueViolation(err error) bool {
	return r.db.Dialect.IsUniqueViolation(err)
}
