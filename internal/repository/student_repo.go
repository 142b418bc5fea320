package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"attendtrack/internal/database"
	"attendtrack/internal/models"
)

const studentColumns = `
	s.id, s.student_id, s.first_name, s.last_name, COALESCE(s.email, ''), COALESCE(s.phone, ''),
	s.grade_id, g.name, COALESCE(s.date_of_birth, ''), COALESCE(s.parent_name, ''),
	COALESCE(s.parent_phone, ''), COALESCE(s.parent_email, ''), COALESCE(s.address, ''),
	s.status, s.created_at, s.updated_at`

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func studentScanTargets(s *models.Student) []interface{} {
	return []interface{}{
		&s.ID, &s.StudentID, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.GradeID, &s.GradeName, &s.DateOfBirth, &s.ParentName,
		&s.ParentPhone, &s.ParentEmail, &s.Address,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	}
}

// ListStudents retrieves all students ordered by name
func (r *StudentRepository) ListStudents() ([]models.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students s
		JOIN grades g ON s.grade_id = g.id
		ORDER BY s.last_name, s.first_name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(studentScanTargets(&s)...); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudentByID retrieves a student by row ID
func (r *StudentRepository) GetStudentByID(id int64) (*models.Student, error) {
	return r.getStudent("s.id = ?", id)
}

// GetStudentByNumber retrieves a student by the school-issued student_id
func (r *StudentRepository) GetStudentByNumber(studentID string) (*models.Student, error) {
	return r.getStudent("s.student_id = ?", studentID)
}

func (r *StudentRepository) getStudent(where string, arg interface{}) (*models.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students s
		JOIN grades g ON s.grade_id = g.id
		WHERE ` + where
	var s models.Student
	err := r.db.QueryRow(query, arg).Scan(studentScanTargets(&s)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

// CreateStudent inserts a student and returns its row ID
func (r *StudentRepository) CreateStudent(s *models.Student) (int64, error) {
	query := `
		INSERT INTO students (student_id, first_name, last_name, email, phone, grade_id, date_of_birth, parent_name, parent_phone, parent_email, address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		s.StudentID, s.FirstName, s.LastName,
		nullString(s.Email), nullString(s.Phone), s.GradeID,
		nullString(s.DateOfBirth), nullString(s.ParentName),
		nullString(s.ParentPhone), nullString(s.ParentEmail), nullString(s.Address),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create student: %w", err)
	}
	return id, nil
}

// UpdateStudent overwrites the editable fields of a student
func (r *StudentRepository) UpdateStudent(id int64, s *models.Student) error {
	query := `
		UPDATE students
		SET student_id = ?, first_name = ?, last_name = ?, email = ?, phone = ?, grade_id = ?,
			date_of_birth = ?, parent_name = ?, parent_phone = ?, parent_email = ?, address = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		s.StudentID, s.FirstName, s.LastName,
		nullString(s.Email), nullString(s.Phone), s.GradeID,
		nullString(s.DateOfBirth), nullString(s.ParentName),
		nullString(s.ParentPhone), nullString(s.ParentEmail), nullString(s.Address),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student together with its attendance and enrollments
func (r *StudentRepository) DeleteStudent(id int64) error {
	err := r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("DELETE FROM attendance WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete attendance: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM class_enrollments WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete enrollments: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM students WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete student row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint
func (r *StudentRepository) IsUniqueViolation(err error) bool {
	return r.db.Dialect.IsUniqueViolation(err)
}
