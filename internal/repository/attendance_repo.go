package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"attendtrack/internal/database"
	"attendtrack/internal/models"
)

// AttendanceFilter narrows a student's attendance history. Empty fields are ignored.
type AttendanceFilter struct {
	StartDate string
	EndDate   string
	ClassID   int64
}

// AttendanceRepository handles database operations for attendance records
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert writes one record keyed by (student, class, date). An existing row
// takes the new status, notes and recorder.
func (r *AttendanceRepository) Upsert(rec *models.AttendanceRecord) error {
	_, err := r.db.Exec(r.db.Dialect.UpsertAttendance(),
		rec.StudentID, rec.ClassID, rec.Date, string(rec.Status), rec.Notes, rec.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	return nil
}

// Get retrieves the record for one (student, class, date) key
func (r *AttendanceRepository) Get(studentID, classID int64, date string) (*models.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, class_id, attendance_date, status, notes, COALESCE(recorded_by, 0), created_at, updated_at
		FROM attendance
		WHERE student_id = ? AND class_id = ? AND attendance_date = ?
	`
	var rec models.AttendanceRecord
	var status string
	err := r.db.QueryRow(query, studentID, classID, date).Scan(
		&rec.ID, &rec.StudentID, &rec.ClassID, &rec.Date, &status, &rec.Notes, &rec.RecordedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	rec.Status = models.AttendanceStatus(status)
	return &rec, nil
}

// ListForClass retrieves a class's attendance on one date, ordered by student name
func (r *AttendanceRepository) ListForClass(classID int64, date string) ([]models.ClassAttendanceRow, error) {
	query := `
		SELECT a.id, a.student_id, a.class_id, a.attendance_date, a.status, a.notes, COALESCE(a.recorded_by, 0),
			a.created_at, a.updated_at, s.first_name, s.last_name, s.student_id
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		WHERE a.class_id = ? AND a.attendance_date = ?
		ORDER BY s.last_name, s.first_name
	`
	rows, err := r.db.Query(query, classID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []models.ClassAttendanceRow{}
	for rows.Next() {
		var row models.ClassAttendanceRow
		var status string
		if err := rows.Scan(
			&row.ID, &row.StudentID, &row.ClassID, &row.Date, &status, &row.Notes, &row.RecordedBy,
			&row.CreatedAt, &row.UpdatedAt, &row.FirstName, &row.LastName, &row.StudentNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		row.Status = models.AttendanceStatus(status)
		records = append(records, row)
	}
	return records, rows.Err()
}

// ListForStudent retrieves a student's attendance history, newest first
func (r *AttendanceRepository) ListForStudent(studentID int64, filter AttendanceFilter) ([]models.StudentAttendanceRow, error) {
	query := `
		SELECT a.id, a.student_id, a.class_id, a.attendance_date, a.status, a.notes, COALESCE(a.recorded_by, 0),
			a.created_at, a.updated_at, c.name, s.name, u.first_name, u.last_name
		FROM attendance a
		JOIN classes c ON a.class_id = c.id
		JOIN subjects s ON c.subject_id = s.id
		JOIN users u ON c.teacher_id = u.id
		WHERE a.student_id = ?
	`
	args := []interface{}{studentID}
	if filter.StartDate != "" && filter.EndDate != "" {
		query += " AND a.attendance_date BETWEEN ? AND ?"
		args = append(args, filter.StartDate, filter.EndDate)
	}
	if filter.ClassID != 0 {
		query += " AND a.class_id = ?"
		args = append(args, filter.ClassID)
	}
	query += " ORDER BY a.attendance_date DESC, c.name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query student attendance: %w", err)
	}
	defer rows.Close()

	records := []models.StudentAttendanceRow{}
	for rows.Next() {
		var row models.StudentAttendanceRow
		var status string
		if err := rows.Scan(
			&row.ID, &row.StudentID, &row.ClassID, &row.Date, &status, &row.Notes, &row.RecordedBy,
			&row.CreatedAt, &row.UpdatedAt, &row.ClassName, &row.SubjectName, &row.TeacherFirstName, &row.TeacherLastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student attendance: %w", err)
		}
		row.Status = models.AttendanceStatus(status)
		records = append(records, row)
	}
	return records, rows.Err()
}
