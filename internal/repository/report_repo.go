package repository

import (
	"fmt"
	"math"

	"attendtrack/internal/database"
	"attendtrack/internal/models"
)

// ReportRepository runs the aggregate queries behind reports and the dashboard
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// AttendanceSummary counts each status per student and class between two dates
// inclusive. A zero classID covers every class.
func (r *ReportRepository) AttendanceSummary(startDate, endDate string, classID int64) ([]models.AttendanceSummaryRow, error) {
	query := `
		SELECT
			s.student_id,
			s.first_name,
			s.last_name,
			c.name,
			COUNT(CASE WHEN a.status = 'present' THEN 1 END),
			COUNT(CASE WHEN a.status = 'absent' THEN 1 END),
			COUNT(CASE WHEN a.status = 'late' THEN 1 END),
			COUNT(CASE WHEN a.status = 'excused' THEN 1 END),
			COUNT(CASE WHEN a.status = 'early_leave' THEN 1 END),
			COUNT(*)
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		JOIN classes c ON a.class_id = c.id
		WHERE a.attendance_date BETWEEN ? AND ?
	`
	args := []interface{}{startDate, endDate}
	if classID != 0 {
		query += " AND a.class_id = ?"
		args = append(args, classID)
	}
	query += `
		GROUP BY s.id, s.student_id, s.first_name, s.last_name, c.id, c.name
		ORDER BY s.last_name, s.first_name, c.name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance summary: %w", err)
	}
	defer rows.Close()

	summary := []models.AttendanceSummaryRow{}
	for rows.Next() {
		var row models.AttendanceSummaryRow
		if err := rows.Scan(
			&row.StudentID, &row.FirstName, &row.LastName, &row.ClassName,
			&row.PresentCount, &row.AbsentCount, &row.LateCount, &row.ExcusedCount, &row.EarlyLeaveCount,
			&row.TotalDays,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// DashboardStats gathers the admin dashboard counters. today is a YYYY-MM-DD date.
func (r *ReportRepository) DashboardStats(today string) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM students WHERE status = 'active'").Scan(&stats.TotalStudents); err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM classes").Scan(&stats.TotalClasses); err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'teacher'").Scan(&stats.TotalTeachers); err != nil {
		return nil, fmt.Errorf("failed to count teachers: %w", err)
	}

	var present, total int
	query := `
		SELECT COUNT(CASE WHEN status = 'present' THEN 1 END), COUNT(*)
		FROM attendance
		WHERE attendance_date = ?
	`
	if err := r.db.QueryRow(query, today).Scan(&present, &total); err != nil {
		return nil, fmt.Errorf("failed to compute today's attendance: %w", err)
	}
	stats.TodayAttendance = AttendanceRate(present, total)

	return stats, nil
}

// AttendanceRate returns present/total as a rounded percentage, 0 when nothing was recorded
func AttendanceRate(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}
