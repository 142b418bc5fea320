package models

import (
	"fmt"
	"time"
)

// AttendanceStatus is the closed set of attendance outcomes
type AttendanceStatus string

const (
	StatusPresent    AttendanceStatus = "present"
	StatusAbsent     AttendanceStatus = "absent"
	StatusLate       AttendanceStatus = "late"
	StatusExcused    AttendanceStatus = "excused"
	StatusEarlyLeave AttendanceStatus = "early_leave"
)

// AttendanceStatuses lists every status in report column order
var AttendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate, StatusExcused, StatusEarlyLeave}

// ParseAttendanceStatus validates a submitted status
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	for _, status := range AttendanceStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid attendance status %q", s)
}

// AttendanceRecord is one (student, class, date) observation
type AttendanceRecord struct {
	ID         int64            `json:"id"`
	StudentID  int64            `json:"student_id"`
	ClassID    int64            `json:"class_id"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
	Notes      string           `json:"notes"`
	RecordedBy int64            `json:"recorded_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ClassAttendanceRow is an attendance record joined with the student's names
type ClassAttendanceRow struct {
	AttendanceRecord
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	StudentNumber string `json:"student_number"`
}

// StudentAttendanceRow is an attendance record joined with class and teacher names
type StudentAttendanceRow struct {
	AttendanceRecord
	ClassName        string `json:"class_name"`
	SubjectName      string `json:"subject_name"`
	TeacherFirstName string `json:"teacher_first_name"`
	TeacherLastName  string `json:"teacher_last_name"`
}

// AttendanceSummaryRow holds per-student, per-class status counts over a date range
type AttendanceSummaryRow struct {
	StudentID       string `json:"student_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ClassName       string `json:"class_name"`
	PresentCount    int    `json:"present_count"`
	AbsentCount     int    `json:"absent_count"`
	LateCount       int    `json:"late_count"`
	ExcusedCount    int    `json:"excused_count"`
	EarlyLeaveCount int    `json:"early_leave_count"`
	TotalDays       int    `json:"total_days"`
}

// DashboardStats are the admin dashboard aggregates
type DashboardStats struct {
	TotalStudents   int `json:"totalStudents"`
	TotalClasses    int `json:"totalClasses"`
	TotalTeachers   int `json:"totalTeachers"`
	TodayAttendance int `json:"todayAttendance"`
}
