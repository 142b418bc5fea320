package service

import (
	"time"

	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/validation"
)

// ReportService builds admin reports
type ReportService struct {
	reportRepo     *repository.ReportRepository
	studentRepo    *repository.StudentRepository
	attendanceRepo *repository.AttendanceRepository
	now            func() time.Time
}

// NewReportService creates a new report service
func NewReportService(reportRepo *repository.ReportRepository, studentRepo *repository.StudentRepository, attendanceRepo *repository.AttendanceRepository) *ReportService {
	return &ReportService{
		reportRepo:     reportRepo,
		studentRepo:    studentRepo,
		attendanceRepo: attendanceRepo,
		now:            time.Now,
	}
}

// AttendanceSummary returns per-student, per-class counts over an inclusive date range
func (s *ReportService) AttendanceSummary(startDate, endDate string, classID int64) ([]models.AttendanceSummaryRow, error) {
	if err := validation.ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.reportRepo.AttendanceSummary(startDate, endDate, classID)
}

// Dashboard returns the admin dashboard counters for the current UTC day
func (s *ReportService) Dashboard() (*models.DashboardStats, error) {
	return s.reportRepo.DashboardStats(s.now().UTC().Format(validation.DateLayout))
}

// StudentAttendance is a student with their attendance history
type StudentAttendance struct {
	Student    *models.Student               `json:"student"`
	Attendance []models.StudentAttendanceRow `json:"attendance"`
}

// StudentAttendance looks a student up by school-issued ID and returns their history.
// The result is nil when no such student exists.
func (s *ReportService) StudentAttendance(studentNumber string, filter repository.AttendanceFilter) (*StudentAttendance, error) {
	if filter.StartDate != "" || filter.EndDate != "" {
		if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
			return nil, err
		}
	}

	student, err := s.studentRepo.GetStudentByNumber(studentNumber)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, nil
	}

	records, err := s.attendanceRepo.ListForStudent(student.ID, filter)
	if err != nil {
		return nil, err
	}
	return &StudentAttendance{Student: student, Attendance: records}, nil
}
