package service

import (
	"errors"
	"fmt"
	"log"

	"attendtrack/internal/authz"
	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/validation"
)

// AttendanceInput is one submitted observation
type AttendanceInput struct {
	StudentID int64  `json:"student_id"`
	ClassID   int64  `json:"class_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// AttendanceService records attendance batches
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	gate           *authz.Gate
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(attendanceRepo *repository.AttendanceRepository, gate *authz.Gate) *AttendanceService {
	return &AttendanceService{attendanceRepo: attendanceRepo, gate: gate}
}

// Record upserts every record for the principal. Class access is checked for
// every referenced class before anything is written, so a batch touching a class
// the principal may not act on is rejected outright with authz.ErrDenied.
// Otherwise rows are written independently.
func (s *AttendanceService) Record(p *models.Principal, records []AttendanceInput) (models.BatchSummary, error) {
	checked := make(map[int64]bool)
	for _, rec := range records {
		if rec.ClassID == 0 || checked[rec.ClassID] {
			continue
		}
		if err := s.gate.AllowClass(p, rec.ClassID); err != nil {
			return models.BatchSummary{}, err
		}
		checked[rec.ClassID] = true
	}

	results := make([]models.ItemResult, 0, len(records))
	for i, rec := range records {
		results = append(results, models.ItemResult{Row: i + 1, Err: s.recordOne(p, rec)})
	}

	summary := models.FoldResults(results)
	if summary.ErrorCount == 0 {
		summary.Message = "Attendance recorded successfully"
	} else {
		summary.Message = fmt.Sprintf("Attendance recorded with %d errors", summary.ErrorCount)
	}
	return summary, nil
}

func (s *AttendanceService) recordOne(p *models.Principal, in AttendanceInput) error {
	if in.StudentID <= 0 {
		return validation.ValidationError{Field: "student_id", Message: "student_id is required"}
	}
	if in.ClassID <= 0 {
		return validation.ValidationError{Field: "class_id", Message: "class_id is required"}
	}
	if err := validation.ValidateDate("date", in.Date); err != nil {
		return err
	}
	status, err := models.ParseAttendanceStatus(in.Status)
	if err != nil {
		return validation.ValidationError{Field: "status", Message: "status must be one of present, absent, late, excused, early_leave"}
	}

	err = s.attendanceRepo.Upsert(&models.AttendanceRecord{
		StudentID:  in.StudentID,
		ClassID:    in.ClassID,
		Date:       in.Date,
		Status:     status,
		Notes:      in.Notes,
		RecordedBy: p.UserID,
	})
	if err != nil {
		log.Printf("Failed to record attendance for student %d in class %d: %v", in.StudentID, in.ClassID, err)
		return errors.New("failed to store record")
	}
	return nil
}
