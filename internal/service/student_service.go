package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/validation"
)

var ErrDuplicateStudentID = errors.New("student_id already exists")

// StudentService validates and persists students
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// ValidateStudent checks the fields required to store a student
func ValidateStudent(s *models.Student) error {
	s.StudentID = strings.TrimSpace(s.StudentID)
	if err := validation.Required("student_id", s.StudentID, "first_name", s.FirstName, "last_name", s.LastName); err != nil {
		return err
	}
	if s.GradeID <= 0 {
		return validation.ValidationError{Field: "grade_id", Message: "grade_id is required"}
	}
	if err := validation.ValidateOptionalEmail("email", s.Email); err != nil {
		return err
	}
	if err := validation.ValidateOptionalEmail("parent_email", s.ParentEmail); err != nil {
		return err
	}
	return validation.ValidateOptionalDate("date_of_birth", s.DateOfBirth)
}

// Create stores one student and returns its ID
func (s *StudentService) Create(student *models.Student) (int64, error) {
	if err := ValidateStudent(student); err != nil {
		return 0, err
	}
	id, err := s.studentRepo.CreateStudent(student)
	if err != nil {
		return 0, s.classify(err)
	}
	return id, nil
}

// Update overwrites a student
func (s *StudentService) Update(id int64, student *models.Student) error {
	if err := ValidateStudent(student); err != nil {
		return err
	}
	if err := s.studentRepo.UpdateStudent(id, student); err != nil {
		return s.classify(err)
	}
	return nil
}

// Import stores each row independently. A failed row does not stop the rest.
func (s *StudentService) Import(students []models.Student) models.BatchSummary {
	results := make([]models.ItemResult, 0, len(students))
	for i := range students {
		row := i + 1
		id, err := s.Create(&students[i])
		if err != nil {
			var vErr validation.ValidationError
			if !errors.As(err, &vErr) && !errors.Is(err, ErrDuplicateStudentID) {
				log.Printf("Import row %d failed: %v", row, err)
				err = errors.New("failed to store student")
			}
		}
		results = append(results, models.ItemResult{Row: row, ID: id, Err: err})
	}

	summary := models.FoldResults(results)
	summary.Message = fmt.Sprintf("Import completed. %d students imported, %d errors.", summary.SuccessCount, summary.ErrorCount)
	return summary
}

func (s *StudentService) classify(err error) error {
	if s.studentRepo.IsUniqueViolation(err) {
		return ErrDuplicateStudentID
	}
	return err
}
