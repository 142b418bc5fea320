package models

import "time"

// Grade is a reference row used by students and classes
type Grade struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Subject is a reference row used by classes
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Student is an enrolled pupil. StudentID is the school-issued identifier.
type Student struct {
	ID          int64     `json:"id"`
	StudentID   string    `json:"student_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	GradeID     int64     `json:"grade_id"`
	GradeName   string    `json:"grade_name,omitempty"`
	DateOfBirth string    `json:"date_of_birth"`
	ParentName  string    `json:"parent_name"`
	ParentPhone string    `json:"parent_phone"`
	ParentEmail string    `json:"parent_email"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EnrolledStudent is a student row joined with its enrollment in one class
type EnrolledStudent struct {
	Student
	EnrollmentDate   string `json:"enrollment_date"`
	EnrollmentStatus string `json:"enrollment_status"`
}

// Class is a teaching group owned by exactly one teacher
type Class struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	GradeID      int64     `json:"grade_id"`
	SubjectID    int64     `json:"subject_id"`
	TeacherID    int64     `json:"teacher_id"`
	Room         string    `json:"room"`
	ScheduleTime string    `json:"schedule_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClassSummary is a class joined with its grade, subject and teacher names
type ClassSummary struct {
	Class
	GradeName        string `json:"grade_name"`
	SubjectName      string `json:"subject_name"`
	SubjectCode      string `json:"subject_code"`
	TeacherFirstName string `json:"teacher_first_name,omitempty"`
	TeacherLastName  string `json:"teacher_last_name,omitempty"`
	StudentCount     *int   `json:"student_count,omitempty"`
}
