package repository

import (
	"fmt"

	"attendtrack/internal/database"
	"attendtrack/internal/models"
)

// ReferenceRepository reads the grade and subject lookup tables
type ReferenceRepository struct {
	db *database.DB
}

// NewReferenceRepository creates a new reference data repository
func NewReferenceRepository(db *database.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListGrades retrieves all grades ordered by name
func (r *ReferenceRepository) ListGrades() ([]models.Grade, error) {
	rows, err := r.db.Query("SELECT id, name FROM grades ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	grades := []models.Grade{}
	for rows.Next() {
		var g models.Grade
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// ListSubjects retrieves all subjects ordered by name
func (r *ReferenceRepository) ListSubjects() ([]models.Subject, error) {
	rows, err := r.db.Query("SELECT id, name, code FROM subjects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
