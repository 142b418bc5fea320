// Package authz decides whether an authenticated principal may perform an operation.
package authz

import (
	"errors"
	"fmt"

	"attendtrack/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrDenied          = errors.New("access denied")
)

// Requirement is the access class declared by a route
type Requirement int

const (
	// Public routes need no principal
	Public Requirement = iota
	// Authenticated routes accept any principal
	Authenticated
	// AdminOnly routes accept admins only
	AdminOnly
	// TeacherScoped routes accept admins, and teachers acting on a class they own
	TeacherScoped
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	case TeacherScoped:
		return "teacher-scoped"
	}
	return fmt.Sprintf("Requirement(%d)", int(r))
}

// ClassOwners looks up the teacher recorded on a class
type ClassOwners interface {
	ClassTeacher(classID int64) (teacherID int64, found bool, err error)
}

// Gate evaluates route requirements against principals
type Gate struct {
	owners ClassOwners
}

// NewGate creates a gate that resolves class ownership through owners
func NewGate(owners ClassOwners) *Gate {
	return &Gate{owners: owners}
}

// Check evaluates a requirement that does not reference a class. For
// TeacherScoped it only establishes that the role may reach the route;
// AllowClass must still be called with the class.
func (g *Gate) Check(p *models.Principal, req Requirement) error {
	if req == Public {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}

	switch req {
	case Authenticated, TeacherScoped:
		return knownRole(p.Role)
	case AdminOnly:
		switch p.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleTeacher:
			return ErrDenied
		}
		return knownRole(p.Role)
	}
	return fmt.Errorf("unhandled requirement %s", req)
}

// AllowClass permits admins on any class and teachers only on classes they own.
// A class that does not exist is denied for teachers.
func (g *Gate) AllowClass(p *models.Principal, classID int64) error {
	if p == nil {
		return ErrUnauthenticated
	}

	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		teacherID, found, err := g.owners.ClassTeacher(classID)
		if err != nil {
			return fmt.Errorf("failed to check class ownership: %w", err)
		}
		if !found || teacherID != p.UserID {
			return ErrDenied
		}
		return nil
	}
	return knownRole(p.Role)
}

// TeacherFilter returns the teacher ID that listings must be limited to.
// scoped is false for admins, who see everything.
func TeacherFilter(p *models.Principal) (teacherID int64, scoped bool) {
	switch p.Role {
	case models.RoleAdmin:
		return 0, false
	case models.RoleTeacher:
		return p.UserID, true
	}
	// Unknown roles see only what they would own.
	return p.UserID, true
}

func knownRole(role models.Role) error {
	switch role {
	case models.RoleAdmin, models.RoleTeacher:
		return nil
	}
	return fmt.Errorf("%w: unknown role %q", ErrDenied, role)
}
