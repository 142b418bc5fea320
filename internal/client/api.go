package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"attendtrack/internal/models"
)

type loginResponse struct {
	Token string            `json:"token"`
	User  *models.Principal `json:"user"`
}

// Login authenticates and stores the returned token
func (c *Client) Login(ctx context.Context, username, password string) (*models.Principal, error) {
	var resp loginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	if err := c.tokens.Save(resp.Token, resp.User); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout revokes the session on the server and always clears the local token
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if clearErr := c.tokens.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Me returns the current principal
func (c *Client) Me(ctx context.Context) (*models.Principal, error) {
	var p models.Principal
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Classes lists the classes visible to the caller
func (c *Client) Classes(ctx context.Context) ([]models.ClassSummary, error) {
	var classes []models.ClassSummary
	if err := c.Do(ctx, http.MethodGet, "/api/classes", nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// Students lists the active roster of a class
func (c *Client) Students(ctx context.Context, classID int64) ([]models.EnrolledStudent, error) {
	var students []models.EnrolledStudent
	path := fmt.Sprintf("/api/classes/%d/students", classID)
	if err := c.Do(ctx, http.MethodGet, path, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Attendance returns a class's attendance on one date
func (c *Client) Attendance(ctx context.Context, classID int64, date string) ([]models.ClassAttendanceRow, error) {
	var rows []models.ClassAttendanceRow
	path := "/api/attendance/" + strconv.FormatInt(classID, 10) + "/" + url.PathEscape(date)
	if err := c.Do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Mark is one attendance entry submitted by Record
type Mark struct {
	StudentID int64  `json:"student_id"`
	ClassID   int64  `json:"class_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
}

// Record submits a batch of attendance entries
func (c *Client) Record(ctx context.Context, marks []Mark) (*models.BatchSummary, error) {
	var summary models.BatchSummary
	body := map[string][]Mark{"records": marks}
	if err := c.Do(ctx, http.MethodPost, "/api/attendance", body, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
