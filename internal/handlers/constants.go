package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrAccessDenied        = "Access denied"
	ErrInvalidCredentials  = "Invalid credentials"
	ErrNotFound            = "Not found"
	ErrInternalServerError = "Internal server error"
)
