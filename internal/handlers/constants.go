package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests"
	ErrNotFound            = "Not found"

	// ProfileLevel is the fixed proficiency label shown on the profile
	ProfileLevel = "初学者 A1"

	maxRequestBodyBytes = 64 << 10
)
