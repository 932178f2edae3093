package domain

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages maps validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"gte":      "Must be greater than or equal to minimum value",
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"lt":       "Must be less than maximum value",
	"numeric":  "Must be a numeric value",
	"datetime": "Must be a date in YYYY-MM-DD format",
	"gtefield": "Must not be smaller than its lower bound",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeRateLimited  = "rate_limited"
	ErrorTypeUpstream     = "upstream_error"
	ErrorTypeInternal     = "internal_error"
)
