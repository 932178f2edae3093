package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/seatemp/sea-temperature/internal/service"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports fields by their query or json name instead of the Go name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a 400 with one message per failing field
func respondValidationError(w http.ResponseWriter, err error) {
	fieldErrors := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}
	respondFieldErrors(w, fieldErrors)
}

func respondFieldErrors(w http.ResponseWriter, fieldErrors map[string]string) {
	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fieldErrors,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName lower-cases the first letter of a field name
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// respondServiceError maps service sentinel errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("Request timed out", zap.Error(err))
		respondWithError(w, http.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		logger.Debug("Request canceled", zap.Error(err))
	case errors.Is(err, service.ErrUpstreamUnavailable):
		logger.Error("Upstream SST source failed", zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "SST data source is unavailable, try again later")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusTooManyRequests:
		return domain.ErrorTypeRateLimited
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}
