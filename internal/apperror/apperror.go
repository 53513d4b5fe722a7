// Package apperror defines the error taxonomy shared by every layer.
//
// Services return these errors; only the HTTP layer (handler/response.go)
// knows how they map to status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("Validation Error")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotLinked           = errors.New("platform not linked")
	ErrNotFollowing        = errors.New("sheet not followed")
	ErrUpstream            = errors.New("upstream failure")
	ErrMalformedAIResponse = errors.New("malformed ai response")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, logged but never shown to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when credentials are missing or wrong.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// NotLinked reports that the user has no handle for the given platform.
// The platform name is capitalised for display ("Codeforces username not found for this user").
func NotLinked(platform string) *AppError {
	return &AppError{
		Err:     ErrNotLinked,
		Message: fmt.Sprintf("%s username not found for this user", displayName(platform)),
		Field:   platform,
	}
}

func NotFollowing() *AppError {
	return &AppError{
		Err:     ErrNotFollowing,
		Message: "You need to follow this sheet first",
		Field:   "sheetId",
	}
}

// Upstream wraps a failure of a third-party API or the AI model.
// The client only sees a generic message; cause is kept for the logs.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s is unavailable", service),
		Cause:   cause,
	}
}

func MalformedAIResponse(cause error) *AppError {
	return &AppError{
		Err:     ErrMalformedAIResponse,
		Message: "the AI model returned an unreadable response",
		Cause:   cause,
	}
}

func displayName(platform string) string {
	switch platform {
	case "github":
		return "GitHub"
	case "leetcode":
		return "LeetCode"
	case "codeforces":
		return "Codeforces"
	case "":
		return "Platform"
	}
	return platform
}
