package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/auth"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// json names so messages match what the client sent.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// decodeJSON reads the body into v and validates it by its `validate` tags.
// Every failure is an apperror validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "Invalid JSON body")
		}
	}
	return validateStruct(v)
}

func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("body", "invalid request")
	}
	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// requireUser returns the authenticated caller's id.
func requireUser(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthenticated("Please login")
	}
	return id, nil
}
