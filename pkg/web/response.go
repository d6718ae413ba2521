// Package web defines common components for a web application.
package web

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for session issuing APIs.
type Response struct {
	AccessToken           string    `json:"access_token,omitempty"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at,omitempty"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
	Data                  any       `json:"data,omitempty"`
	Error                 string    `json:"error,omitempty"`
}

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Error string `json:"error"`
}

// Error wraps a given err into json frinedly struct.
func Error(err error) JSONError {
	return JSONError{Error: err.Error()}
}

// GetErrorMsg renders the first validation error as a readable message.
func GetErrorMsg(ve validator.ValidationErrors) string {
	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " is required"
	case "min":
		return field.Field() + " must be at least " + field.Param() + " characters or greater"
	case "max":
		return field.Field() + " must be " + field.Param() + " characters or less"
	case "email":
		return field.Field() + " must be a valid email address"
	case "alphanum":
		return field.Field() + " must contain only letters and numbers"
	case "uuid":
		return field.Field() + " must be a valid uuid"
	}

	return fmt.Sprintf("%s is invalid", field.Field())
}
