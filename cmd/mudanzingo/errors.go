package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/auth"
	"github.com/mudanzingo/backoffice/mudanzingo/products"
	"github.com/mudanzingo/backoffice/mudanzingo/records"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "create categories")
	Cause       string   // The underlying cause (e.g., "record not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder
	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError lists every rejected field.
func NewValidationError(operation string, fe validation.FieldErrors) *CLIError {
	fields := fe.Fields()
	details := make([]string, 0, len(fields))
	for _, f := range fields {
		details = append(details, fmt.Sprintf("%s: %s", f, fe[f]))
	}
	return &CLIError{
		Operation:   operation,
		Cause:       "invalid input",
		Details:     strings.Join(details, "; "),
		Suggestions: []string{"Fix the listed fields and try again", CommonSuggestions.RunHelp},
		Underlying:  fe,
	}
}

// NewNotFoundError creates an error for missing records
func NewNotFoundError(operation string, underlying error) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       underlying.Error(),
		Suggestions: []string{CommonSuggestions.CheckID},
		Underlying:  underlying,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError creates an error for storage failures
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "storage operation failed"
	details := ""
	if underlying != nil {
		details = underlying.Error()
		errStr := strings.ToLower(details)
		switch {
		case strings.Contains(errStr, "permission denied"):
			cause = "insufficient permissions to access the data directory"
		case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "failed to acquire lock"):
			cause = "storage is currently locked by another process"
		case strings.Contains(errStr, "connection refused"):
			cause = "storage server unreachable"
		}
	}
	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// WrapError converts library errors into CLIErrors.
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}
	if fe, ok := validation.AsFieldErrors(err); ok {
		return NewValidationError(operation, fe)
	}

	switch {
	case errors.Is(err, records.ErrNotFound):
		return NewNotFoundError(operation, err)
	case errors.Is(err, auth.ErrNoSession):
		return &CLIError{
			Operation:   operation,
			Cause:       "not signed in",
			Suggestions: []string{"Run 'mudanzingo auth login' and complete the sign-in"},
			Underlying:  err,
		}
	case errors.Is(err, auth.ErrDisabled):
		e := NewConfigError(operation, err.Error(),
			"Set auth.domain and auth.client_id (MUDANZINGO_AUTH_DOMAIN, MUDANZINGO_AUTH_CLIENT_ID)")
		e.Underlying = err
		return e
	case errors.Is(err, products.ErrUnsupported):
		return &CLIError{
			Operation:   operation,
			Cause:       err.Error(),
			Suggestions: []string{"Set products_url (--products-url or MUDANZINGO_PRODUCTS_URL)"},
			Underlying:  err,
		}
	case errors.Is(err, slots.ErrUnknownDriver):
		e := NewConfigError(operation, err.Error(),
			fmt.Sprintf("Available drivers: %s", strings.Join(drivers, ", ")))
		e.Underlying = err
		return e
	}

	if len(suggestions) == 0 && errors.Is(err, records.ErrStorage) {
		suggestions = []string{CommonSuggestions.CheckPerms, CommonSuggestions.CheckConfig}
	}
	return NewStoreError(operation, err, suggestions...)
}

var drivers = []string{
	slots.DriverFile, slots.DriverMemory, slots.DriverSQLite, slots.DriverPostgres, slots.DriverS3,
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckID     string
		CheckConfig string
		RunHelp     string
		CheckPerms  string
	}{
		CheckID:     "Verify the record ID exists (try the 'list' command first)",
		CheckConfig: "Check your configuration file or environment variables",
		RunHelp:     "Run command with --help for usage information",
		CheckPerms:  "Check file permissions and directory access",
	}
)
