package config

import (
	"fmt"
	"strings"
)

// Error categories.
const (
	CategoryFile     = "file"
	CategoryServices = "services"
	CategoryPlugins  = "plugins"
	CategoryPackage  = "package"
)

// Error types.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
)

// ConfigurationError describes one malformed part of a project configuration.
// It is fatal: commoners refuses to spawn anything when one is reported.
type ConfigurationError struct {
	FilePath    string   `json:"filePath,omitempty"`
	Category    string   `json:"category"`          // services, plugins, file, package
	Key         string   `json:"key,omitempty"`     // service name or plugin index/name
	ErrorType   string   `json:"errorType"`         // parse, validation, io
	Message     string   `json:"message"`           // human readable
	Details     string   `json:"details,omitempty"` // underlying error text
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	if ce.Key != "" {
		return fmt.Sprintf("[%s] %s: %s", ce.Category, ce.Key, ce.Message)
	}
	return fmt.Sprintf("[%s] %s", ce.Category, ce.Message)
}

// DetailedError returns a multi-line message with all context.
func (ce ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration error in %s", ce.Category))
	if ce.FilePath != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	}
	if ce.Key != "" {
		parts = append(parts, fmt.Sprintf("  Entry: %s", ce.Key))
	}
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// ConfigurationErrorCollection holds every problem found in one pass so the
// user can fix them all at once.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

// Error implements the error interface for the collection
func (cec ConfigurationErrorCollection) Error() string {
	switch len(cec.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return cec.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

// Count returns the number of errors in the collection
func (cec *ConfigurationErrorCollection) Count() int {
	return len(cec.Errors)
}

// Add adds a new error to the collection
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// AddValidation records a validation failure for one entry.
func (cec *ConfigurationErrorCollection) AddValidation(category, key, message string) {
	cec.Add(ConfigurationError{
		Category:  category,
		Key:       key,
		ErrorType: ErrorTypeValidation,
		Message:   message,
	})
}

// ByCategory returns errors filtered by category
func (cec *ConfigurationErrorCollection) ByCategory(category string) []ConfigurationError {
	var filtered []ConfigurationError
	for _, err := range cec.Errors {
		if err.Category == category {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// DetailedReport returns a report of all errors for terminal output.
func (cec *ConfigurationErrorCollection) DetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration error report (%d errors):", len(cec.Errors)))
	parts = append(parts, strings.Repeat("=", 60))

	for i, err := range cec.Errors {
		parts = append(parts, fmt.Sprintf("\nError %d:", i+1))
		parts = append(parts, err.DetailedError())

		if i < len(cec.Errors)-1 {
			parts = append(parts, strings.Repeat("-", 40))
		}
	}

	return strings.Join(parts, "\n")
}

// ErrOrNil returns the collection as an error when it holds anything.
func (cec *ConfigurationErrorCollection) ErrOrNil() error {
	if cec == nil || !cec.HasErrors() {
		return nil
	}
	return cec
}

// NewConfigurationError creates a configuration error for a whole file.
func NewConfigurationError(filePath, errorType, message string, cause error) ConfigurationError {
	ce := ConfigurationError{
		FilePath:  filePath,
		Category:  CategoryFile,
		ErrorType: errorType,
		Message:   message,
	}
	if cause != nil {
		ce.Details = cause.Error()
	}
	return ce
}

// NewConfigurationErrorCollection creates a new empty error collection
func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{
		Errors: make([]ConfigurationError, 0),
	}
}
