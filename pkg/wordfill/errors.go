package wordfill

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConfigurationError reports a template the engine refuses to fill: a table
// row binding too many lists, or an @foreach without a data path. It is
// raised before the template is modified.
type ConfigurationError struct {
	Location string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("configuration error at %s: %s", e.Location, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError creates a configuration error with a formatted reason
func NewConfigurationError(location, format string, args ...any) error {
	return &ConfigurationError{
		Location: location,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	switch {
	case e.Path != "" && e.Cause != nil:
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	case e.Cause != nil:
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// MultiError collects the errors of a batch. It is safe for concurrent use.
type MultiError struct {
	mu     sync.Mutex
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch len(m.errors) {
	case 0:
		return nil
	case 1:
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errors) == 0 {
		return "no errors"
	}
	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}
	parts := []string{fmt.Sprintf("%d errors occurred:", len(m.errors))}
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errors...)
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]any
	Cause     error
}

func (e *ContextError) Error() string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	if len(parts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(parts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]any) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r any) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsDocumentError reports whether err is or wraps a DocumentError.
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}
