package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeTemplate ErrorType = "template"
	ErrorTypeCompile  ErrorType = "compile"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes shared across packages.
const (
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeInvalidTemplate  = "INVALID_TEMPLATE"
	CodeViewCompile      = "VIEW_COMPILE"
	CodeMarkupCompile    = "MARKUP_COMPILE"
	CodeViewFailed       = "VIEW_FAILED"
	CodeRenderFailed     = "RENDER_FAILED"
	CodeStatFailed       = "STAT_FAILED"
	CodeReadFailed       = "READ_FAILED"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodePanic            = "PANIC"
)

// Sentinels usable with errors.Is. Matching compares Type and Code only.
var (
	ErrTemplateNotFound = &KeystoneError{Type: ErrorTypeNotFound, Code: CodeTemplateNotFound}
	ErrInvalidTemplate  = &KeystoneError{Type: ErrorTypeTemplate, Code: CodeInvalidTemplate}
)

// KeystoneError is a structured error type with context.
type KeystoneError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	FilePath  string
	Line      int
}

// Error implements the error interface.
func (e *KeystoneError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *KeystoneError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *KeystoneError) Is(target error) bool {
	var t *KeystoneError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *KeystoneError) WithContext(key string, value interface{}) *KeystoneError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *KeystoneError) WithLocation(filePath string, line int) *KeystoneError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithComponent adds component context.
func (e *KeystoneError) WithComponent(component string) *KeystoneError {
	e.Component = component

	return e
}

// NewTemplateNotFound reports a template file that does not exist.
func NewTemplateNotFound(path string, cause error) *KeystoneError {
	return &KeystoneError{
		Type:     ErrorTypeNotFound,
		Code:     CodeTemplateNotFound,
		Message:  "template not found",
		Cause:    cause,
		FilePath: path,
	}
}

// NewInvalidTemplate reports a second separator line. line is the 1-based
// line of the offending separator, first the line of the one before it.
func NewInvalidTemplate(path string, line, first int) *KeystoneError {
	return &KeystoneError{
		Type:     ErrorTypeTemplate,
		Code:     CodeInvalidTemplate,
		Message:  fmt.Sprintf("unexpected separator on line %d (already seen on line %d)", line, first),
		FilePath: path,
		Line:     line,
	}
}

// NewCompileError creates a compile error for a view or markup section.
func NewCompileError(code, path string, cause error) *KeystoneError {
	return &KeystoneError{
		Type:     ErrorTypeCompile,
		Code:     code,
		Message:  "compilation failed",
		Cause:    cause,
		FilePath: path,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *KeystoneError {
	return &KeystoneError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *KeystoneError {
	return &KeystoneError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *KeystoneError {
	return &KeystoneError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsTemplateNotFound reports whether err is or wraps a missing template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsInvalidTemplate reports whether err is or wraps a malformed template.
func IsInvalidTemplate(err error) bool {
	return errors.Is(err, ErrInvalidTemplate)
}

// IsInternal reports whether err is or wraps a failure inside keystone or
// a view, as opposed to a template that could not be loaded.
func IsInternal(err error) bool {
	var ke *KeystoneError

	return errors.As(err, &ke) && ke.Type == ErrorTypeInternal
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for errors
// that carry no classification.
func TypeOf(err error) ErrorType {
	var ke *KeystoneError
	if errors.As(err, &ke) {
		return ke.Type
	}

	return ErrorTypeInternal
}
