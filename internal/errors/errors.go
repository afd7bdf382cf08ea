package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Error types for the pullup refactoring engine
type ErrorType string

const (
	// Resolution errors (pre-mutation hard gates)
	ErrorTypeClassNotFound    ErrorType = "class_not_found"
	ErrorTypeMethodNotFound   ErrorType = "method_not_found"
	ErrorTypeNotAnAncestor    ErrorType = "not_an_ancestor"
	ErrorTypeUnresolvableType ErrorType = "unresolvable_type"

	// Conflict errors (pre-mutation hard gates)
	ErrorTypeSignatureConflict ErrorType = "signature_conflict"
	ErrorTypeDuplicateMethod   ErrorType = "duplicate_method"
	ErrorTypeOverloadAmbiguity ErrorType = "overload_ambiguity"

	// Collaborator errors
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeWrite    ErrorType = "write"
	ErrorTypeSnapshot ErrorType = "snapshot"
	ErrorTypeConfig   ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// RefactorError represents a failure while resolving or migrating a member.
// Gate errors carry zero side effects: the model is untouched when one is returned.
type RefactorError struct {
	Type        ErrorType
	Class       string
	Member      string
	Operation   string
	Suggestions []string
	Underlying  error
	Timestamp   time.Time
}

// NewRefactorError creates a refactoring error of the given type
func NewRefactorError(errType ErrorType, op string) *RefactorError {
	return &RefactorError{
		Type:      errType,
		Operation: op,
		Timestamp: time.Now(),
	}
}

// WithClass adds the class name the error refers to
func (e *RefactorError) WithClass(name string) *RefactorError {
	e.Class = name
	return e
}

// WithMember adds the method or field name the error refers to
func (e *RefactorError) WithMember(name string) *RefactorError {
	e.Member = name
	return e
}

// WithSuggestions attaches "did you mean" candidates
func (e *RefactorError) WithSuggestions(names []string) *RefactorError {
	e.Suggestions = names
	return e
}

// WithUnderlying attaches a wrapped cause
func (e *RefactorError) WithUnderlying(err error) *RefactorError {
	e.Underlying = err
	return e
}

// Error implements the error interface
func (e *RefactorError) Error() string {
	var msg string
	switch e.Type {
	case ErrorTypeClassNotFound:
		msg = fmt.Sprintf("class %q not found", e.Class)
	case ErrorTypeMethodNotFound:
		msg = fmt.Sprintf("method %q not found in class %q", e.Member, e.Class)
	case ErrorTypeNotAnAncestor:
		msg = fmt.Sprintf("class %q is not an ancestor of %q", e.Class, e.Member)
	case ErrorTypeUnresolvableType:
		msg = fmt.Sprintf("type %q cannot be resolved from %q", e.Member, e.Class)
	case ErrorTypeSignatureConflict:
		msg = fmt.Sprintf("method %q already declared in %q with a different body", e.Member, e.Class)
	case ErrorTypeDuplicateMethod:
		msg = fmt.Sprintf("method %q already declared in %q with an identical body", e.Member, e.Class)
	case ErrorTypeOverloadAmbiguity:
		msg = fmt.Sprintf("moving %q into %q would create ambiguous overloads", e.Member, e.Class)
	default:
		msg = fmt.Sprintf("%s failed", e.Operation)
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As
func (e *RefactorError) Unwrap() error {
	return e.Underlying
}

// IsGate reports whether the error is a pre-mutation hard gate
func (e *RefactorError) IsGate() bool {
	switch e.Type {
	case ErrorTypeClassNotFound, ErrorTypeMethodNotFound, ErrorTypeNotAnAncestor,
		ErrorTypeUnresolvableType, ErrorTypeSignatureConflict,
		ErrorTypeDuplicateMethod, ErrorTypeOverloadAmbiguity:
		return true
	}
	return false
}

// NewClassNotFound creates a ClassNotFound gate error
func NewClassNotFound(name string) *RefactorError {
	return NewRefactorError(ErrorTypeClassNotFound, "resolve class").WithClass(name)
}

// NewMethodNotFound creates a MethodNotFound gate error
func NewMethodNotFound(class, method string) *RefactorError {
	return NewRefactorError(ErrorTypeMethodNotFound, "resolve method").WithClass(class).WithMember(method)
}

// NewNotAnAncestor creates a NotAnAncestor gate error.
// Class holds the requested destination, Member the origin class.
func NewNotAnAncestor(destination, origin string) *RefactorError {
	return NewRefactorError(ErrorTypeNotAnAncestor, "resolve destination").WithClass(destination).WithMember(origin)
}

// NewUnresolvableType creates an UnresolvableType gate error.
// Class holds the location the type was needed at, Member the type name.
func NewUnresolvableType(location, typeName string) *RefactorError {
	return NewRefactorError(ErrorTypeUnresolvableType, "resolve type").WithClass(location).WithMember(typeName)
}

// NewSignatureConflict creates a SignatureConflict gate error
func NewSignatureConflict(destination, signature string) *RefactorError {
	return NewRefactorError(ErrorTypeSignatureConflict, "check conflicts").WithClass(destination).WithMember(signature)
}

// NewDuplicateMethod creates a DuplicateMethod outcome error
func NewDuplicateMethod(destination, signature string) *RefactorError {
	return NewRefactorError(ErrorTypeDuplicateMethod, "check conflicts").WithClass(destination).WithMember(signature)
}

// NewOverloadAmbiguity creates an OverloadAmbiguity gate error
func NewOverloadAmbiguity(destination, signature string) *RefactorError {
	return NewRefactorError(ErrorTypeOverloadAmbiguity, "check conflicts").WithClass(destination).WithMember(signature)
}

// AsRefactor extracts a RefactorError from an error chain
func AsRefactor(err error) (*RefactorError, bool) {
	var re *RefactorError
	ok := stderrors.As(err, &re)
	return re, ok
}

// ParseError represents a source parsing error
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path string, line, column int, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Line:       line,
		Column:     column,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at %s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
	}
	return fmt.Sprintf("parse error in %s: %v", e.FilePath, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file write or snapshot error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(errType ErrorType, op, path string, err error) *FileError {
	return &FileError{
		Type:       errType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// HasErrors reports whether any error was collected
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}
