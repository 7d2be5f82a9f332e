// Package diagnostics defines the error taxonomy shared by every stage of the
// Luma toolchain.
package diagnostics

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the stage that produced a diagnostic.
type ErrorCode string

const (
	ErrL001 ErrorCode = "L001" // lexical error
	ErrP001 ErrorCode = "P001" // parse error
	ErrC001 ErrorCode = "C001" // compile error
	ErrR001 ErrorCode = "R001" // runtime error
	ErrS001 ErrorCode = "S001" // stack error
	ErrD001 ErrorCode = "D001" // serialization error
	ErrI001 ErrorCode = "I001" // i/o error
)

var codeTitles = map[ErrorCode]string{
	ErrL001: "Lexical error",
	ErrP001: "Parse error",
	ErrC001: "Compile error",
	ErrR001: "Runtime error",
	ErrS001: "Stack error",
	ErrD001: "Serialization error",
	ErrI001: "I/O error",
}

// Title returns the human readable kind of the code.
func (c ErrorCode) Title() string {
	if t, ok := codeTitles[c]; ok {
		return t
	}
	return "Error"
}

// DiagnosticError is a single failure with optional source line attribution.
type DiagnosticError struct {
	Code    ErrorCode
	Line    int
	Message string
	Err     error
}

// NewError creates a diagnostic. A line of 0 means unknown.
func NewError(code ErrorCode, line int, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a diagnostic whose message is taken from err.
func Wrap(code ErrorCode, line int, err error) *DiagnosticError {
	if err == nil {
		return nil
	}
	return &DiagnosticError{Code: code, Line: line, Message: err.Error(), Err: err}
}

func (e *DiagnosticError) Error() string {
	// Only source-facing stages render a line.
	switch e.Code {
	case ErrL001, ErrP001, ErrC001:
		if e.Line > 0 {
			return fmt.Sprintf("%s at line %d: %s", e.Code.Title(), e.Line, e.Message)
		}
	}
	return fmt.Sprintf("%s: %s", e.Code.Title(), e.Message)
}

func (e *DiagnosticError) Unwrap() error {
	return e.Err
}

// Is reports a match against another diagnostic with the same code, so
// errors.Is(err, &DiagnosticError{Code: ErrC001}) works as a kind check.
func (e *DiagnosticError) Is(target error) bool {
	t, ok := target.(*DiagnosticError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// CodeOf returns the code of the first DiagnosticError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var d *DiagnosticError
	if errors.As(err, &d) {
		return d.Code, true
	}
	return "", false
}

// LineOf returns the source line of the first DiagnosticError in err's chain.
func LineOf(err error) int {
	var d *DiagnosticError
	if errors.As(err, &d) {
		return d.Line
	}
	return 0
}
