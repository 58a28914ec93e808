package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrStructural  = errors.New("structural error")
	ErrDataQuality = errors.New("data quality error")
	ErrLookupMiss  = errors.New("lookup miss")
	ErrValidation  = errors.New("validation error")
	ErrInternal    = errors.New("internal error")
)

// AppError wraps errors with the table, column and loan context needed to
// trace a failure back to the offending input cell.
type AppError struct {
	Err     error  // Original error (for logging)
	Message string // Human-readable message
	Table   string // Optional source table name
	Column  string // Optional source column name
	LoanID  string // Optional loan identifier
}

func (e *AppError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("%s[%s]: %s", e.Table, e.Column, e.Message)
	case e.Table != "":
		return fmt.Sprintf("%s: %s", e.Table, e.Message)
	case e.LoanID != "":
		return fmt.Sprintf("loan %s: %s", e.LoanID, e.Message)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for common errors

func MissingTable(table string) *AppError {
	return &AppError{
		Err:     ErrStructural,
		Message: "required table not found",
		Table:   table,
	}
}

func MissingColumn(table, column string) *AppError {
	return &AppError{
		Err:     ErrStructural,
		Message: "required column not found",
		Table:   table,
		Column:  column,
	}
}

func Structural(table, message string) *AppError {
	return &AppError{
		Err:     ErrStructural,
		Message: message,
		Table:   table,
	}
}

func DataQuality(loanID, column, message string) *AppError {
	return &AppError{
		Err:     ErrDataQuality,
		Message: message,
		Column:  column,
		LoanID:  loanID,
	}
}

func LookupMiss(table, key string) *AppError {
	return &AppError{
		Err:     ErrLookupMiss,
		Message: fmt.Sprintf("no entry for %q", key),
		Table:   table,
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Column:  field,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:     err,
		Message: "an internal error occurred",
	}
}

func Wrap(err error, message string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
	}
}

// IsStructural reports whether err means the input shape itself is unusable
// and the run must stop, as opposed to a per-loan quality issue.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsDataQuality reports whether err is a recoverable per-record issue.
func IsDataQuality(err error) bool {
	return errors.Is(err, ErrDataQuality)
}

// GetMessage extracts the human-readable message from an error.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
