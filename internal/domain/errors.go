package domain

import "fmt"

// ErrSchemaNotFound indicates that a required column or the header row is missing.
type ErrSchemaNotFound struct {
	Source SourceKind
	Role   ColumnRole
	// What describes the missing piece when it is not a column role (header row, sheet).
	What string
}

func (e *ErrSchemaNotFound) Error() string {
	if e.What != "" {
		return fmt.Sprintf("schema not found [%s]: %s", e.Source, e.What)
	}
	return fmt.Sprintf("schema not found [%s]: missing column %q", e.Source, e.Role)
}

// ErrRowRejected indicates a row whose required fields could not be parsed.
// It only surfaces when the invalid-row policy is Fail.
type ErrRowRejected struct {
	Source SourceKind
	Line   int
	Reason string
}

func (e *ErrRowRejected) Error() string {
	return fmt.Sprintf("row rejected [%s] line %d: %s", e.Source, e.Line, e.Reason)
}

// ErrUnsupportedFormat indicates an upload whose extension cannot be read.
type ErrUnsupportedFormat struct {
	Ext string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported file format: %q", e.Ext)
}

// ErrUnexpected wraps any other failure caught at the top of a run.
type ErrUnexpected struct {
	Err error
}

func (e *ErrUnexpected) Error() string {
	return fmt.Sprintf("unexpected failure: %v", e.Err)
}

func (e *ErrUnexpected) Unwrap() error {
	return e.Err
}
