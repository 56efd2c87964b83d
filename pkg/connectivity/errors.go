package connectivity

import "fmt"

// FormatError reports a malformed or incomplete connectivity export.
// It carries the offending entity and field so callers can locate the
// bad entry in the source file.
type FormatError struct {
	// File is the source file being parsed, if parsing from disk
	File string

	// Entity is the kind of entry that failed ("node", "edge" or "export")
	Entity string

	// UUID is the export key of the offending entry, if applicable
	UUID string

	// Field is the missing or malformed property name
	Field string

	// Reason describes what was wrong
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := "malformed connectivity export"
	if e.File != "" {
		msg += " " + e.File
	}
	if e.Entity != "" && e.UUID != "" {
		msg += fmt.Sprintf(": %s %s", e.Entity, e.UUID)
	} else if e.Entity != "" {
		msg += ": " + e.Entity
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
