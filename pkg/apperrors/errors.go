// Package apperrors defines the error taxonomy for windrose-engine.
//
// Repositories return the plain sentinels (ErrNotFound and friends); the
// service layer converts them into code-bearing *Error values whose messages
// are safe to hand straight to the conversational caller.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors used between repositories and services.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Code is a machine-readable failure classification.
type Code string

const (
	CodeProjectNotFound      Code = "PROJECT_NOT_FOUND"
	CodeNameAlreadyExists    Code = "NAME_ALREADY_EXISTS"
	CodeProjectInProgress    Code = "PROJECT_IN_PROGRESS"
	CodeConfirmationRequired Code = "CONFIRMATION_REQUIRED"
	CodeInvalidCoordinates   Code = "INVALID_COORDINATES"
	CodeInvalidProjectName   Code = "INVALID_PROJECT_NAME"
	CodeMergeConflict        Code = "MERGE_CONFLICT"
	CodeUnsupportedVersion   Code = "UNSUPPORTED_VERSION"
	CodeInvalidSearchRadius  Code = "INVALID_SEARCH_RADIUS"
	CodeExportError          Code = "EXPORT_ERROR"
	CodeImportError          Code = "IMPORT_ERROR"
)

// Error carries a taxonomy code plus a human-readable message. The message
// includes concrete guidance so a chat caller can display it verbatim.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a code-bearing error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// ProjectNotFound builds the standard not-found error for a project name.
func ProjectNotFound(name string) *Error {
	return New(CodeProjectNotFound,
		"project %q was not found. Use list_projects to see available projects, or check the spelling (project names are kebab-case, e.g. %q)",
		name, "amarillo-wind-farm")
}

// NameAlreadyExists builds the standard name-collision error.
func NameAlreadyExists(name string) *Error {
	return New(CodeNameAlreadyExists,
		"a project named %q already exists. Choose a different name, or merge the two projects if they describe the same site",
		name)
}

// ProjectInProgress builds the error for operating on a busy project.
func ProjectInProgress(name string) *Error {
	return New(CodeProjectInProgress,
		"project %q has an analysis in progress and cannot be modified until it finishes",
		name)
}

// ConfirmationRequired marks the first phase of a destructive operation.
// This is a normal conversational branch, not a fault; callers must not log
// it as an error.
func ConfirmationRequired(what string) *Error {
	return New(CodeConfirmationRequired,
		"confirmation required before %s. Repeat the request with skip_confirmation set to true to proceed",
		what)
}

// InvalidCoordinates builds the validation error for an out-of-range point.
func InvalidCoordinates(lat, lon float64) *Error {
	return New(CodeInvalidCoordinates,
		"coordinates (%.4f, %.4f) are out of range: latitude must be within [-90, 90] and longitude within [-180, 180], e.g. (35.0000, -101.0000)",
		lat, lon)
}

// InvalidProjectName builds the validation error for a name that normalizes
// to nothing usable.
func InvalidProjectName(raw string) *Error {
	return New(CodeInvalidProjectName,
		"%q is not a usable project name: names need at least one letter or digit and become kebab-case, e.g. %q",
		raw, "amarillo-wind-farm")
}

// InvalidSearchRadius builds the validation error for a non-positive radius.
func InvalidSearchRadius(radiusKm float64) *Error {
	return New(CodeInvalidSearchRadius,
		"search radius %.2f km is invalid: the radius must be greater than zero, e.g. 1.0 for the default duplicate check",
		radiusKm)
}

// UnsupportedVersion builds the import-version error.
func UnsupportedVersion(got string) *Error {
	return New(CodeUnsupportedVersion,
		"export version %q is not supported: this engine reads version %q envelopes only. Re-export the project with a current engine",
		got, "1.0")
}

// MergeConflict builds the error for an invalid merge request.
func MergeConflict(keep, source, target string) *Error {
	return New(CodeMergeConflict,
		"cannot keep name %q: the merged project must keep either the source name %q or the target name %q",
		keep, source, target)
}
