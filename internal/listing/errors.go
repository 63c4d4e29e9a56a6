package listing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"realestate-backend/internal/models"
)

// ErrorKind classifies a failed operation for the caller.
type ErrorKind string

const (
	ErrValidation      ErrorKind = "validation"
	ErrNotFound        ErrorKind = "not_found"
	ErrRelationalWrite ErrorKind = "relational_write"
	ErrRelationalRead  ErrorKind = "relational_read"
	ErrIndexWrite      ErrorKind = "index_write"
	ErrOrphanedRecord  ErrorKind = "orphaned_record"
	ErrIndexRead       ErrorKind = "index_read"
	ErrIndexDelete     ErrorKind = "index_delete"
)

// StoreState describes where one store was left by a failed operation.
type StoreState string

const (
	StateCommitted    StoreState = "committed"
	StateRolledBack   StoreState = "rolled_back"
	StateNotAttempted StoreState = "not_attempted"
	StateStale        StoreState = "stale"
	StateDeleted      StoreState = "deleted"
	StateOrphaned     StoreState = "orphaned"
	StateUnchanged    StoreState = "unchanged"
	StateMissing      StoreState = "missing"
)

// Error reports a failed operation together with the state of both stores,
// so an operator can tell whether reconciliation is needed.
type Error struct {
	Kind       ErrorKind
	Op         string
	RecordKind models.Kind
	ID         string
	Relational StoreState
	Index      StoreState
	Err        error
	// RollbackErr is set when the compensating delete also failed.
	RollbackErr error
	// Conflict marks a relational write rejected because the id is taken.
	Conflict bool
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.RecordKind)
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.Relational != "" || e.Index != "" {
		fmt.Fprintf(&b, " (relational=%s index=%s)", e.Relational, e.Index)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, "; rollback failed: %v", e.RollbackErr)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if e.RollbackErr != nil {
		out = append(out, e.RollbackErr)
	}
	return out
}

// Status maps the kind to an HTTP status.
func (e *Error) Status() int {
	switch e.Kind {
	case ErrValidation:
		return fiber.StatusBadRequest
	case ErrNotFound:
		return fiber.StatusNotFound
	case ErrIndexWrite, ErrIndexRead:
		return fiber.StatusBadGateway
	case ErrIndexDelete:
		return fiber.StatusOK
	}
	if e.Conflict {
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// Body is the JSON error document.
func (e *Error) Body() fiber.Map {
	body := fiber.Map{
		"error":     e.Error(),
		"kind":      e.Kind,
		"operation": e.Op,
		"id":        e.ID,
	}
	if e.Relational != "" {
		body["relational"] = e.Relational
	}
	if e.Index != "" {
		body["index"] = e.Index
	}
	var verrs models.ValidationErrors
	if errors.As(e.Err, &verrs) {
		body["fields"] = []models.FieldError(verrs)
	}
	return body
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func invalid(op string, kind models.Kind, id string, verrs models.ValidationErrors) *Error {
	return &Error{
		Kind: ErrValidation, Op: op, RecordKind: kind, ID: id,
		Relational: StateNotAttempted, Index: StateNotAttempted,
		Err: verrs,
	}
}
