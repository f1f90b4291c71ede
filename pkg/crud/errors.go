package crud

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies the outcome of a failed (or non-mutating) operation.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindCreateFailed
	KindUpdateFailed
	KindDeleteFailed
	KindDeleteBlockedByReference
	KindRestoreFailed
	KindNotModified
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindCreateFailed:
		return "create_failed"
	case KindUpdateFailed:
		return "update_failed"
	case KindDeleteFailed:
		return "delete_failed"
	case KindDeleteBlockedByReference:
		return "delete_blocked_by_reference"
	case KindRestoreFailed:
		return "restore_failed"
	case KindNotModified:
		return "not_modified"
	default:
		return "unknown"
	}
}

// ErrNoWritableFields signals a write payload that contained no
// fillable column at all. Handlers map it to 422.
var ErrNoWritableFields = errors.New("no writable fields in payload")

// OperationError is the single typed error every repository and
// service failure is wrapped into. It carries the entity name, the
// HTTP status derived from the underlying cause, and that cause.
type OperationError struct {
	Kind   Kind
	Model  string
	Status int
	Err    error
}

func (e *OperationError) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error { return e.Err }

// Message is the client-facing description, without the wrapped cause.
func (e *OperationError) Message() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found.", e.Model)
	case KindCreateFailed:
		return fmt.Sprintf("Failed to create %s.", e.Model)
	case KindUpdateFailed:
		return fmt.Sprintf("Failed to update %s.", e.Model)
	case KindDeleteFailed:
		return fmt.Sprintf("Failed to delete %s.", e.Model)
	case KindDeleteBlockedByReference:
		return fmt.Sprintf("Cannot delete %s because it is referenced by other records.", e.Model)
	case KindRestoreFailed:
		return fmt.Sprintf("Failed to restore %s.", e.Model)
	case KindNotModified:
		return fmt.Sprintf("No changes were made to %s.", e.Model)
	default:
		return fmt.Sprintf("Operation on %s failed.", e.Model)
	}
}

// IsKind reports whether err is an OperationError of the given kind.
func IsKind(err error, kind Kind) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Kind == kind
}

func NewNotFound(model string) *OperationError {
	return &OperationError{Kind: KindNotFound, Model: model, Status: http.StatusNotFound}
}

func NewNotModified(model string) *OperationError {
	return &OperationError{Kind: KindNotModified, Model: model, Status: http.StatusBadRequest}
}

func NewDeleteBlockedByReference(model string, cause error) *OperationError {
	return &OperationError{Kind: KindDeleteBlockedByReference, Model: model, Status: http.StatusConflict, Err: cause}
}

func NewCreateFailed(model string, cause error) *OperationError {
	return &OperationError{Kind: KindCreateFailed, Model: model, Status: deriveStatus(cause), Err: cause}
}

func NewUpdateFailed(model string, cause error) *OperationError {
	return &OperationError{Kind: KindUpdateFailed, Model: model, Status: deriveStatus(cause), Err: cause}
}

func NewDeleteFailed(model string, cause error) *OperationError {
	return &OperationError{Kind: KindDeleteFailed, Model: model, Status: http.StatusInternalServerError, Err: cause}
}

func NewRestoreFailed(model string, cause error) *OperationError {
	return &OperationError{Kind: KindRestoreFailed, Model: model, Status: http.StatusInternalServerError, Err: cause}
}

// deriveStatus inspects the cause chain of a write failure. Duplicate
// keys escalate to 409, schema errors stay 500, and an already-typed
// error in the chain keeps whatever non-zero status it carried.
func deriveStatus(cause error) int {
	if cause == nil {
		return http.StatusInternalServerError
	}
	if IsDuplicateKey(cause) {
		return http.StatusConflict
	}
	if IsSchemaError(cause) {
		return http.StatusInternalServerError
	}
	var opErr *OperationError
	if errors.As(cause, &opErr) && opErr.Status != 0 {
		return opErr.Status
	}
	return http.StatusInternalServerError
}

// IsDuplicateKey reports whether err is a unique-constraint violation
// from any of the supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

// IsForeignKeyViolation reports whether err is a referential-integrity
// violation from any of the supported drivers.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint")
}

// IsSchemaError reports whether err points at a missing column or
// similar schema-level problem rather than bad data.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "42")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1054
	}
	return strings.Contains(err.Error(), "no such column")
}
