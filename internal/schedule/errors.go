package schedule

// Error codes surfaced to API callers. The mixed casing is part of the wire
// contract: lower_snake codes come from generation/publication flows, the
// upper-case codes from the item-edit concurrency protocol.
const (
	CodeMissingParameters        = "missing_parameters"
	CodeConfirmReplaceRequired   = "confirm_replace_required"
	CodeUnsatisfiableConstraints = "unsatisfiable_constraints"
	CodeSaveFailed               = "save_failed"
	CodeItemSaveFailed           = "SAVE_FAILED"
	CodeConflict                 = "CONFLICT"
	CodeStaleEdit                = "STALE_EDIT"
	CodeItemNotFound             = "ITEM_NOT_FOUND"
	CodeScheduleNotFound         = "SCHEDULE_NOT_FOUND"
	CodeAlreadyPublished         = "already_published"
	CodePublishTargetNotFound    = "schedule_not_found"
	CodeNotPublished             = "not_published"
	CodeRetrievalFailed          = "retrieval_failed"
)

// Error is a typed, user-actionable outcome of a schedule operation.
// Concurrency and validation failures are values of this type, never panics;
// storage details never travel inside one.
type Error struct {
	Code string
	// MissingFields lists every absent scheduling parameter for
	// missing_parameters errors.
	MissingFields []string
	// Retryable marks failures the caller may retry as-is (transient
	// storage reads); staleness and validation failures require the caller
	// to refresh first.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code
}

func newError(code string) *Error {
	return &Error{Code: code}
}

// IsCode reports whether err is a schedule Error with the given code.
func IsCode(err error, code string) bool {
	se, ok := err.(*Error)
	return ok && se.Code == code
}
