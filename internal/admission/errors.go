package admission

import "errors"

// Typed results returned to the API layer. Validation failures are values, not
// panics; store failures are normalized to ErrInternal with the cause logged.
var (
	ErrMissingPlate      = errors.New("missing plate number")
	ErrMissingDocumentID = errors.New("invalid or missing document ID")
	ErrMissingDate       = errors.New("invalid or missing date")
	ErrNotFound          = errors.New("record not found")
	ErrInternal          = errors.New("internal error")
)
