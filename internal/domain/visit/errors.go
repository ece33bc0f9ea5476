package visit

import "errors"

var (
	// ErrRestoreFormat means a restore payload is not a JSON array of
	// record objects. The store is left untouched.
	ErrRestoreFormat = errors.New("restore payload must be a JSON array of visit records")

	// ErrRecordNotFound is returned by update when the edited uid is no
	// longer in the store.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNotEditing is returned by update when the draft carries no
	// editing uid.
	ErrNotEditing = errors.New("not in edit mode")
)

// ValidationError reports a failed required-selection check. The message
// is shown to the user verbatim; no mutation happens when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
