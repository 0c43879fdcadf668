package source

import "errors"

var (
	// ErrValidation matches all record validation errors.
	ErrValidation = errors.New("invalid record")
	// ErrUnknownDriver is returned when opening a source with a driver that is not registered.
	ErrUnknownDriver = errors.New("unknown source driver")
)

var _ error = ErrMissingField{}

// ErrMissingField is returned when a record lacks its identifier field.
type ErrMissingField struct {
	Field string
}

func (e ErrMissingField) Error() string {
	return "`" + e.Field + "` field not found in document"
}

func (e ErrMissingField) Is(err error) bool {
	return err == ErrValidation
}
