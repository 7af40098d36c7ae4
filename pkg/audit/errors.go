package audit

import "errors"

var (
	ErrEventValidation     = errors.New("audit: invalid event")
	ErrStorageNotAvailable = errors.New("audit: storage not available")
)
