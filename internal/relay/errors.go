package relay

import (
	"errors"
	"fmt"
)

// ErrChannelNotValidated is returned when an upload is attempted before the
// destination channel has been validated.
var ErrChannelNotValidated = errors.New("channel was not validated at startup")

// UploadError describes a failed send. Fallback is set only when the
// generic-file retry ran and also failed.
type UploadError struct {
	Mode     Mode
	Original error
	Fallback error
}

// Error implements the error interface. When both sends failed, the final
// (fallback) failure leads.
func (e *UploadError) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("failed to send file as document: %v (original %s send failed: %v)",
			e.Fallback, e.Mode, e.Original)
	}
	return fmt.Sprintf("failed to send file as %s: %v", e.Mode, e.Original)
}

// Unwrap exposes both underlying failures to errors.Is/errors.As.
func (e *UploadError) Unwrap() []error {
	if e.Fallback != nil {
		return []error{e.Fallback, e.Original}
	}
	return []error{e.Original}
}
