// internal/services/errors.go
package services

import "errors"

// Sentinel errors returned by services. Handlers map them to status codes
// with errors.Is; the wrapped cause is only ever logged.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrUpstream      = errors.New("upstream service failed")
	ErrNotConfigured = errors.New("service not configured")
)

func invalidInput(err error) error {
	return errors.Join(ErrInvalidInput, err)
}
