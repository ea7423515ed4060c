package hitemp

import (
	"errors"
	"fmt"
)

// ErrAuth means the credentials or session token were rejected. The session must be re-established.
var ErrAuth = errors.New("authentication failed")

// ErrConnectivity is a transient network or API failure. Retry on the next cycle.
var ErrConnectivity = errors.New("connectivity error")

// apiError is a non-auth error reported by the cloud in error_msg.
type apiError struct {
	path string
	msg  string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error from %s: %s", e.path, e.msg)
}

func (e *apiError) Unwrap() error {
	return ErrConnectivity
}

func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
