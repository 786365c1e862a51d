package identity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("identity: invalid input")
	ErrConflict       = errors.New("identity: resource conflict")
	ErrNotFound       = errors.New("identity: not found")
	ErrPrecondition   = errors.New("identity: precondition failed")
	ErrAuthentication = errors.New("identity: authentication failed")
	ErrInvalidToken   = errors.New("identity: invalid token")
	ErrForbidden      = errors.New("identity: forbidden")
)

// Login failure causes stay distinct so that callers and audit logs can tell
// them apart. The upstream product surfaces distinct messages for unknown
// user and bad credential; that behavior is kept on purpose.
var (
	ErrUnknownUser     = fmt.Errorf("%w: unknown user", ErrAuthentication)
	ErrBadCredential   = fmt.Errorf("%w: bad credential", ErrAuthentication)
	ErrAccountDisabled = fmt.Errorf("%w: account disabled", ErrAuthentication)
)
