package suspension

import "errors"

// Service errors.
var (
	ErrAlreadyBlocked = errors.New("account is already blocked")
	ErrNotBlocked     = errors.New("account is not blocked")
)
