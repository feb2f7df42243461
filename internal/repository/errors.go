// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// driver-specific error strings.
package repository

import "errors"

// ErrEmailExists is returned when registering an operator with an email
// that is already taken.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrCredentialNotFound is returned when an operator has no Pretix
// credential record.  The credential resolver treats it as a signal to
// fall back to the process-wide default credentials.
var ErrCredentialNotFound = errors.New("pretix credential not found")
