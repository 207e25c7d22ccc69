package mailq

import "github.com/clientgate/clientgate/pkg/errx"

var mailqErrors = errx.NewRegistry("MAILQ")

var (
	ErrNotFound       = mailqErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Envelope not found")
	ErrEnqueueFailed  = mailqErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 500, "Failed to enqueue envelope")
	ErrDequeueFailed  = mailqErrors.Register("DEQUEUE_FAILED", errx.TypeExternal, 500, "Failed to dequeue envelope")
	ErrUpdateFailed   = mailqErrors.Register("UPDATE_FAILED", errx.TypeExternal, 500, "Failed to update envelope")
	ErrMarshal        = mailqErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to encode envelope")
	ErrUnmarshal      = mailqErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to decode envelope")
	ErrAlreadyRunning = mailqErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Mail worker is already running")
)
