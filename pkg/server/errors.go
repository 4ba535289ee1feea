package server

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrInvalidAddress is returned when a bind address is not a literal IP.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidPort is returned for ports outside 0-65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidProtocol is returned for unknown internet protocol names.
	ErrInvalidProtocol = errors.New("invalid internet protocol")

	// ErrNoFactory is returned when Config.Factory is nil.
	ErrNoFactory = errors.New("session factory is required")
)

// Error categories reported through Hooks.OnError.
const (
	CategorySystem  = "system"
	CategoryReactor = "reactor"
	CategoryNet     = "net"
	CategoryGeneric = "generic"
)

// DispatchError wraps an error returned by a handler running on the server
// goroutine.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Classify maps err to the (code, category, message) triple handed to
// Hooks.OnError. Errno values keep their numeric code in every category.
func Classify(err error) (code int, category, message string) {
	if err == nil {
		return 0, "", ""
	}
	message = err.Error()

	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = int(errno)
	}

	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return code, CategoryReactor, message
	}
	if code != 0 {
		return code, CategorySystem, message
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return 0, CategoryNet, message
	}
	return 0, CategoryGeneric, message
}
