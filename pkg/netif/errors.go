package netif

import (
	"errors"
	"fmt"
)

var (
	// ErrOSQueryFailure wraps any failure of the platform inventory. The
	// refresh that hit it emitted no events and kept the previous set.
	ErrOSQueryFailure = errors.New("os interface query failed")

	ErrInterfaceNotFound = errors.New("interface not found")

	// ErrInvalidObserver is returned when registering an observer whose
	// dynamic type cannot be compared for identity.
	ErrInvalidObserver = errors.New("observer type is not comparable")

	ErrClosed = errors.New("engine closed")
)

// ObserverPanicError reports a panic recovered from an observer callback.
type ObserverPanicError struct {
	Observer string
	Event    EventType
	Value    any
}

func (e *ObserverPanicError) Error() string {
	return fmt.Sprintf("observer %s panicked handling %s: %v", e.Observer, e.Event, e.Value)
}
