// Package errors classifies the failures the dispatch engine can run into.
// Every failure resolves to a reply packet or a state transition, so the
// class of an error decides which reply code the adapter sends back.
package errors

import (
	"errors"
	"fmt"
)

// Class is the handling category of an error.
type Class int

const (
	// ClassUnknown is returned by ClassOf for errors that were never classified.
	ClassUnknown Class = iota
	// TransportFault is a timeout or checksum failure reported by the link.
	TransportFault
	// ProtocolViolation is an unknown interface, a wrong-state control op or
	// a malformed payload.
	ProtocolViolation
	// CapacityExceeded is a full registry, FIFO or packet buffer.
	CapacityExceeded
	// CallbackFailure is an application callback that returned an error.
	CallbackFailure
	// RoutingMiss is an operation on a port or sender that does not exist.
	RoutingMiss
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case TransportFault:
		return "transport"
	case ProtocolViolation:
		return "protocol"
	case CapacityExceeded:
		return "capacity"
	case CallbackFailure:
		return "callback"
	case RoutingMiss:
		return "routing"
	default:
		return "unknown"
	}
}

// Standard error variables
var (
	// Transport
	ErrTimeout  = errors.New("receive timeout")
	ErrChecksum = errors.New("checksum mismatch")
	ErrOversize = errors.New("frame exceeds buffer")
	ErrClosed   = errors.New("transport closed")

	// Protocol
	ErrWrongState       = errors.New("operation not allowed in current state")
	ErrUnknownInterface = errors.New("unknown interface code")
	ErrMalformed        = errors.New("malformed packet")
	ErrSealed           = errors.New("packet buffer is sealed")
	ErrNotSealed        = errors.New("packet buffer is not sealed")

	// Capacity
	ErrCapacityExceeded = errors.New("packet capacity exceeded")
	ErrRegistryFull     = errors.New("connection registry full")
	ErrItemTooLarge     = errors.New("item exceeds port item size")
	ErrShortBuffer      = errors.New("destination buffer too small")

	// Routing
	ErrNoSuchPort    = errors.New("no such port")
	ErrNotConnected  = errors.New("sender is not a registered connection")
	ErrUnknownSender = errors.New("no known sender")

	// Registration
	ErrRegistrationClosed = errors.New("port registration is closed")
	ErrInvalidPort        = errors.New("invalid port declaration")

	// Configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ClassifiedError wraps an error with its class and the place it came from.
type ClassifiedError struct {
	Class     Class
	Err       error
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Component == "" {
		return ce.Err.Error()
	}
	return fmt.Sprintf("%s.%s: %v", ce.Component, ce.Operation, ce.Err)
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Wrap classifies err. A nil err stays nil.
func Wrap(class Class, err error, component, operation string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Component: component,
		Operation: operation,
	}
}

// WrapTransport classifies err as a TransportFault.
func WrapTransport(err error, component, operation string) error {
	return Wrap(TransportFault, err, component, operation)
}

// WrapProtocol classifies err as a ProtocolViolation.
func WrapProtocol(err error, component, operation string) error {
	return Wrap(ProtocolViolation, err, component, operation)
}

// WrapCapacity classifies err as CapacityExceeded.
func WrapCapacity(err error, component, operation string) error {
	return Wrap(CapacityExceeded, err, component, operation)
}

// WrapCallback classifies err as a CallbackFailure.
func WrapCallback(err error, component, operation string) error {
	return Wrap(CallbackFailure, err, component, operation)
}

// WrapRouting classifies err as a RoutingMiss.
func WrapRouting(err error, component, operation string) error {
	return Wrap(RoutingMiss, err, component, operation)
}

// ClassOf returns the class of err. Unclassified sentinels from this package
// are mapped to their natural class.
func ClassOf(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrChecksum),
		errors.Is(err, ErrOversize), errors.Is(err, ErrClosed):
		return TransportFault
	case errors.Is(err, ErrWrongState), errors.Is(err, ErrUnknownInterface),
		errors.Is(err, ErrMalformed), errors.Is(err, ErrSealed),
		errors.Is(err, ErrNotSealed):
		return ProtocolViolation
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrRegistryFull),
		errors.Is(err, ErrItemTooLarge), errors.Is(err, ErrShortBuffer):
		return CapacityExceeded
	case errors.Is(err, ErrNoSuchPort), errors.Is(err, ErrNotConnected),
		errors.Is(err, ErrUnknownSender):
		return RoutingMiss
	}
	return ClassUnknown
}

// Is reports whether err belongs to class.
func Is(err error, class Class) bool {
	return err != nil && ClassOf(err) == class
}
