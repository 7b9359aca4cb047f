// Package service holds the domain services: user identity lifecycle
// and the equipment inventory with its audit trail. Invariants live
// here; repositories only move rows, handlers only marshal HTTP.
//
// Failures cross the service boundary as *Error values tagged with a
// Kind. Handlers dispatch on the kind, never on message text, so
// rewording a message can never change an HTTP status.
package service

import "errors"

// Kind classifies a service failure.
type Kind int

const (
	KindInternal     Kind = iota // unclassified; maps to 500
	KindValidation               // malformed or out-of-policy input; 400
	KindUnauthorized             // credential or token failure; 401
	KindForbidden                // role insufficient; 403
	KindNotFound                 // missing resource; 404
	KindConflict                 // duplicate email, tag bound elsewhere; 409
)

// Error is a kind-tagged domain error. Message is safe to surface to
// the client; Err optionally wraps the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Constructors for each kind keep call sites short.

func invalid(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func notFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind of err, or KindInternal for anything that
// is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
