// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperror defines the typed errors returned by the question bank
// core. Every failure a caller can act on is one of four kinds; anything
// else (driver errors, I/O) is an internal error and maps to HTTP 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindCycle      Kind = "cycle"
	KindDependency Kind = "dependency"
)

// Error is the single error type used across the bank services.
type Error struct {
	Kind    Kind
	Message string
	Field   string // offending input field, validation only
	Entity  string // entity type, not-found only
	ID      string // entity id when relevant
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation reports rejected input. field may be empty when the problem
// spans several fields.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports that an entity referenced by id does not exist.
func NotFound(entity string, id any) *Error {
	sid := fmt.Sprint(id)
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      sid,
		Message: fmt.Sprintf("%s %s not found", entity, sid),
	}
}

// Cycle reports a reparenting that would make a category its own ancestor.
func Cycle(id, parentID any) *Error {
	return &Error{
		Kind:    KindCycle,
		ID:      fmt.Sprint(id),
		Message: fmt.Sprintf("moving %v under %v would create a cycle", id, parentID),
	}
}

// Dependency reports a failure of an external collaborator such as the
// explanation generator.
func Dependency(op string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: op + " failed", Cause: cause}
}

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsCycle(err error) bool      { return is(err, KindCycle) }
func IsDependency(err error) bool { return is(err, KindDependency) }

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindCycle:
		return http.StatusConflict
	case KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
