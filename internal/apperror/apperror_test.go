// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", Validation("name", "required"), IsValidation, http.StatusBadRequest},
		{"not found", NotFound("category", "abc"), IsNotFound, http.StatusNotFound},
		{"cycle", Cycle("a", "b"), IsCycle, http.StatusConflict},
		{"dependency", Dependency("generate explanation", errors.New("timeout")), IsDependency, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate false for wrapped %v", wrapped)
			}
			if got := HTTPStatus(wrapped); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestPredicatesDoNotCrossKinds(t *testing.T) {
	err := NotFound("question", 1)
	if IsValidation(err) || IsCycle(err) || IsDependency(err) {
		t.Error("not-found error matched another kind")
	}
}

func TestPlainErrorIsInternal(t *testing.T) {
	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", got)
	}
}

func TestDependencyUnwrapsCause(t *testing.T) {
	cause := errors.New("upstream 502")
	err := Dependency("ask", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the cause")
	}
}
