// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// The service layer distinguishes four failure classes so callers can tell
// "nothing happened because it does not exist" from "nothing happened
// because a rule was violated":
//
//   - ErrNotFound: the operation targeted a missing key
//   - *ValidationError: a field or business rule was violated
//   - ErrUnauthorized: the acting principal may not perform the operation
//   - *StorageError: the underlying store failed
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a violated field rule or business rule.
type ValidationError struct {
	// Field names the offending field, or the entity when the rule spans
	// fields (e.g. "paymentAmount").
	Field string

	// Reason is a human-readable description of the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError for a field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failure of the underlying store, preserving the
// operation name and the driver error instead of collapsing to a boolean.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a *StorageError for the named operation.
func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// validate is the shared validator instance; tag rules live on the entity
// structs in this package.
var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckFields runs the validate struct tags on v and converts the first
// violation into a *ValidationError.
func CheckFields(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return Invalid(fe.Field(), "failed %q validation", fe.Tag())
	}
	return Invalid("", "%v", err)
}
