// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package apperr defines the failure taxonomy shared by every account operation.
// A Code names the specific failure, a Kind names its category; transports map
// Kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindUpstream        Kind = "upstream"
	KindInternal        Kind = "internal"
)

// Code identifies a specific failure
type Code string

const (
	CodeUnauthenticated        Code = "UNAUTHENTICATED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeInvalidRole            Code = "INVALID_ROLE"
	CodeNoFieldsToUpdate       Code = "NO_FIELDS_TO_UPDATE"
	CodeMissingFields          Code = "MISSING_FIELDS"
	CodeInvalidRequest         Code = "INVALID_REQUEST"
	CodeProfileNotFound        Code = "PROFILE_NOT_FOUND"
	CodeUserNotFound           Code = "USER_NOT_FOUND"
	CodeIdentityCreationFailed Code = "IDENTITY_CREATION_FAILED"
	CodeProfileCreationFailed  Code = "PROFILE_CREATION_FAILED"
	CodeProfileLookupFailed    Code = "PROFILE_LOOKUP_FAILED"
	CodeProfileUpdateFailed    Code = "PROFILE_UPDATE_FAILED"
	CodeInternal               Code = "INTERNAL"
)

var kinds = map[Code]Kind{
	CodeUnauthenticated:        KindUnauthenticated,
	CodeForbidden:              KindForbidden,
	CodeInvalidRole:            KindValidation,
	CodeNoFieldsToUpdate:       KindValidation,
	CodeMissingFields:          KindValidation,
	CodeInvalidRequest:         KindValidation,
	CodeProfileNotFound:        KindNotFound,
	CodeUserNotFound:           KindNotFound,
	CodeIdentityCreationFailed: KindUpstream,
	CodeProfileCreationFailed:  KindUpstream,
	CodeProfileLookupFailed:    KindUpstream,
	CodeProfileUpdateFailed:    KindUpstream,
}

// KindOf returns the category of a code. Unknown codes are internal.
func KindOf(code Code) Kind {
	if k, ok := kinds[code]; ok {
		return k
	}
	return KindInternal
}

// Error is a classified failure. Message is safe to show to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a classified error without a cause
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a classified error carrying the underlying cause
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the category of the error
func (e *Error) Kind() Kind {
	return KindOf(e.Code)
}

// Is matches another *Error by code so errors.Is(err, apperr.New(code, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// From extracts the classified error from err. Unclassified errors become
// internal failures whose message does not leak the cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, "Internal server error", err)
}

// CodeOf returns the code of err, or CodeInternal when err is unclassified.
func CodeOf(err error) Code {
	return From(err).Code
}

// HasCode reports whether err is classified with the given code
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
