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

package http

import (
	"log/slog"
	"net/http"

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/observability/logger"
)

// StatusMode selects how failures map to HTTP status codes
type StatusMode string

const (
	// StatusModeTyped maps each failure kind to its own status
	StatusModeTyped StatusMode = "typed"

	// StatusModeLegacy answers every failure with 500
	StatusModeLegacy StatusMode = "legacy"
)

// Failure codes, one per operation
const (
	FailureCreateAdmin = "CREATE_ADMIN_FAILED"
	FailureGetProfile  = "GET_PROFILE_FAILED"
	FailureUpdateUser  = "UPDATE_USER_FAILED"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindUpstream:        http.StatusBadGateway,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// Status returns the HTTP status for a failure kind
func (m StatusMode) Status(kind apperr.Kind) int {
	if m == StatusModeLegacy {
		return http.StatusInternalServerError
	}
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// errorBody is the failure envelope payload
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// respondFailure writes the operation's failure envelope for err
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, failureCode string, err error) {
	e := apperr.From(err)
	status := h.opts.ErrorStatusMode.Status(e.Kind())

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "account operation failed",
		logger.Operation(failureCode),
		logger.ErrorCode(string(e.Code)),
		logger.StatusCode(status),
		logger.Error(err),
	)

	respondJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    failureCode,
		Message: e.Message,
		Reason:  string(e.Code),
	}})
}

func respondError(w http.ResponseWriter, status int, reason, message string) {
	respondJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    reason,
		Message: message,
		Reason:  reason,
	}})
}
