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
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opentrusty/account-admin/internal/account"
	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/profile"
)

const maxRequestBody = 1 << 20

// CreateAdminResponse is the success payload of create-admin-account
type CreateAdminResponse struct {
	Message     string              `json:"message"`
	User        account.CreatedUser `json:"user"`
	Credentials account.Credentials `json:"credentials"`
	Profile     *profile.Profile    `json:"profile"`
}

// ProfileResponse is the success payload of get-user-profile
type ProfileResponse struct {
	Profile *profile.Profile `json:"profile"`
}

// UpdateStatusResponse is the success payload of update-user-status
type UpdateStatusResponse struct {
	Message string           `json:"message"`
	Profile *profile.Profile `json:"profile"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

// CreateAdminAccount provisions an admin or super admin account
// @Summary Create Admin Account
// @Description Create an identity and its profile; the identity is deleted again if the profile insert fails
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body account.CreateAdminRequest true "Account Data"
// @Success 200 {object} dataEnvelope{data=CreateAdminResponse}
// @Failure 400 {object} errorEnvelope
// @Failure 401 {object} errorEnvelope
// @Failure 403 {object} errorEnvelope
// @Failure 502 {object} errorEnvelope
// @Router /functions/v1/create-admin-account [post]
func (h *Handler) CreateAdminAccount(w http.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")

	var req account.CreateAdminRequest
	if err := h.decode(r, authorization, &req, false); err != nil {
		h.respondFailure(w, r, FailureCreateAdmin, err)
		return
	}

	res, err := h.accounts.CreateAdmin(r.Context(), authorization, req)
	if err != nil {
		h.respondFailure(w, r, FailureCreateAdmin, err)
		return
	}

	respondJSON(w, http.StatusOK, dataEnvelope{Data: CreateAdminResponse{
		Message:     account.MessageAdminCreated,
		User:        res.User,
		Credentials: res.Credentials,
		Profile:     res.Profile,
	}})
}

// GetUserProfile returns the caller's profile or, for admins, another user's profile.
// GET reads the target from the userId query parameter.
// @Summary Get User Profile
// @Description Read a profile; omit userId to read your own
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body account.GetProfileRequest false "Target"
// @Param userId query string false "Target user id (GET only)"
// @Success 200 {object} dataEnvelope{data=ProfileResponse}
// @Failure 400 {object} errorEnvelope
// @Failure 401 {object} errorEnvelope
// @Failure 403 {object} errorEnvelope
// @Failure 404 {object} errorEnvelope
// @Router /functions/v1/get-user-profile [post]
// @Router /functions/v1/get-user-profile [get]
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")

	var req account.GetProfileRequest
	if r.Method == http.MethodGet {
		req.UserID = r.URL.Query().Get("userId")
	} else if err := h.decode(r, authorization, &req, true); err != nil {
		h.respondFailure(w, r, FailureGetProfile, err)
		return
	}

	p, err := h.accounts.GetProfile(r.Context(), authorization, req)
	if err != nil {
		h.respondFailure(w, r, FailureGetProfile, err)
		return
	}

	respondJSON(w, http.StatusOK, dataEnvelope{Data: ProfileResponse{Profile: p}})
}

// UpdateUserStatus changes another user's active flag and/or role
// @Summary Update User Status
// @Description Super admins activate, deactivate or re-role other accounts
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body account.UpdateStatusRequest true "Changes"
// @Success 200 {object} dataEnvelope{data=UpdateStatusResponse}
// @Failure 400 {object} errorEnvelope
// @Failure 401 {object} errorEnvelope
// @Failure 403 {object} errorEnvelope
// @Failure 404 {object} errorEnvelope
// @Failure 502 {object} errorEnvelope
// @Router /functions/v1/update-user-status [post]
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")

	var req account.UpdateStatusRequest
	if err := h.decode(r, authorization, &req, false); err != nil {
		h.respondFailure(w, r, FailureUpdateUser, err)
		return
	}

	p, err := h.accounts.UpdateStatus(r.Context(), authorization, req)
	if err != nil {
		h.respondFailure(w, r, FailureUpdateUser, err)
		return
	}

	respondJSON(w, http.StatusOK, dataEnvelope{Data: UpdateStatusResponse{
		Message: account.MessageUserUpdated,
		Profile: p,
	}})
}

// decode reads a JSON body into dst. The caller is authenticated before a
// malformed body is reported, so unauthenticated requests always see the
// authentication failure.
func (h *Handler) decode(r *http.Request, authorization string, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err == nil {
		if len(bytes.TrimSpace(raw)) == 0 {
			if allowEmpty {
				return nil
			}
			err = io.ErrUnexpectedEOF
		} else {
			err = json.Unmarshal(raw, dst)
		}
	}
	if err == nil {
		return nil
	}

	if _, authErr := h.accounts.Authenticate(r.Context(), authorization); authErr != nil {
		return authErr
	}
	return apperr.Wrap(apperr.CodeInvalidRequest, "Invalid request body", err)
}
