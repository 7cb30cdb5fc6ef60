package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gn-registry/internal/model"
	"gn-registry/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "User already exists"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	} else if errors.Is(err, model.ErrAccountLocked) {
		status = http.StatusUnauthorized
		body.Code = "LOCKED"
		body.Message = "Account is temporarily locked"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrTokenNotFound) || errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrAccessDenied) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Outside your jurisdiction"
	} else if errors.Is(err, model.ErrScopeUnresolved) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Account has no resolvable jurisdiction"
	} else if errors.Is(err, model.ErrJurisdictionNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Jurisdiction not found"
	} else if errors.Is(err, model.ErrInvalidLevel) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid jurisdiction level"
	} else if errors.Is(err, model.ErrOfficeCodeTaken) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Office code already in use"
	} else if errors.Is(err, model.ErrFamilyNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Family not found"
	} else if errors.Is(err, model.ErrCitizenNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Citizen not found"
	} else if errors.Is(err, model.ErrTransferNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Transfer not found"
	} else if errors.Is(err, model.ErrTransferNotPending) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Transfer has already been decided"
	} else if errors.Is(err, model.ErrTransferExists) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Family already has a pending transfer"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
