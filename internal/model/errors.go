package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrAccessDenied = errors.New("access denied")
	// ErrScopeUnresolved means the principal's home jurisdiction could not
	// be located in the tree (orphaned account).
	ErrScopeUnresolved = errors.New("jurisdiction scope cannot be resolved")

	// Jurisdiction related errors
	ErrJurisdictionNotFound = errors.New("jurisdiction not found")
	ErrInvalidLevel         = errors.New("invalid jurisdiction level")
	ErrOfficeCodeTaken      = errors.New("office code already in use")

	// Registry related errors
	ErrFamilyNotFound  = errors.New("family not found")
	ErrCitizenNotFound = errors.New("citizen not found")

	// Transfer related errors
	ErrTransferNotFound   = errors.New("transfer not found")
	ErrTransferNotPending = errors.New("transfer is not pending")
	ErrTransferExists     = errors.New("family already has a pending transfer")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
