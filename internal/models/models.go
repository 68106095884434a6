// Package models defines the request/response payloads exchanged over HTTP,
// the stored record types and the error kinds shared between the storage,
// service and router layers.
package models

import "errors"

// RegisterRequest is the payload of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// LoginRequest is the payload of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MessageResponse is a generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the envelope every failed request is reported with.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateStringRequest is the payload of POST /strings.
type CreateStringRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CreateStringResponse is returned after a successful string creation.
type CreateStringResponse struct {
	Message  string `json:"message"`
	StringID string `json:"string_id"`
}

// StringResponse is the public projection of a stored string.
type StringResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// StringsListResponse is returned by GET /strings.
type StringsListResponse struct {
	Strings []StringResponse `json:"strings"`
}

// ProfileResponse is returned by GET /profile.
type ProfileResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// InternalStatsResponse is returned by GET /api/internal/stats.
type InternalStatsResponse struct {
	Users   int64 `json:"users"`
	Strings int64 `json:"strings"`
}

// StringRecord is a stored named string. The pair (OwnerID, Name) is unique
// across all records; records are never updated or deleted once created.
type StringRecord struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Profile joins a session's user id with the stored username.
type Profile struct {
	UserID   string
	Username string
}

// Storage backends, in selection priority order.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// Error kinds recovered at the request boundary and mapped to HTTP statuses.
var (
	ErrInvalidInput       = errors.New("required field is missing or empty")
	ErrConflict           = errors.New("record already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("please login first")
	ErrNotFound           = errors.New("record not found")
	ErrOwnershipViolation = errors.New("record does not belong to the current user")
)
