package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes let the editor react without parsing messages.
const (
	CodeValidation      = "validation"
	CodeNotFound        = "not_found"
	CodeConflict        = "version_conflict"
	CodePartialReplace  = "partial_replace"
	CodeWidgetInUse     = "widget_in_use"
	CodePayloadTooLarge = "payload_too_large"
	CodeTimeout         = "timeout"
	CodeStorage         = "storage"
)

// coded is implemented by every error type of this package.
type coded interface {
	error
	Status() int
	Code() string
}

// ValidationError represents errors from invalid input
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return "validation error: " + e.Message
}

func (e *ValidationError) Status() int  { return http.StatusBadRequest }
func (e *ValidationError) Code() string { return CodeValidation }

// StorageError wraps a failed database operation.
type StorageError struct {
	Operation string
	Cause     error
}

func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{Operation: operation, Cause: cause}
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Cause)
	}
	return "storage error during " + e.Operation
}

func (e *StorageError) Unwrap() error { return e.Cause }
func (e *StorageError) Status() int   { return http.StatusInternalServerError }
func (e *StorageError) Code() string  { return CodeStorage }

// NotFoundError names a missing widget, dashboard, draft or version.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

func (e *NotFoundError) Status() int  { return http.StatusNotFound }
func (e *NotFoundError) Code() string { return CodeNotFound }

// PayloadTooLargeError represents errors when request payload exceeds size limit
type PayloadTooLargeError struct {
	MaxSize    int64
	ActualSize int64
}

func NewPayloadTooLargeError(maxSize, actualSize int64) *PayloadTooLargeError {
	return &PayloadTooLargeError{MaxSize: maxSize, ActualSize: actualSize}
}

func (e *PayloadTooLargeError) Error() string {
	if e.ActualSize <= 0 {
		return fmt.Sprintf("payload too large: maximum size is %d bytes", e.MaxSize)
	}
	return fmt.Sprintf("payload too large: maximum size is %d bytes, got %d bytes", e.MaxSize, e.ActualSize)
}

func (e *PayloadTooLargeError) Status() int  { return http.StatusRequestEntityTooLarge }
func (e *PayloadTooLargeError) Code() string { return CodePayloadTooLarge }

// ConflictError is returned when a publish was based on a stale version
type ConflictError struct {
	Resource string
	Expected int
	Actual   int
}

func NewConflictError(resource string, expected, actual int) *ConflictError {
	return &ConflictError{Resource: resource, Expected: expected, Actual: actual}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: expected latest version %d, found %d", e.Resource, e.Expected, e.Actual)
}

func (e *ConflictError) Status() int  { return http.StatusConflict }
func (e *ConflictError) Code() string { return CodeConflict }

// PartialReplaceError means stored placements may no longer match what the
// editor holds locally. The editor has to re-fetch before continuing.
type PartialReplaceError struct {
	DraftID string
	Cause   error
}

func NewPartialReplaceError(draftID string, cause error) *PartialReplaceError {
	return &PartialReplaceError{DraftID: draftID, Cause: cause}
}

func (e *PartialReplaceError) Error() string {
	return fmt.Sprintf("replacing placements of draft '%s' failed, re-fetch before editing: %v", e.DraftID, e.Cause)
}

func (e *PartialReplaceError) Unwrap() error { return e.Cause }
func (e *PartialReplaceError) Status() int   { return http.StatusInternalServerError }
func (e *PartialReplaceError) Code() string  { return CodePartialReplace }

// WidgetInUseError rejects a geometry change on a widget that published
// versions already place.
type WidgetInUseError struct {
	WidgetID string
	Field    string
}

func NewWidgetInUseError(widgetID, field string) *WidgetInUseError {
	return &WidgetInUseError{WidgetID: widgetID, Field: field}
}

func (e *WidgetInUseError) Error() string {
	return fmt.Sprintf("widget '%s' is placed on a published version, %s cannot change", e.WidgetID, e.Field)
}

func (e *WidgetInUseError) Status() int  { return http.StatusConflict }
func (e *WidgetInUseError) Code() string { return CodeWidgetInUse }

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func IsValidationError(err error) bool     { return isA[*ValidationError](err) }
func IsStorageError(err error) bool        { return isA[*StorageError](err) }
func IsNotFoundError(err error) bool       { return isA[*NotFoundError](err) }
func IsConflictError(err error) bool       { return isA[*ConflictError](err) }
func IsPartialReplaceError(err error) bool { return isA[*PartialReplaceError](err) }
func IsWidgetInUseError(err error) bool    { return isA[*WidgetInUseError](err) }

// HTTPStatusFromError maps an error to its response status and code. An
// expired request context maps to 504; anything unrecognised to 500.
func HTTPStatusFromError(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, string) {
	// A StorageError wrapping a more specific error reports the inner one.
	var storage coded
	for e := err; e != nil; e = errors.Unwrap(e) {
		c, ok := e.(coded)
		if !ok {
			continue
		}
		if _, isStorage := c.(*StorageError); isStorage {
			if storage == nil {
				storage = c
			}
			continue
		}
		return c.Status(), c.Code()
	}
	if storage != nil {
		return storage.Status(), storage.Code()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, CodeTimeout
	}
	return http.StatusInternalServerError, ""
}

// WriteErrorFromError writes an error response based on the error type
func WriteErrorFromError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err.Error())
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, "", message)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: message,
	})
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
