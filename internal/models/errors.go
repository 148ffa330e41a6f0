package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes. Every failure the core reports carries exactly one of these.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeConflict         = "CONFLICT"
	CodeForbidden        = "FORBIDDEN"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error.
// Reason narrows Code to a specific condition (e.g. "already_friends").
type AppError struct {
	Code    string
	Reason  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code and, when the target names one, Reason.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Sentinels for errors.Is. Callers compare, never mutate.
var (
	ErrSelfRequest      = &AppError{Code: CodeValidation, Reason: "self_request", Message: "Cannot send friend request to yourself"}
	ErrEmptyMessage     = &AppError{Code: CodeValidation, Reason: "empty_message", Message: "Message text is required"}
	ErrMessageTooLong   = &AppError{Code: CodeValidation, Reason: "message_too_long", Message: "Message text is too long"}
	ErrInvalidUserID    = &AppError{Code: CodeValidation, Reason: "invalid_user_id", Message: "Invalid user ID"}
	ErrSelfConversation = &AppError{Code: CodeValidation, Reason: "self_conversation", Message: "Cannot start a conversation with yourself"}
	ErrInvalidChatID    = &AppError{Code: CodeValidation, Reason: "invalid_conversation_id", Message: "Invalid conversation ID"}
	ErrAlreadyFriends   = &AppError{Code: CodeConflict, Reason: "already_friends", Message: "You are already friends"}
	ErrRequestPending   = &AppError{Code: CodeConflict, Reason: "request_already_pending", Message: "Friend request already sent"}
	ErrIncomingPending  = &AppError{Code: CodeConflict, Reason: "incoming_request_pending", Message: "You already have a pending friend request from this user"}
	ErrNoSuchRequest    = &AppError{Code: CodeConflict, Reason: "no_such_request", Message: "No pending friend request from this user"}
	ErrNoSuchFriendship = &AppError{Code: CodeConflict, Reason: "no_such_friendship", Message: "You are not friends with this user"}
	ErrConcurrentUpdate = &AppError{Code: CodeConflict, Reason: "concurrent_update", Message: "Friendship state changed concurrently, re-read and try again"}
	ErrNotFriends       = &AppError{Code: CodeForbidden, Reason: "not_friends", Message: "You can only chat with your friends"}
	ErrNotParticipant   = &AppError{Code: CodeForbidden, Reason: "not_participant", Message: "You are not a participant in this conversation"}
)

// Kind sentinels match any error of the given code.
var (
	ErrValidation       = &AppError{Code: CodeValidation}
	ErrStateConflict    = &AppError{Code: CodeConflict}
	ErrAuthorization    = &AppError{Code: CodeForbidden}
	ErrStoreUnavailable = &AppError{Code: CodeStoreUnavailable}
)

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewStoreUnavailableError wraps a transport or backing-store failure.
// These are transient; callers may retry with backoff.
func NewStoreUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: "Store unavailable",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// CodeOf returns the AppError code carried by err, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// StatusFor maps an error to the HTTP status the API responds with.
func StatusFor(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeConflict:
		return fiber.StatusConflict
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Reason: appErr.Reason,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal && appErr.Code != CodeStoreUnavailable {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
