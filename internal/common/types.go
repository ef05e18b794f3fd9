package common

import (
	"errors"
	"fmt"
	"strconv"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsStored reports whether the role may be persisted in a conversation log.
// System turns are supplied by the completion client and never stored.
func (r Role) IsStored() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Turn is one role-tagged message of conversation context.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Common error types
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// UserNotFound builds the NotFoundError for a numeric user id.
func UserNotFound(userID int64) NotFoundError {
	return NotFoundError{Resource: "user", ID: strconv.FormatInt(userID, 10)}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound NotFoundError
	return errors.As(err, &notFound)
}
