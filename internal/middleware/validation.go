package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateHistoryID validates a conversation history identifier (a user or
// guild snowflake-style ID).
func ValidateHistoryID(id string) error {
	if len(id) == 0 {
		return errors.New("history ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("history ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("history ID must be valid UTF-8")
	}
	return nil
}

// ValidateQueryText validates a retrieval query string.
func ValidateQueryText(query string) error {
	if len(query) > 8192 {
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(query) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}
