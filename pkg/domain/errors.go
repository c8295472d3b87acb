package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication marks failures caused by bad credentials or an expired session.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRemoteAPI marks non-2xx responses, transport failures and malformed payloads.
	ErrRemoteAPI = errors.New("remote api error")

	// ErrTranslation marks a snapshot whose shape cannot be translated.
	ErrTranslation = errors.New("translation error")

	// ErrNotAuthenticated is returned when a call needs a session and none is open.
	ErrNotAuthenticated = errors.New("no active session")

	// ErrDescriptorNotFound is returned by catalogs for unknown keys.
	ErrDescriptorNotFound = errors.New("descriptor not found")
)

// AuthenticationError is unrecoverable for the current credential set.
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrAuthentication)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrAuthentication, e.Err)
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthentication}
	}
	return []error{ErrAuthentication, e.Err}
}

// RemoteAPIError carries the status detail of a failed upstream call.
type RemoteAPIError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, ErrRemoteAPI)
	if e.Method != "" || e.URL != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.URL)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += fmt.Sprintf(": %s", e.Body)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RemoteAPIError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteAPI}
	}
	return []error{ErrRemoteAPI, e.Err}
}

// TranslationError reports a malformed snapshot entity.
type TranslationError struct {
	Kind   ContentType
	ID     string
	Field  string
	Reason string
}

func (e *TranslationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s %q: %s", ErrTranslation, e.Kind, e.ID, e.Reason)
	}
	return fmt.Sprintf("%v: %s %q: field %q: %s", ErrTranslation, e.Kind, e.ID, e.Field, e.Reason)
}

func (e *TranslationError) Unwrap() error { return ErrTranslation }
