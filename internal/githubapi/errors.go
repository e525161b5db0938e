package githubapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v68/github"
)

const (
	authErrorMessageTemplateConstant    = "authentication failed: %s"
	networkErrorMessageTemplateConstant = "unable to reach server: %v"
)

// AuthError reports rejected credentials. It surfaces during connection setup
// only; batch operations never re-prompt.
type AuthError struct {
	Message string
}

// Error describes the credential failure.
func (authError *AuthError) Error() string {
	return fmt.Sprintf(authErrorMessageTemplateConstant, authError.Message)
}

// NetworkError reports an unreachable host. Callers treat it as fatal.
type NetworkError struct {
	Cause error
}

// Error describes the transport failure.
func (networkError *NetworkError) Error() string {
	return fmt.Sprintf(networkErrorMessageTemplateConstant, networkError.Cause)
}

// Unwrap exposes the underlying transport error.
func (networkError *NetworkError) Unwrap() error {
	return networkError.Cause
}

// RemoteSubError is one field-level entry of a remote validation failure.
// Message is preferred when present; Field identifies the offending input
// otherwise.
type RemoteSubError struct {
	Message string
	Field   string
}

// RemoteError is the fixed-shape projection of a structured GitHub error
// response: a primary message plus optional field-level sub-errors.
type RemoteError struct {
	Message   string
	SubErrors []RemoteSubError
}

// Error returns the primary remote message.
func (remoteError *RemoteError) Error() string {
	return remoteError.Message
}

// ClassifyError converts a go-github call failure into the gitfleet error
// taxonomy: AuthError for rejected credentials, NetworkError for transport
// failures, and RemoteError for every structured remote response. Errors that
// match none of the known shapes are returned unchanged.
func ClassifyError(callError error) error {
	if callError == nil {
		return nil
	}

	var errorResponse *gh.ErrorResponse
	if errors.As(callError, &errorResponse) {
		if errorResponse.Response != nil && errorResponse.Response.StatusCode == http.StatusUnauthorized {
			return &AuthError{Message: errorResponse.Message}
		}

		subErrors := make([]RemoteSubError, 0, len(errorResponse.Errors))
		for _, fieldError := range errorResponse.Errors {
			subErrors = append(subErrors, RemoteSubError{
				Message: fieldError.Message,
				Field:   fieldError.Field,
			})
		}

		return &RemoteError{Message: errorResponse.Message, SubErrors: subErrors}
	}

	var transportError *url.Error
	if errors.As(callError, &transportError) {
		return &NetworkError{Cause: callError}
	}

	return callError
}
