package backend

import (
	"strings"

	"github.com/pkg/errors"
)

// Backend error codes surfaced through GraphQL error extensions.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
)

// GraphQLError is a backend-reported error from an otherwise successful HTTP
// exchange: the first entry of the response's errors array.
type GraphQLError struct {
	Message string
	Code    string
}

func (e *GraphQLError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// AsGraphQLError unwraps err into a *GraphQLError when possible.
func AsGraphQLError(err error) (*GraphQLError, bool) {
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err means the access token was rejected.
// The backend signals this either through the UNAUTHENTICATED extension code
// or an "Unauthorized" message.
func IsUnauthorized(err error) bool {
	gqlErr, ok := AsGraphQLError(err)
	if !ok {
		return false
	}
	return gqlErr.Code == CodeUnauthenticated || strings.Contains(gqlErr.Message, "Unauthorized")
}

// IsDuplicate reports whether err means the mutation hit a uniqueness
// conflict.
func IsDuplicate(err error) bool {
	gqlErr, ok := AsGraphQLError(err)
	if !ok {
		return false
	}
	return strings.Contains(gqlErr.Message, "duplicate") || strings.Contains(gqlErr.Message, "already exists")
}
