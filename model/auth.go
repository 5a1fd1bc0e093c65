package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// AuthPayload is the success variant of every auth mutation: a fresh token
// pair plus the authenticated user.
type AuthPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// AuthError is the failure variant of every auth mutation.
type AuthError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// AuthResult is the tagged union the backend returns from login, register,
// oauthLogin and refreshToken. Exactly one of Payload and Err is set after a
// successful decode.
type AuthResult struct {
	Payload *AuthPayload
	Err     *AuthError
}

// Ok returns true iff the result carries the success variant.
func (r *AuthResult) Ok() bool {
	return r.Payload != nil
}

// UnmarshalJSON decodes the union by its __typename discriminator. An unknown
// or missing discriminator is a decode error rather than a silent failure
// variant.
func (r *AuthResult) UnmarshalJSON(data []byte) error {
	var tag struct {
		Typename string `json:"__typename"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return errors.Wrap(err, "auth result is not an object")
	}

	switch tag.Typename {
	case "AuthPayload":
		var payload AuthPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return errors.Wrap(err, "malformed AuthPayload")
		}
		r.Payload = &payload
		r.Err = nil
		return nil
	case "AuthError":
		var authErr AuthError
		if err := json.Unmarshal(data, &authErr); err != nil {
			return errors.Wrap(err, "malformed AuthError")
		}
		r.Err = &authErr
		r.Payload = nil
		return nil
	default:
		return errors.Errorf("unknown auth result typename: %q", tag.Typename)
	}
}
