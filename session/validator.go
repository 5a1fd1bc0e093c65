package session

import (
	"context"

	"blogmux/backend"
	"blogmux/model"
	Logger "blogmux/utils/log"
)

// Status is the always-200 response shape of the session check. Every error
// path degrades to IsAuthenticated=false; Check and Refresh never return an
// error to the caller.
type Status struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	AccessToken     string      `json:"accessToken,omitempty"`
	RefreshToken    string      `json:"refreshToken,omitempty"`
	User            *model.User `json:"user,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Validator confirms a session's access token against the backend, refreshing
// it through the stored refresh token when the backend rejects it.
type Validator struct {
	client *backend.Client
}

// NewValidator creates a validator over the given unauthenticated client.
func NewValidator(client *backend.Client) *Validator {
	return &Validator{client: client}
}

// Check validates sess against the backend. A rejected access token triggers
// one refresh attempt; a rotated token pair is reported through the returned
// Status so the caller can re-issue cookies. This endpoint logic must not
// mutate application data, and a check with an already-valid token returns
// the same tokens it was given.
func (v *Validator) Check(ctx context.Context, sess *model.Session) Status {
	if !sess.HasAccessToken() {
		return Status{IsAuthenticated: false}
	}

	user, err := v.currentUser(ctx, sess.AccessToken)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return v.tryRefresh(ctx, sess.RefreshToken)
		}
		Logger.Log.Errorf("session check: currentUser query failed: %s", err)
		return Status{IsAuthenticated: false}
	}
	if user == nil {
		// Backend resolved the query but found no user behind the token.
		return v.tryRefresh(ctx, sess.RefreshToken)
	}

	return Status{
		IsAuthenticated: true,
		AccessToken:     sess.AccessToken,
		RefreshToken:    sess.RefreshToken,
		User:            user,
	}
}

// Refresh performs an explicit token rotation using the session's refresh
// token, regardless of whether the current access token is still valid.
func (v *Validator) Refresh(ctx context.Context, sess *model.Session) Status {
	if sess == nil || sess.RefreshToken == "" {
		return Status{IsAuthenticated: false, Error: "No refresh token provided"}
	}

	result, err := v.refreshToken(ctx, sess.RefreshToken)
	if err != nil {
		Logger.Log.Errorf("session refresh: mutation failed: %s", err)
		return Status{IsAuthenticated: false}
	}
	if !result.Ok() {
		Logger.Log.Infof("session refresh rejected: %s", result.Err.Message)
		return Status{IsAuthenticated: false, Error: result.Err.Message}
	}

	return statusFromPayload(result.Payload)
}

func (v *Validator) tryRefresh(ctx context.Context, refreshToken string) Status {
	if refreshToken == "" {
		return Status{IsAuthenticated: false, Error: "Invalid or expired token"}
	}

	result, err := v.refreshToken(ctx, refreshToken)
	if err != nil {
		Logger.Log.Errorf("session check: refresh mutation failed: %s", err)
		return Status{IsAuthenticated: false}
	}
	if !result.Ok() {
		return Status{IsAuthenticated: false, Error: "Invalid or expired token"}
	}

	return statusFromPayload(result.Payload)
}

func (v *Validator) currentUser(ctx context.Context, accessToken string) (*model.User, error) {
	var out struct {
		CurrentUser *model.User `json:"currentUser"`
	}
	client := v.client.WithBearer(accessToken)
	if err := client.Do(ctx, backend.Operation{Query: backend.CurrentUserQuery}, &out); err != nil {
		return nil, err
	}
	return out.CurrentUser, nil
}

func (v *Validator) refreshToken(ctx context.Context, refreshToken string) (*model.AuthResult, error) {
	var out struct {
		RefreshToken *model.AuthResult `json:"refreshToken"`
	}
	op := backend.Operation{
		Query:     backend.RefreshTokenMutation,
		Variables: map[string]interface{}{"refreshToken": refreshToken},
	}
	if err := v.client.Do(ctx, op, &out); err != nil {
		return nil, err
	}
	if out.RefreshToken == nil {
		return &model.AuthResult{Err: &model.AuthError{Message: "empty refresh response"}}, nil
	}
	return out.RefreshToken, nil
}

func statusFromPayload(payload *model.AuthPayload) Status {
	user := payload.User
	return Status{
		IsAuthenticated: true,
		AccessToken:     payload.AccessToken,
		RefreshToken:    payload.RefreshToken,
		User:            &user,
	}
}
