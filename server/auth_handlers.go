package server

import (
	"encoding/json"
	"net/http"

	"blogmux/backend"
	"blogmux/model"
	"blogmux/server/middlewares"
	"blogmux/session"
	Logger "blogmux/utils/log"
	"github.com/gin-gonic/gin"
)

// CheckSession validates the cookie session against the backend. The
// response is always HTTP 200 with a defined JSON shape; clients must never
// see an exception from this route. Rotated tokens are re-issued as cookies
// before responding.
func CheckSession(v *session.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		status := v.Check(c.Request.Context(), sess)

		if status.IsAuthenticated && status.AccessToken != sess.AccessToken {
			setSessionCookies(c, status.AccessToken, status.RefreshToken)
		}
		c.JSON(http.StatusOK, status)
	}
}

// RefreshSession explicitly rotates the token pair using the refresh token
// cookie. Same always-200 contract as CheckSession.
func RefreshSession(v *session.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		status := v.Refresh(c.Request.Context(), sess)

		if status.IsAuthenticated {
			setSessionCookies(c, status.AccessToken, status.RefreshToken)
		}
		c.JSON(http.StatusOK, status)
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a token pair and mirrors it into cookies.
func Login(client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		op := backend.Operation{
			Query:     backend.LoginMutation,
			Variables: map[string]interface{}{"email": req.Email, "password": req.Password},
		}
		var out struct {
			Login *model.AuthResult `json:"login"`
		}
		if err := client.Do(c.Request.Context(), op, &out); err != nil {
			Logger.Log.Errorf("login mutation failed: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reach server. Please try again later"})
			return
		}
		respondAuthResult(c, out.Login)
	}
}

type oauthLoginRequest struct {
	Provider string `json:"provider" binding:"required"`
	IDToken  string `json:"idToken" binding:"required"`
}

// OauthLogin exchanges a provider id token (e.g. Google) for a backend token
// pair.
func OauthLogin(client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req oauthLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider and idToken are required"})
			return
		}

		op := backend.Operation{
			Query:     backend.OauthLoginMutation,
			Variables: map[string]interface{}{"provider": req.Provider, "idToken": req.IDToken},
		}
		var out struct {
			OauthLogin *model.AuthResult `json:"oauthLogin"`
		}
		if err := client.Do(c.Request.Context(), op, &out); err != nil {
			Logger.Log.Errorf("oauth login mutation failed: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reach server. Please try again later"})
			return
		}
		respondAuthResult(c, out.OauthLogin)
	}
}

func respondAuthResult(c *gin.Context, result *model.AuthResult) {
	if result == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No authentication result received"})
		return
	}
	if !result.Ok() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Err.Message, "code": result.Err.Code})
		return
	}
	setSessionCookies(c, result.Payload.AccessToken, result.Payload.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": result.Payload.User})
}

// Logout clears the session cookies. Token revocation is the backend's
// business; this route only forgets them client-side.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		clearSessionCookies(c)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Register proxies a multipart GraphQL registration request to the backend
// verbatim: the operations/map upload payload built by the client passes
// through untouched, with the optional avatar file under part "0".
func Register(client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		operations := c.PostForm("operations")
		if operations == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing operations field"})
			return
		}
		fileMap := c.PostForm("map")

		var (
			upload   = func() (*backend.UploadResult, error) { return client.Upload(c.Request.Context(), operations, fileMap, nil, "") }
			filename string
		)
		if fileHeader, err := c.FormFile("0"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
				return
			}
			defer file.Close()
			filename = fileHeader.Filename
			upload = func() (*backend.UploadResult, error) {
				return client.Upload(c.Request.Context(), operations, fileMap, file, filename)
			}
		}

		result, err := upload()
		if err != nil {
			Logger.Log.Errorf("register proxy failed: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}
		if len(result.Errors) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Errors[0].Message})
			return
		}

		var data struct {
			Register *model.AuthResult `json:"register"`
		}
		if err := json.Unmarshal(result.Data, &data); err != nil || data.Register == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No registration result received"})
			return
		}
		if !data.Register.Ok() {
			c.JSON(http.StatusBadRequest, gin.H{"error": data.Register.Err.Message, "code": data.Register.Err.Code})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    data.Register.Payload.User,
			"message": "Registration successful",
		})
	}
}
