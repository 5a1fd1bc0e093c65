package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"strings"

	"blogmux/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Cookie names owned by the auth bridge.
const (
	AccessTokenCookie  = "blogmux_access_token"
	RefreshTokenCookie = "blogmux_refresh_token"
	ViewerCookie       = "blogmux_viewer"
)

// Context keys populated by the Session middleware.
const (
	SessionKey = "session"
	ViewerKey  = "viewer"
)

var authSecret []byte

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup() {
	if os.Getenv("API_URL") == "" {
		// Abort directly: without the backend endpoint every route is dead.
		log.Fatal("API_URL must be set to the backend graphql endpoint")
	}
	authSecret = []byte(os.Getenv("AUTH_SECRET"))
}

// RequestID tags every request with a unique id, echoed back in the
// X-Request-Id header for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// Session rebuilds the viewer's session from the token cookies and stores it
// in the request context, along with a stable signed viewer id used to key
// per-viewer feed state. Requests without cookies get a fresh viewer id and
// an unauthenticated session; handlers decide whether that is acceptable.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &model.Session{}
		if access, err := c.Cookie(AccessTokenCookie); err == nil {
			sess.AccessToken = access
		}
		if refresh, err := c.Cookie(RefreshTokenCookie); err == nil {
			sess.RefreshToken = refresh
		}
		c.Set(SessionKey, sess)

		viewer := ""
		if raw, err := c.Cookie(ViewerCookie); err == nil {
			viewer = verifyViewerCookie(raw)
		}
		if viewer == "" {
			viewer = uuid.New().String()
			c.SetCookie(ViewerCookie, signViewerCookie(viewer), 30*24*3600, "/",
				os.Getenv("COOKIE_DOMAIN"), false, true)
		}
		c.Set(ViewerKey, viewer)

		c.Next()
	}
}

// SessionFromContext returns the session the Session middleware attached.
func SessionFromContext(c *gin.Context) *model.Session {
	if value, ok := c.Get(SessionKey); ok {
		if sess, ok := value.(*model.Session); ok {
			return sess
		}
	}
	return &model.Session{}
}

// ViewerFromContext returns the viewer id the Session middleware attached.
func ViewerFromContext(c *gin.Context) string {
	return c.GetString(ViewerKey)
}

// signViewerCookie appends an hmac signature so a viewer id cannot be forged
// to read another viewer's feed preferences. Without AUTH_SECRET the id is
// stored unsigned.
func signViewerCookie(id string) string {
	if len(authSecret) == 0 {
		return id
	}
	mac := hmac.New(sha256.New, authSecret)
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

func verifyViewerCookie(raw string) string {
	if len(authSecret) == 0 {
		return raw
	}
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 {
		return ""
	}
	mac := hmac.New(sha256.New, authSecret)
	mac.Write([]byte(parts[0]))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return ""
	}
	return parts[0]
}
