package server

import (
	"os"

	"blogmux/server/middlewares"
	"blogmux/utils/dotenv"
	"github.com/gin-gonic/gin"
)

const (
	accessTokenMaxAge  = 24 * 3600
	refreshTokenMaxAge = 30 * 24 * 3600
)

// setSessionCookies mirrors a token pair into http-only cookies. The cookies
// are the authoritative token store: whenever the backend rotates tokens the
// handlers re-issue them here, so a divergent in-memory copy self-heals on
// the next session check.
func setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	domain := os.Getenv("COOKIE_DOMAIN")
	secure := os.Getenv("BLOGMUX_ENV") == dotenv.ProdEnv
	c.SetCookie(middlewares.AccessTokenCookie, accessToken, accessTokenMaxAge, "/", domain, secure, true)
	c.SetCookie(middlewares.RefreshTokenCookie, refreshToken, refreshTokenMaxAge, "/", domain, secure, true)
}

func clearSessionCookies(c *gin.Context) {
	domain := os.Getenv("COOKIE_DOMAIN")
	secure := os.Getenv("BLOGMUX_ENV") == dotenv.ProdEnv
	c.SetCookie(middlewares.AccessTokenCookie, "", -1, "/", domain, secure, true)
	c.SetCookie(middlewares.RefreshTokenCookie, "", -1, "/", domain, secure, true)
}
