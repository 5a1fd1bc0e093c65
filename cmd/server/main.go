package main

import (
	"net/http"
	"os"

	"blogmux/backend"
	"blogmux/feed"
	"blogmux/server"
	"blogmux/server/middlewares"
	"blogmux/session"
	"blogmux/utils/dotenv"
	"blogmux/utils/flag"
	. "blogmux/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func init() {
	flag.ParseFlags()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	// Middlewares
	middlewares.Setup()

	Log.Info("bff server initialized")
}

// prefsStore prefers redis and degrades to in-process storage, so the server
// still runs on a laptop without redis.
func prefsStore() feed.PrefsStore {
	if os.Getenv("REDIS_HOST") == "" {
		Log.Info("REDIS_HOST not set, keeping feed preferences in memory")
		return feed.NewMemoryPrefsStore()
	}
	store, err := feed.GetRedisPrefsStore()
	if err != nil {
		Log.Errorf("redis unreachable, falling back to in-memory feed preferences: %s", err)
		return feed.NewMemoryPrefsStore()
	}
	return store
}

func main() {
	client := backend.NewClientFromEnv()
	validator := session.NewValidator(client)
	hub := server.NewHub(prefsStore())

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.Session())

	// Routes the browser client calls by these exact paths. GET validates the
	// current session; POST is an explicit refresh-token rotation.
	router.GET("/api/check-session", server.CheckSession(validator))
	router.POST("/api/check-session", server.RefreshSession(validator))
	router.POST("/api/create-blog", server.CreateBlog(hub, client))

	auth := router.Group("/api/auth")
	{
		auth.GET("/session", server.CheckSession(validator))
		auth.POST("/refresh", server.RefreshSession(validator))
		auth.POST("/login", server.Login(client))
		auth.POST("/oauth", server.OauthLogin(client))
		auth.POST("/logout", server.Logout())
		auth.POST("/register", server.Register(client))
	}

	api := router.Group("/api")
	{
		api.GET("/feed", server.GetFeed(hub, client))
		api.POST("/feed/prefetch", server.PrefetchFeed(hub, client))
		api.GET("/blogs/:id", server.GetBlog(hub, client))
		api.POST("/blogs", server.CreateBlog(hub, client))
		api.POST("/blogs/:id/like", server.ToggleBlogLike(hub, client))

		api.GET("/blogs/:id/comments", server.GetComments(hub, client))
		api.POST("/comments", server.CreateComment(hub, client))
		api.DELETE("/comments/:id", server.DeleteComment(hub, client))
		api.POST("/comments/:id/like", server.ToggleCommentLike(hub, client))

		api.GET("/follow/suggestions", server.GetSuggestions(hub, client))
		api.POST("/users/:id/follow", server.ToggleFollow(hub, client))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	Log.Info("bff server starts up")
	router.Run(":8080")
}
