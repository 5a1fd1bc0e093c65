package server

import (
	"net/http"
	"strconv"

	"blogmux/backend"
	"blogmux/comment"
	"blogmux/server/middlewares"
	Logger "blogmux/utils/log"
	"github.com/gin-gonic/gin"
)

// GetComments returns the comment tree of a blog, served from the viewer's
// cache after the first fetch.
func GetComments(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		blogID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog id"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		authed := backend.Authenticated(client, middlewares.SessionFromContext(c))
		tree, err := hub.Comments(viewer).ByBlog(c.Request.Context(), authed, blogID)
		if err != nil {
			Logger.Log.Errorf("comments for blog %d failed: %s", blogID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load comments"})
			return
		}
		c.JSON(http.StatusOK, tree)
	}
}

// CreateComment posts a new comment or reply on behalf of the signed-in
// viewer.
func CreateComment(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to comment"})
			return
		}

		var input comment.CreateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blogId and content are required"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		authed := backend.Authenticated(client, sess)
		created, err := hub.Comments(viewer).Create(c.Request.Context(), authed, input)
		if err != nil {
			if backend.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again"})
				return
			}
			Logger.Log.Errorf("create comment on blog %d failed: %s", input.BlogID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to post comment"})
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// DeleteComment removes the viewer's comment. The blog id rides along as a
// query parameter so the cached tree can be patched without a refetch.
func DeleteComment(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to delete a comment"})
			return
		}
		commentID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
			return
		}
		blogID, err := strconv.Atoi(c.Query("blogId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blogId is required"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		authed := backend.Authenticated(client, sess)
		if err := hub.Comments(viewer).Delete(c.Request.Context(), authed, commentID, blogID); err != nil {
			if backend.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again"})
				return
			}
			Logger.Log.Errorf("delete comment %d failed: %s", commentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete comment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ToggleCommentLike flips the viewer's like on a comment.
func ToggleCommentLike(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to like a comment"})
			return
		}
		commentID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
			return
		}
		blogID, err := strconv.Atoi(c.Query("blogId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blogId is required"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		authed := backend.Authenticated(client, sess)
		liked, err := hub.Comments(viewer).ToggleLike(c.Request.Context(), authed, commentID, blogID)
		if err != nil {
			if backend.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again"})
				return
			}
			Logger.Log.Errorf("toggle like on comment %d failed: %s", commentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update like"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": liked})
	}
}

// GetSuggestions returns the next page of follower suggestions for the
// signed-in viewer, or the cached pages so far when refresh=false.
func GetSuggestions(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to see suggestions"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		follows := hub.Follows(viewer)
		authed := backend.Authenticated(client, sess)

		if c.Query("reset") == "true" {
			follows.Reset()
		}
		if _, _, err := follows.NextPage(c.Request.Context(), authed); err != nil {
			Logger.Log.Errorf("follower suggestions for viewer %s failed: %s", viewer, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load suggestions"})
			return
		}

		users, hasMore := follows.Suggestions()
		c.JSON(http.StatusOK, gin.H{"users": users, "hasMore": hasMore})
	}
}

// ToggleFollow follows or unfollows a suggested user.
func ToggleFollow(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to follow users"})
			return
		}
		userID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		authed := backend.Authenticated(client, sess)
		following, err := hub.Follows(viewer).ToggleFollow(c.Request.Context(), authed, userID)
		if err != nil {
			if backend.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again"})
				return
			}
			Logger.Log.Errorf("toggle follow on user %d failed: %s", userID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update follow"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": following})
	}
}
