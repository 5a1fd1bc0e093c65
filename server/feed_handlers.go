package server

import (
	"net/http"
	"strconv"

	"blogmux/backend"
	"blogmux/feed"
	"blogmux/model"
	"blogmux/server/middlewares"
	Logger "blogmux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// GetFeed serves one page of the viewer's feed. Query parameters adjust the
// viewer's persistent view state (tab, sort, search, genre, limit reset
// pagination; page does not), then the query layer resolves the page through
// its cache.
func GetFeed(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := middlewares.ViewerFromContext(c)
		feeds := hub.Feeds(c.Request.Context(), viewer)
		store := feeds.Store

		if tab := model.FeedCategory(c.Query("tab")); tab != "" {
			if !model.IsValidCategory(tab) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown feed tab"})
				return
			}
			if tab != store.ActiveTab() {
				store.SetActiveTab(tab)
			}
		}
		if sort := model.SortBy(c.Query("sort")); sort != "" && sort != store.SortBy() {
			store.SetSortBy(sort)
		}
		if search, ok := c.GetQuery("search"); ok && search != store.SearchQuery() {
			store.SetSearchQuery(search)
		}
		if genres, ok := c.GetQueryArray("genre"); ok {
			store.UpdateFilters(func(f *model.Filters) { f.Genres = genres })
		}
		if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit != store.Limit() {
			store.SetLimit(limit)
		}
		// Page is applied last: the setters above deliberately reset it.
		if page, err := strconv.Atoi(c.Query("page")); err == nil {
			store.SetCurrentPage(page)
		}

		authed := backend.Authenticated(client, middlewares.SessionFromContext(c))
		conn, err := feeds.Service.Fetch(c.Request.Context(), authed)
		if errors.Is(err, feed.ErrStaleFetch) {
			// A newer fetch owns the partition; serve whatever it published.
			conn = store.CurrentTabData()
			err = nil
		}
		if err != nil {
			Logger.Log.Errorf("feed fetch for viewer %s failed: %s", viewer, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch blogs"})
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

type prefetchRequest struct {
	Tab model.FeedCategory `json:"tab" binding:"required"`
}

// PrefetchFeed warms the cache for a neighboring tab (typically on hover) at
// page 1 with default filters. Latency optimization only; failures are
// swallowed after logging.
func PrefetchFeed(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prefetchRequest
		if err := c.ShouldBindJSON(&req); err != nil || !model.IsValidCategory(req.Tab) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown feed tab"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		feeds := hub.Feeds(c.Request.Context(), viewer)
		authed := backend.Authenticated(client, middlewares.SessionFromContext(c))
		if err := feeds.Service.Prefetch(c.Request.Context(), authed, req.Tab); err != nil {
			Logger.Log.Warnf("prefetch of %q failed: %s", req.Tab, err)
		}
		c.JSON(http.StatusOK, gin.H{"warmed": req.Tab})
	}
}

// GetBlog fetches one blog by id, bypassing list caches.
func GetBlog(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog id"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		feeds := hub.Feeds(c.Request.Context(), viewer)
		authed := backend.Authenticated(client, middlewares.SessionFromContext(c))
		blog, err := feeds.Service.BlogByID(c.Request.Context(), authed, id)
		if err != nil {
			if gqlErr, ok := backend.AsGraphQLError(err); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": gqlErr.Message})
				return
			}
			Logger.Log.Errorf("blog %d fetch failed: %s", id, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load blog"})
			return
		}
		c.JSON(http.StatusOK, blog)
	}
}

// ToggleBlogLike flips the like state of a blog for the signed-in viewer.
// The patch is optimistic across every feed partition and rolled back by the
// query layer if the backend rejects.
func ToggleBlogLike(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to like a post"})
			return
		}
		blogID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blog id"})
			return
		}

		viewer := middlewares.ViewerFromContext(c)
		feeds := hub.Feeds(c.Request.Context(), viewer)
		authed := backend.Authenticated(client, sess)
		liked, err := feeds.Service.ToggleLike(c.Request.Context(), authed, blogID)
		if err != nil {
			if backend.IsUnauthorized(err) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired. Please log in again"})
				return
			}
			Logger.Log.Errorf("toggle like on blog %d failed: %s", blogID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update like"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": liked})
	}
}
