package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"blogmux/backend"
	"blogmux/feed"
	"blogmux/server/middlewares"
	"blogmux/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers GraphQL requests by root field, keyed off a substring
// of the query document. Multipart requests are treated as create-blog or
// register uploads depending on the operations payload.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			require.NoError(t, r.ParseMultipartForm(8<<20))
			operations := r.FormValue("operations")
			switch {
			case strings.Contains(operations, "createBlog"):
				fmt.Fprint(w, `{"data":{"createBlog":{"id":42,"title":"fresh","content":"{}","genres":["go"]}}}`)
			case strings.Contains(operations, "register"):
				fmt.Fprint(w, `{"data":{"register":{"__typename":"AuthPayload","accessToken":"reg-at","refreshToken":"reg-rt","user":{"id":7,"username":"newbie"}}}}`)
			default:
				fmt.Fprint(w, `{"errors":[{"message":"unknown upload"}]}`)
			}
			return
		}

		var op struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&op))
		switch {
		case strings.Contains(op.Query, "forYouBlogs"):
			fmt.Fprint(w, `{"data":{"forYouBlogs":{"blogs":[{"id":1,"title":"hello"}],"pagination":{"currentPage":1,"totalPages":1,"totalCount":1,"hasNextPage":false,"hasPrevPage":false}}}}`)
		case strings.Contains(op.Query, "mutation Login"):
			fmt.Fprint(w, `{"data":{"login":{"__typename":"AuthPayload","accessToken":"login-at","refreshToken":"login-rt","user":{"id":3,"username":"ada"}}}}`)
		case strings.Contains(op.Query, "mutation RefreshToken"):
			fmt.Fprint(w, `{"data":{"refreshToken":{"__typename":"AuthPayload","accessToken":"rotated-at","refreshToken":"rotated-rt","user":{"id":3,"username":"ada"}}}}`)
		default:
			fmt.Fprint(w, `{"errors":[{"message":"unknown operation"}]}`)
		}
	}))
}

func newTestRouter(backendURL string) (*gin.Engine, *Hub) {
	gin.SetMode(gin.TestMode)
	client := backend.NewClient(backendURL)
	validator := session.NewValidator(client)
	hub := NewHub(feed.NewMemoryPrefsStore())

	router := gin.New()
	router.Use(middlewares.RequestID(), middlewares.Session())
	router.GET("/api/check-session", CheckSession(validator))
	router.POST("/api/check-session", RefreshSession(validator))
	router.GET("/api/auth/session", CheckSession(validator))
	router.POST("/api/auth/login", Login(client))
	router.POST("/api/auth/register", Register(client))
	router.GET("/api/feed", GetFeed(hub, client))
	router.POST("/api/blogs", CreateBlog(hub, client))
	router.POST("/api/blogs/:id/like", ToggleBlogLike(hub, client))
	return router, hub
}

func withSessionCookies(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: middlewares.AccessTokenCookie, Value: "valid-access"})
	req.AddCookie(&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: "valid-refresh"})
}

func TestCheckSessionWithoutCookiesIsAlways200(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)
}

func TestPostCheckSessionRotatesTokens(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/check-session", nil)
	withSessionCookies(req)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":true`)

	// POST is an explicit rotation: new tokens come back as cookies even
	// though the current access token was never questioned.
	byName := map[string]string{}
	for _, cookie := range rec.Result().Cookies() {
		byName[cookie.Name] = cookie.Value
	}
	assert.Equal(t, "rotated-at", byName[middlewares.AccessTokenCookie])
	assert.Equal(t, "rotated-rt", byName[middlewares.RefreshTokenCookie])
}

func TestLoginIssuesSessionCookies(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	body := `{"email":"ada@example.com","password":"hunter2"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":true`)

	cookies := rec.Result().Cookies()
	byName := map[string]string{}
	for _, cookie := range cookies {
		byName[cookie.Name] = cookie.Value
	}
	assert.Equal(t, "login-at", byName[middlewares.AccessTokenCookie])
	assert.Equal(t, "login-rt", byName[middlewares.RefreshTokenCookie])
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFeedServesBlogs(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"hello"`)
}

func TestToggleBlogLikeRequiresSession(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/blogs/1/like", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please log in to like a post")
}

func TestRegisterRequiresOperationsField(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing operations field")
}

func TestRegisterProxiesUpload(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("operations",
		`{"query":"mutation register","variables":{"username":"newbie","avatar":null}}`))
	require.NoError(t, writer.WriteField("map", `{"0":["variables.avatar"]}`))
	part, err := writer.CreateFormFile("0", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration successful")
	assert.Contains(t, rec.Body.String(), `"username":"newbie"`)
}

// blogForm builds the multipart body of a create-blog request. imageSize of
// zero omits the image part entirely.
func blogForm(t *testing.T, title string, imageType string, imageSize int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("description", "a short teaser"))
	require.NoError(t, writer.WriteField("content", `{"blocks":[]}`))
	require.NoError(t, writer.WriteField("genres", `["go","testing"]`))
	if imageSize > 0 {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="featuredImage"; filename="cover.img"`)
		header.Set("Content-Type", imageType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), imageSize))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func postBlog(router *gin.Engine, body *bytes.Buffer, contentType string, authed bool) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
	req.Header.Set("Content-Type", contentType)
	if authed {
		withSessionCookies(req)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBlogRequiresSession(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	body, contentType := blogForm(t, "a title", "image/png", 128)
	rec := postBlog(router, body, contentType, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please log in to create a post")
}

func TestCreateBlogRejectsEmptyTitle(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	body, contentType := blogForm(t, "   ", "image/png", 128)
	rec := postBlog(router, body, contentType, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required")
}

func TestCreateBlogRejectsBadImageType(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	body, contentType := blogForm(t, "a title", "application/pdf", 128)
	rec := postBlog(router, body, contentType, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid image format")
}

func TestCreateBlogImageSizeBoundary(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, _ := newTestRouter(upstream.URL)

	// Exactly 2MB passes.
	body, contentType := blogForm(t, "a title", "image/png", 2*1024*1024)
	rec := postBlog(router, body, contentType, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":42`)

	// One chunk over does not.
	body, contentType = blogForm(t, "a title", "image/png", 2*1024*1024+1024)
	rec = postBlog(router, body, contentType, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image file too large")
}

func TestCreateBlogPrependsToActiveTab(t *testing.T) {
	upstream := fakeBackend(t)
	defer upstream.Close()
	router, hub := newTestRouter(upstream.URL)

	// Establish the viewer id via the first response's cookie, warm the feed,
	// then create a blog as that viewer.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var viewerCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middlewares.ViewerCookie {
			viewerCookie = cookie
		}
	}
	require.NotNil(t, viewerCookie)

	body, contentType := blogForm(t, "a title", "image/png", 128)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/blogs", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(viewerCookie)
	withSessionCookies(req)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	feeds := hub.Feeds(req.Context(), viewerCookie.Value)
	data := feeds.Store.CurrentTabData()
	require.NotNil(t, data)
	require.NotEmpty(t, data.Blogs)
	assert.Equal(t, 42, data.Blogs[0].ID)
}
