package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"blogmux/backend"
	"blogmux/model"
	"blogmux/server/middlewares"
	"blogmux/utils"
	Logger "blogmux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const maxImageBytes = 2 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// createBlogForm is the multipart payload of the create-blog proxy. The
// image is validated separately because multipart files do not bind to
// struct fields.
type createBlogForm struct {
	Title       string `validate:"required"`
	Description string
	Content     string `validate:"required"`
	Genres      string `validate:"required"`
}

var createBlogValidate = validator.New()

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid form data"
	}
	switch fieldErrs[0].Field() {
	case "Title":
		return "Title is required"
	case "Content":
		return "Content is required"
	case "Genres":
		return "At least one genre is required"
	default:
		return "Invalid form data"
	}
}

// CreateBlog validates a multipart blog submission and forwards it to the
// backend as a GraphQL multipart upload, mapping backend error codes onto
// distinct HTTP statuses with a single {error} body.
func CreateBlog(hub *Hub, client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middlewares.SessionFromContext(c)
		if !sess.HasAccessToken() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please log in to create a post"})
			return
		}

		if err := c.Request.ParseMultipartForm(maxImageBytes + 1024*1024); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
			return
		}

		form := createBlogForm{
			Title:       strings.TrimSpace(c.PostForm("title")),
			Description: strings.TrimSpace(c.PostForm("description")),
			Content:     c.PostForm("content"),
			Genres:      c.PostForm("genres"),
		}
		if err := createBlogValidate.Struct(form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
			return
		}

		fileHeader, err := c.FormFile("featuredImage")
		if err != nil || fileHeader.Size == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Featured image is required"})
			return
		}
		if !utils.ContainsString(allowedImageTypes, fileHeader.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Please upload JPEG, PNG, WebP, or GIF files only"})
			return
		}
		if fileHeader.Size > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image file too large. Maximum size is 2MB"})
			return
		}

		var content interface{}
		if err := json.Unmarshal([]byte(form.Content), &content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
			return
		}
		if _, ok := content.(map[string]interface{}); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
			return
		}

		var genres []string
		if err := json.Unmarshal([]byte(form.Genres), &genres); err != nil || len(genres) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genres format"})
			return
		}

		operations, err := json.Marshal(map[string]interface{}{
			"query": backend.CreateBlogMutation,
			"variables": map[string]interface{}{
				"title":       form.Title,
				"description": form.Description,
				"content":     content,
				"image":       nil,
				"genre":       genres,
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred. Please try again later"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image upload"})
			return
		}
		defer file.Close()

		authed := backend.Authenticated(client, sess)
		result, err := authed.Upload(c.Request.Context(), string(operations), `{"0":["variables.image"]}`, file, fileHeader.Filename)
		if err != nil {
			Logger.Log.Errorf("create-blog upload failed: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect to server. Please try again later"})
			return
		}

		if len(result.Errors) > 0 {
			first := result.Errors[0]
			Logger.Log.Errorf("create-blog backend error: %s (%s)", first.Message, first.Code)
			switch {
			case first.Code == backend.CodeUnauthenticated:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed. Please log in again"})
			case first.Code == backend.CodeBadUserInput:
				c.JSON(http.StatusBadRequest, gin.H{"error": first.Message})
			case strings.Contains(first.Message, "duplicate") || strings.Contains(first.Message, "already exists"):
				c.JSON(http.StatusConflict, gin.H{"error": "A post with this title already exists"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": first.Message})
			}
			return
		}

		var data struct {
			CreateBlog *model.Blog `json:"createBlog"`
		}
		if err := json.Unmarshal(result.Data, &data); err != nil || data.CreateBlog == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Post creation failed. No data returned from server"})
			return
		}

		// Prepend the new blog to the viewer's active tab and drop stale list
		// pages.
		viewer := middlewares.ViewerFromContext(c)
		hub.Feeds(c.Request.Context(), viewer).Service.AddCreated(data.CreateBlog)

		c.JSON(http.StatusOK, data.CreateBlog)
	}
}
