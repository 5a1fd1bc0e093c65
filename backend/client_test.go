package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogmux/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoUnmarshalsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var op Operation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&op))
		assert.Contains(t, op.Query, "currentUser")

		w.Write([]byte(`{"data": {"currentUser": {"id": 7, "username": "alice"}}}`))
	}))
	defer server.Close()

	var out struct {
		CurrentUser *model.User `json:"currentUser"`
	}
	client := NewClient(server.URL)
	require.NoError(t, client.Do(context.Background(), Operation{Query: CurrentUserQuery}, &out))
	require.NotNil(t, out.CurrentUser)
	assert.Equal(t, 7, out.CurrentUser.ID)
	assert.Equal(t, "alice", out.CurrentUser.Username)
}

func TestDoSurfacesGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "Unauthorized", "extensions": {"code": "UNAUTHENTICATED"}}]}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).Do(context.Background(), Operation{Query: CurrentUserQuery}, nil)
	require.Error(t, err)

	gqlErr, ok := AsGraphQLError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnauthenticated, gqlErr.Code)
	assert.True(t, IsUnauthorized(err))
}

func TestDoRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).Do(context.Background(), Operation{Query: BlogsQuery}, nil))
	assert.Equal(t, 2, attempts)
}

func TestAuthenticatedFactory(t *testing.T) {
	base := NewClient("http://backend.test/graphql")

	// No session, or a session without an access token, yields the base
	// client unchanged.
	assert.Same(t, base, Authenticated(base, nil))
	assert.Same(t, base, Authenticated(base, &model.Session{}))

	authed := Authenticated(base, &model.Session{AccessToken: "tok"})
	assert.NotSame(t, base, authed)
	assert.Equal(t, "Bearer tok", authed.header.Get("Authorization"))
	// The base client must not be mutated by derivation.
	assert.Empty(t, base.header.Get("Authorization"))
}

func TestUploadPostsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get("apollo-require-preflight"))
		require.NoError(t, r.ParseMultipartForm(4<<20))
		assert.Contains(t, r.FormValue("operations"), "createBlog")
		assert.Equal(t, `{"0":["variables.image"]}`, r.FormValue("map"))

		file, header, err := r.FormFile("0")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cover.png", header.Filename)

		w.Write([]byte(`{"data": {"createBlog": {"id": 1}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL).WithBearer("tok")
	operations := `{"query": "mutation { createBlog }", "variables": {"image": null}}`
	result, err := client.Upload(context.Background(), operations, `{"0":["variables.image"]}`,
		bytes.NewReader([]byte("png-bytes")), "cover.png")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Contains(t, string(result.Data), "createBlog")
}
