package feed

import (
	"context"
	"testing"

	"blogmux/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeConn(blogIDs ...int) *model.BlogConnection {
	conn := &model.BlogConnection{
		Pagination: model.PaginationInfo{
			CurrentPage: 1,
			TotalPages:  1,
			TotalCount:  len(blogIDs),
		},
	}
	for _, id := range blogIDs {
		conn.Blogs = append(conn.Blogs, &model.Blog{ID: id, Title: "blog", LikesCount: 1})
	}
	return conn
}

func TestSetActiveTabResetsPageOnly(t *testing.T) {
	s := NewStore()
	s.SetBlogData(model.CategoryTrending, makeConn(1, 2))
	s.SetBlogData(model.CategoryLatest, makeConn(3))
	s.SetCurrentPage(4)

	s.SetActiveTab(model.CategoryTrending)

	assert.Equal(t, model.CategoryTrending, s.ActiveTab())
	assert.Equal(t, 1, s.CurrentPage())
	// Other categories' cached partitions stay untouched.
	require.NotNil(t, s.TabData(model.CategoryLatest))
	assert.Len(t, s.TabData(model.CategoryLatest).Blogs, 1)
	assert.Len(t, s.TabData(model.CategoryTrending).Blogs, 2)
}

func TestViewSettersResetPage(t *testing.T) {
	s := NewStore()

	s.SetCurrentPage(3)
	assert.Equal(t, 3, s.CurrentPage())

	s.SetSortBy(model.SortMostLiked)
	assert.Equal(t, 1, s.CurrentPage())

	s.SetCurrentPage(3)
	s.UpdateFilters(func(f *model.Filters) { f.Genres = []string{"tech"} })
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, []string{"tech"}, s.Filters().Genres)

	s.SetCurrentPage(3)
	s.SetSearchQuery("go")
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, "go", s.Filters().Search)

	s.SetCurrentPage(3)
	s.SetLimit(20)
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, 20, s.Limit())
}

func TestAddBlogToTab(t *testing.T) {
	s := NewStore()
	s.SetBlogData(model.CategoryForYou, makeConn(1, 2))
	s.SetBlogData(model.CategoryLatest, makeConn(3))

	s.AddBlogToTab(model.CategoryForYou, &model.Blog{ID: 99})

	data := s.TabData(model.CategoryForYou)
	require.Len(t, data.Blogs, 3)
	assert.Equal(t, 99, data.Blogs[0].ID)
	assert.Equal(t, 3, data.Pagination.TotalCount)
	// Only the targeted category changes.
	assert.Equal(t, 1, s.TabData(model.CategoryLatest).Pagination.TotalCount)

	// Prepending into a never-populated partition is a no-op.
	s.AddBlogToTab(model.CategoryFollowing, &model.Blog{ID: 100})
	assert.Nil(t, s.TabData(model.CategoryFollowing))
}

func TestRemoveBlogFromTab(t *testing.T) {
	s := NewStore()
	s.SetBlogData(model.CategoryForYou, makeConn(1, 2))

	s.RemoveBlogFromTab(model.CategoryForYou, 1)
	data := s.TabData(model.CategoryForYou)
	require.Len(t, data.Blogs, 1)
	assert.Equal(t, 2, data.Blogs[0].ID)
	assert.Equal(t, 1, data.Pagination.TotalCount)

	// Removing a missing blog does not decrement the count.
	s.RemoveBlogFromTab(model.CategoryForYou, 42)
	assert.Equal(t, 1, s.TabData(model.CategoryForYou).Pagination.TotalCount)

	// TotalCount floors at zero.
	s.RemoveBlogFromTab(model.CategoryForYou, 2)
	s.SetBlogData(model.CategoryTrending, &model.BlogConnection{
		Blogs:      []*model.Blog{{ID: 5}},
		Pagination: model.PaginationInfo{TotalCount: 0},
	})
	s.RemoveBlogFromTab(model.CategoryTrending, 5)
	assert.Equal(t, 0, s.TabData(model.CategoryTrending).Pagination.TotalCount)
}

func TestUpdateBlogInTab(t *testing.T) {
	s := NewStore()
	s.SetBlogData(model.CategoryForYou, makeConn(1, 2))

	found := s.UpdateBlogInTab(model.CategoryForYou, 2, func(b *model.Blog) {
		b.LikesCount = 10
		b.HasLiked = true
	})
	assert.True(t, found)
	assert.Equal(t, 10, s.TabData(model.CategoryForYou).Blogs[1].LikesCount)

	assert.False(t, s.UpdateBlogInTab(model.CategoryForYou, 404, func(b *model.Blog) {}))
	assert.False(t, s.UpdateBlogInTab(model.CategoryFollowing, 1, func(b *model.Blog) {}))
}

func TestCurrentTabGetters(t *testing.T) {
	s := NewStore()
	s.SetActiveTab(model.CategoryTrending)
	s.SetBlogData(model.CategoryTrending, makeConn(1))
	s.SetLoading(model.CategoryTrending, true)
	s.SetError(model.CategoryTrending, "boom")

	assert.Len(t, s.CurrentTabData().Blogs, 1)
	assert.True(t, s.CurrentTabLoading())
	assert.Equal(t, "boom", s.CurrentTabError())

	s.SetActiveTab(model.CategoryForYou)
	assert.Nil(t, s.CurrentTabData())
	assert.False(t, s.CurrentTabLoading())
	assert.Empty(t, s.CurrentTabError())
}

func TestPrefsRoundTrip(t *testing.T) {
	ctx := context.Background()
	prefs := NewMemoryPrefsStore()

	s := NewStoreWithPrefs(ctx, prefs, "viewer-1")
	s.SetActiveTab(model.CategoryMostLiked)
	s.SetSortBy(model.SortMostCommented)
	s.SetLimit(25)
	s.SetSearchQuery("gopher")
	s.SetBlogData(model.CategoryMostLiked, makeConn(1))

	restored := NewStoreWithPrefs(ctx, prefs, "viewer-1")
	assert.Equal(t, model.CategoryMostLiked, restored.ActiveTab())
	assert.Equal(t, model.SortMostCommented, restored.SortBy())
	assert.Equal(t, 25, restored.Limit())
	assert.Equal(t, "gopher", restored.SearchQuery())
	// Blog lists are transient cache and never persisted.
	assert.Nil(t, restored.TabData(model.CategoryMostLiked))

	other := NewStoreWithPrefs(ctx, prefs, "viewer-2")
	assert.Equal(t, model.CategoryForYou, other.ActiveTab())
}
