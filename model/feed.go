package model

// FeedCategory names one tab of the blog feed. It selects which backend
// query and which cache partition applies. The set is immutable.
type FeedCategory string

const (
	CategoryForYou    FeedCategory = "For You"
	CategoryFollowing FeedCategory = "Following"
	CategoryTrending  FeedCategory = "Trending"
	CategoryLatest    FeedCategory = "Latest"
	CategoryMostLiked FeedCategory = "Most Liked"
	CategoryMyBlogs   FeedCategory = "My Blogs"
)

// AllCategories lists every feed category in display order.
var AllCategories = []FeedCategory{
	CategoryForYou,
	CategoryFollowing,
	CategoryTrending,
	CategoryLatest,
	CategoryMostLiked,
	CategoryMyBlogs,
}

// IsValidCategory returns true iff c is one of the known feed categories.
func IsValidCategory(c FeedCategory) bool {
	for _, known := range AllCategories {
		if known == c {
			return true
		}
	}
	return false
}

// SortBy is the requested ordering of a feed page.
type SortBy string

const (
	SortLatest        SortBy = "latest"
	SortOldest        SortBy = "oldest"
	SortMostLiked     SortBy = "most_liked"
	SortMostCommented SortBy = "most_commented"
	SortTrending      SortBy = "trending"
)

// Filters narrows a feed query. The zero value means no filtering.
type Filters struct {
	Genres   []string `json:"genre,omitempty"`
	Search   string   `json:"search,omitempty"`
	AuthorID int      `json:"authorId,omitempty"`
	DateFrom string   `json:"dateFrom,omitempty"`
	DateTo   string   `json:"dateTo,omitempty"`
}

// IsZero returns true iff no filter field is set.
func (f Filters) IsZero() bool {
	return len(f.Genres) == 0 && f.Search == "" && f.AuthorID == 0 &&
		f.DateFrom == "" && f.DateTo == ""
}

// PaginationInfo describes the page a BlogConnection holds within the full
// result set. It is always paired with a list of blogs.
type PaginationInfo struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// BlogConnection is one page of blogs plus its pagination info, as returned
// by every feed query.
type BlogConnection struct {
	Blogs      []*Blog        `json:"blogs"`
	Pagination PaginationInfo `json:"pagination"`
}
