package model

// Author is the projection of a blog's author embedded in feed responses.
type Author struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Image        string `json:"image,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Blog is a read-only summary of a blog post as the backend projects it into
// feed queries. It is never mutated locally except through optimistic patches
// after a like/bookmark action.
type Blog struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description,omitempty"`
	Image          string   `json:"image,omitempty"`
	Genre          []string `json:"genre"`
	Author         Author   `json:"author"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
	LikesCount     int      `json:"likesCount"`
	CommentsCount  int      `json:"commentsCount"`
	BookmarksCount int      `json:"bookmarksCount"`
	HasLiked       bool     `json:"hasLiked"`
	HasBookmarked  bool     `json:"hasBookmarked"`
}
