package model

// User is the account profile the backend returns from currentUser and every
// auth mutation.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Image        string `json:"image,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// Session is the token pair plus user owned by the auth bridge. It is
// mirrored into cookies and rebuilt from them on each request.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

// HasAccessToken returns true iff the session carries a usable bearer token.
func (s *Session) HasAccessToken() bool {
	return s != nil && s.AccessToken != ""
}

// Suggestion is one entry of the follower-suggestion list.
type Suggestion struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName,omitempty"`
	UserBio      string `json:"userBio,omitempty"`
	Email        string `json:"email,omitempty"`
	Image        string `json:"image,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsFollowing  bool   `json:"isFollowing"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// SuggestionPage is one cursor page of follower suggestions.
type SuggestionPage struct {
	Users      []*Suggestion `json:"users"`
	NextCursor *int          `json:"nextCursor"`
}
