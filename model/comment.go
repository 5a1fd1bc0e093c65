package model

// Comment is a node of a blog's comment tree. Replies nest one level deep via
// ParentCommentID; deeper threads are flattened by the backend.
type Comment struct {
	ID              int        `json:"id"`
	Content         string     `json:"content"`
	BlogID          int        `json:"blogId"`
	UserID          int        `json:"userId"`
	ParentCommentID *int       `json:"parentCommentId,omitempty"`
	CreatedAt       string     `json:"createdAt"`
	LikeCount       int        `json:"likeCount"`
	HasLiked        bool       `json:"hasLiked"`
	ReplyCount      int        `json:"replyCount"`
	User            Author     `json:"user"`
	Replies         []*Comment `json:"replies,omitempty"`
}
