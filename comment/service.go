package comment

import (
	"context"
	"sync"

	"blogmux/backend"
	"blogmux/model"
	"github.com/pkg/errors"
)

// Service fetches and mutates a blog's comment tree, keeping a per-blog cache
// that mutations patch in place. Replies nest one level deep; patching
// recurses anyway so a deeper tree from the backend still behaves.
type Service struct {
	mu    sync.Mutex
	cache map[int][]*model.Comment
}

// NewService creates an empty comment service.
func NewService() *Service {
	return &Service{cache: map[int][]*model.Comment{}}
}

// ByBlog returns the blog's comment tree, from cache when present.
func (s *Service) ByBlog(ctx context.Context, client *backend.Client, blogID int) ([]*model.Comment, error) {
	s.mu.Lock()
	if cached, ok := s.cache[blogID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var out struct {
		CommentsByBlogID []*model.Comment `json:"commentsByBlogId"`
	}
	op := backend.Operation{
		Query:     backend.CommentsByBlogIDQuery,
		Variables: map[string]interface{}{"blogId": blogID},
	}
	if err := client.Do(ctx, op, &out); err != nil {
		return nil, err
	}
	if out.CommentsByBlogID == nil {
		out.CommentsByBlogID = []*model.Comment{}
	}

	s.mu.Lock()
	s.cache[blogID] = out.CommentsByBlogID
	s.mu.Unlock()
	return out.CommentsByBlogID, nil
}

// CreateInput is the payload of a new comment or reply.
type CreateInput struct {
	BlogID          int    `json:"blogId" binding:"required"`
	Content         string `json:"content" binding:"required"`
	ParentCommentID *int   `json:"parentCommentId"`
}

// Create posts a new comment and grafts it into the cached tree: top-level
// comments append to the list, replies append under their parent.
func (s *Service) Create(ctx context.Context, client *backend.Client, input CreateInput) (*model.Comment, error) {
	variables := map[string]interface{}{
		"blogId":  input.BlogID,
		"content": input.Content,
	}
	if input.ParentCommentID != nil {
		variables["parentCommentId"] = *input.ParentCommentID
	}

	var out struct {
		CreateComment *model.Comment `json:"createComment"`
	}
	op := backend.Operation{Query: backend.CreateCommentMutation, Variables: variables}
	if err := client.Do(ctx, op, &out); err != nil {
		return nil, err
	}
	if out.CreateComment == nil {
		return nil, errors.New("backend returned no comment")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.cache[input.BlogID]
	if !ok {
		return out.CreateComment, nil
	}
	if input.ParentCommentID == nil {
		s.cache[input.BlogID] = append(tree, out.CreateComment)
		return out.CreateComment, nil
	}
	if parent := findComment(tree, *input.ParentCommentID); parent != nil {
		parent.Replies = append(parent.Replies, out.CreateComment)
		parent.ReplyCount++
	}
	return out.CreateComment, nil
}

// Delete removes a comment and drops it (and its replies) from the cached
// tree.
func (s *Service) Delete(ctx context.Context, client *backend.Client, commentID, blogID int) error {
	op := backend.Operation{
		Query:     backend.DeleteCommentMutation,
		Variables: map[string]interface{}{"commentId": commentID},
	}
	if err := client.Do(ctx, op, nil); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tree, ok := s.cache[blogID]; ok {
		s.cache[blogID] = removeComment(tree, commentID)
	}
	return nil
}

// ToggleLike flips a comment's like and patches likeCount/hasLiked in the
// cached tree according to the backend's answer.
func (s *Service) ToggleLike(ctx context.Context, client *backend.Client, commentID, blogID int) (bool, error) {
	var out struct {
		ToggleCommentLike bool `json:"toggleCommentLike"`
	}
	op := backend.Operation{
		Query:     backend.ToggleCommentLikeMutation,
		Variables: map[string]interface{}{"commentId": commentID},
	}
	if err := client.Do(ctx, op, &out); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tree, ok := s.cache[blogID]; ok {
		patchCommentLike(tree, commentID, out.ToggleCommentLike)
	}
	return out.ToggleCommentLike, nil
}

// Invalidate drops the cached tree for a blog.
func (s *Service) Invalidate(blogID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, blogID)
}

// findComment walks the tree for the comment with the given id.
func findComment(tree []*model.Comment, id int) *model.Comment {
	for _, c := range tree {
		if c.ID == id {
			return c
		}
		if found := findComment(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// removeComment filters the comment out of the tree at any depth, keeping
// sibling order and adjusting parents' reply counts.
func removeComment(tree []*model.Comment, id int) []*model.Comment {
	kept := tree[:0]
	for _, c := range tree {
		if c.ID == id {
			continue
		}
		before := len(c.Replies)
		c.Replies = removeComment(c.Replies, id)
		if len(c.Replies) < before {
			c.ReplyCount--
		}
		kept = append(kept, c)
	}
	return kept
}

// patchCommentLike sets the liked state on the matching comment anywhere in
// the tree, adjusting likeCount by the flip direction.
func patchCommentLike(tree []*model.Comment, id int, liked bool) bool {
	for _, c := range tree {
		if c.ID == id {
			if c.HasLiked != liked {
				c.HasLiked = liked
				if liked {
					c.LikeCount++
				} else {
					c.LikeCount--
				}
			}
			return true
		}
		if patchCommentLike(c.Replies, id, liked) {
			return true
		}
	}
	return false
}
