package follow

import (
	"context"
	"sync"

	"blogmux/backend"
	"blogmux/model"
)

const defaultPageLimit = 5

// Service pages through follower suggestions by cursor and toggles follow
// state, patching the cached pages optimistically.
type Service struct {
	mu         sync.Mutex
	pages      []*model.Suggestion
	nextCursor *int
	exhausted  bool
	limit      int
}

// NewService creates a suggestion pager with the default page size.
func NewService() *Service {
	return &Service{limit: defaultPageLimit}
}

// Suggestions returns everything fetched so far plus whether more pages
// remain.
func (s *Service) Suggestions() ([]*model.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Suggestion{}, s.pages...), !s.exhausted
}

// NextPage fetches the next cursor page and appends it to the cached list.
// A page shorter than the limit, or a nil next cursor, marks the list
// exhausted.
func (s *Service) NextPage(ctx context.Context, client *backend.Client) ([]*model.Suggestion, bool, error) {
	s.mu.Lock()
	if s.exhausted {
		s.mu.Unlock()
		return nil, false, nil
	}
	cursor := s.nextCursor
	limit := s.limit
	s.mu.Unlock()

	variables := map[string]interface{}{"limit": limit}
	if cursor != nil {
		variables["cursor"] = *cursor
	}

	var out struct {
		FollowerSuggestions *model.SuggestionPage `json:"followerSuggestions"`
	}
	op := backend.Operation{Query: backend.FollowerSuggestionsQuery, Variables: variables}
	if err := client.Do(ctx, op, &out); err != nil {
		return nil, false, err
	}

	page := out.FollowerSuggestions
	if page == nil {
		page = &model.SuggestionPage{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page.Users...)
	s.nextCursor = page.NextCursor
	if len(page.Users) < limit || page.NextCursor == nil {
		s.exhausted = true
	}
	return page.Users, !s.exhausted, nil
}

// ToggleFollow flips the follow state of a suggested user optimistically and
// confirms with the backend, reverting the patch if the mutation rejects.
func (s *Service) ToggleFollow(ctx context.Context, client *backend.Client, userID int) (bool, error) {
	s.mu.Lock()
	patched := s.patchLocked(userID)
	s.mu.Unlock()

	var out struct {
		ToggleFollow bool `json:"toggleFollow"`
	}
	op := backend.Operation{
		Query:     backend.ToggleFollowMutation,
		Variables: map[string]interface{}{"followerId": userID},
	}
	if err := client.Do(ctx, op, &out); err != nil {
		if patched {
			s.mu.Lock()
			s.patchLocked(userID) // flip back
			s.mu.Unlock()
		}
		return false, err
	}

	// Reconcile with the backend's answer in case the local flip raced.
	s.mu.Lock()
	for _, user := range s.pages {
		if user.ID == userID {
			user.IsFollowing = out.ToggleFollow
		}
	}
	s.mu.Unlock()
	return out.ToggleFollow, nil
}

// Reset drops all cached pages so the next NextPage starts from the top.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = nil
	s.nextCursor = nil
	s.exhausted = false
}

func (s *Service) patchLocked(userID int) bool {
	patched := false
	for _, user := range s.pages {
		if user.ID == userID {
			user.IsFollowing = !user.IsFollowing
			patched = true
		}
	}
	return patched
}
