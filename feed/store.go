package feed

import (
	"context"
	"sync"

	"blogmux/model"
	"blogmux/utils"
	Logger "blogmux/utils/log"
)

const defaultLimit = 10

// partition is the cached state of one feed category: the last published
// page, the loading flag and the last fetch error ("" when none).
type partition struct {
	data    *model.BlogConnection
	loading bool
	err     string
}

// Store is the single source of truth for what one viewer is currently
// looking at: the active category, pagination, sort and filters, plus one
// cached partition per category. It is an injectable value, not a process
// singleton, so every test (and every viewer session) gets its own.
//
// Tab, filter, sort and page-size choices are persisted through the optional
// prefs store; fetched blog lists are transient and never persisted.
type Store struct {
	mu sync.RWMutex

	activeTab   model.FeedCategory
	partitions  map[model.FeedCategory]*partition
	filters     model.Filters
	sortBy      model.SortBy
	currentPage int
	limit       int
	searchQuery string

	prefs    PrefsStore
	prefsKey string
}

// NewStore creates a store with default view state and empty partitions.
func NewStore() *Store {
	s := &Store{
		activeTab:   model.CategoryForYou,
		partitions:  map[model.FeedCategory]*partition{},
		sortBy:      model.SortLatest,
		currentPage: 1,
		limit:       defaultLimit,
	}
	for _, tab := range model.AllCategories {
		s.partitions[tab] = &partition{}
	}
	return s
}

// NewStoreWithPrefs creates a store that restores saved view preferences for
// key and writes them back on every change. Missing or unreadable prefs fall
// back to defaults.
func NewStoreWithPrefs(ctx context.Context, prefs PrefsStore, key string) *Store {
	s := NewStore()
	s.prefs = prefs
	s.prefsKey = key

	saved, err := prefs.Load(ctx, key)
	if err != nil {
		Logger.Log.Warnf("load feed prefs for %s: %s", key, err)
		return s
	}
	if saved != nil {
		s.applyPrefs(*saved)
	}
	return s
}

func (s *Store) applyPrefs(p Prefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if model.IsValidCategory(p.ActiveTab) {
		s.activeTab = p.ActiveTab
	}
	if p.SortBy != "" {
		s.sortBy = p.SortBy
	}
	if p.Limit > 0 {
		s.limit = p.Limit
	}
	s.filters = p.Filters
	s.searchQuery = p.SearchQuery
}

// savePrefs persists the current view preferences, best effort. Callers hold
// no lock; a failed save only costs the next reload its saved state.
func (s *Store) savePrefs() {
	if s.prefs == nil {
		return
	}
	s.mu.RLock()
	p := Prefs{
		ActiveTab:   s.activeTab,
		Filters:     s.filters,
		SortBy:      s.sortBy,
		Limit:       s.limit,
		SearchQuery: s.searchQuery,
	}
	s.mu.RUnlock()
	if err := s.prefs.Save(context.Background(), s.prefsKey, p); err != nil {
		Logger.Log.Warnf("save feed prefs for %s: %s", s.prefsKey, err)
	}
}

// ActiveTab returns the category currently being viewed.
func (s *Store) ActiveTab() model.FeedCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

// SetActiveTab switches the viewed category and resets pagination to page 1.
// Other categories' cached partitions are left untouched.
func (s *Store) SetActiveTab(tab model.FeedCategory) {
	s.mu.Lock()
	s.activeTab = tab
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// Filters returns a copy of the current filter set.
func (s *Store) Filters() model.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// UpdateFilters applies a partial filter mutation and resets pagination to
// page 1.
func (s *Store) UpdateFilters(apply func(*model.Filters)) {
	s.mu.Lock()
	apply(&s.filters)
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// SortBy returns the current sort order.
func (s *Store) SortBy() model.SortBy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy
}

// SetSortBy changes the sort order and resets pagination to page 1.
func (s *Store) SetSortBy(sortBy model.SortBy) {
	s.mu.Lock()
	s.sortBy = sortBy
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// CurrentPage returns the page the viewer is on.
func (s *Store) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

// SetCurrentPage moves to page n. This is the one view setter that does NOT
// reset pagination.
func (s *Store) SetCurrentPage(n int) {
	s.mu.Lock()
	s.currentPage = utils.Max(1, n)
	s.mu.Unlock()
}

// Limit returns the page size.
func (s *Store) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

// SetLimit changes the page size and resets pagination to page 1.
func (s *Store) SetLimit(limit int) {
	s.mu.Lock()
	if limit > 0 {
		s.limit = limit
	}
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// SearchQuery returns the current search query.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// SetSearchQuery updates the search query, mirrors it into the filter set and
// resets pagination to page 1.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	s.searchQuery = q
	s.filters.Search = q
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// ResetFilters restores filters, sort, search and pagination to defaults.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	s.filters = model.Filters{}
	s.sortBy = model.SortLatest
	s.searchQuery = ""
	s.currentPage = 1
	s.mu.Unlock()
	s.savePrefs()
}

// SetBlogData publishes a fetched page into the category's partition.
func (s *Store) SetBlogData(tab model.FeedCategory, data *model.BlogConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.part(tab).data = data
}

// SetLoading flips the category's loading flag.
func (s *Store) SetLoading(tab model.FeedCategory, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.part(tab).loading = loading
}

// SetError publishes a fetch error for the category; "" clears it. Previously
// published data is preserved so a failed refetch never clears good data.
func (s *Store) SetError(tab model.FeedCategory, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.part(tab).err = errMsg
}

// AddBlogToTab prepends a blog to the category's cached list and bumps the
// total count by one. No-op when the partition has never been populated.
func (s *Store) AddBlogToTab(tab model.FeedCategory, blog *model.Blog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.part(tab)
	if p.data == nil {
		return
	}
	p.data.Blogs = append([]*model.Blog{blog}, p.data.Blogs...)
	p.data.Pagination.TotalCount++
}

// UpdateBlogInTab applies patch to the blog with the given id inside the
// category's cached list. Returns true iff the blog was found.
func (s *Store) UpdateBlogInTab(tab model.FeedCategory, blogID int, patch func(*model.Blog)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.part(tab)
	if p.data == nil {
		return false
	}
	for _, blog := range p.data.Blogs {
		if blog.ID == blogID {
			patch(blog)
			return true
		}
	}
	return false
}

// RemoveBlogFromTab drops the blog from the category's cached list and
// decrements the total count, floored at zero.
func (s *Store) RemoveBlogFromTab(tab model.FeedCategory, blogID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.part(tab)
	if p.data == nil {
		return
	}
	kept := p.data.Blogs[:0]
	removed := false
	for _, blog := range p.data.Blogs {
		if blog.ID == blogID {
			removed = true
			continue
		}
		kept = append(kept, blog)
	}
	p.data.Blogs = kept
	if removed {
		p.data.Pagination.TotalCount = utils.Max(0, p.data.Pagination.TotalCount-1)
	}
}

// TabData returns the cached page for a category, nil when never fetched.
func (s *Store) TabData(tab model.FeedCategory) *model.BlogConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(tab).data
}

// TabLoading returns the category's loading flag.
func (s *Store) TabLoading(tab model.FeedCategory) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(tab).loading
}

// TabError returns the category's last fetch error, "" when none.
func (s *Store) TabError(tab model.FeedCategory) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(tab).err
}

// CurrentTabData returns the active category's cached page.
func (s *Store) CurrentTabData() *model.BlogConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(s.activeTab).data
}

// CurrentTabLoading returns the active category's loading flag.
func (s *Store) CurrentTabLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(s.activeTab).loading
}

// CurrentTabError returns the active category's last fetch error.
func (s *Store) CurrentTabError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.part(s.activeTab).err
}

// ClearTab drops one category's cached data and error.
func (s *Store) ClearTab(tab model.FeedCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.part(tab)
	p.data = nil
	p.err = ""
}

// ClearAll drops every category's cached data and error.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.partitions {
		p.data = nil
		p.err = ""
	}
}

// part returns the partition for tab, creating it for categories outside the
// known set (callers validate tabs at the HTTP boundary).
func (s *Store) part(tab model.FeedCategory) *partition {
	p, ok := s.partitions[tab]
	if !ok {
		p = &partition{}
		s.partitions[tab] = p
	}
	return p
}
