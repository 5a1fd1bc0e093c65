package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"blogmux/backend"
	"blogmux/model"
	Logger "blogmux/utils/log"
	"github.com/pkg/errors"
)

const defaultStaleTTL = 5 * time.Minute

// ErrStaleFetch marks a fetch whose response arrived after a newer fetch for
// the same category was issued. Its result is discarded entirely: no store
// write, no cache write.
var ErrStaleFetch = errors.New("feed: fetch superseded by a newer one")

// fetchParams is everything that distinguishes one feed page request.
type fetchParams struct {
	filters model.Filters
	sortBy  model.SortBy
	page    int
	limit   int
}

func (p fetchParams) key(tab model.FeedCategory) string {
	return fmt.Sprintf("%s|%s|%s|%v|%d|%s|%s|%d|%d",
		tab, p.sortBy, p.filters.Search, p.filters.Genres, p.filters.AuthorID,
		p.filters.DateFrom, p.filters.DateTo, p.page, p.limit)
}

type cacheEntry struct {
	conn      *model.BlogConnection
	fetchedAt time.Time
}

type inflightCall struct {
	done chan struct{}
	conn *model.BlogConnection
	err  error
}

// Service is the feed query layer: it maps a category to its backend query,
// executes it, and reconciles the result into both the request cache and the
// Store. At most one fetch is in flight per composite key; concurrent callers
// coalesce onto it. Store-publishing fetches carry a monotonically increasing
// token per category, and a response bearing a token older than the latest
// issued one is discarded rather than racing last-write-wins.
type Service struct {
	store *Store

	mu       sync.Mutex
	cache    map[string]cacheEntry
	inflight map[string]*inflightCall
	latest   map[model.FeedCategory]uint64

	staleTTL time.Duration
	now      func() time.Time
}

// NewService creates a query layer over the given store.
func NewService(store *Store) *Service {
	return &Service{
		store:    store,
		cache:    map[string]cacheEntry{},
		inflight: map[string]*inflightCall{},
		latest:   map[model.FeedCategory]uint64{},
		staleTTL: defaultStaleTTL,
		now:      time.Now,
	}
}

// Store returns the store this service publishes into.
func (s *Service) Store() *Store {
	return s.store
}

// Fetch resolves the active category with the store's current view state.
func (s *Service) Fetch(ctx context.Context, client *backend.Client) (*model.BlogConnection, error) {
	return s.FetchTab(ctx, client, s.store.ActiveTab())
}

// FetchTab resolves a specific category with the store's current view state,
// publishing the result into that category's partition.
func (s *Service) FetchTab(ctx context.Context, client *backend.Client, tab model.FeedCategory) (*model.BlogConnection, error) {
	params := fetchParams{
		filters: s.store.Filters(),
		sortBy:  s.store.SortBy(),
		page:    s.store.CurrentPage(),
		limit:   s.store.Limit(),
	}
	return s.fetch(ctx, client, tab, params, true)
}

// Prefetch warms the cache for a neighboring category at page 1 with default
// filters. It never touches any partition's loading or error flags; dropping
// it changes latency, not correctness.
func (s *Service) Prefetch(ctx context.Context, client *backend.Client, tab model.FeedCategory) error {
	params := fetchParams{sortBy: model.SortLatest, page: 1, limit: s.store.Limit()}
	_, err := s.fetch(ctx, client, tab, params, false)
	return err
}

// InvalidateLists drops every cached list page so the next fetch goes to the
// backend. Partition data in the store is left in place for
// stale-while-revalidate display.
func (s *Service) InvalidateLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = map[string]cacheEntry{}
}

func (s *Service) fetch(ctx context.Context, client *backend.Client, tab model.FeedCategory, params fetchParams, publish bool) (*model.BlogConnection, error) {
	key := params.key(tab)

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && s.now().Sub(entry.fetchedAt) < s.staleTTL {
		s.mu.Unlock()
		if publish {
			s.store.SetBlogData(tab, entry.conn)
			s.store.SetError(tab, "")
		}
		return entry.conn, nil
	}
	if call, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			// The in-flight owner may be a non-publishing prefetch; a
			// publishing joiner still has to land the result in the store.
			if publish && call.err == nil {
				s.store.SetBlogData(tab, call.conn)
				s.store.SetError(tab, "")
				s.store.SetLoading(tab, false)
			}
			return call.conn, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	s.inflight[key] = call
	var token uint64
	if publish {
		s.latest[tab]++
		token = s.latest[tab]
	}
	s.mu.Unlock()

	if publish {
		s.store.SetLoading(tab, true)
		s.store.SetError(tab, "")
	}

	conn, err := s.execute(ctx, client, tab, params)

	s.mu.Lock()
	delete(s.inflight, key)
	stale := publish && token < s.latest[tab]
	if err == nil && !stale {
		s.cache[key] = cacheEntry{conn: conn, fetchedAt: s.now()}
	}
	s.mu.Unlock()

	if stale {
		// A newer fetch for this category owns the partition now; leave the
		// store (including the loading flag) to it.
		call.err = ErrStaleFetch
		close(call.done)
		return nil, ErrStaleFetch
	}

	if err != nil {
		if publish {
			// Publish the failure but keep previously cached data visible.
			s.store.SetError(tab, err.Error())
			s.store.SetLoading(tab, false)
		}
		call.err = err
		close(call.done)
		return nil, err
	}

	if publish {
		s.store.SetBlogData(tab, conn)
		s.store.SetError(tab, "")
		s.store.SetLoading(tab, false)
	}
	call.conn = conn
	close(call.done)
	return conn, nil
}

// feedEnvelope covers every root field a feed query may answer under.
type feedEnvelope struct {
	Blogs          *model.BlogConnection `json:"blogs"`
	ForYouBlogs    *model.BlogConnection `json:"forYouBlogs"`
	FollowingBlogs *model.BlogConnection `json:"followingBlogs"`
	MostLikedBlogs *model.BlogConnection `json:"mostLikedBlogs"`
	MyBlogs        *model.BlogConnection `json:"myBlogs"`
}

func (e *feedEnvelope) first() *model.BlogConnection {
	for _, conn := range []*model.BlogConnection{
		e.Blogs, e.ForYouBlogs, e.FollowingBlogs, e.MostLikedBlogs, e.MyBlogs,
	} {
		if conn != nil {
			return conn
		}
	}
	return nil
}

func (s *Service) execute(ctx context.Context, client *backend.Client, tab model.FeedCategory, params fetchParams) (*model.BlogConnection, error) {
	query, sortBy := queryForCategory(tab, params.sortBy)

	input := map[string]interface{}{
		"page":   params.page,
		"limit":  params.limit,
		"sortBy": strings.ToUpper(string(sortBy)),
	}
	if !params.filters.IsZero() {
		input["filters"] = params.filters
	}

	var envelope feedEnvelope
	op := backend.Operation{Query: query, Variables: map[string]interface{}{"input": input}}
	if err := client.Do(ctx, op, &envelope); err != nil {
		return nil, err
	}

	conn := envelope.first()
	if conn == nil {
		return nil, errors.Errorf("feed query for %q returned no list", tab)
	}
	Logger.Log.Infof("fetched %d blogs for tab %q page %d", len(conn.Blogs), tab, params.page)
	return conn, nil
}

// queryForCategory resolves a category to its backend query. Trending, Latest
// and Most Liked share the generic blogs query with a pinned sort order.
func queryForCategory(tab model.FeedCategory, sortBy model.SortBy) (string, model.SortBy) {
	switch tab {
	case model.CategoryForYou:
		return backend.ForYouBlogsQuery, sortBy
	case model.CategoryFollowing:
		return backend.FollowingBlogsQuery, sortBy
	case model.CategoryTrending:
		return backend.BlogsQuery, model.SortTrending
	case model.CategoryMostLiked:
		return backend.MostLikedBlogsQuery, sortBy
	case model.CategoryMyBlogs:
		return backend.MyBlogsQuery, sortBy
	case model.CategoryLatest:
		return backend.BlogsQuery, model.SortLatest
	default:
		return backend.BlogsQuery, sortBy
	}
}

// ToggleLike flips the like state of a blog across every partition that may
// contain it, optimistically, then confirms with the backend. A rejected
// mutation rolls every patched partition back to its pre-click state; no
// automatic retry.
func (s *Service) ToggleLike(ctx context.Context, client *backend.Client, blogID int) (bool, error) {
	opt, err := s.store.BeginOptimistic(model.AllCategories...)
	if err != nil {
		return false, err
	}

	liked := false
	for _, tab := range model.AllCategories {
		s.store.UpdateBlogInTab(tab, blogID, func(b *model.Blog) {
			if b.HasLiked {
				b.HasLiked = false
				b.LikesCount--
			} else {
				b.HasLiked = true
				b.LikesCount++
			}
			liked = b.HasLiked
		})
	}

	var out struct {
		ToggleLike bool `json:"toggleLike"`
	}
	op := backend.Operation{
		Query:     backend.ToggleLikeMutation,
		Variables: map[string]interface{}{"blogId": blogID},
	}
	if err := client.Do(ctx, op, &out); err != nil {
		opt.Rollback()
		// The request cache holds the same pointers the patch mutated, so a
		// cached refetch would republish the patched values the rollback just
		// undid. Drop the cache along with the patch.
		s.InvalidateLists()
		return false, err
	}

	opt.Commit()
	s.InvalidateLists()
	if liked != out.ToggleLike {
		// Local guess disagreed with the backend (e.g. a like raced from
		// another device); trust the backend.
		for _, tab := range model.AllCategories {
			s.store.UpdateBlogInTab(tab, blogID, func(b *model.Blog) {
				if b.HasLiked != out.ToggleLike {
					b.HasLiked = out.ToggleLike
					if out.ToggleLike {
						b.LikesCount += 2
					} else {
						b.LikesCount -= 2
					}
				}
			})
		}
	}
	return out.ToggleLike, nil
}

// AddCreated prepends a freshly created blog to the active category's
// partition and invalidates list caches.
func (s *Service) AddCreated(blog *model.Blog) {
	s.store.AddBlogToTab(s.store.ActiveTab(), blog)
	s.InvalidateLists()
}

// BlogByID fetches a single blog, bypassing the list cache.
func (s *Service) BlogByID(ctx context.Context, client *backend.Client, id int) (*model.Blog, error) {
	var out struct {
		Blog *model.Blog `json:"blog"`
	}
	op := backend.Operation{
		Query:     backend.BlogByIDQuery,
		Variables: map[string]interface{}{"id": id},
	}
	if err := client.Do(ctx, op, &out); err != nil {
		return nil, err
	}
	if out.Blog == nil {
		return nil, errors.Errorf("blog %d not found", id)
	}
	return out.Blog, nil
}
