package server

import (
	"context"
	"sync"
	"time"

	"blogmux/comment"
	"blogmux/feed"
	"blogmux/follow"
)

const maxHubViewers = 1024

type socialEntry struct {
	comments *comment.Service
	follows  *follow.Service
	lastUsed time.Time
}

// Hub holds the per-viewer client-side state this service keeps between
// requests: feed partitions, comment trees and suggestion pages. Everything
// is keyed by the viewer cookie id, and like the feed manager the social
// state is capped with least-recently-used eviction.
type Hub struct {
	feeds *feed.Manager

	mu     sync.Mutex
	social map[string]*socialEntry
}

// NewHub creates a hub persisting feed preferences into prefs.
func NewHub(prefs feed.PrefsStore) *Hub {
	return &Hub{
		feeds:  feed.NewManager(prefs),
		social: map[string]*socialEntry{},
	}
}

// Feeds returns the viewer's feed store and query layer.
func (h *Hub) Feeds(ctx context.Context, viewer string) *feed.Feeds {
	return h.feeds.For(ctx, viewer)
}

// Comments returns the viewer's comment service.
func (h *Hub) Comments(viewer string) *comment.Service {
	return h.socialFor(viewer).comments
}

// Follows returns the viewer's follower-suggestion service.
func (h *Hub) Follows(viewer string) *follow.Service {
	return h.socialFor(viewer).follows
}

func (h *Hub) socialFor(viewer string) *socialEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry, ok := h.social[viewer]; ok {
		entry.lastUsed = time.Now()
		return entry
	}

	if len(h.social) >= maxHubViewers {
		h.evictOldestLocked()
	}

	entry := &socialEntry{
		comments: comment.NewService(),
		follows:  follow.NewService(),
		lastUsed: time.Now(),
	}
	h.social[viewer] = entry
	return entry
}

func (h *Hub) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range h.social {
		if oldestKey == "" || entry.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = entry.lastUsed
		}
	}
	if oldestKey != "" {
		delete(h.social, oldestKey)
	}
}
