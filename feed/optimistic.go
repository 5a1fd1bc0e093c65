package feed

import (
	"blogmux/model"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Optimistic is a pending local patch over one or more feed partitions. The
// caller applies its changes through the store as usual, then either Commit
// (drop the snapshots) when the backend accepted the mutation, or Rollback
// (restore the snapshots byte for byte) when it rejected. One helper instead
// of per-mutation revert logic.
type Optimistic struct {
	store *Store
	saved map[model.FeedCategory]*model.BlogConnection
	done  bool
}

// BeginOptimistic deep-copies the listed partitions' data before an
// optimistic mutation. Partitions that have never been populated snapshot as
// nil and restore as nil.
func (s *Store) BeginOptimistic(tabs ...model.FeedCategory) (*Optimistic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saved := map[model.FeedCategory]*model.BlogConnection{}
	for _, tab := range tabs {
		data := s.part(tab).data
		if data == nil {
			saved[tab] = nil
			continue
		}
		var snapshot model.BlogConnection
		if err := copier.CopyWithOption(&snapshot, data, copier.Option{DeepCopy: true}); err != nil {
			return nil, errors.Wrapf(err, "snapshot partition %q", tab)
		}
		saved[tab] = &snapshot
	}
	return &Optimistic{store: s, saved: saved}, nil
}

// Commit accepts the optimistic patch and drops the snapshots.
func (o *Optimistic) Commit() {
	o.done = true
	o.saved = nil
}

// Rollback restores every snapshotted partition to its pre-patch state.
// Calling it after Commit (or twice) is a no-op.
func (o *Optimistic) Rollback() {
	if o.done {
		return
	}
	o.done = true

	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	for tab, snapshot := range o.saved {
		o.store.part(tab).data = snapshot
	}
	o.saved = nil
}
