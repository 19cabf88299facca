package history

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"go.klb.dev/clipkeep/internal/apperror"
)

// DefaultLimit is the unpinned history cap used when none is configured.
const DefaultLimit = 20

// Persistence is the storage adapter the store calls after every mutation.
type Persistence interface {
	LoadHistory(ctx context.Context) ([]Item, error)
	SaveHistory(ctx context.Context, items []Item) error
}

// ChangeFunc receives a copy of the ordered history after each mutation.
// It is called with the store lock held and must not call back into the store.
type ChangeFunc func(items []Item)

// Store is the single authority over the clipboard history.
//
// All methods are safe for concurrent use; a single mutex serialises every
// operation so each public method is one atomic unit.
type Store struct {
	mu        sync.Mutex
	items     []Item            // always pinned-first, CreatedAt descending
	digests   map[string]uint64 // image items only, keyed by ID
	limit     int
	persist   Persistence
	listeners []ChangeFunc
}

// NewStore returns an empty store. persist may be nil for an in-memory store;
// limit <= 0 selects DefaultLimit.
func NewStore(persist Persistence, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		digests: make(map[string]uint64),
		limit:   limit,
		persist: persist,
	}
}

// OnChange registers fn to be called after every mutation.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load replaces the in-memory history with the persisted one. Entries are
// re-sorted, equivalent duplicates collapse onto the first (pinned) copy and
// the cap is applied. A load failure leaves the store empty and is returned.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	loaded, err := s.persist.LoadHistory(ctx)
	if err != nil {
		return apperror.Persistence("load history", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	clear(s.digests)
	sortItems(loaded)
	seen := make(map[string]struct{}, len(loaded))
	for _, it := range loaded {
		if _, dup := seen[it.ID]; dup || !it.Kind.Valid() {
			continue
		}
		d := digest(it)
		if s.indexEquivalentLocked(it, d) >= 0 {
			continue
		}
		seen[it.ID] = struct{}{}
		s.items = append(s.items, it)
		if it.Kind == KindImage {
			s.digests[it.ID] = d
		}
	}
	s.evictLocked()
	slog.Info("history loaded", "items", len(s.items), "limit", s.limit)
	s.notifyLocked()
	return nil
}

// Insert merges a freshly classified item into the history. It returns false
// when an equivalent pinned entry exists, in which case nothing changes, or
// when the item is older than a full unpinned partition and is evicted at once.
func (s *Store) Insert(ctx context.Context, it Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := digest(it)
	for _, e := range s.items {
		if e.Pinned && s.equivalentLocked(e, it, d) {
			slog.Debug("insert rejected, pinned duplicate", "pinned_id", e.ID, "kind", it.Kind)
			return false
		}
	}

	// Bump to top: drop unpinned equivalents, then insert the new copy.
	kept := s.items[:0]
	for _, e := range s.items {
		if s.equivalentLocked(e, it, d) {
			delete(s.digests, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	s.items = append(kept, Item{})
	copy(s.items[1:], s.items[:len(s.items)-1])
	s.items[0] = it
	if it.Kind == KindImage {
		s.digests[it.ID] = d
	}

	sortItems(s.items)
	s.evictLocked()
	s.commitLocked(ctx)
	return s.indexLocked(it.ID) >= 0
}

// TogglePin flips the pin state of id. It returns false if id is absent.
func (s *Store) TogglePin(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.items[i].Pinned = !s.items[i].Pinned
	sortItems(s.items)
	s.commitLocked(ctx)
	return true
}

// Delete removes id, pinned or not. It returns false if id is absent.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	delete(s.digests, id)
	s.commitLocked(ctx)
	return true
}

// ClearAll removes every unpinned entry, or everything when keepPinned is
// false. It returns the number of entries removed.
func (s *Store) ClearAll(ctx context.Context, keepPinned bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	if keepPinned {
		s.items = slices.DeleteFunc(s.items, func(it Item) bool {
			if it.Pinned {
				return false
			}
			delete(s.digests, it.ID)
			return true
		})
	} else {
		s.items = s.items[:0]
		clear(s.digests)
	}
	s.commitLocked(ctx)
	return before - len(s.items)
}

// SetLimit changes the unpinned cap and trims history to it immediately.
func (s *Store) SetLimit(ctx context.Context, n int) error {
	if n <= 0 {
		return apperror.Validation("history limit must be a positive integer, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limit = n
	s.evictLocked()
	s.commitLocked(ctx)
	return nil
}

// Limit returns the current unpinned cap.
func (s *Store) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// Items returns a copy of the ordered history.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Counts returns the number of pinned and unpinned entries.
func (s *Store) Counts() (pinned, unpinned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Pinned {
			pinned++
		} else {
			unpinned++
		}
	}
	return pinned, unpinned
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}

func (s *Store) indexEquivalentLocked(it Item, d uint64) int {
	return slices.IndexFunc(s.items, func(e Item) bool { return s.equivalentLocked(e, it, d) })
}

// equivalentLocked is Equivalent with the image digest checked before the
// full byte comparison.
func (s *Store) equivalentLocked(e, it Item, d uint64) bool {
	if e.Kind != it.Kind {
		return false
	}
	if e.Kind == KindImage {
		if ed, ok := s.digests[e.ID]; ok && ed != d {
			return false
		}
		return bytes.Equal(e.Payload, it.Payload)
	}
	return Equivalent(e, it)
}

// evictLocked drops the oldest unpinned entries beyond the cap. Requires the
// ordering invariant to hold.
func (s *Store) evictLocked() {
	pinned := 0
	for pinned < len(s.items) && s.items[pinned].Pinned {
		pinned++
	}
	keep := pinned + s.limit
	if len(s.items) <= keep {
		return
	}
	for _, it := range s.items[keep:] {
		delete(s.digests, it.ID)
		slog.Debug("history entry evicted", "id", it.ID, "kind", it.Kind)
	}
	clear(s.items[keep:])
	s.items = s.items[:keep]
}

// commitLocked persists and notifies. A failed save is logged and the
// in-memory state stands.
func (s *Store) commitLocked(ctx context.Context) {
	if s.persist != nil {
		if err := s.persist.SaveHistory(ctx, slices.Clone(s.items)); err != nil {
			slog.Error("history save failed", "err", apperror.Persistence("save history", err))
		}
	}
	s.notifyLocked()
}

func (s *Store) notifyLocked() {
	for _, fn := range s.listeners {
		fn(slices.Clone(s.items))
	}
}

// sortItems applies the ordering invariant: pinned first, newest first within
// each partition. The sort is stable so equal timestamps keep insertion order.
func sortItems(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func digest(it Item) uint64 {
	if it.Kind != KindImage {
		return 0
	}
	return xxhash.Sum64(it.Payload)
}
