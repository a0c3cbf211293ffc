package store

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

// PickRandomUnwatched draws up to count threads userID has not been shown.
// It never returns more items than there are unwatched threads. Under
// WatchNever the same thread may come back more than once; under WatchOnPick
// every returned thread is recorded as watched and drawn at most once.
func (s *Store) PickRandomUnwatched(ctx context.Context, userID, count int) ([]ContentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := false
	watched, ok := s.doc.Watched.Users[userID]
	if !ok {
		watched = map[int]bool{}
		s.doc.Watched.Users[userID] = watched
		dirty = true
	}

	candidates := make([]int, 0, len(s.doc.Threads.Threads))
	for id := range s.doc.Threads.Threads {
		if !watched[id] {
			candidates = append(candidates, id)
		}
	}
	sort.Ints(candidates)

	n := min(count, len(candidates))
	views := make([]ContentView, 0, max(n, 0))
	for i := 0; i < n; i++ {
		at := s.rng.IntN(len(candidates))
		id := candidates[at]
		if watched[id] {
			continue
		}
		view, ok := s.viewLocked(KindThread, id, userID)
		if !ok {
			continue
		}
		views = append(views, view)

		if s.watchPolicy == WatchOnPick {
			watched[id] = true
			candidates = append(candidates[:at], candidates[at+1:]...)
			dirty = true
		}
	}

	if dirty {
		if err := s.commit(ctx, "pick random unwatched"); err != nil {
			return nil, err
		}
	}
	logger.Debug("random threads picked",
		zap.Int("user_id", userID), zap.Int("requested", count), zap.Int("returned", len(views)))
	return views, nil
}

// Watched lists the thread ids already recorded as shown to userID.
func (s *Store) Watched(userID int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int{}
	for id, on := range s.doc.Watched.Users[userID] {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
