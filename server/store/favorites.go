package store

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

func (s *Store) contentExistsLocked(kind ContentKind, id int) bool {
	switch kind {
	case KindThread:
		_, ok := s.doc.Threads.Threads[id]
		return ok
	case KindReply:
		_, ok := s.doc.Threads.Replies[id]
		return ok
	case KindReplyingReply:
		_, ok := s.doc.Threads.ReplyingReplies[id]
		return ok
	}
	return false
}

// SetFavorite marks or unmarks contentID as a favorite of userID. Both
// directions of the relation change together. Unknown content or user is
// ErrNotFound.
func (s *Store) SetFavorite(ctx context.Context, kind ContentKind, contentID, userID int, isFavorite bool) error {
	if !kind.Valid() {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.contentExistsLocked(kind, contentID) {
		return ErrNotFound
	}
	if _, ok := s.doc.Users[userID]; !ok {
		return ErrNotFound
	}

	idx := s.doc.Favorites[kind]
	byContent := idx.ByContent[contentID]
	if byContent == nil {
		byContent = map[int]bool{}
		idx.ByContent[contentID] = byContent
	}
	byUser := idx.ByUser[userID]
	if byUser == nil {
		byUser = map[int]bool{}
		idx.ByUser[userID] = byUser
	}

	if isFavorite {
		byContent[userID] = true
		byUser[contentID] = true
	} else {
		delete(byContent, userID)
		delete(byUser, contentID)
	}

	if err := s.commit(ctx, "set favorite"); err != nil {
		return err
	}
	logger.Debug("favorite set",
		zap.Stringer("kind", kind), zap.Int("content_id", contentID),
		zap.Int("user_id", userID), zap.Bool("favorite", isFavorite))
	return nil
}

// FavoriteStatus reports how many users favorited the content and whether
// userID is one of them.
func (s *Store) FavoriteStatus(kind ContentKind, contentID, userID int) FavoriteStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoriteStatusLocked(kind, contentID, userID)
}

func (s *Store) favoriteStatusLocked(kind ContentKind, contentID, userID int) FavoriteStatus {
	idx := s.doc.Favorites[kind]
	if idx == nil {
		return FavoriteStatus{}
	}
	users := idx.ByContent[contentID]
	return FavoriteStatus{Count: len(users), IsFavorite: users[userID]}
}

// FavoritesOfUser lists the ids of kind content userID favorited, ascending.
func (s *Store) FavoritesOfUser(kind ContentKind, userID int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int{}
	idx := s.doc.Favorites[kind]
	if idx == nil {
		return ids
	}
	for id, on := range idx.ByUser[userID] {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
