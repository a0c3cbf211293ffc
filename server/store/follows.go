package store

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

func addEdge(index map[int]map[int]Timestamps, from, to int, stamp Timestamps) {
	edges := index[from]
	if edges == nil {
		edges = map[int]Timestamps{}
		index[from] = edges
	}
	edges[to] = stamp
}

// Follow makes followerID follow followeeID and records a follow activity
// under the followee. Following twice is a no-op.
func (s *Store) Follow(ctx context.Context, followerID, followeeID int) error {
	if followerID == followeeID {
		return ErrInvalidInput
	}

	s.mu.Lock()
	if err := s.usersExistLocked(followerID, followeeID); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.doc.Follows.Followings[followerID][followeeID]; ok {
		s.mu.Unlock()
		return nil
	}

	stamp := s.stamp()
	addEdge(s.doc.Follows.Followings, followerID, followeeID, stamp)
	addEdge(s.doc.Follows.Followers, followeeID, followerID, stamp)
	addEdge(s.doc.Activities.Follows, followeeID, followerID, stamp)

	err := s.commit(ctx, "follow")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish([]ActivityEvent{{UserID: followeeID, Feed: FeedFollows, Follower: followerID, At: stamp.CreatedAt}})
	logger.Debug("user followed", zap.Int("follower_id", followerID), zap.Int("followee_id", followeeID))
	return nil
}

// Unfollow drops the relation in both directions. The follow activity stays
// in the followee's feed.
func (s *Store) Unfollow(ctx context.Context, followerID, followeeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Follows.Followings[followerID][followeeID]; !ok {
		return ErrNotFound
	}
	delete(s.doc.Follows.Followings[followerID], followeeID)
	delete(s.doc.Follows.Followers[followeeID], followerID)

	if err := s.commit(ctx, "unfollow"); err != nil {
		return err
	}
	logger.Debug("user unfollowed", zap.Int("follower_id", followerID), zap.Int("followee_id", followeeID))
	return nil
}

func (s *Store) IsFollowing(followerID, followeeID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.doc.Follows.Followings[followerID][followeeID]
	return ok
}

// FollowCounts returns how many users follow userID and how many userID
// follows.
func (s *Store) FollowCounts(userID int) (followers, following int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Follows.Followers[userID]), len(s.doc.Follows.Followings[userID])
}

// FollowActivities lists who followed userID, most recent first.
func (s *Store) FollowActivities(userID int) []FollowActivity {
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := s.doc.Activities.Follows[userID]
	out := make([]FollowActivity, 0, len(feed))
	for _, followerID := range sortedKeys(feed) {
		out = append(out, FollowActivity{User: s.profileLocked(followerID), DateTime: feed[followerID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.CreatedAt > out[j].DateTime.CreatedAt
	})
	return out
}

func (s *Store) usersExistLocked(ids ...int) error {
	for _, id := range ids {
		if _, ok := s.doc.Users[id]; !ok {
			return ErrNotFound
		}
	}
	return nil
}
