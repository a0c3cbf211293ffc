package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	s, p := newTestStore(t, WithNotifier(notifier))
	alice := addTestUser(t, s, "alice")
	bob := addTestUser(t, s, "bob")
	carol := addTestUser(t, s, "carol")

	require.NoError(t, s.Follow(ctx, bob, alice))
	require.NoError(t, s.Follow(ctx, carol, alice))
	require.NoError(t, s.Follow(ctx, alice, carol))

	assert.True(t, s.IsFollowing(bob, alice))
	assert.False(t, s.IsFollowing(alice, bob))

	followers, following := s.FollowCounts(alice)
	assert.Equal(t, 2, followers)
	assert.Equal(t, 1, following)

	profile, ok := s.GetUser(alice)
	require.True(t, ok)
	assert.Equal(t, 2, profile.FollowerCount)
	assert.Equal(t, 1, profile.FollowingCount)

	feed := s.FollowActivities(alice)
	require.Len(t, feed, 2)
	assert.Equal(t, carol, feed[0].User.ID)
	assert.Equal(t, bob, feed[1].User.ID)

	events := notifier.Events()
	require.Len(t, events, 3)
	assert.Equal(t, ActivityEvent{UserID: alice, Feed: FeedFollows, Follower: bob, At: events[0].At}, events[0])

	t.Run("following twice is a no-op", func(t *testing.T) {
		saves := p.Saves
		require.NoError(t, s.Follow(ctx, bob, alice))
		assert.Equal(t, saves, p.Saves)
		assert.Len(t, notifier.Events(), 3)
	})

	t.Run("invalid follows", func(t *testing.T) {
		assert.ErrorIs(t, s.Follow(ctx, alice, alice), ErrInvalidInput)
		assert.ErrorIs(t, s.Follow(ctx, alice, 404), ErrNotFound)
		assert.ErrorIs(t, s.Follow(ctx, 404, alice), ErrNotFound)
	})

	t.Run("unfollow drops both directions", func(t *testing.T) {
		require.NoError(t, s.Unfollow(ctx, bob, alice))
		assert.False(t, s.IsFollowing(bob, alice))
		followers, _ := s.FollowCounts(alice)
		assert.Equal(t, 1, followers)
		assert.Len(t, s.FollowActivities(alice), 2)

		assert.ErrorIs(t, s.Unfollow(ctx, bob, alice), ErrNotFound)
	})

	assert.Empty(t, s.CheckIndexes())
}
