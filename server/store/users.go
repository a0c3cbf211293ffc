package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

// AddUser registers a seeded user. Usernames are unique.
func (s *Store) AddUser(ctx context.Context, in NewUser) (UserProfile, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return UserProfile{}, ErrInvalidInput
	}
	stored, err := s.scheme.Hash(in.Password)
	if err != nil {
		return UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.doc.Usernames[username]; taken {
		return UserProfile{}, ErrUsernameTaken
	}

	id := s.doc.nextID(tableUsers)
	s.doc.Users[id] = &User{
		ID:        id,
		Username:  username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  stored,
		ImageID:   in.ImageID,
	}
	s.doc.Usernames[username] = id

	if err := s.commit(ctx, "add user"); err != nil {
		return UserProfile{}, err
	}
	logger.Debug("user added", zap.Int("user_id", id), zap.String("username", username))
	return s.profileLocked(id), nil
}

// GetUser returns the public profile of userID.
func (s *Store) GetUser(userID int) (UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Users[userID]; !ok {
		return UserProfile{}, false
	}
	return s.profileLocked(userID), true
}

// UserIDByUsername resolves a username.
func (s *Store) UserIDByUsername(username string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.doc.Usernames[username]
	return id, ok
}

// profileLocked resolves a profile. An unknown user yields a profile carrying
// only the id, so views of content by a missing author still name its owner.
func (s *Store) profileLocked(userID int) UserProfile {
	user, ok := s.doc.Users[userID]
	if !ok {
		return UserProfile{ID: userID}
	}
	profile := UserProfile{
		ID:             user.ID,
		Username:       user.Username,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		FollowerCount:  len(s.doc.Follows.Followers[userID]),
		FollowingCount: len(s.doc.Follows.Followings[userID]),
	}
	if user.ImageID != 0 {
		profile.AvatarURL = s.doc.Resources.Images[user.ImageID]
	}
	return profile
}
