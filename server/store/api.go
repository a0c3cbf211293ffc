package store

import "context"

// API is the surface the HTTP handlers depend on.
type API interface {
	Authenticate(username, password string) LoginResult
	GetUser(userID int) (UserProfile, bool)
	Activity(userID int) ReplyActivity
	FollowActivities(userID int) []FollowActivity

	Follow(ctx context.Context, followerID, followeeID int) error
	Unfollow(ctx context.Context, followerID, followeeID int) error
	IsFollowing(followerID, followeeID int) bool

	CreateThread(ctx context.Context, authorID int, text string, imageIDs []int) (int, error)
	DeleteThread(ctx context.Context, threadID int) error
	CreateThreadReply(ctx context.Context, threadID, authorID int, text string, imageIDs []int) (int, error)
	CreateReplyingReply(ctx context.Context, replyID, authorID int, text string, imageIDs []int) (int, error)

	View(kind ContentKind, id, viewerID int) (ContentView, bool)
	ThreadReplies(threadID, viewerID int) ([]ContentView, bool)
	ReplyingReplies(replyID, viewerID int) ([]ContentView, bool)
	ThreadsByUser(profileID, viewerID int) []ContentView
	AllRepliesByUser(profileID, viewerID int) []UserReplies
	RepliesByUserInThread(profileID, viewerID, threadID int) (UserReplies, bool)
	PickRandomUnwatched(ctx context.Context, userID, count int) ([]ContentView, error)

	SetFavorite(ctx context.Context, kind ContentKind, contentID, userID int, isFavorite bool) error
	FavoritesOfUser(kind ContentKind, userID int) []int

	UploadImages(ctx context.Context, filenames []string) ([]int, error)
}

var _ API = (*Store)(nil)
