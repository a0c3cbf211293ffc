package store

import (
	"fmt"
	"time"
)

// ContentKind tags the three kinds of postable content. Favorites and views
// share one code path parameterized by kind.
type ContentKind int

const (
	KindThread ContentKind = iota
	KindReply
	KindReplyingReply
)

var contentKinds = []ContentKind{KindThread, KindReply, KindReplyingReply}

func (k ContentKind) String() string {
	switch k {
	case KindThread:
		return "thread"
	case KindReply:
		return "reply"
	case KindReplyingReply:
		return "replyingReply"
	default:
		return fmt.Sprintf("ContentKind(%d)", int(k))
	}
}

func (k ContentKind) Valid() bool {
	return k >= KindThread && k <= KindReplyingReply
}

// ParseContentKind accepts the text form produced by String.
func ParseContentKind(s string) (ContentKind, error) {
	for _, k := range contentKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, ErrInvalidInput
}

func (k ContentKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid content kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *ContentKind) UnmarshalText(b []byte) error {
	parsed, err := ParseContentKind(string(b))
	if err != nil {
		return fmt.Errorf("unknown content kind %q", string(b))
	}
	*k = parsed
	return nil
}

// ActivityKind distinguishes reply activity entries.
type ActivityKind int

const (
	ActivityReply ActivityKind = iota
	ActivityReplyingReply
)

func (k ActivityKind) String() string {
	if k == ActivityReplyingReply {
		return "replyingReply"
	}
	return "reply"
}

func (k ActivityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ActivityKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "reply":
		*k = ActivityReply
	case "replyingReply":
		*k = ActivityReplyingReply
	default:
		return fmt.Errorf("unknown activity kind %q", string(b))
	}
	return nil
}

// Timestamps are unix milliseconds.
type Timestamps struct {
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

func stampAt(t time.Time) Timestamps {
	ms := t.UnixMilli()
	return Timestamps{CreatedAt: ms, UpdatedAt: ms}
}

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	ImageID   int    `json:"imageId"`
}

// NewUser is the seed input for AddUser.
type NewUser struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
	ImageID   int
}

type Thread struct {
	ID       int        `json:"id"`
	UserID   int        `json:"userId"`
	Text     string     `json:"text"`
	ImageIDs []int      `json:"imageIds"`
	ReplyIDs []int      `json:"replyIds"`
	DateTime Timestamps `json:"dateTime"`
}

type ThreadReply struct {
	ID       int        `json:"id"`
	ThreadID int        `json:"mainThreadId"`
	UserID   int        `json:"userId"`
	Text     string     `json:"text"`
	ImageIDs []int      `json:"imageIds"`
	ReplyIDs []int      `json:"replyingReplyIds"`
	DateTime Timestamps `json:"dateTime"`
}

type ReplyingReply struct {
	ID       int        `json:"id"`
	ReplyID  int        `json:"threadReplyId"`
	UserID   int        `json:"userId"`
	Text     string     `json:"text"`
	ImageIDs []int      `json:"imageIds"`
	DateTime Timestamps `json:"dateTime"`
}

type ActivityEntry struct {
	Kind    ActivityKind `json:"type"`
	ReplyID int          `json:"replyId"`
}

// ReplyActivity is a user's reply feed: what the user did (ThisUser) and what
// others did to the user's content (OtherUsers).
type ReplyActivity struct {
	ThisUser   []ActivityEntry `json:"thisUser"`
	OtherUsers []ActivityEntry `json:"otherUsers"`
}

// UserProfile is the public projection of a User.
type UserProfile struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	AvatarURL      string `json:"avatarURL"`
	FollowerCount  int    `json:"followers"`
	FollowingCount int    `json:"following"`
}

type FavoriteStatus struct {
	Count      int  `json:"favoriteCount"`
	IsFavorite bool `json:"isFavorite"`
}

// Content is the kind-independent body of a thread, reply or replying reply.
// ParentID is zero for threads.
type Content struct {
	ID       int    `json:"id"`
	UserID   int    `json:"userId"`
	ParentID int    `json:"parentId,omitempty"`
	Text     string `json:"text"`
}

// ContentView is the assembled read model returned to callers. ReplyCount is
// nil for replying replies, which cannot be replied to.
type ContentView struct {
	Kind       ContentKind    `json:"kind"`
	Content    Content        `json:"content"`
	User       UserProfile    `json:"user"`
	Favorite   FavoriteStatus `json:"favorite"`
	ReplyCount *int           `json:"replyCount,omitempty"`
	ImageURLs  []string       `json:"imageURLs"`
	DateTime   Timestamps     `json:"dateTime"`
}

// UserReplies groups a user's replies under the main thread they answer.
// MainThread is nil once that thread has been deleted.
type UserReplies struct {
	MainThread    *ContentView  `json:"mainThread"`
	ThreadReplies []ContentView `json:"threadReplies"`
}

// LoginResult carries either the profile or a human readable failure message.
type LoginResult struct {
	User    *UserProfile `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// FollowActivity is one entry of a user's follow feed: who followed and when.
type FollowActivity struct {
	User     UserProfile `json:"user"`
	DateTime Timestamps  `json:"dateTime"`
}
