package store

// Document is the whole persisted state: entity tables plus the reverse
// indexes kept in step with them. Integer keys serialize as strings.
type Document struct {
	Users      map[int]*User                  `json:"users"`
	Usernames  map[string]int                 `json:"usernames"`
	Threads    ThreadTables                   `json:"threads"`
	Favorites  map[ContentKind]*FavoriteIndex `json:"favorites"`
	Watched    WatchedTables                  `json:"watchedThreads"`
	Resources  ResourceTables                 `json:"resources"`
	Activities ActivityTables                 `json:"activities"`
	Follows    FollowTables                   `json:"follows"`
	Sequences  map[string]int                 `json:"sequences"`
}

type ThreadTables struct {
	Threads map[int]*Thread `json:"threads"`
	// author -> thread -> timestamps
	Users   map[int]map[int]Timestamps `json:"users"`
	Replies map[int]*ThreadReply       `json:"threadReplies"`
	// author -> main thread -> reply -> timestamps
	ReplyUsers      map[int]map[int]map[int]Timestamps `json:"threadReplyUsers"`
	ReplyingReplies map[int]*ReplyingReply             `json:"threadReplyingReplies"`
	// author -> thread reply -> replying reply -> timestamps
	ReplyingReplyUsers map[int]map[int]map[int]Timestamps `json:"threadReplyingReplyUsers"`
}

// FavoriteIndex stores one favorite relation twice. ByContent[c][u] holds
// exactly when ByUser[u][c] holds.
type FavoriteIndex struct {
	ByContent map[int]map[int]bool `json:"byContent"`
	ByUser    map[int]map[int]bool `json:"byUser"`
}

type WatchedTables struct {
	Users map[int]map[int]bool `json:"users"`
}

type ResourceTables struct {
	Images map[int]string `json:"images"`
}

type ActivityTables struct {
	Replies map[int]*ReplyActivity `json:"replies"`
	// followee -> follower -> timestamps
	Follows map[int]map[int]Timestamps `json:"follows"`
}

// FollowTables is the follow relation in both directions:
// Followings[a][b] iff Followers[b][a].
type FollowTables struct {
	Followings map[int]map[int]Timestamps `json:"followings"`
	Followers  map[int]map[int]Timestamps `json:"followers"`
}

// Sequenced tables.
const (
	tableUsers           = "users"
	tableThreads         = "threads"
	tableReplies         = "threadReplies"
	tableReplyingReplies = "threadReplyingReplies"
	tableImages          = "images"
)

// NewDocument returns an empty document with every table allocated.
func NewDocument() *Document {
	d := &Document{}
	d.normalize()
	return d
}

// normalize allocates any table a loaded document left out, so that absence
// of a key is the only way "no data" is represented.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = map[int]*User{}
	}
	if d.Usernames == nil {
		d.Usernames = map[string]int{}
	}
	if d.Threads.Threads == nil {
		d.Threads.Threads = map[int]*Thread{}
	}
	if d.Threads.Users == nil {
		d.Threads.Users = map[int]map[int]Timestamps{}
	}
	if d.Threads.Replies == nil {
		d.Threads.Replies = map[int]*ThreadReply{}
	}
	if d.Threads.ReplyUsers == nil {
		d.Threads.ReplyUsers = map[int]map[int]map[int]Timestamps{}
	}
	if d.Threads.ReplyingReplies == nil {
		d.Threads.ReplyingReplies = map[int]*ReplyingReply{}
	}
	if d.Threads.ReplyingReplyUsers == nil {
		d.Threads.ReplyingReplyUsers = map[int]map[int]map[int]Timestamps{}
	}
	if d.Favorites == nil {
		d.Favorites = map[ContentKind]*FavoriteIndex{}
	}
	for _, kind := range contentKinds {
		idx := d.Favorites[kind]
		if idx == nil {
			idx = &FavoriteIndex{}
			d.Favorites[kind] = idx
		}
		if idx.ByContent == nil {
			idx.ByContent = map[int]map[int]bool{}
		}
		if idx.ByUser == nil {
			idx.ByUser = map[int]map[int]bool{}
		}
	}
	if d.Watched.Users == nil {
		d.Watched.Users = map[int]map[int]bool{}
	}
	if d.Resources.Images == nil {
		d.Resources.Images = map[int]string{}
	}
	if d.Activities.Replies == nil {
		d.Activities.Replies = map[int]*ReplyActivity{}
	}
	if d.Activities.Follows == nil {
		d.Activities.Follows = map[int]map[int]Timestamps{}
	}
	if d.Follows.Followings == nil {
		d.Follows.Followings = map[int]map[int]Timestamps{}
	}
	if d.Follows.Followers == nil {
		d.Follows.Followers = map[int]map[int]Timestamps{}
	}
	if d.Sequences == nil {
		d.Sequences = map[string]int{}
	}
}
