package store

import "sort"

// View assembles the read model of one piece of content as seen by viewerID.
func (s *Store) View(kind ContentKind, id, viewerID int) (ContentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(kind, id, viewerID)
}

func (s *Store) ThreadView(threadID, viewerID int) (ContentView, bool) {
	return s.View(KindThread, threadID, viewerID)
}

func (s *Store) ReplyView(replyID, viewerID int) (ContentView, bool) {
	return s.View(KindReply, replyID, viewerID)
}

func (s *Store) ReplyingReplyView(id, viewerID int) (ContentView, bool) {
	return s.View(KindReplyingReply, id, viewerID)
}

func (s *Store) viewLocked(kind ContentKind, id, viewerID int) (ContentView, bool) {
	var (
		content  Content
		imageIDs []int
		replies  []int
		nested   bool
		stamp    Timestamps
	)
	switch kind {
	case KindThread:
		t, ok := s.doc.Threads.Threads[id]
		if !ok {
			return ContentView{}, false
		}
		content = Content{ID: t.ID, UserID: t.UserID, Text: t.Text}
		imageIDs, replies, nested, stamp = t.ImageIDs, t.ReplyIDs, true, t.DateTime
	case KindReply:
		r, ok := s.doc.Threads.Replies[id]
		if !ok {
			return ContentView{}, false
		}
		content = Content{ID: r.ID, UserID: r.UserID, ParentID: r.ThreadID, Text: r.Text}
		imageIDs, replies, nested, stamp = r.ImageIDs, r.ReplyIDs, true, r.DateTime
	case KindReplyingReply:
		rr, ok := s.doc.Threads.ReplyingReplies[id]
		if !ok {
			return ContentView{}, false
		}
		content = Content{ID: rr.ID, UserID: rr.UserID, ParentID: rr.ReplyID, Text: rr.Text}
		imageIDs, stamp = rr.ImageIDs, rr.DateTime
	default:
		return ContentView{}, false
	}

	view := ContentView{
		Kind:      kind,
		Content:   content,
		User:      s.profileLocked(content.UserID),
		Favorite:  s.favoriteStatusLocked(kind, id, viewerID),
		ImageURLs: s.imageURLsLocked(imageIDs),
		DateTime:  stamp,
	}
	if nested {
		count := len(replies)
		view.ReplyCount = &count
	}
	return view, true
}

func (s *Store) viewsLocked(kind ContentKind, ids []int, viewerID int) []ContentView {
	views := make([]ContentView, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.viewLocked(kind, id, viewerID); ok {
			views = append(views, v)
		}
	}
	return views
}

// newestFirst orders views by creation time, latest first. Ties keep their
// input order.
func newestFirst(views []ContentView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DateTime.CreatedAt > views[j].DateTime.CreatedAt
	})
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ThreadReplies lists the replies of a main thread in reply order.
func (s *Store) ThreadReplies(threadID, viewerID int) ([]ContentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Threads.Threads[threadID]
	if !ok {
		return nil, false
	}
	return s.viewsLocked(KindReply, t.ReplyIDs, viewerID), true
}

// ReplyingReplies lists the replies to a thread reply in reply order.
func (s *Store) ReplyingReplies(replyID, viewerID int) ([]ContentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.doc.Threads.Replies[replyID]
	if !ok {
		return nil, false
	}
	return s.viewsLocked(KindReplyingReply, r.ReplyIDs, viewerID), true
}

// ThreadsByUser lists the threads profileID authored, newest first.
func (s *Store) ThreadsByUser(profileID, viewerID int) []ContentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := s.viewsLocked(KindThread, sortedKeys(s.doc.Threads.Users[profileID]), viewerID)
	newestFirst(views)
	return views
}

// RepliesByUserInThread returns a main thread with the replies profileID
// posted to it, newest first. It reports false when the user never replied
// to that thread.
func (s *Store) RepliesByUserInThread(profileID, viewerID, threadID int) (UserReplies, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repliesInThreadLocked(profileID, viewerID, threadID)
}

func (s *Store) repliesInThreadLocked(profileID, viewerID, threadID int) (UserReplies, bool) {
	replyIDs, ok := s.doc.Threads.ReplyUsers[profileID][threadID]
	if !ok {
		return UserReplies{}, false
	}

	group := UserReplies{ThreadReplies: s.viewsLocked(KindReply, sortedKeys(replyIDs), viewerID)}
	if main, ok := s.viewLocked(KindThread, threadID, viewerID); ok {
		group.MainThread = &main
	}
	newestFirst(group.ThreadReplies)
	return group, true
}

// AllRepliesByUser groups every reply profileID posted by main thread. Groups
// are ordered by their newest reply.
func (s *Store) AllRepliesByUser(profileID, viewerID int) []UserReplies {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := []UserReplies{}
	for _, threadID := range sortedKeys(s.doc.Threads.ReplyUsers[profileID]) {
		group, ok := s.repliesInThreadLocked(profileID, viewerID, threadID)
		if !ok || len(group.ThreadReplies) == 0 {
			continue
		}
		groups = append(groups, group)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].ThreadReplies[0].DateTime.CreatedAt > groups[j].ThreadReplies[0].DateTime.CreatedAt
	})
	return groups
}
