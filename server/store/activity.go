package store

func (s *Store) activityLocked(userID int) *ReplyActivity {
	feed := s.doc.Activities.Replies[userID]
	if feed == nil {
		feed = &ReplyActivity{ThisUser: []ActivityEntry{}, OtherUsers: []ActivityEntry{}}
		s.doc.Activities.Replies[userID] = feed
	}
	return feed
}

// recordReplyActivityLocked appends the entry to the actor's own feed and,
// when someone else owns the parent, to that user's feed.
func (s *Store) recordReplyActivityLocked(actorID, recipientID int, kind ActivityKind, replyID int, stamp Timestamps) []ActivityEvent {
	actorFeed := s.activityLocked(actorID)
	recipientFeed := s.activityLocked(recipientID)

	entry := ActivityEntry{Kind: kind, ReplyID: replyID}
	actorFeed.ThisUser = append(actorFeed.ThisUser, entry)
	events := []ActivityEvent{{UserID: actorID, Feed: FeedThisUser, Entry: &entry, At: stamp.CreatedAt}}

	if actorID != recipientID {
		recipientFeed.OtherUsers = append(recipientFeed.OtherUsers, entry)
		other := entry
		events = append(events, ActivityEvent{UserID: recipientID, Feed: FeedOtherUsers, Entry: &other, At: stamp.CreatedAt})
	}
	return events
}

// Activity returns a copy of userID's reply feed.
func (s *Store) Activity(userID int) ReplyActivity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := ReplyActivity{ThisUser: []ActivityEntry{}, OtherUsers: []ActivityEntry{}}
	feed := s.doc.Activities.Replies[userID]
	if feed == nil {
		return out
	}
	out.ThisUser = append(out.ThisUser, feed.ThisUser...)
	out.OtherUsers = append(out.OtherUsers, feed.OtherUsers...)
	return out
}
