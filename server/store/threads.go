package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
)

func copyIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// CreateThread stores a main thread and registers it under its author.
func (s *Store) CreateThread(ctx context.Context, authorID int, text string, imageIDs []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.doc.nextID(tableThreads)
	stamp := s.stamp()
	s.doc.Threads.Threads[id] = &Thread{
		ID:       id,
		UserID:   authorID,
		Text:     text,
		ImageIDs: copyIDs(imageIDs),
		ReplyIDs: []int{},
		DateTime: stamp,
	}

	owned := s.doc.Threads.Users[authorID]
	if owned == nil {
		owned = map[int]Timestamps{}
		s.doc.Threads.Users[authorID] = owned
	}
	owned[id] = stamp

	if err := s.commit(ctx, "create thread"); err != nil {
		return 0, err
	}
	logger.Debug("thread created", zap.Int("thread_id", id), zap.Int("user_id", authorID))
	return id, nil
}

// DeleteThread removes a thread and its authorship entry. Its replies are
// left in place.
func (s *Store) DeleteThread(ctx context.Context, threadID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.doc.Threads.Threads[threadID]
	if !ok {
		return ErrNotFound
	}

	if owned := s.doc.Threads.Users[thread.UserID]; owned != nil {
		delete(owned, threadID)
	}
	delete(s.doc.Threads.Threads, threadID)

	if err := s.commit(ctx, "delete thread"); err != nil {
		return err
	}
	logger.Debug("thread deleted", zap.Int("thread_id", threadID), zap.Int("orphaned_replies", len(thread.ReplyIDs)))
	return nil
}

// CreateThreadReply answers a main thread.
func (s *Store) CreateThreadReply(ctx context.Context, threadID, authorID int, text string, imageIDs []int) (int, error) {
	s.mu.Lock()

	parent, ok := s.doc.Threads.Threads[threadID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}

	id := s.doc.nextID(tableReplies)
	stamp := s.stamp()
	s.doc.Threads.Replies[id] = &ThreadReply{
		ID:       id,
		ThreadID: threadID,
		UserID:   authorID,
		Text:     text,
		ImageIDs: copyIDs(imageIDs),
		ReplyIDs: []int{},
		DateTime: stamp,
	}
	parent.ReplyIDs = append(parent.ReplyIDs, id)
	addNested(s.doc.Threads.ReplyUsers, authorID, threadID, id, stamp)
	events := s.recordReplyActivityLocked(authorID, parent.UserID, ActivityReply, id, stamp)

	err := s.commit(ctx, "create thread reply")
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.publish(events)
	logger.Debug("thread reply created",
		zap.Int("reply_id", id), zap.Int("thread_id", threadID), zap.Int("user_id", authorID))
	return id, nil
}

// CreateReplyingReply answers a thread reply.
func (s *Store) CreateReplyingReply(ctx context.Context, replyID, authorID int, text string, imageIDs []int) (int, error) {
	s.mu.Lock()

	parent, ok := s.doc.Threads.Replies[replyID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}

	id := s.doc.nextID(tableReplyingReplies)
	stamp := s.stamp()
	s.doc.Threads.ReplyingReplies[id] = &ReplyingReply{
		ID:       id,
		ReplyID:  replyID,
		UserID:   authorID,
		Text:     text,
		ImageIDs: copyIDs(imageIDs),
		DateTime: stamp,
	}
	parent.ReplyIDs = append(parent.ReplyIDs, id)
	addNested(s.doc.Threads.ReplyingReplyUsers, authorID, replyID, id, stamp)
	events := s.recordReplyActivityLocked(authorID, parent.UserID, ActivityReplyingReply, id, stamp)

	err := s.commit(ctx, "create replying reply")
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.publish(events)
	logger.Debug("replying reply created",
		zap.Int("replying_reply_id", id), zap.Int("reply_id", replyID), zap.Int("user_id", authorID))
	return id, nil
}

func addNested(index map[int]map[int]map[int]Timestamps, userID, parentID, id int, stamp Timestamps) {
	byParent := index[userID]
	if byParent == nil {
		byParent = map[int]map[int]Timestamps{}
		index[userID] = byParent
	}
	ids := byParent[parentID]
	if ids == nil {
		ids = map[int]Timestamps{}
		byParent[parentID] = ids
	}
	ids[id] = stamp
}
