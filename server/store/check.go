package store

import (
	"fmt"
	"sort"
)

// IndexProblem is one disagreement between a reverse index and the entity
// table it is derived from.
type IndexProblem struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	ProblemUsername   = "username"
	ProblemAuthorship = "authorship"
	ProblemParent     = "parent"
	ProblemFavorite   = "favorite"
	ProblemFollow     = "follow"
	ProblemSequence   = "sequence"
	ProblemImage      = "image"
	// ProblemOrphan marks replies whose parent was deleted. DeleteThread
	// leaves these behind on purpose.
	ProblemOrphan = "orphan"
)

type problems []IndexProblem

func (p *problems) add(kind, format string, args ...any) {
	*p = append(*p, IndexProblem{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// CheckIndexes rescans every entity table and reports each reverse index
// entry that could not have been derived from it. An empty result means the
// document is consistent.
func (s *Store) CheckIndexes() []IndexProblem {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.doc
	var out problems
	checkUsers(d, &out)
	checkThreads(d, &out)
	checkReplies(d, &out)
	checkReplyingReplies(d, &out)
	checkFavorites(d, &out)
	checkFollows(d, &out)
	checkSequences(d, &out)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Detail < out[j].Detail
	})
	if out == nil {
		return []IndexProblem{}
	}
	return out
}

func checkUsers(d *Document, out *problems) {
	for id, u := range d.Users {
		if got, ok := d.Usernames[u.Username]; !ok || got != id {
			out.add(ProblemUsername, "user %d: username %q not indexed", id, u.Username)
		}
		if u.ImageID != 0 {
			if _, ok := d.Resources.Images[u.ImageID]; !ok {
				out.add(ProblemImage, "user %d: avatar image %d missing", id, u.ImageID)
			}
		}
	}
	for name, id := range d.Usernames {
		if u, ok := d.Users[id]; !ok || u.Username != name {
			out.add(ProblemUsername, "username %q: points at user %d", name, id)
		}
	}
}

func checkImages(d *Document, out *problems, owner string, ids []int) {
	for _, imageID := range ids {
		if _, ok := d.Resources.Images[imageID]; !ok {
			out.add(ProblemImage, "%s: image %d missing", owner, imageID)
		}
	}
}

func checkThreads(d *Document, out *problems) {
	for id, t := range d.Threads.Threads {
		if _, ok := d.Threads.Users[t.UserID][id]; !ok {
			out.add(ProblemAuthorship, "thread %d: not indexed under user %d", id, t.UserID)
		}
		for _, replyID := range t.ReplyIDs {
			if r, ok := d.Threads.Replies[replyID]; !ok || r.ThreadID != id {
				out.add(ProblemParent, "thread %d: lists reply %d it does not own", id, replyID)
			}
		}
		checkImages(d, out, fmt.Sprintf("thread %d", id), t.ImageIDs)
	}
	for userID, owned := range d.Threads.Users {
		for id := range owned {
			if t, ok := d.Threads.Threads[id]; !ok || t.UserID != userID {
				out.add(ProblemAuthorship, "user %d: indexes thread %d", userID, id)
			}
		}
	}
}

func checkReplies(d *Document, out *problems) {
	for id, r := range d.Threads.Replies {
		parent, ok := d.Threads.Threads[r.ThreadID]
		switch {
		case !ok:
			out.add(ProblemOrphan, "reply %d: thread %d deleted", id, r.ThreadID)
		case !containsID(parent.ReplyIDs, id):
			out.add(ProblemParent, "reply %d: missing from thread %d", id, r.ThreadID)
		}
		if _, ok := d.Threads.ReplyUsers[r.UserID][r.ThreadID][id]; !ok {
			out.add(ProblemAuthorship, "reply %d: not indexed under user %d", id, r.UserID)
		}
		for _, childID := range r.ReplyIDs {
			if rr, ok := d.Threads.ReplyingReplies[childID]; !ok || rr.ReplyID != id {
				out.add(ProblemParent, "reply %d: lists replying reply %d it does not own", id, childID)
			}
		}
		checkImages(d, out, fmt.Sprintf("reply %d", id), r.ImageIDs)
	}
	for userID, byThread := range d.Threads.ReplyUsers {
		for threadID, ids := range byThread {
			for id := range ids {
				if r, ok := d.Threads.Replies[id]; !ok || r.UserID != userID || r.ThreadID != threadID {
					out.add(ProblemAuthorship, "user %d: indexes reply %d under thread %d", userID, id, threadID)
				}
			}
		}
	}
}

func checkReplyingReplies(d *Document, out *problems) {
	for id, rr := range d.Threads.ReplyingReplies {
		parent, ok := d.Threads.Replies[rr.ReplyID]
		switch {
		case !ok:
			out.add(ProblemOrphan, "replying reply %d: reply %d deleted", id, rr.ReplyID)
		case !containsID(parent.ReplyIDs, id):
			out.add(ProblemParent, "replying reply %d: missing from reply %d", id, rr.ReplyID)
		}
		if _, ok := d.Threads.ReplyingReplyUsers[rr.UserID][rr.ReplyID][id]; !ok {
			out.add(ProblemAuthorship, "replying reply %d: not indexed under user %d", id, rr.UserID)
		}
		checkImages(d, out, fmt.Sprintf("replying reply %d", id), rr.ImageIDs)
	}
	for userID, byReply := range d.Threads.ReplyingReplyUsers {
		for replyID, ids := range byReply {
			for id := range ids {
				if rr, ok := d.Threads.ReplyingReplies[id]; !ok || rr.UserID != userID || rr.ReplyID != replyID {
					out.add(ProblemAuthorship, "user %d: indexes replying reply %d under reply %d", userID, id, replyID)
				}
			}
		}
	}
}

func checkFavorites(d *Document, out *problems) {
	for _, kind := range contentKinds {
		idx := d.Favorites[kind]
		for contentID, users := range idx.ByContent {
			for userID, on := range users {
				if on && !idx.ByUser[userID][contentID] {
					out.add(ProblemFavorite, "%s %d: favorite of user %d missing from by-user index", kind, contentID, userID)
				}
			}
		}
		for userID, contents := range idx.ByUser {
			for contentID, on := range contents {
				if on && !idx.ByContent[contentID][userID] {
					out.add(ProblemFavorite, "user %d: favorite %s %d missing from by-content index", userID, kind, contentID)
				}
			}
		}
	}
}

func checkFollows(d *Document, out *problems) {
	for from, tos := range d.Follows.Followings {
		for to := range tos {
			if _, ok := d.Follows.Followers[to][from]; !ok {
				out.add(ProblemFollow, "user %d follows %d: missing follower entry", from, to)
			}
		}
	}
	for to, froms := range d.Follows.Followers {
		for from := range froms {
			if _, ok := d.Follows.Followings[from][to]; !ok {
				out.add(ProblemFollow, "user %d followed by %d: missing following entry", to, from)
			}
		}
	}
}

func checkSequences(d *Document, out *problems) {
	check := func(table string, keys []int) {
		if len(keys) == 0 {
			return
		}
		if top := keys[len(keys)-1]; d.Sequences[table] < top {
			out.add(ProblemSequence, "%s: counter %d below id %d", table, d.Sequences[table], top)
		}
	}
	check(tableUsers, sortedKeys(d.Users))
	check(tableThreads, sortedKeys(d.Threads.Threads))
	check(tableReplies, sortedKeys(d.Threads.Replies))
	check(tableReplyingReplies, sortedKeys(d.Threads.ReplyingReplies))
	check(tableImages, sortedKeys(d.Resources.Images))
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
