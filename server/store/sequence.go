package store

// seedSequences raises every table counter to at least the largest key the
// table holds. Counters only ever grow, so a deleted id is never handed out
// again, including after a reload.
func (d *Document) seedSequences() {
	raise := func(table string, key int) {
		if key > d.Sequences[table] {
			d.Sequences[table] = key
		}
	}
	for id := range d.Users {
		raise(tableUsers, id)
	}
	for id := range d.Threads.Threads {
		raise(tableThreads, id)
	}
	for id := range d.Threads.Replies {
		raise(tableReplies, id)
	}
	for id := range d.Threads.ReplyingReplies {
		raise(tableReplyingReplies, id)
	}
	for id := range d.Resources.Images {
		raise(tableImages, id)
	}
}

// nextID returns 1 for a table that never held a row, otherwise one past the
// highest id ever issued for it. Callers hold the store lock.
func (d *Document) nextID(table string) int {
	d.Sequences[table]++
	return d.Sequences[table]
}
