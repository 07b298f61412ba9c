package sched

import "github.com/emirpasic/gods/trees/redblacktree"

// sleepKey orders sleeping tasks by wake time, then id.
type sleepKey struct {
	wakeAt int64
	id     TaskID
}

func cmpSleepKey(a, b any) int {
	ka, kb := a.(sleepKey), b.(sleepKey)
	switch {
	case ka.wakeAt < kb.wakeAt:
		return -1
	case ka.wakeAt > kb.wakeAt:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

// sleeperIndex tracks pending wake times. It bounds how long an idle
// scheduler may park; it never decides which task runs next.
type sleeperIndex struct {
	tree *redblacktree.Tree
}

func newSleeperIndex() *sleeperIndex {
	return &sleeperIndex{tree: redblacktree.NewWith(cmpSleepKey)}
}

func (x *sleeperIndex) add(id TaskID, wakeAt int64) {
	x.tree.Put(sleepKey{wakeAt: wakeAt, id: id}, id)
}

func (x *sleeperIndex) remove(id TaskID, wakeAt int64) {
	x.tree.Remove(sleepKey{wakeAt: wakeAt, id: id})
}

// earliest returns the smallest pending wake time.
func (x *sleeperIndex) earliest() (int64, bool) {
	node := x.tree.Left()
	if node == nil {
		return 0, false
	}
	return node.Key.(sleepKey).wakeAt, true
}

func (x *sleeperIndex) len() int { return x.tree.Size() }

func (x *sleeperIndex) clear() { x.tree.Clear() }
