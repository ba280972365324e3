package repository

// Order-statistics treap backing one (board, interval) index.
//
// Ordering: score DESC, then entry ID DESC, so in-order traversal walks the
// standings from best to worst and ties resolve to the newer entry. Subtree
// sizes make rank and range selection O(log n) expected.

type node struct {
	entryID uint64
	score   scoreFP
	prio    uint64
	left    *node
	right   *node
	size    int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// before reports whether (aScore, aID) ranks earlier than (bScore, bID).
func before(aScore scoreFP, aID uint64, bScore scoreFP, bID uint64) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID > bID
}

// prioFor derives a node priority from the entry ID. splitmix64 spreads
// sequential IDs uniformly, keeping the treap balanced in expectation.
func prioFor(entryID uint64) uint64 {
	z := entryID + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, entryID uint64, score scoreFP) *node {
	if n == nil {
		return &node{entryID: entryID, score: score, prio: prioFor(entryID), size: 1}
	}
	if before(score, entryID, n.score, n.entryID) {
		n.left = insert(n.left, entryID, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, entryID, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, entryID uint64, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if n.entryID == entryID && n.score == score {
		switch {
		case n.left == nil:
			return n.right
		case n.right == nil:
			return n.left
		case n.left.prio > n.right.prio:
			n = rotateRight(n)
			n.right = remove(n.right, entryID, score)
		default:
			n = rotateLeft(n)
			n.left = remove(n.left, entryID, score)
		}
	} else if before(score, entryID, n.score, n.entryID) {
		n.left = remove(n.left, entryID, score)
	} else {
		n.right = remove(n.right, entryID, score)
	}
	fix(n)
	return n
}

// indexOf returns the 0-based position of the entry in rank order, or -1
// when the entry is not in the tree.
func indexOf(n *node, entryID uint64, score scoreFP) int {
	idx := 0
	for n != nil {
		if n.entryID == entryID && n.score == score {
			return idx + nsize(n.left)
		}
		if before(score, entryID, n.score, n.entryID) {
			n = n.left
		} else {
			idx += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// walkRange emits the entry IDs at positions [start, end) in rank order,
// descending only the subtrees that overlap the range.
func walkRange(n *node, start, end int, emit func(entryID uint64)) {
	if n == nil || start >= end || end <= 0 {
		return
	}
	ls := nsize(n.left)
	if start < ls {
		walkRange(n.left, start, minInt(end, ls), emit)
	}
	if start <= ls && ls < end {
		emit(n.entryID)
	}
	if end > ls+1 {
		walkRange(n.right, maxInt(0, start-ls-1), end-ls-1, emit)
	}
}

// walkAll emits every entry ID in rank order.
func walkAll(n *node, emit func(entryID uint64)) {
	if n == nil {
		return
	}
	walkAll(n.left, emit)
	emit(n.entryID)
	walkAll(n.right, emit)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
