package suffix_tree

import (
	"sort"
)

// Handle identifies a state in a Tree's arena.  Handles are tree-local and
// stable for the lifetime of the tree: growing the arena never invalidates
// previously returned handles.
type Handle int

const (
	// botHandle is the auxiliary state ⊥.  It sits one level above the root
	// and carries a synthetic single-point transition back to the root for
	// every distinct code point of the indexed sequence.
	botHandle Handle = 0

	// rootHandle is the root of the suffix tree.
	rootHandle Handle = 1

	// noState marks an unset suffix link.
	noState Handle = -1
)

// edge is a transition label over the indexed sequence, expressed as a
// 1-based inclusive [left, right] code point range plus the destination
// state.  Leaf edges are open: their right boundary tracks the tree's shared
// end position instead of a fixed index, which is what makes each
// construction step amortised constant time.
type edge struct {
	left  int
	right int
	open  bool
	child Handle
}

// state is one explicit state of the tree.  Transition lookup goes through
// the map; ordered iteration goes through keys, which is kept sorted so that
// traversals are deterministic regardless of map seed.
type state struct {
	suffixLink Handle
	keys       []rune
	edges      map[rune]edge
}

func (st *state) insertKey(c rune) {
	i := sort.Search(len(st.keys), func(j int) bool { return st.keys[j] >= c })
	st.keys = append(st.keys, 0)
	copy(st.keys[i+1:], st.keys[i:])
	st.keys[i] = c
}

// Transition is the exported view of one outgoing edge, with any open right
// pointer resolved to the tree's current end position.
type Transition struct {
	// Point is the first code point of the transition's substring.
	Point rune

	// Left and Right delimit the transition's substring as 1-based inclusive
	// code point positions of the indexed sequence.  Synthetic transitions
	// out of the auxiliary state carry negative positions and must never be
	// used to index the sequence.
	Left  int
	Right int

	// Child is the destination state.
	Child Handle
}
