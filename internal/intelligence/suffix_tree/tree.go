// Package suffix_tree builds Ukkonen suffix trees over Unicode code point
// sequences.
//
// The implementation follows Ukkonen's on-line algorithm (E. Ukkonen,
// "On-line construction of suffix trees", Algorithmica 14, 1995): explicit
// states connected by transitions labelled with 1-based inclusive
// [left, right] index ranges into the indexed sequence, suffix links, an
// auxiliary state ⊥ above the root, and a shared end position so that every
// leaf edge grows by itself as construction advances.  States live in an
// arena owned by the tree and are addressed through stable integer handles
// rather than pointers.
//
// The tree operates on code points, not bytes: positions in transitions are
// code point positions of the wrapped unicode_seq.Sequence.
package suffix_tree

import (
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/unicode_seq"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// Tree is a Ukkonen suffix tree under construction or completed.
//
// A Tree is not safe for concurrent mutation; Construct must finish before
// the navigation methods are used from multiple goroutines.
type Tree struct {
	seq    *unicode_seq.Sequence
	states []state

	// e is the shared end position.  Every open edge's right boundary
	// resolves to e, so incrementing it once per construction step extends
	// all leaf edges at once.
	e int

	// botEdges holds the synthetic transition start index for each distinct
	// code point of the sequence.  The destination is always the root and
	// the label length is always one, which is all canonisation ever needs.
	botEdges map[rune]int

	built bool
}

// New prepares a tree over seq.  The auxiliary state receives one synthetic
// transition per distinct code point of seq, with unique negative indices
// assigned in first-occurrence order.  Call Construct to build the tree.
func New(seq *unicode_seq.Sequence) (*Tree, error) {
	if seq == nil {
		return nil, errors.InvalidParam("sequence must not be nil")
	}
	t := &Tree{
		seq: seq,
		states: []state{
			{suffixLink: noState}, // ⊥
			{suffixLink: botHandle}, // root
		},
		botEdges: make(map[rune]int),
	}
	j := -1
	for _, cp := range seq.DistinctPoints() {
		t.botEdges[cp] = j
		j--
	}
	return t, nil
}

// Construct runs the on-line construction over the whole sequence
// (Ukkonen's algorithm 2).  It may be called once per tree.
func (t *Tree) Construct() error {
	if t.built {
		return errors.Conflict("tree has already been constructed")
	}
	t.built = true

	s, k := rootHandle, 1
	for i := 1; i <= t.seq.Len(); i++ {
		t.e++
		var err error
		s, k, err = t.update(s, k, i)
		if err != nil {
			return err
		}
		s, k, err = t.canonize(s, k, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Navigation
// ─────────────────────────────────────────────────────────────────────────────

// Root returns the handle of the root state.
func (t *Tree) Root() Handle {
	return rootHandle
}

// StateCount returns the number of states in the arena, including the
// auxiliary state and the root.
func (t *Tree) StateCount() int {
	return len(t.states)
}

// End returns the current shared end position.  After Construct it equals
// the sequence length.
func (t *Tree) End() int {
	return t.e
}

// IsLeaf reports whether h has no outgoing transitions.
func (t *Tree) IsLeaf(h Handle) (bool, error) {
	if !t.valid(h) {
		return false, t.invalidHandle(h)
	}
	if h == botHandle {
		return len(t.botEdges) == 0, nil
	}
	return len(t.states[h].edges) == 0, nil
}

// Transitions returns the outgoing transitions of h in ascending code point
// order.  Open right pointers are resolved to the current end position.
func (t *Tree) Transitions(h Handle) ([]Transition, error) {
	if !t.valid(h) {
		return nil, t.invalidHandle(h)
	}
	if h == botHandle {
		return t.botTransitions(), nil
	}
	st := &t.states[h]
	out := make([]Transition, 0, len(st.keys))
	for _, c := range st.keys {
		eg := st.edges[c]
		out = append(out, Transition{Point: c, Left: eg.left, Right: t.effRight(eg), Child: eg.child})
	}
	return out, nil
}

func (t *Tree) botTransitions() []Transition {
	points := make([]rune, 0, len(t.botEdges))
	for c := range t.botEdges {
		points = append(points, c)
	}
	sortRunes(points)
	out := make([]Transition, 0, len(points))
	for _, c := range points {
		j := t.botEdges[c]
		out = append(out, Transition{Point: c, Left: j, Right: j, Child: rootHandle})
	}
	return out
}

func (t *Tree) valid(h Handle) bool {
	return h >= 0 && int(h) < len(t.states)
}

func (t *Tree) invalidHandle(h Handle) error {
	return errors.New(errors.ErrCodeTreeInvalidState,
		"state handle does not refer to a live state").
		WithDetailf("handle=%d states=%d", h, len(t.states))
}

// ─────────────────────────────────────────────────────────────────────────────
// Construction internals
//
// All index arithmetic below is 1-based and inclusive, matching the
// reference pair notation (s, (k, p)) of Ukkonen (1995).
// ─────────────────────────────────────────────────────────────────────────────

// pointAt returns the code point at 1-based position k.
func (t *Tree) pointAt(k int) rune {
	return t.seq.At(k - 1)
}

// effRight resolves an edge's right boundary, following the shared end
// position for open edges.
func (t *Tree) effRight(eg edge) int {
	if eg.open {
		return t.e
	}
	return eg.right
}

// transition fetches the outgoing edge of s whose substring starts with c.
// For ⊥ the synthetic single-point edge to the root is materialised.
func (t *Tree) transition(s Handle, c rune) (edge, bool) {
	if s == botHandle {
		j, ok := t.botEdges[c]
		if !ok {
			return edge{}, false
		}
		return edge{left: j, right: j, child: rootHandle}, true
	}
	eg, ok := t.states[s].edges[c]
	return eg, ok
}

func (t *Tree) hasTransition(s Handle, c rune) bool {
	_, ok := t.transition(s, c)
	return ok
}

func (t *Tree) newState() Handle {
	t.states = append(t.states, state{suffixLink: noState})
	return Handle(len(t.states) - 1)
}

// addTransition installs a new edge out of s starting with code point c.
// Installing over an existing transition is a logic error: splits must go
// through split, which replaces the parent edge explicitly.
func (t *Tree) addTransition(s Handle, c rune, eg edge) error {
	st := &t.states[s]
	if _, exists := st.edges[c]; exists {
		return errors.New(errors.ErrCodeTreeTransitionExists,
			"state already has a transition for the code point").
			WithDetailf("state=%d point=%q", s, c)
	}
	if st.edges == nil {
		st.edges = make(map[rune]edge)
	}
	st.edges[c] = eg
	st.insertKey(c)
	return nil
}

// split breaks the edge out of s on S[k] into two, introducing a new state r
// after p-k+1 points of the label.  The parent keeps a bounded edge to r and
// r inherits the remainder of the original edge, preserving its open or
// bounded right pointer.  Returns r.
func (t *Tree) split(s Handle, k, p int, eg edge) (Handle, error) {
	kp := eg.left
	r := t.newState()
	rest := edge{left: kp + p - k + 1, right: eg.right, open: eg.open, child: eg.child}
	if err := t.addTransition(r, t.pointAt(kp+p-k+1), rest); err != nil {
		return noState, err
	}
	// Same leading code point, so the sorted key slice needs no update.
	t.states[s].edges[t.pointAt(k)] = edge{left: kp, right: kp + p - k, open: false, child: r}
	return r, nil
}

// testAndSplit checks whether the canonical reference pair (s, (k, p)) is an
// end point for the next code point tp, making the referenced state explicit
// on the way when it is not (Ukkonen's procedure test-and-split).  It
// returns the end point verdict and the explicit state.
func (t *Tree) testAndSplit(s Handle, k, p int, tp rune) (bool, Handle, error) {
	if k <= p {
		eg, ok := t.transition(s, t.pointAt(k))
		if !ok {
			return false, noState, errors.New(errors.ErrCodeTreeInvalidState,
				"reference pair points at a missing transition").
				WithDetailf("state=%d left=%d right=%d", s, k, p)
		}
		if t.pointAt(eg.left+p-k+1) == tp {
			return true, s, nil
		}
		r, err := t.split(s, k, p, eg)
		return false, r, err
	}
	return t.hasTransition(s, tp), s, nil
}

// canonize walks (s, (k, p)) down the tree until s is the closest explicit
// ancestor of the referenced point (Ukkonen's procedure canonize).  Only the
// state and left pointer change; p is fixed.
func (t *Tree) canonize(s Handle, k, p int) (Handle, int, error) {
	if p < k {
		return s, k, nil
	}
	eg, ok := t.transition(s, t.pointAt(k))
	if !ok {
		return noState, 0, errors.New(errors.ErrCodeTreeInvalidState,
			"reference pair points at a missing transition").
			WithDetailf("state=%d left=%d right=%d", s, k, p)
	}
	for t.effRight(eg)-eg.left <= p-k {
		k += t.effRight(eg) - eg.left + 1
		s = eg.child
		if k <= p {
			eg, ok = t.transition(s, t.pointAt(k))
			if !ok {
				return noState, 0, errors.New(errors.ErrCodeTreeInvalidState,
					"reference pair points at a missing transition").
					WithDetailf("state=%d left=%d right=%d", s, k, p)
			}
		}
		// When k passes p the stale edge values exit the loop: any label
		// length is non-negative while p-k has gone negative.
	}
	return s, k, nil
}

// update feeds the code point at position i into the tree, adding the new
// open edges along the boundary path and wiring suffix links as states are
// made explicit (Ukkonen's procedure update).  It returns the next active
// point as an uncanonised reference pair (s, k).
func (t *Tree) update(s Handle, k, i int) (Handle, int, error) {
	ti := t.pointAt(i)
	oldr := rootHandle

	endPoint, r, err := t.testAndSplit(s, k, i-1, ti)
	if err != nil {
		return noState, 0, err
	}
	for !endPoint {
		leaf := t.newState()
		if err := t.addTransition(r, ti, edge{left: i, open: true, child: leaf}); err != nil {
			return noState, 0, err
		}
		if oldr != rootHandle {
			t.states[oldr].suffixLink = r
		}
		oldr = r

		s, k, err = t.canonize(t.states[s].suffixLink, k, i-1)
		if err != nil {
			return noState, 0, err
		}
		endPoint, r, err = t.testAndSplit(s, k, i-1, ti)
		if err != nil {
			return noState, 0, err
		}
	}
	if oldr != rootHandle {
		t.states[oldr].suffixLink = s
	}
	return s, k, nil
}

func sortRunes(rs []rune) {
	// Insertion sort; ⊥ fan-out is the distinct code point count of the
	// sequence, small for question-sized inputs.
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j] < rs[j-1]; j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}
