// Package lcs extracts longest common substrings from pairs of Unicode
// strings using a generalized Ukkonen suffix tree.
//
// The two inputs are joined as first‖sep‖second‖end with a separator and
// terminator chosen from a fixed candidate list so that neither occurs in
// either input.  A post-order walk of the tree over the concatenation
// classifies every explicit state by which input its path string occurs in;
// the deepest state reached from both inputs spells the longest common
// substring.  All positions are code point positions, so multi-byte points
// count as single units.
package lcs

import (
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/suffix_tree"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/unicode_seq"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// ---------------------------------------------------------------------------
// Separator candidates
// ---------------------------------------------------------------------------

// SeparatorPair is a separator/terminator code point combination used to
// join the two inputs.  Both points must be absent from both inputs for the
// pair to be usable.
type SeparatorPair struct {
	Separator  rune
	Terminator rune
}

// separatorPairs are tried in order; the first pair whose points occur in
// neither input wins.  The list is adequate for natural-language question
// data; inputs exhausting all four pairs fail with NoUsableSeparator.
var separatorPairs = []SeparatorPair{
	{'_', '*'},
	{'_', '$'},
	{'#', '$'},
	{'&', '~'},
}

func usablePair(first, second *unicode_seq.Sequence) (SeparatorPair, bool) {
	for _, pair := range separatorPairs {
		if first.Contains(pair.Separator) || first.Contains(pair.Terminator) ||
			second.Contains(pair.Separator) || second.Contains(pair.Terminator) {
			continue
		}
		return pair, true
	}
	return SeparatorPair{}, false
}

// ---------------------------------------------------------------------------
// Substring classification
// ---------------------------------------------------------------------------

// substringClass records which of the two inputs an explicit state's path
// string occurs in.
type substringClass uint8

const (
	classUndetermined substringClass = iota
	classFirst
	classSecond
	classBoth
)

// combine merges a child classification into a state's running
// classification.  Undetermined yields to the child; agreeing classes stay;
// disagreement or an already-mixed class is mixed.
func combine(old, child substringClass) substringClass {
	switch old {
	case classUndetermined:
		return child
	case classFirst, classSecond:
		if old != child {
			return classBoth
		}
		return old
	default:
		return classBoth
	}
}

// classifier accumulates the longest path string whose state is reached from
// both inputs during the post-order walk.
type classifier struct {
	tree *suffix_tree.Tree

	// sepPos is the 1-based code point position of the separator in the
	// concatenation.  A leaf edge starting at or before it belongs to a
	// suffix of the first input.
	sepPos int

	// lcsLength and lcsStart describe the best candidate so far, as a
	// length and a 1-based inclusive start position.  Strict-greater update
	// keeps the first candidate found in ascending code point order.
	lcsLength int
	lcsStart  int
}

func (c *classifier) classify(h suffix_tree.Handle, length int) (substringClass, error) {
	trans, err := c.tree.Transitions(h)
	if err != nil {
		return classUndetermined, err
	}
	class := classUndetermined
	for _, tr := range trans {
		edgeLen := tr.Right - tr.Left + 1
		leaf, err := c.tree.IsLeaf(tr.Child)
		if err != nil {
			return classUndetermined, err
		}
		var childClass substringClass
		if leaf {
			if tr.Left <= c.sepPos {
				childClass = classFirst
			} else {
				childClass = classSecond
			}
		} else {
			childClass, err = c.classify(tr.Child, length+edgeLen)
			if err != nil {
				return classUndetermined, err
			}
		}
		class = combine(class, childClass)
		if class == classBoth && childClass == classBoth {
			total := length + edgeLen
			if c.lcsLength < total {
				c.lcsLength = total
				c.lcsStart = tr.Right - total + 1
			}
		}
	}
	return class, nil
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Extract returns the longest common substring of first and second.  The
// second return value is false when the inputs share no code point at all.
//
// Both inputs must be non-empty valid UTF-8.  When several common
// substrings tie for the maximum length, the one whose tree state is
// reached first in ascending code point order wins; the choice is
// deterministic across runs.
func Extract(first, second string) (string, bool, error) {
	if first == "" || second == "" {
		return "", false, errors.New(errors.ErrCodeLCSEmptyInput,
			"both inputs must be non-empty").
			WithDetailf("len(first)=%d len(second)=%d", len(first), len(second))
	}
	firstSeq, err := unicode_seq.New(first)
	if err != nil {
		return "", false, err
	}
	secondSeq, err := unicode_seq.New(second)
	if err != nil {
		return "", false, err
	}

	pair, ok := usablePair(firstSeq, secondSeq)
	if !ok {
		return "", false, errors.New(errors.ErrCodeLCSNoSeparator,
			"every candidate separator pair occurs in the inputs")
	}

	concat, err := unicode_seq.Concat(first, string(pair.Separator), second, string(pair.Terminator))
	if err != nil {
		return "", false, err
	}
	tree, err := suffix_tree.New(concat)
	if err != nil {
		return "", false, err
	}
	if err := tree.Construct(); err != nil {
		return "", false, err
	}

	c := &classifier{tree: tree, sepPos: concat.IndexOf(pair.Separator) + 1}
	if _, err := c.classify(tree.Root(), 0); err != nil {
		return "", false, err
	}
	if c.lcsLength == 0 {
		return "", false, nil
	}
	start := c.lcsStart - 1
	return concat.Substring(start, start+c.lcsLength), true, nil
}
