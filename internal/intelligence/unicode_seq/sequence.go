// Package unicode_seq wraps strings as sequences of Unicode code points.
//
// All suffix tree and masking logic indexes text by code point, never by
// byte: a Dutch question such as "Wie regisseerde Inceptie?" may contain
// multi-byte UTF-8 sequences, and byte offsets would silently corrupt edge
// labels and mask ranges.  A Sequence decodes its input exactly once and
// serves constant-time code point access afterwards.
package unicode_seq

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// MaxCodePoints is the maximum number of code points a Sequence may hold.
// Keeping lengths below the 32-bit signed boundary keeps every derived
// index (including suffix tree pointers) safe in int arithmetic on all
// supported platforms.
const MaxCodePoints = math.MaxInt32 - 1

// Sequence is an immutable sequence of Unicode code points decoded from a
// UTF-8 string.  The zero value is an empty sequence.
type Sequence struct {
	points []rune
	str    string
}

// New decodes s into a Sequence.
//
// It returns ErrCodeSequenceInvalidEncoding when s is not valid UTF-8 and
// ErrCodeSequenceTooLarge when s decodes to more than MaxCodePoints code
// points.
func New(s string) (*Sequence, error) {
	if !utf8.ValidString(s) {
		return nil, errors.New(errors.ErrCodeSequenceInvalidEncoding,
			"input is not valid UTF-8")
	}
	if utf8.RuneCountInString(s) > MaxCodePoints {
		return nil, errors.New(errors.ErrCodeSequenceTooLarge,
			"input exceeds the maximum code point count").
			WithDetailf("max=%d", MaxCodePoints)
	}
	return &Sequence{points: []rune(s), str: s}, nil
}

// Len returns the number of code points in the sequence.
func (s *Sequence) Len() int {
	return len(s.points)
}

// At returns the code point at 0-based index i.  Out-of-range access is a
// caller bug and panics, mirroring slice indexing.
func (s *Sequence) At(i int) rune {
	return s.points[i]
}

// Substring returns the code points in [start, end) re-encoded as a string.
// Indices are 0-based code point positions, not byte offsets.
func (s *Sequence) Substring(start, end int) string {
	return string(s.points[start:end])
}

// IndexOf returns the 0-based index of the first occurrence of r, or -1 when
// r does not occur.
func (s *Sequence) IndexOf(r rune) int {
	for i, p := range s.points {
		if p == r {
			return i
		}
	}
	return -1
}

// IndexOfSeq returns the 0-based index of the first occurrence of sub as a
// contiguous code point run, or -1 when absent.  An empty sub matches at 0.
func (s *Sequence) IndexOfSeq(sub *Sequence) int {
	n, m := len(s.points), len(sub.points)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		j := 0
		for j < m && s.points[i+j] == sub.points[j] {
			j++
		}
		if j == m {
			return i
		}
	}
	return -1
}

// Contains reports whether r occurs anywhere in the sequence.
func (s *Sequence) Contains(r rune) bool {
	return s.IndexOf(r) >= 0
}

// DistinctPoints returns the distinct code points of the sequence in order
// of first occurrence.
func (s *Sequence) DistinctPoints() []rune {
	seen := make(map[rune]struct{}, len(s.points))
	out := make([]rune, 0, len(s.points))
	for _, p := range s.points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Runes returns a copy of the underlying code points.
func (s *Sequence) Runes() []rune {
	out := make([]rune, len(s.points))
	copy(out, s.points)
	return out
}

// String returns the original UTF-8 string the sequence was decoded from.
func (s *Sequence) String() string {
	if s.str == "" && len(s.points) > 0 {
		return string(s.points)
	}
	return s.str
}

// Concat decodes and joins several strings into one Sequence.  It fails with
// the same classifications as New.
func Concat(parts ...string) (*Sequence, error) {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	return New(b.String())
}
