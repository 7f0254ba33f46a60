package masking

import (
	"strings"
	"unicode"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/unicode_seq"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// substituteQuestion rebuilds the question with every match range replaced
// by its mask token.  Matches must be position-sorted and non-overlapping;
// copying the gaps between ranges makes the replacement immune to the
// length difference between label text and mask token.
func substituteQuestion(question *unicode_seq.Sequence, matches []Match) string {
	var b strings.Builder
	next := 0
	for _, match := range matches {
		b.WriteString(question.Substring(next, match.Start))
		b.WriteString(match.Mask)
		next = match.End + 1
	}
	b.WriteString(question.Substring(next, question.Len()))
	return b.String()
}

// substituteAnswer replaces every whole-token identifier occurrence in the
// raw answer by its assigned mask in one left-to-right pass.  Emitted mask
// tokens are never re-scanned, so a substituted Q2 can not corrupt a later
// Q25.  Identifiers outside the question's label map are left untouched;
// an identifier that belongs to the label map but has no assigned mask is
// an invariant violation.
func substituteAnswer(answer string, masks map[string]string, labels map[string][]string) (string, error) {
	runes := []rune(answer)
	var b strings.Builder
	b.Grow(len(answer))
	i := 0
	for i < len(runes) {
		r := runes[i]
		if (r == 'Q' || r == 'P') && (i == 0 || !isWordRune(runes[i-1])) {
			j := i + 1
			for j < len(runes) && isASCIIDigit(runes[j]) {
				j++
			}
			if j > i+1 && (j == len(runes) || !isWordRune(runes[j])) {
				token := string(runes[i:j])
				if mask, ok := masks[token]; ok {
					b.WriteString(mask)
					i = j
					continue
				}
				if _, known := labels[token]; known {
					return "", errors.New(errors.ErrCodeMaskMissing,
						"identifier matched in the answer has no assigned mask").
						WithDetailf("identifier=%s", token)
				}
			}
		}
		b.WriteRune(r)
		i++
	}
	return b.String(), nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
