package masking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/testutil"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

type captureMetrics struct {
	lcsCalls int
	outcomes []string
}

func (c *captureMetrics) RecordLCSInvocation() {
	c.lcsCalls++
}

func (c *captureMetrics) RecordOutcome(state State, reason FailureReason) {
	c.outcomes = append(c.outcomes, fmt.Sprintf("%s/%s", state, reason))
}

func newMasker(t *testing.T, threshold float64) Masker {
	t.Helper()
	m, err := New(Config{Threshold: threshold}, testutil.NewMockLogger(), nil)
	require.NoError(t, err)
	return m
}

func TestNew_ThresholdValidation(t *testing.T) {
	_, err := New(Config{Threshold: -0.1}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = New(Config{Threshold: 1.5}, nil, nil)
	require.Error(t, err)

	_, err = New(Config{Threshold: 0.6}, nil, nil)
	require.NoError(t, err)
}

func TestMask_SingleEntity(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		UID:      "1108",
		Question: "Who directed Inception?",
		Answer:   "SELECT ?x WHERE { Q25188 P57 ?x }",
		Labels: map[string][]string{
			"Q25188": {"Inception", "the movie Inception"},
		},
	})

	require.Equal(t, StateMasked, out.State)
	require.NoError(t, out.Err)
	assert.Equal(t, "Who directed Q0?", out.MaskedQuestion)
	// P57 is not among the chosen identifiers, so it stays untouched.
	assert.Equal(t, "SELECT ?x WHERE { Q0 P57 ?x }", out.MaskedAnswer)

	require.Len(t, out.Matches, 1)
	match := out.Matches[0]
	assert.Equal(t, "Q25188", match.Identifier)
	assert.Equal(t, "Inception", match.Label)
	assert.Equal(t, "Inception", match.Substring)
	assert.Equal(t, 13, match.Start)
	assert.Equal(t, 21, match.End)
	assert.Equal(t, 1.0, match.Fraction)
	assert.Equal(t, "Q0", match.Mask)
}

func TestMask_EntityAndProperty(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		UID:      "1109",
		Question: "Who directed Inception?",
		Answer:   "SELECT ?x WHERE { Q25188 P57 ?x }",
		Labels: map[string][]string{
			"Q25188": {"Inception"},
			"P57":    {"director"},
		},
	})

	require.Equal(t, StateMasked, out.State)
	// "direct" is the common substring of "directed" and "director"; it
	// sits before "Inception", so the property mask is allocated first.
	assert.Equal(t, "Who P0ed Q0?", out.MaskedQuestion)
	assert.Equal(t, "SELECT ?x WHERE { Q0 P0 ?x }", out.MaskedAnswer)
}

func TestMask_LabelTieFirstWins(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		Question: "ab cd",
		Answer:   "Q7",
		Labels:   map[string][]string{"Q7": {"ab", "cd"}},
	})

	require.Equal(t, StateMasked, out.State)
	assert.Equal(t, "Q0 cd", out.MaskedQuestion)
	assert.Equal(t, "ab", out.Matches[0].Label)
}

func TestMask_Collision(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		Question: "the big apple city",
		Answer:   "Q100 Q200",
		Labels: map[string][]string{
			"Q100": {"big apple"},
			"Q200": {"apple city"},
		},
	})

	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonCollision, out.Reason)
	assert.True(t, errors.IsCode(out.Err, errors.ErrCodeMaskCollision))
	assert.Empty(t, out.MaskedQuestion)
}

func TestMask_ThresholdGating(t *testing.T) {
	in := &Input{
		Question: "Who directed Inception?",
		Answer:   "P57",
		Labels:   map[string][]string{"P57": {"director of photography"}},
	}

	strict := newMasker(t, 0.6)
	out := strict.Mask(in)
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonThresholdNotMet, out.Reason)
	assert.True(t, errors.IsCode(out.Err, errors.ErrCodeMaskBelowThreshold))

	lenient := newMasker(t, 0)
	out = lenient.Mask(in)
	assert.Equal(t, StateMasked, out.State)
}

func TestMask_ThresholdBoundaryInclusive(t *testing.T) {
	// A fully covered label scores exactly 1.0 and must pass θ = 1.0.
	m := newMasker(t, 1.0)
	out := m.Mask(&Input{
		Question: "Who directed Inception?",
		Answer:   "Q25188",
		Labels:   map[string][]string{"Q25188": {"Inception"}},
	})
	assert.Equal(t, StateMasked, out.State)
}

func TestMask_NoLabels(t *testing.T) {
	m := newMasker(t, 0)

	out := m.Mask(&Input{
		Question: "abc def",
		Answer:   "Q1",
		Labels:   map[string][]string{"Q1": {}},
	})
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonNoLabels, out.Reason)
	assert.True(t, errors.IsCode(out.Err, errors.ErrCodeMaskNoLabels))

	out = m.Mask(&Input{
		Question: "abc def",
		Answer:   "Q1",
		Labels:   map[string][]string{"Q1": {"xyz"}},
	})
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonNoLabels, out.Reason)
}

func TestMask_EmptyQuestion(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{Question: "", Labels: map[string][]string{"Q1": {"a"}}})
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonInvalidInput, out.Reason)
}

func TestMask_SeparatorExhaustion(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		Question: "a_b*c$d#e&f~g",
		Answer:   "Q1",
		Labels:   map[string][]string{"Q1": {"a"}},
	})
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, ReasonNoSeparator, out.Reason)
	assert.True(t, errors.IsCode(out.Err, errors.ErrCodeLCSNoSeparator))
}

func TestMask_MultiByteQuestion(t *testing.T) {
	m := newMasker(t, 0)
	out := m.Mask(&Input{
		Question: "αβγ δε",
		Answer:   "Q1",
		Labels:   map[string][]string{"Q1": {"δε"}},
	})

	require.Equal(t, StateMasked, out.State)
	assert.Equal(t, "αβγ Q0", out.MaskedQuestion)
	assert.Equal(t, 4, out.Matches[0].Start)
	assert.Equal(t, 5, out.Matches[0].End)
}

func TestMask_NumberingFollowsQuestionOrder(t *testing.T) {
	m := newMasker(t, 0)
	for i := 0; i < 20; i++ {
		out := m.Mask(&Input{
			Question: "beta alpha",
			Answer:   "Q2 Q9",
			Labels: map[string][]string{
				"Q2": {"alpha"},
				"Q9": {"beta"},
			},
		})
		require.Equal(t, StateMasked, out.State)
		// "beta" comes first in the question, so Q9 receives Q0.
		assert.Equal(t, "Q0 Q1", out.MaskedQuestion)
		assert.Equal(t, "Q1 Q0", out.MaskedAnswer)
	}
}

func TestMask_RecordsMetrics(t *testing.T) {
	metrics := &captureMetrics{}
	m, err := New(Config{}, nil, metrics)
	require.NoError(t, err)

	out := m.Mask(&Input{
		Question: "Who directed Inception?",
		Answer:   "Q25188",
		Labels:   map[string][]string{"Q25188": {"Inception", "the movie Inception"}},
	})
	require.Equal(t, StateMasked, out.State)
	assert.Equal(t, 2, metrics.lcsCalls)
	assert.Equal(t, []string{"MASKED/"}, metrics.outcomes)

	out = m.Mask(&Input{
		Question: "abc",
		Answer:   "",
		Labels:   map[string][]string{"Q1": {"zzz"}},
	})
	require.Equal(t, StateFailed, out.State)
	assert.Equal(t, []string{"MASKED/", "FAILED/NO_LABELS_FOR_SOME"}, metrics.outcomes)
}

func TestMask_FailedHelper(t *testing.T) {
	m := newMasker(t, 0)

	out := m.Mask(&Input{Question: "abc", Answer: "", Labels: map[string][]string{"Q1": {"z"}}})
	assert.True(t, out.Failed())

	out = m.Mask(&Input{Question: "abc", Answer: "", Labels: map[string][]string{"Q1": {"abc"}}})
	assert.False(t, out.Failed())
}
