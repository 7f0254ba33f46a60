package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/unicode_seq"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

func TestSubstituteQuestion_GapsPreserved(t *testing.T) {
	q, err := unicode_seq.New("one two three")
	require.NoError(t, err)

	got := substituteQuestion(q, []Match{
		{Start: 0, End: 2, Mask: "Q0"},
		{Start: 8, End: 12, Mask: "Q1"},
	})
	assert.Equal(t, "Q0 two Q1", got)
}

func TestSubstituteQuestion_AdjacentRanges(t *testing.T) {
	q, err := unicode_seq.New("abcd")
	require.NoError(t, err)

	got := substituteQuestion(q, []Match{
		{Start: 0, End: 1, Mask: "Q0"},
		{Start: 2, End: 3, Mask: "P0"},
	})
	assert.Equal(t, "Q0P0", got)
}

func TestSubstituteAnswer_TokenBoundaries(t *testing.T) {
	masks := map[string]string{"Q2": "Q0", "Q25": "Q1"}
	labels := map[string][]string{"Q2": nil, "Q25": nil}

	got, err := substituteAnswer("Q2 Q25 Q256 xQ2 Q2x wd:Q25", masks, labels)
	require.NoError(t, err)
	// Q256 is a different identifier; xQ2 and Q2x are not whole tokens.
	assert.Equal(t, "Q0 Q1 Q256 xQ2 Q2x wd:Q1", got)
}

func TestSubstituteAnswer_SubstitutionsNotRescanned(t *testing.T) {
	// The emitted mask "Q25" must not be picked up again even though Q25
	// itself carries a mask.
	masks := map[string]string{"Q2": "Q25", "Q25": "Q99"}
	labels := map[string][]string{"Q2": nil, "Q25": nil}

	got, err := substituteAnswer("Q2 Q25", masks, labels)
	require.NoError(t, err)
	assert.Equal(t, "Q25 Q99", got)
}

func TestSubstituteAnswer_UnknownIdentifierLeftAlone(t *testing.T) {
	masks := map[string]string{"Q1": "Q0"}
	labels := map[string][]string{"Q1": nil}

	got, err := substituteAnswer("SELECT ?x WHERE { Q1 P57 ?x }", masks, labels)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?x WHERE { Q0 P57 ?x }", got)
}

func TestSubstituteAnswer_MissingMaskIsLogicError(t *testing.T) {
	// Q5 belongs to the question's label map but never received a mask;
	// that state is unreachable through Mask and must surface loudly.
	masks := map[string]string{}
	labels := map[string][]string{"Q5": nil}

	_, err := substituteAnswer("{ Q5 }", masks, labels)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMaskMissing))
}

func TestSubstituteAnswer_EmptyAnswer(t *testing.T) {
	got, err := substituteAnswer("", map[string]string{"Q1": "Q0"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubstituteAnswer_IdentifierAtEnds(t *testing.T) {
	masks := map[string]string{"Q1": "Q0", "P2": "P0"}
	labels := map[string][]string{"Q1": nil, "P2": nil}

	got, err := substituteAnswer("Q1 and P2", masks, labels)
	require.NoError(t, err)
	assert.Equal(t, "Q0 and P0", got)
}
