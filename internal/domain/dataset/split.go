// Package dataset models the LC-QuAD 2.0 record schema and the derived
// question/answer artifacts that flow through the preparation pipeline.
// Parsing, question selection, and WikiData symbol handling live here;
// persistence is handled by the storage layer.
package dataset

import (
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// Split identifies one of the two LC-QuAD 2.0 dataset splits.
type Split string

const (
	SplitTrain Split = "train"
	SplitTest  Split = "test"
)

// Splits lists the splits in canonical order.
func Splits() []Split {
	return []Split{SplitTrain, SplitTest}
}

// ParseSplit converts a user-supplied split name.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case SplitTrain:
		return SplitTrain, nil
	case SplitTest:
		return SplitTest, nil
	default:
		return "", errors.New(errors.ErrCodeDatasetUnknownSplit,
			"split must be train or test").
			WithDetailf("split=%q", s)
	}
}

func (s Split) String() string {
	return string(s)
}

// Valid reports whether s is one of the known splits.
func (s Split) Valid() bool {
	return s == SplitTrain || s == SplitTest
}
