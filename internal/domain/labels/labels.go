// Package labels holds the WikiData label vocabulary types and the
// persistence and retrieval contracts used by the labelling and masking
// tasks.
package labels

import (
	"context"
	"sort"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
)

// SymbolLabels maps WikiData identifiers to their candidate labels in one
// natural language.  An identifier mapped to an empty list is known to
// have no labels; an absent identifier has not been retrieved yet.  The
// distinction drives resumable retrieval.
type SymbolLabels map[string][]string

// Symbols returns the stored identifiers in lexicographic order.
func (s SymbolLabels) Symbols() []string {
	symbols := make([]string, 0, len(s))
	for sym := range s {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// Merge folds other into s.  Keys arriving in other replace keys already
// present, mirroring how label parts are appended to the store file.
func (s SymbolLabels) Merge(other SymbolLabels) {
	for sym, ls := range other {
		s[sym] = ls
	}
}

// Subset returns a label map covering exactly the requested symbols.
// Symbols the store has never seen map to nil, which downstream masking
// reports as an identifier without labels.
func (s SymbolLabels) Subset(symbols []string) SymbolLabels {
	out := make(SymbolLabels, len(symbols))
	for _, sym := range symbols {
		out[sym] = s[sym]
	}
	return out
}

// LabelRepository persists the label vocabulary between runs.
type LabelRepository interface {
	// LabelsFor returns a label map covering exactly the given symbols.
	// Symbols without a stored entry map to nil.
	LabelsFor(ctx context.Context, symbols []string) (SymbolLabels, error)

	// Store merges the given labels into the persisted vocabulary.
	Store(ctx context.Context, labels SymbolLabels) error

	// Missing returns, in lexicographic order, the symbols that have no
	// stored entry yet.
	Missing(ctx context.Context, symbols []string) ([]string, error)
}

// LabelSource retrieves labels for symbols from a remote authority.
type LabelSource interface {
	// FetchLabels returns a label map covering every requested symbol;
	// symbols the authority knows no labels for map to an empty list.
	FetchLabels(ctx context.Context, symbols []string, lang dataset.Language) (SymbolLabels, error)
}
