package jsonfile

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// LabelStore is a file-backed labels.LabelRepository bound to one split and
// language. Store merges new labels into the existing file, so interrupted
// label runs can resume from where they stopped.
type LabelStore struct {
	store *Store
	split dataset.Split
	lang  dataset.Language
}

// NewLabelStore creates a label repository persisting to the labels file of
// the given split and language.
func NewLabelStore(store *Store, split dataset.Split, lang dataset.Language) (*LabelStore, error) {
	if store == nil {
		return nil, errors.InvalidParam("file store must not be nil")
	}
	if !split.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownSplit, "unknown dataset split").
			WithDetailf("split=%q", split.String())
	}
	if !lang.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownLanguage, "unknown natural language").
			WithDetailf("language=%q", lang.String())
	}
	return &LabelStore{store: store, split: split, lang: lang}, nil
}

// Path returns the labels file this repository persists to.
func (ls *LabelStore) Path() string {
	return ls.store.LabelsPath(ls.split, ls.lang)
}

// LabelsFor returns the stored labels for the requested symbols. Every
// requested symbol is present in the result; symbols without stored labels
// map to nil.
func (ls *LabelStore) LabelsFor(ctx context.Context, symbols []string) (labels.SymbolLabels, error) {
	stored, err := ls.load(ctx)
	if err != nil {
		return nil, err
	}
	return stored.Subset(symbols), nil
}

// Store merges the given labels into the labels file. Keys already present
// are overwritten; a missing file is created.
func (ls *LabelStore) Store(ctx context.Context, sl labels.SymbolLabels) error {
	if len(sl) == 0 {
		return nil
	}
	stored, err := ls.load(ctx)
	if err != nil {
		return err
	}
	stored.Merge(sl)
	if err := ls.store.writeJSON(ctx, ls.Path(), stored); err != nil {
		return err
	}
	ls.store.logger.Debug("stored symbol labels",
		logging.String("split", ls.split.String()),
		logging.String("language", ls.lang.String()),
		logging.Int("merged", len(sl)),
		logging.Int("total", len(stored)))
	return nil
}

// Missing returns, in lexicographic order, the requested symbols that have
// no entry in the labels file yet.
func (ls *LabelStore) Missing(ctx context.Context, symbols []string) ([]string, error) {
	stored, err := ls.load(ctx)
	if err != nil {
		return nil, err
	}
	want := make(labels.SymbolLabels, len(symbols))
	for _, symbol := range symbols {
		if _, ok := stored[symbol]; !ok {
			want[symbol] = nil
		}
	}
	return want.Symbols(), nil
}

// load reads the labels file, treating a missing file as an empty map.
func (ls *LabelStore) load(ctx context.Context) (labels.SymbolLabels, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "context cancelled")
	}
	path := ls.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return labels.SymbolLabels{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read labels file").
			WithDetailf("path=%s", path)
	}
	var sl labels.SymbolLabels
	if err := json.Unmarshal(data, &sl); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageMalformedJSON, "labels file is malformed").
			WithDetailf("path=%s", path)
	}
	return sl, nil
}
