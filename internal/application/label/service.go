// Package label provides the application service that retrieves natural
// language labels for the WikiData symbols of a dataset split. Runs are
// resumable: symbols already present in the label repository are skipped,
// and every retrieved part is persisted before the next one is requested.
package label

import (
	"context"
	"sort"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// SymbolMapSource loads the UID-to-symbols map produced by the collect task.
type SymbolMapSource interface {
	SymbolsMap(ctx context.Context, split dataset.Split) (map[string][]string, error)
}

// Service defines the label task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input configures one labelling run.
type Input struct {
	Split    dataset.Split
	Language dataset.Language
	// PartSize is the number of symbols per batched query. Smaller parts
	// persist more often but make the run slower.
	PartSize int
}

// Result reports what the label task retrieved.
type Result struct {
	TotalSymbols     int `json:"total_symbols"`
	AlreadyLabelled  int `json:"already_labelled"`
	RetrievedSymbols int `json:"retrieved_symbols"`
	Parts            int `json:"parts"`
}

type serviceImpl struct {
	symbols SymbolMapSource
	repo    labels.LabelRepository
	source  labels.LabelSource
	logger  logging.Logger
}

// NewService creates a label service.
func NewService(symbols SymbolMapSource, repo labels.LabelRepository, source labels.LabelSource, logger logging.Logger) (Service, error) {
	if symbols == nil {
		return nil, errors.InvalidParam("symbol map source must not be nil")
	}
	if repo == nil {
		return nil, errors.InvalidParam("label repository must not be nil")
	}
	if source == nil {
		return nil, errors.InvalidParam("label source must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{symbols: symbols, repo: repo, source: source, logger: logger}, nil
}

func (s *serviceImpl) Run(ctx context.Context, input *Input) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidParam("input must not be nil")
	}
	if !input.Split.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownSplit, "unknown dataset split").
			WithDetailf("split=%q", input.Split.String())
	}
	if !input.Language.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownLanguage, "unknown natural language").
			WithDetailf("language=%q", input.Language.String())
	}
	if input.PartSize < 1 {
		return nil, errors.New(errors.ErrCodeLabelInvalidPartSize, "part size must be at least one").
			WithDetailf("part_size=%d", input.PartSize)
	}

	all, err := s.distinctSymbols(ctx, input.Split)
	if err != nil {
		return nil, err
	}
	missing, err := s.repo.Missing(ctx, all)
	if err != nil {
		return nil, err
	}
	s.logger.Info("determined symbols requiring labels",
		logging.String("split", input.Split.String()),
		logging.String("language", input.Language.String()),
		logging.Int("total", len(all)),
		logging.Int("already_labelled", len(all)-len(missing)),
		logging.Int("missing", len(missing)))

	result := &Result{
		TotalSymbols:    len(all),
		AlreadyLabelled: len(all) - len(missing),
	}
	parts := partition(missing, input.PartSize)
	for i, part := range parts {
		fetched, err := s.source.FetchLabels(ctx, part, input.Language)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Store(ctx, fetched); err != nil {
			return nil, err
		}
		result.RetrievedSymbols += len(part)
		result.Parts++
		s.logger.Info("retrieved labels for part",
			logging.Int("part", i+1),
			logging.Int("parts", len(parts)),
			logging.Int("symbols", len(part)))
	}
	return result, nil
}

// distinctSymbols unions the per-question symbol sets of a split into one
// lexicographically sorted list.
func (s *serviceImpl) distinctSymbols(ctx context.Context, split dataset.Split) ([]string, error) {
	m, err := s.symbols.SymbolsMap(ctx, split)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, symbols := range m {
		for _, symbol := range symbols {
			set[symbol] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for symbol := range set {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out, nil
}

// partition chunks the symbols into parts of at most partSize, preserving
// order. An empty input yields no parts.
func partition(symbols []string, partSize int) [][]string {
	var parts [][]string
	for start := 0; start < len(symbols); start += partSize {
		end := start + partSize
		if end > len(symbols) {
			end = len(symbols)
		}
		parts = append(parts, symbols[start:end])
	}
	return parts
}
