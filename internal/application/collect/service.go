// Package collect provides the application service that relates LC-QuAD 2.0
// questions to the WikiData entities and properties appearing in their
// SPARQL formulations.
package collect

import (
	"context"
	"strconv"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// RecordSource loads the raw records of a dataset split.
type RecordSource interface {
	Records(ctx context.Context, split dataset.Split) ([]dataset.Record, error)
}

// SymbolMapSink persists the UID-to-symbols map of a split.
type SymbolMapSink interface {
	SaveSymbolsMap(ctx context.Context, split dataset.Split, m map[string][]string) error
	SymbolsMapPath(split dataset.Split) string
}

// Service defines the collect task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input selects the dataset split to collect symbols for.
type Input struct {
	Split dataset.Split
}

// Result reports what the collect task produced.
type Result struct {
	Questions       int    `json:"questions"`
	DistinctSymbols int    `json:"distinct_symbols"`
	Path            string `json:"path"`
}

type serviceImpl struct {
	source RecordSource
	sink   SymbolMapSink
	logger logging.Logger
}

// NewService creates a collect service.
func NewService(source RecordSource, sink SymbolMapSink, logger logging.Logger) (Service, error) {
	if source == nil {
		return nil, errors.InvalidParam("record source must not be nil")
	}
	if sink == nil {
		return nil, errors.InvalidParam("symbol map sink must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{source: source, sink: sink, logger: logger}, nil
}

func (s *serviceImpl) Run(ctx context.Context, input *Input) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidParam("input must not be nil")
	}
	if !input.Split.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownSplit, "unknown dataset split").
			WithDetailf("split=%q", input.Split.String())
	}

	records, err := s.source.Records(ctx, input.Split)
	if err != nil {
		return nil, err
	}

	// Every question receives an entry, questions without symbols included,
	// so downstream tasks can distinguish "no symbols" from "not collected".
	m := make(map[string][]string, len(records))
	distinct := make(map[string]struct{})
	for _, record := range records {
		symbols := record.WikidataSymbols()
		if symbols == nil {
			symbols = []string{}
		}
		m[strconv.Itoa(record.UID)] = symbols
		for _, symbol := range symbols {
			distinct[symbol] = struct{}{}
		}
	}

	if err := s.sink.SaveSymbolsMap(ctx, input.Split, m); err != nil {
		return nil, err
	}

	result := &Result{
		Questions:       len(m),
		DistinctSymbols: len(distinct),
		Path:            s.sink.SymbolsMapPath(input.Split),
	}
	s.logger.Info("collected entities and properties",
		logging.String("split", input.Split.String()),
		logging.Int("questions", result.Questions),
		logging.Int("distinct_symbols", result.DistinctSymbols))
	return result, nil
}
