// Package mask provides the application service that turns translated
// question-answer pairs into their masked counterparts. Questions are
// processed concurrently; each one runs through the masking consumer in
// isolation, so one failing question never aborts the run.
package mask

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/messaging/kafka"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/masking"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// RecordSource loads the raw records of a dataset split.
type RecordSource interface {
	Records(ctx context.Context, split dataset.Split) ([]dataset.Record, error)
}

// QuestionSource loads a UID-to-question JSON map, typically the translated
// questions file.
type QuestionSource interface {
	StringMap(ctx context.Context, name string) (map[string]string, error)
}

// SymbolMapSource loads the UID-to-symbols map produced by the collect task.
type SymbolMapSource interface {
	SymbolsMap(ctx context.Context, split dataset.Split) (map[string][]string, error)
}

// MaskedPairSink persists the masked question-answer pairs.
type MaskedPairSink interface {
	SaveMaskedPairs(ctx context.Context, name string, m map[string]dataset.MaskedPair) error
}

// EventPublisher publishes one outcome event per processed question. A nil
// kafka.Producer satisfies it as a no-op.
type EventPublisher interface {
	PublishMaskingOutcome(ctx context.Context, event *kafka.MaskingOutcomeEvent) error
}

// Service defines the mask task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input configures one masking run.
type Input struct {
	Split    dataset.Split
	Language dataset.Language
	// QuestionsFile names the translated questions map. When empty, questions
	// are derived from the raw split records instead.
	QuestionsFile string
	// OutputFile names the masked pairs file. Defaults to
	// "<split>-<language>-masked.json".
	OutputFile string
	// Workers caps the number of questions masked concurrently. Defaults to
	// the number of usable CPUs.
	Workers int
}

// Result reports one masking run, including the per-reason failure tally.
type Result struct {
	RunID     string         `json:"run_id"`
	Total     int            `json:"total"`
	Solved    int            `json:"solved"`
	NotSolved int            `json:"not_solved"`
	Failures  map[string]int `json:"failures,omitempty"`
	Path      string         `json:"path"`
}

type serviceImpl struct {
	records   RecordSource
	questions QuestionSource
	symbols   SymbolMapSource
	repo      labels.LabelRepository
	sink      MaskedPairSink
	masker    masking.Masker
	publisher EventPublisher
	logger    logging.Logger
}

// NewService creates a mask service. The publisher may be nil when event
// publication is disabled.
func NewService(
	records RecordSource,
	questions QuestionSource,
	symbols SymbolMapSource,
	repo labels.LabelRepository,
	sink MaskedPairSink,
	masker masking.Masker,
	publisher EventPublisher,
	logger logging.Logger,
) (Service, error) {
	if records == nil {
		return nil, errors.InvalidParam("record source must not be nil")
	}
	if questions == nil {
		return nil, errors.InvalidParam("question source must not be nil")
	}
	if symbols == nil {
		return nil, errors.InvalidParam("symbol map source must not be nil")
	}
	if repo == nil {
		return nil, errors.InvalidParam("label repository must not be nil")
	}
	if sink == nil {
		return nil, errors.InvalidParam("masked pair sink must not be nil")
	}
	if masker == nil {
		return nil, errors.InvalidParam("masker must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		records:   records,
		questions: questions,
		symbols:   symbols,
		repo:      repo,
		sink:      sink,
		masker:    masker,
		publisher: publisher,
		logger:    logger,
	}, nil
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
	outputFile := input.OutputFile
	if outputFile == "" {
		outputFile = input.Split.String() + "-" + input.Language.String() + "-masked.json"
	}
	workers := input.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	records, err := s.records.Records(ctx, input.Split)
	if err != nil {
		return nil, err
	}
	questions, err := s.loadQuestions(ctx, input, records)
	if err != nil {
		return nil, err
	}
	symbolsMap, err := s.symbols.SymbolsMap(ctx, input.Split)
	if err != nil {
		return nil, err
	}
	allLabels, err := s.loadLabels(ctx, symbolsMap)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	s.logger.Info("starting masking run",
		logging.String("run_id", runID),
		logging.String("split", input.Split.String()),
		logging.String("language", input.Language.String()),
		logging.Int("questions", len(records)),
		logging.Int("workers", workers))

	var (
		mu       sync.Mutex
		masked   = make(map[string]dataset.MaskedPair)
		failures = make(map[string]int)
		solved   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, record := range records {
		record := record
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			uid := strconv.Itoa(record.UID)
			outcome := s.masker.Mask(&masking.Input{
				UID:      uid,
				Question: questions[uid],
				Answer:   record.SparqlWikidata,
				Labels:   questionLabels(symbolsMap[uid], allLabels),
			})

			mu.Lock()
			if outcome.Failed() {
				failures[string(outcome.Reason)]++
			} else {
				solved++
				masked[uid] = dataset.MaskedPair{Q: outcome.MaskedQuestion, A: outcome.MaskedAnswer}
			}
			mu.Unlock()

			s.publish(gctx, runID, outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "masking run interrupted")
	}

	if err := s.sink.SaveMaskedPairs(ctx, outputFile, masked); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     runID,
		Total:     len(records),
		Solved:    solved,
		NotSolved: len(records) - solved,
		Path:      outputFile,
	}
	if len(failures) > 0 {
		result.Failures = failures
	}
	s.logResult(result)
	return result, nil
}

// loadQuestions returns the UID-to-question map, either from the translated
// questions file or derived from the raw records.
func (s *serviceImpl) loadQuestions(ctx context.Context, input *Input, records []dataset.Record) (map[string]string, error) {
	if input.QuestionsFile != "" {
		return s.questions.StringMap(ctx, input.QuestionsFile)
	}
	m := make(map[string]string, len(records))
	for _, record := range records {
		text, _ := record.TranslationQuestion()
		m[strconv.Itoa(record.UID)] = text
	}
	return m, nil
}

// loadLabels retrieves, in one repository read, the labels of every symbol
// appearing anywhere in the split.
func (s *serviceImpl) loadLabels(ctx context.Context, symbolsMap map[string][]string) (labels.SymbolLabels, error) {
	set := make(map[string]struct{})
	for _, symbols := range symbolsMap {
		for _, symbol := range symbols {
			set[symbol] = struct{}{}
		}
	}
	all := make([]string, 0, len(set))
	for symbol := range set {
		all = append(all, symbol)
	}
	sort.Strings(all)
	return s.repo.LabelsFor(ctx, all)
}

// questionLabels narrows the split-wide labels down to one question's
// symbols. Symbols without retrieved labels stay present with a nil slice,
// which the masking consumer reports as a missing-label failure.
func questionLabels(symbols []string, all labels.SymbolLabels) map[string][]string {
	m := make(map[string][]string, len(symbols))
	for _, symbol := range symbols {
		m[symbol] = all[symbol]
	}
	return m
}

// publish emits the outcome event when a publisher is wired. Event delivery
// is advisory: failures are logged, never propagated.
func (s *serviceImpl) publish(ctx context.Context, runID string, outcome *masking.Outcome) {
	if s.publisher == nil {
		return
	}
	event := &kafka.MaskingOutcomeEvent{
		RunID:  runID,
		UID:    outcome.UID,
		Status: string(outcome.State),
		Reason: string(outcome.Reason),
	}
	if err := s.publisher.PublishMaskingOutcome(ctx, event); err != nil {
		s.logger.Warn("failed to publish masking outcome",
			logging.String("uid", outcome.UID),
			logging.Err(err))
	}
}

func (s *serviceImpl) logResult(result *Result) {
	fields := []logging.Field{
		logging.String("run_id", result.RunID),
		logging.Int("total", result.Total),
		logging.Int("solved", result.Solved),
		logging.Int("not_solved", result.NotSolved),
	}
	for reason, count := range result.Failures {
		fields = append(fields, logging.Int("failed_"+reason, count))
	}
	s.logger.Info("masking run finished", fields...)
}
