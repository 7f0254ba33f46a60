// Package finalise provides the application service that turns masked
// question-answer pairs into the model-ready text files: questions and
// SPARQL answers are normalised into space-separated word-like tokens and
// divided over train, validate and test partitions.
package finalise

import (
	"context"
	"math"
	"sort"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// PairSource loads a masked question-answer file.
type PairSource interface {
	MaskedPairs(ctx context.Context, name string) (map[string]dataset.MaskedPair, error)
}

// LineSink writes finalised text files, one line per pair.
type LineSink interface {
	SaveLines(ctx context.Context, name string, lines []string) error
}

// ArtifactUploader copies a finalised file to remote object storage. A nil
// uploader disables uploading.
type ArtifactUploader interface {
	UploadFinalisedFile(ctx context.Context, name string) error
}

// Service defines the finalise task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input configures one finalise run.
type Input struct {
	Split    dataset.Split
	Language dataset.Language
	// FractionToValidate is the fraction of the train split that goes to the
	// validate partition. It is taken from the head of the file and only has
	// effect on the train split.
	FractionToValidate float64
	// InputFile names the masked pairs file. Defaults to
	// "<split>-<language>-masked.json".
	InputFile string
}

// Result reports the partition sizes and the files written.
type Result struct {
	Partitions map[string]int `json:"partitions"`
	Files      []string       `json:"files"`
	Uploaded   int            `json:"uploaded"`
}

type serviceImpl struct {
	source   PairSource
	sink     LineSink
	uploader ArtifactUploader
	logger   logging.Logger
}

// NewService creates a finalise service. The uploader may be nil when no
// remote copy is wanted.
func NewService(source PairSource, sink LineSink, uploader ArtifactUploader, logger logging.Logger) (Service, error) {
	if source == nil {
		return nil, errors.InvalidParam("pair source must not be nil")
	}
	if sink == nil {
		return nil, errors.InvalidParam("line sink must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{source: source, sink: sink, uploader: uploader, logger: logger}, nil
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
	if input.FractionToValidate < 0 || input.FractionToValidate > 1 {
		return nil, errors.InvalidParam("fraction to validate must lie in [0, 1]").
			WithDetailf("fraction=%g", input.FractionToValidate)
	}
	inputFile := input.InputFile
	if inputFile == "" {
		inputFile = input.Split.String() + "-" + input.Language.String() + "-masked.json"
	}

	raw, err := s.source.MaskedPairs(ctx, inputFile)
	if err != nil {
		return nil, err
	}
	pairs := orderedPairs(raw)
	for i := range pairs {
		pairs[i].Q = postProcessQuestion(pairs[i].Q)
		pairs[i].A = postProcessAnswer(pairs[i].A)
	}

	partitions := partitionPairs(pairs, input.Split, input.FractionToValidate)

	result := &Result{Partitions: make(map[string]int, len(partitions))}
	for _, part := range partitionOrder(input.Split) {
		pairs := partitions[part]
		questions := make([]string, len(pairs))
		answers := make([]string, len(pairs))
		for i, pair := range pairs {
			questions[i] = pair.Q
			answers[i] = pair.A
		}
		questionFile := part + "-" + input.Language.String() + ".txt"
		answerFile := part + "-sparql.txt"
		if err := s.sink.SaveLines(ctx, questionFile, questions); err != nil {
			return nil, err
		}
		if err := s.sink.SaveLines(ctx, answerFile, answers); err != nil {
			return nil, err
		}
		result.Partitions[part] = len(pairs)
		result.Files = append(result.Files, questionFile, answerFile)
	}

	if s.uploader != nil {
		for _, name := range result.Files {
			if err := s.uploader.UploadFinalisedFile(ctx, name); err != nil {
				return nil, err
			}
			result.Uploaded++
		}
	}

	s.logger.Info("finalised dataset split",
		logging.String("split", input.Split.String()),
		logging.String("language", input.Language.String()),
		logging.Int("pairs", len(pairs)),
		logging.Strings("files", result.Files),
		logging.Int("uploaded", result.Uploaded))
	return result, nil
}

// orderedPairs flattens the masked pair map in lexicographic UID order, the
// order the pairs previously held on disk.
func orderedPairs(raw map[string]dataset.MaskedPair) []dataset.MaskedPair {
	uids := make([]string, 0, len(raw))
	for uid := range raw {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	pairs := make([]dataset.MaskedPair, len(uids))
	for i, uid := range uids {
		pairs[i] = raw[uid]
	}
	return pairs
}

// partitionPairs divides the pairs over the output partitions. The test
// split passes through unchanged; the train split gives the head of its
// pairs to the validate partition.
func partitionPairs(pairs []dataset.MaskedPair, split dataset.Split, fraction float64) map[string][]dataset.MaskedPair {
	if split == dataset.SplitTest {
		return map[string][]dataset.MaskedPair{"test": pairs}
	}
	n := int(math.Floor(float64(len(pairs)) * fraction))
	return map[string][]dataset.MaskedPair{
		"validate": pairs[:n],
		"train":    pairs[n:],
	}
}

// partitionOrder fixes the order partitions are written in.
func partitionOrder(split dataset.Split) []string {
	if split == dataset.SplitTest {
		return []string{"test"}
	}
	return []string{"train", "validate"}
}
