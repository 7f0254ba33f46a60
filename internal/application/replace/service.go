// Package replace provides the application service that cleans translated
// question files: machine translation leaves underscores and braces from
// SPARQL templates and HTML character entities in the question text, and
// both are replaced by the characters they stand for.
package replace

import (
	"context"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// QuestionSource loads a UID-to-question JSON map.
type QuestionSource interface {
	StringMap(ctx context.Context, name string) (map[string]string, error)
}

// QuestionSink persists a UID-to-question JSON map.
type QuestionSink interface {
	SaveStringMap(ctx context.Context, name string, m map[string]string) error
}

// Service defines the replace-symbols task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input names the file to clean and where to write the result.
type Input struct {
	LoadFileName string
	SaveFileName string
}

// Result reports what the replace task changed.
type Result struct {
	Questions int    `json:"questions"`
	Changed   int    `json:"changed"`
	Path      string `json:"path"`
}

type serviceImpl struct {
	source QuestionSource
	sink   QuestionSink
	logger logging.Logger
}

// NewService creates a replace service.
func NewService(source QuestionSource, sink QuestionSink, logger logging.Logger) (Service, error) {
	if source == nil {
		return nil, errors.InvalidParam("question source must not be nil")
	}
	if sink == nil {
		return nil, errors.InvalidParam("question sink must not be nil")
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
	if input.LoadFileName == "" {
		return nil, errors.InvalidParam("load file name is required")
	}
	if input.SaveFileName == "" {
		return nil, errors.InvalidParam("save file name is required")
	}

	questions, err := s.source.StringMap(ctx, input.LoadFileName)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(questions))
	changed := 0
	for uid, question := range questions {
		cleaned := decodeHTMLEntities(replaceSpecialSymbols(question))
		if cleaned != question {
			changed++
		}
		out[uid] = cleaned
	}

	if err := s.sink.SaveStringMap(ctx, input.SaveFileName, out); err != nil {
		return nil, err
	}

	result := &Result{Questions: len(out), Changed: changed, Path: input.SaveFileName}
	s.logger.Info("replaced special symbols",
		logging.String("load", input.LoadFileName),
		logging.String("save", input.SaveFileName),
		logging.Int("questions", result.Questions),
		logging.Int("changed", result.Changed))
	return result, nil
}
