// Package validate compares two masked question-answer files that should
// describe the same dataset split, for instance the outputs of two
// implementations of the masking task. The comparison is agnostic to mask
// numbering: a proposal that numbers its masks differently from the
// reference still validates as long as the masks align positionally.
package validate

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// PairSource loads a masked question-answer file.
type PairSource interface {
	MaskedPairs(ctx context.Context, name string) (map[string]dataset.MaskedPair, error)
}

// Service defines the validate-masking task.
type Service interface {
	Run(ctx context.Context, input *Input) (*Result, error)
}

// Input names the two masked files to compare.
type Input struct {
	// ProposalFile is the masked file that should be(come) valid.
	ProposalFile string
	// ReferenceFile is the masked file that serves as ground truth.
	ReferenceFile string
}

// Result reports the per-part difference counts. The proposal is valid only
// when both counts are zero.
type Result struct {
	Total         int  `json:"total"`
	QuestionDiffs int  `json:"question_diffs"`
	AnswerDiffs   int  `json:"answer_diffs"`
	Valid         bool `json:"valid"`
}

type serviceImpl struct {
	source PairSource
	logger logging.Logger
}

// NewService creates a validate-masking service.
func NewService(source PairSource, logger logging.Logger) (Service, error) {
	if source == nil {
		return nil, errors.InvalidParam("pair source must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{source: source, logger: logger}, nil
}

func (s *serviceImpl) Run(ctx context.Context, input *Input) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidParam("input must not be nil")
	}
	if input.ProposalFile == "" {
		return nil, errors.InvalidParam("proposal file must not be empty")
	}
	if input.ReferenceFile == "" {
		return nil, errors.InvalidParam("reference file must not be empty")
	}

	proposal, err := s.source.MaskedPairs(ctx, input.ProposalFile)
	if err != nil {
		return nil, err
	}
	reference, err := s.source.MaskedPairs(ctx, input.ReferenceFile)
	if err != nil {
		return nil, err
	}
	if err := sameUIDs(proposal, reference); err != nil {
		return nil, err
	}

	result := &Result{Total: len(reference)}
	for _, uid := range sortedUIDs(reference) {
		prp := proposal[uid]
		ref := reference[uid]
		if !alignedMasks(prp.Q, ref.Q) {
			result.QuestionDiffs++
			s.logger.Warn("masked question differs from reference",
				logging.String("uid", uid),
				logging.String("proposal", prp.Q),
				logging.String("reference", ref.Q))
		}
		if !alignedMasks(prp.A, ref.A) {
			result.AnswerDiffs++
			s.logger.Warn("masked answer differs from reference",
				logging.String("uid", uid),
				logging.String("proposal", prp.A),
				logging.String("reference", ref.A))
		}
	}
	result.Valid = result.QuestionDiffs == 0 && result.AnswerDiffs == 0

	s.logger.Info("validated masked pairs against reference",
		logging.String("proposal", input.ProposalFile),
		logging.String("reference", input.ReferenceFile),
		logging.Int("total", result.Total),
		logging.Int("question_diffs", result.QuestionDiffs),
		logging.Int("answer_diffs", result.AnswerDiffs),
		logging.Bool("valid", result.Valid))
	return result, nil
}

// sameUIDs checks that both files describe exactly the same questions.
func sameUIDs(proposal, reference map[string]dataset.MaskedPair) error {
	var onlyProposal, onlyReference []string
	for uid := range proposal {
		if _, ok := reference[uid]; !ok {
			onlyProposal = append(onlyProposal, uid)
		}
	}
	for uid := range reference {
		if _, ok := proposal[uid]; !ok {
			onlyReference = append(onlyReference, uid)
		}
	}
	if len(onlyProposal) == 0 && len(onlyReference) == 0 {
		return nil
	}
	sort.Strings(onlyProposal)
	sort.Strings(onlyReference)
	return errors.New(errors.ErrCodeValidationMissingPair, "proposal and reference describe different questions").
		WithDetailf("only_in_proposal=%v only_in_reference=%v", onlyProposal, onlyReference)
}

// sortedUIDs orders UIDs numerically where possible so that validation logs
// follow the original question order.
func sortedUIDs(m map[string]dataset.MaskedPair) []string {
	uids := make([]string, 0, len(m))
	for uid := range m {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool {
		a, errA := strconv.Atoi(uids[i])
		b, errB := strconv.Atoi(uids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return uids[i] < uids[j]
	})
	return uids
}

var (
	maskTokenRe     = regexp.MustCompile(`[QP][0-9]+`)
	switchedTokenRe = regexp.MustCompile(`[RS][0-9]+`)
)

var (
	forwardSwitch  = map[byte]byte{'Q': 'S', 'P': 'R'}
	backwardSwitch = map[byte]byte{'S': 'Q', 'R': 'P'}
)

// alignedMasks reports whether the proposal and reference texts are equal up
// to mask numbering. The reference masks are mapped pairwise onto the
// proposal masks through the temporary S/R alphabet, so that already-replaced
// masks cannot be picked up again, and the texts are compared after mapping.
func alignedMasks(proposal, reference string) bool {
	prpMasks := maskTokenRe.FindAllString(proposal, -1)
	refMasks := maskTokenRe.FindAllString(reference, -1)
	if len(prpMasks) != len(refMasks) {
		return false
	}
	masks := make(map[string]string, len(refMasks))
	for i, mask := range refMasks {
		if _, ok := masks[mask]; ok {
			continue
		}
		masks[mask] = switchMask(prpMasks[i], forwardSwitch)
	}
	replaced := maskTokenRe.ReplaceAllStringFunc(reference, func(mask string) string {
		return masks[mask]
	})
	replaced = switchedTokenRe.ReplaceAllStringFunc(replaced, func(mask string) string {
		return switchMask(mask, backwardSwitch)
	})
	return proposal == replaced
}

func switchMask(mask string, table map[byte]byte) string {
	return string(table[mask[0]]) + mask[1:]
}
