// Package masking rewrites question/answer pairs by replacing entity and
// property label occurrences with stable mask tokens (Q0, Q1, ..., P0, ...).
//
// For every WikiData identifier attached to a question the consumer picks
// the candidate label best covered by a longest common substring against
// the question, verifies the chosen ranges do not overlap, assigns mask
// tokens in question order, and substitutes both the question text and the
// raw answer.  Each question either reaches MASKED or fails with a
// classified reason; one question's failure never affects another.
package masking

import (
	"sort"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// ---------------------------------------------------------------------------
// States and failure reasons
// ---------------------------------------------------------------------------

// State is the lifecycle position of one question inside the consumer.
type State string

const (
	StatePending          State = "PENDING"
	StateLabelsChosen     State = "LABELS_CHOSEN"
	StateCollisionCleared State = "COLLISION_CLEARED"
	StateMasked           State = "MASKED"
	StateFailed           State = "FAILED"
)

// FailureReason classifies why a question was excluded from the output.
type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonNoLabels        FailureReason = "NO_LABELS_FOR_SOME"
	ReasonThresholdNotMet FailureReason = "THRESHOLD_NOT_MET"
	ReasonCollision       FailureReason = "COLLISION"
	ReasonNoSeparator     FailureReason = "NO_USABLE_SEPARATOR"
	ReasonInvalidInput    FailureReason = "INVALID_INPUT"
	ReasonLogicError      FailureReason = "LOGIC_ERROR"
)

// reasonForError maps a classified error to the reporting reason recorded
// on the outcome and in metrics labels.
func reasonForError(err error) FailureReason {
	switch errors.GetCode(err) {
	case errors.ErrCodeMaskNoLabels:
		return ReasonNoLabels
	case errors.ErrCodeMaskBelowThreshold:
		return ReasonThresholdNotMet
	case errors.ErrCodeMaskCollision:
		return ReasonCollision
	case errors.ErrCodeLCSNoSeparator:
		return ReasonNoSeparator
	case errors.ErrCodeSequenceInvalidEncoding, errors.ErrCodeSequenceTooLarge,
		errors.ErrCodeLCSEmptyInput, errors.ErrCodeInvalidParam:
		return ReasonInvalidInput
	default:
		return ReasonLogicError
	}
}

// ---------------------------------------------------------------------------
// Data structures
// ---------------------------------------------------------------------------

// Input is one question to mask.  Labels maps each WikiData identifier
// (Q... entity or P... property) to its candidate labels in store order;
// the order decides ties between equally scoring labels.
type Input struct {
	UID      string
	Question string
	Answer   string
	Labels   map[string][]string
}

// Match is one accepted label match inside the question.  Start and End are
// 0-based inclusive code point indices into the unmasked question.
type Match struct {
	Identifier string  `json:"identifier"`
	Label      string  `json:"label"`
	Substring  string  `json:"substring"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Fraction   float64 `json:"fraction"`
	Mask       string  `json:"mask,omitempty"`
}

// Outcome is the terminal result for one question.  State is MASKED or
// FAILED; on failure Err carries the classified cause and Reason its
// reporting category.
type Outcome struct {
	UID            string        `json:"uid"`
	State          State         `json:"state"`
	Reason         FailureReason `json:"reason,omitempty"`
	Err            error         `json:"-"`
	MaskedQuestion string        `json:"masked_question,omitempty"`
	MaskedAnswer   string        `json:"masked_answer,omitempty"`
	Matches        []Match       `json:"matches,omitempty"`
}

// Failed reports whether the outcome is the FAILED terminal state.
func (o *Outcome) Failed() bool {
	return o.State == StateFailed
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds the tuneable parameters of the consumer.
type Config struct {
	// Threshold is the minimum accepted fraction of label code points
	// covered by the longest common substring, in [0, 1].  Zero accepts
	// any non-empty overlap.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// DefaultConfig returns the parameters used by the dataset pipeline unless
// configured otherwise.
func DefaultConfig() Config {
	return Config{Threshold: 0.0}
}

func (c Config) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.InvalidParam("threshold must lie in [0, 1]").
			WithDetailf("threshold=%g", c.Threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

// Metrics records operational telemetry for the consumer.
type Metrics interface {
	// RecordLCSInvocation counts one longest-common-substring extraction.
	RecordLCSInvocation()
	// RecordOutcome counts one terminal outcome by state and reason.
	RecordOutcome(state State, reason FailureReason)
}

type noopMetrics struct{}

func (noopMetrics) RecordLCSInvocation() {}

func (noopMetrics) RecordOutcome(State, FailureReason) {}

// ---------------------------------------------------------------------------
// Masker
// ---------------------------------------------------------------------------

// Masker converts question/answer pairs into their masked form.
type Masker interface {
	Mask(in *Input) *Outcome
}

type maskerImpl struct {
	cfg     Config
	logger  logging.Logger
	metrics Metrics
}

// New constructs a consumer with the given threshold configuration.  A nil
// logger or metrics sink is replaced by a no-op implementation.
func New(cfg Config, logger logging.Logger, metrics Metrics) (Masker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &maskerImpl{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// sortedIdentifiers returns the label map's keys in ascending order so that
// per-identifier processing and failure reporting are deterministic.
func sortedIdentifiers(labels map[string][]string) []string {
	ids := make([]string, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
