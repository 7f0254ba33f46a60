package masking

import (
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/lcs"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/unicode_seq"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// Mask runs the five masking steps for one question: label selection,
// collision check, mask assignment, question substitution, answer
// substitution.  The returned outcome is terminal; classified failures are
// recorded on it rather than returned, so a batch caller can tally reasons
// and continue.
func (m *maskerImpl) Mask(in *Input) *Outcome {
	out := &Outcome{UID: in.UID, State: StatePending}
	if in.Question == "" {
		return m.fail(out, errors.InvalidParam("question must not be empty").
			WithDetailf("uid=%s", in.UID))
	}
	question, err := unicode_seq.New(in.Question)
	if err != nil {
		return m.fail(out, err)
	}

	// Step 1: choose the best-covered label per identifier.
	matches := make([]Match, 0, len(in.Labels))
	for _, id := range sortedIdentifiers(in.Labels) {
		match, err := m.selectLabel(question, in.Question, id, in.Labels[id])
		if err != nil {
			return m.fail(out, err)
		}
		matches = append(matches, match)
	}
	out.State = StateLabelsChosen

	// Step 2: chosen ranges must not overlap.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End < matches[j].End
	})
	if err := checkCollisions(matches); err != nil {
		return m.fail(out, err)
	}
	out.State = StateCollisionCleared

	// Step 3: allocate mask tokens in question order.
	masks, err := assignMasks(matches)
	if err != nil {
		return m.fail(out, err)
	}

	// Steps 4 and 5: substitute question and answer.
	out.MaskedQuestion = substituteQuestion(question, matches)
	out.MaskedAnswer, err = substituteAnswer(in.Answer, masks, in.Labels)
	if err != nil {
		return m.fail(out, err)
	}

	out.State = StateMasked
	out.Matches = matches
	m.metrics.RecordOutcome(out.State, ReasonNone)
	m.logger.Debug("question masked",
		logging.String("uid", in.UID),
		logging.Int("matches", len(matches)),
	)
	return out
}

func (m *maskerImpl) fail(out *Outcome, err error) *Outcome {
	out.State = StateFailed
	out.Reason = reasonForError(err)
	out.Err = err
	m.metrics.RecordOutcome(out.State, out.Reason)
	m.logger.Debug("question failed",
		logging.String("uid", out.UID),
		logging.String("reason", string(out.Reason)),
		logging.Err(err),
	)
	return out
}

// selectLabel scores every candidate label of one identifier by the
// fraction of its code points covered by the longest common substring with
// the question.  The highest fraction wins; the earliest candidate wins
// ties.  The match range is the first occurrence of the winning substring
// inside the question.
func (m *maskerImpl) selectLabel(question *unicode_seq.Sequence, questionStr, id string, labels []string) (Match, error) {
	best := Match{Identifier: id, Fraction: -1}
	for _, label := range labels {
		if label == "" {
			continue
		}
		sub, found, err := lcs.Extract(questionStr, label)
		m.metrics.RecordLCSInvocation()
		if err != nil {
			return Match{}, err
		}
		if !found {
			continue
		}
		fraction := float64(utf8.RuneCountInString(sub)) / float64(utf8.RuneCountInString(label))
		if fraction > best.Fraction {
			best = Match{Identifier: id, Label: label, Substring: sub, Fraction: fraction}
		}
	}
	if best.Fraction < 0 {
		return Match{}, errors.New(errors.ErrCodeMaskNoLabels,
			"identifier has no label sharing a substring with the question").
			WithDetailf("identifier=%s candidates=%d", id, len(labels))
	}
	if best.Fraction < m.cfg.Threshold {
		return Match{}, errors.New(errors.ErrCodeMaskBelowThreshold,
			"best label fraction is below the acceptance threshold").
			WithDetailf("identifier=%s best=%g threshold=%g", id, best.Fraction, m.cfg.Threshold)
	}

	sub, err := unicode_seq.New(best.Substring)
	if err != nil {
		return Match{}, err
	}
	start := question.IndexOfSeq(sub)
	if start < 0 {
		return Match{}, errors.Internal("accepted substring does not occur in the question").
			WithDetailf("identifier=%s substring=%q", id, best.Substring)
	}
	best.Start = start
	best.End = start + sub.Len() - 1
	return best, nil
}

// checkCollisions scans position-sorted matches pairwise.  Inclusive ranges
// overlap when the earlier end reaches the later start.
func checkCollisions(matches []Match) error {
	for i := 1; i < len(matches); i++ {
		prev, next := matches[i-1], matches[i]
		if prev.End >= next.Start {
			return errors.New(errors.ErrCodeMaskCollision,
				"two chosen label ranges overlap within the question").
				WithDetailf("%s=[%d,%d] %s=[%d,%d]",
					prev.Identifier, prev.Start, prev.End,
					next.Identifier, next.Start, next.End)
		}
	}
	return nil
}

// assignMasks walks position-sorted matches and allocates Q0, Q1, ... to
// entity identifiers and P0, P1, ... to property identifiers, in question
// order.  Counters start at zero, so the leftmost entity always becomes Q0.
func assignMasks(matches []Match) (map[string]string, error) {
	masks := make(map[string]string, len(matches))
	qNext, pNext := 0, 0
	for i := range matches {
		id := matches[i].Identifier
		if _, done := masks[id]; done {
			matches[i].Mask = masks[id]
			continue
		}
		var mask string
		switch {
		case id != "" && id[0] == 'Q':
			mask = "Q" + strconv.Itoa(qNext)
			qNext++
		case id != "" && id[0] == 'P':
			mask = "P" + strconv.Itoa(pNext)
			pNext++
		default:
			return nil, errors.InvalidParam("identifier must start with Q or P").
				WithDetailf("identifier=%q", id)
		}
		masks[id] = mask
		matches[i].Mask = mask
	}
	return masks, nil
}
