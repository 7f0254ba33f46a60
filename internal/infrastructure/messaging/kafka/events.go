package kafka

import "time"

// TopicMaskingOutcome carries one event per processed question of a masking
// run.
const TopicMaskingOutcome = "dataset.masking.outcome"

// MaskingOutcomeEvent reports how masking one question ended. Reason is
// empty for successfully masked questions.
type MaskingOutcomeEvent struct {
	RunID     string    `json:"run_id"`
	UID       string    `json:"uid"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
