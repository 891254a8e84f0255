package analysis

import "errors"

// ErrInProgress rejects an analyze request for a session that already has a
// run in flight. It is a rejection, not a failure: the caller should wait for
// the current run to finish.
var ErrInProgress = errors.New("analysis in progress")

// Status is the per-session analysis state. A run moves strictly forward
// through the pipeline states; Complete and Failed are terminal.
type Status string

const (
	StatusPending      Status = "pending"
	StatusLoading      Status = "loading"
	StatusTranscribing Status = "transcribing"
	StatusClassifying  Status = "classifying"
	// StatusScoring covers the parallel scoring and summarizing branches;
	// both must resolve before building.
	StatusScoring  Status = "scoring_summarizing"
	StatusBuilding Status = "building"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}
