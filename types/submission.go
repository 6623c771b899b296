package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Submission represents a contestant's submission to a task.
// Records are append-only: once dispatched for judging, everything
// except the verdict and score fields is immutable. The verdict
// transitions exactly once from PENDING to a terminal outcome per
// dispatch cycle; a rejudge starts a new cycle on the same record.
type Submission struct {
	// ID is the unique identifier of the submission.
	ID int64 `json:"id" db:"id"`

	// ContestID identifies the contest the submission was made in.
	ContestID int `json:"contest_id" db:"contest_id"`

	// TaskID identifies the task the submission is for.
	TaskID int `json:"task_id" db:"task_id"`

	// UserID identifies the contestant who made the submission.
	UserID int `json:"user_id" db:"user_id"`

	// Language is the identifier of the programming language used.
	Language string `json:"language" db:"language"`

	// Source is the submitted source code.
	Source string `json:"source,omitempty" db:"source"`

	// SourceName is the original filename of the uploaded source.
	SourceName string `json:"source_name" db:"source_name"`

	// Verdict is the current judging outcome.
	Verdict Verdict `json:"verdict" db:"verdict"`

	// Score is the score the judge awarded. Zero while pending.
	Score int `json:"score" db:"score"`

	// SubmittedAt is the timestamp the submission was made. Scoring
	// always uses this, never the time the verdict arrived.
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`

	// UpdatedAt is the timestamp of the last verdict update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ElapsedSeconds returns the whole seconds from the contest start
// to the moment this submission was made.
func (s Submission) ElapsedSeconds(contestStart time.Time) int64 {
	return int64(s.SubmittedAt.Sub(contestStart) / time.Second)
}

// Verdict represents the outcome of judging a submission.
type Verdict int

// Supported verdict values.
const (
	// VerdictPending indicates the submission has been handed to the
	// judge but no outcome has arrived yet.
	VerdictPending Verdict = iota

	// VerdictAccepted indicates the submission passed all test cases.
	VerdictAccepted

	// VerdictWrongAnswer indicates the submission produced incorrect output.
	VerdictWrongAnswer

	// VerdictTimeLimitExceeded indicates the submission exceeded the time limit.
	VerdictTimeLimitExceeded

	// VerdictMemoryLimitExceeded indicates the submission exceeded the memory limit.
	VerdictMemoryLimitExceeded

	// VerdictRuntimeError indicates a runtime error occurred during execution.
	VerdictRuntimeError

	// VerdictCompileError indicates the submission failed to compile.
	VerdictCompileError

	// VerdictSystemError indicates an internal judge failure.
	VerdictSystemError
)

// Terminal reports whether the verdict is a final judging outcome.
func (v Verdict) Terminal() bool {
	return v != VerdictPending
}

// String returns the compact string representation of the verdict
// used in API responses, judge messages and logs.
func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "PENDING"
	case VerdictAccepted:
		return "AC"
	case VerdictWrongAnswer:
		return "WA"
	case VerdictTimeLimitExceeded:
		return "TLE"
	case VerdictMemoryLimitExceeded:
		return "MLE"
	case VerdictRuntimeError:
		return "RE"
	case VerdictCompileError:
		return "CE"
	case VerdictSystemError:
		return "SE"
	default:
		return "UNKNOWN"
	}
}

// ParseVerdict converts the compact string form back into a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	for v := VerdictPending; v <= VerdictSystemError; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return VerdictPending, fmt.Errorf("unknown verdict %q", s)
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVerdict(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
