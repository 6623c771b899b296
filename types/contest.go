package types

import "time"

// ScoreMode selects the scoring regime a contest is ranked under.
type ScoreMode string

// Supported scoring regimes.
const (
	// ScoreModeICPC ranks by solved-task count with time penalties:
	// a task is either solved or not, and the first accepted
	// submission fixes the time credited for it.
	ScoreModeICPC ScoreMode = "ICPC"

	// ScoreModeIOI ranks by the sum of the best partial scores
	// attained per task.
	ScoreModeIOI ScoreMode = "IOI"
)

// Contest represents a single programming contest.
// Its task order and scoring regime are fixed at creation time;
// only the timing fields are expected to change afterwards.
type Contest struct {
	// ID is the unique identifier of the contest.
	ID int `json:"id" db:"id"`

	// Name is the human-readable name of the contest.
	Name string `json:"name" db:"name"`

	// StartTime is the moment the contest opens for submissions.
	StartTime time.Time `json:"start_time" db:"start_time"`

	// EndTime is the moment the contest closes. A contest imported
	// from an archive starts with StartTime == EndTime until an
	// administrator schedules it.
	EndTime time.Time `json:"end_time" db:"end_time"`

	// Mode is the scoring regime ("ICPC" or "IOI").
	Mode ScoreMode `json:"mode" db:"mode"`

	// PenaltySeconds is the per-wrong-attempt penalty applied to
	// solved tasks under the ICPC regime, in seconds.
	PenaltySeconds int64 `json:"penalty_seconds" db:"penalty_seconds"`

	// GroupIDs are the identifiers of the user groups eligible to
	// compete in this contest.
	GroupIDs []int `json:"group_ids" db:"group_ids"`

	// CreatedAt is the timestamp at which the contest was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Started reports whether the contest has started at the given time.
func (c Contest) Started(now time.Time) bool {
	return !now.Before(c.StartTime)
}

// Ended reports whether the contest has ended at the given time.
func (c Contest) Ended(now time.Time) bool {
	return now.After(c.EndTime)
}

// Running reports whether submissions are accepted at the given time.
func (c Contest) Running(now time.Time) bool {
	return c.Started(now) && !c.Ended(now)
}

// Group represents a named set of users that can be made eligible
// for contests as a whole.
type Group struct {
	// ID is the unique identifier of the group.
	ID int `json:"id" db:"id"`

	// Name is the human-readable name of the group.
	Name string `json:"name" db:"name"`
}
