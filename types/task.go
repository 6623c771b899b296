package types

import "time"

// Task represents a single problem inside a contest.
// Tasks are ordered within their contest; that order is fixed at
// creation time and determines scoreboard column order.
type Task struct {
	// ID is the unique identifier of the task.
	ID int `json:"id" db:"id"`

	// ContestID identifies the contest this task belongs to.
	ContestID int `json:"contest_id" db:"contest_id"`

	// Name is the human-readable name of the task.
	Name string `json:"name" db:"name"`

	// Position is the task's zero-based position within the contest.
	Position int `json:"position" db:"position"`

	// TimeLimitMS is the maximum allowed execution time per test case,
	// expressed in milliseconds.
	TimeLimitMS int64 `json:"time_limit_ms" db:"time_limit_ms"`

	// MaxScore is the maximum attainable score for the task.
	// Only meaningful under the IOI regime.
	MaxScore int `json:"max_score" db:"max_score"`

	// Evaluator references the comparator procedure the judge runs
	// to check a submission's output against the expected output.
	Evaluator string `json:"evaluator" db:"evaluator"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TestCase represents a single input/expected-output pair of a task.
// A submission is fully correct only if the judge scores it correct
// on every case of the task.
type TestCase struct {
	// ID is the unique identifier of the test case.
	ID int `json:"id" db:"id"`

	// TaskID identifies the task this case belongs to.
	TaskID int `json:"task_id" db:"task_id"`

	// Position is the case's zero-based position within the task.
	Position int `json:"position" db:"position"`

	// Input is the input data fed to the contestant's program.
	Input []byte `json:"input" db:"input"`

	// Output is the expected output of a correct solution.
	Output []byte `json:"output" db:"output"`
}
