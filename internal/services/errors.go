package services

import "errors"

// ErrContestNotRunning is returned when a submission is made outside
// the contest's time window.
var ErrContestNotRunning = errors.New("contest is not running")

// ErrSubmissionTooLarge is returned when an uploaded source exceeds
// the configured size limit.
var ErrSubmissionTooLarge = errors.New("submission too large")
