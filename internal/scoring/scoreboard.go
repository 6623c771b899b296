// Package scoring computes contest standings from the full submission
// history. Nothing here mutates or caches state: every call recomputes
// from scratch so that rejudged verdicts are always reflected.
package scoring

import (
	"sort"
	"time"

	"github.com/cses-oj/portal/types"
)

// Cell is the scored state of one (task, competitor) pair. A nil Cell
// means the competitor has no representative submission on the task.
type Cell struct {
	// SubmissionID identifies the representative submission.
	SubmissionID int64 `json:"submission_id,omitempty"`

	// Score is the score credited for the task. Under ICPC this is 1
	// for a solved task; under IOI the best score attained.
	Score int `json:"score"`

	// Seconds is the whole seconds from contest start to the
	// representative submission.
	Seconds int64 `json:"seconds"`

	// Attempts is the number of submissions made on the task up to
	// and including the representative one. Meaningful under ICPC.
	Attempts int `json:"attempts"`
}

// Row is one ranked competitor on the scoreboard.
type Row struct {
	Rank     int     `json:"rank"`
	UserID   int     `json:"user_id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Time     int64   `json:"time"`
	Cells    []*Cell `json:"cells"`
}

// Board is a computed standings table. Column order follows the
// contest's fixed task order; rows are ranked 1..N.
type Board struct {
	ContestID        int             `json:"contest_id"`
	Mode             types.ScoreMode `json:"mode"`
	TaskNames        []string        `json:"task_names"`
	Rows             []Row           `json:"rows"`
	ShowLinks        bool            `json:"show_links"`
	RemainingSeconds int64           `json:"remaining_seconds"`
}

// Options controls scoreboard computation for one request.
type Options struct {
	// Requester is the user asking for the standings. Administrators
	// see everything; everyone else is subject to the visibility
	// rules below.
	Requester types.User

	// Now is the time of the request.
	Now time.Time

	// HideInactive omits competitors without a single submission in
	// the contest instead of rendering them as zero rows. A competitor
	// whose only submissions are unsolved attempts still counts as
	// active.
	HideInactive bool
}

// Compute builds the ranked standings table for a contest. users is
// the eligible competitor set (group members plus anyone with a
// submission in the contest); subs is the contest's full submission
// history in any order.
//
// Visibility: administrators are excluded from the board unless the
// requester is one. While an IOI contest is live, a non-administrator
// only sees their own row; ICPC boards are public even while live.
// Drill-down links are revealed only to administrators or once the
// contest has ended.
func Compute(contest types.Contest, tasks []types.Task, users []types.User, subs []types.Submission, opts Options) Board {
	ended := contest.Ended(opts.Now)
	admin := opts.Requester.IsAdmin()

	competitors := make([]types.User, 0, len(users))
	for _, u := range users {
		if u.IsAdmin() && !admin {
			continue
		}
		if contest.Mode == types.ScoreModeIOI && !ended && !admin && u.ID != opts.Requester.ID {
			continue
		}
		competitors = append(competitors, u)
	}

	cells := representativeCells(contest, subs)

	submitted := make(map[int]bool, len(subs))
	for _, s := range subs {
		submitted[s.UserID] = true
	}

	rows := make([]Row, 0, len(competitors))
	for _, u := range competitors {
		if opts.HideInactive && !submitted[u.ID] {
			continue
		}
		row := Row{
			UserID:   u.ID,
			Username: u.Username,
			Name:     u.DisplayName(),
			Cells:    make([]*Cell, len(tasks)),
		}
		for i, task := range tasks {
			cell := cells[cellKey{taskID: task.ID, userID: u.ID}]
			row.Cells[i] = cell
			if cell == nil {
				continue
			}
			row.Score += cell.Score
			if cell.Score != 0 {
				row.Time += cell.Seconds
				if contest.Mode == types.ScoreModeICPC {
					row.Time += contest.PenaltySeconds * int64(cell.Attempts-1)
				}
			}
		}
		rows = append(rows, row)
	}

	// Strict total order even under full ties: username is unique.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if rows[i].Time != rows[j].Time {
			return rows[i].Time < rows[j].Time
		}
		return rows[i].Username < rows[j].Username
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	taskNames := make([]string, len(tasks))
	for i, task := range tasks {
		taskNames[i] = task.Name
	}

	var remaining int64
	if !ended {
		remaining = int64(contest.EndTime.Sub(opts.Now) / time.Second)
	}

	return Board{
		ContestID:        contest.ID,
		Mode:             contest.Mode,
		TaskNames:        taskNames,
		Rows:             rows,
		ShowLinks:        admin || ended,
		RemainingSeconds: remaining,
	}
}

// Representatives returns the current representative submission of
// every (task, competitor) cell that has one, under the contest's
// regime. The rejudge path snapshots this set before dispatching.
func Representatives(contest types.Contest, subs []types.Submission) []types.Submission {
	byID := make(map[int64]types.Submission, len(subs))
	for _, s := range subs {
		byID[s.ID] = s
	}

	cells := representativeCells(contest, subs)
	keys := make([]cellKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].taskID != keys[j].taskID {
			return keys[i].taskID < keys[j].taskID
		}
		return keys[i].userID < keys[j].userID
	})

	reps := make([]types.Submission, 0, len(keys))
	for _, key := range keys {
		reps = append(reps, byID[cells[key].SubmissionID])
	}
	return reps
}

type cellKey struct {
	taskID int
	userID int
}

// representativeCells selects the representative submission per
// (task, user) pair from the full history. Selection is a pure
// function of the submissions' timestamps, verdicts and scores, so
// verdict arrival order never changes the outcome.
func representativeCells(contest types.Contest, subs []types.Submission) map[cellKey]*Cell {
	grouped := make(map[cellKey][]types.Submission)
	for _, s := range subs {
		key := cellKey{taskID: s.TaskID, userID: s.UserID}
		grouped[key] = append(grouped[key], s)
	}

	cells := make(map[cellKey]*Cell, len(grouped))
	for key, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].SubmittedAt.Equal(group[j].SubmittedAt) {
				return group[i].SubmittedAt.Before(group[j].SubmittedAt)
			}
			return group[i].ID < group[j].ID
		})

		var cell *Cell
		switch contest.Mode {
		case types.ScoreModeICPC:
			cell = selectFirstAccepted(contest.StartTime, group)
		default:
			cell = selectBestScore(contest.StartTime, group)
		}
		if cell != nil {
			cells[key] = cell
		}
	}
	return cells
}

// selectFirstAccepted implements ICPC selection: the earliest
// submission judged fully correct, with every earlier submission
// (including still-pending ones) counted as an attempt.
func selectFirstAccepted(start time.Time, sorted []types.Submission) *Cell {
	for i, s := range sorted {
		if s.Verdict == types.VerdictAccepted {
			return &Cell{
				SubmissionID: s.ID,
				Score:        1,
				Seconds:      s.ElapsedSeconds(start),
				Attempts:     i + 1,
			}
		}
	}
	return nil
}

// selectBestScore implements IOI selection: the highest score among
// submissions with a terminal verdict, ties broken by earliest
// submission. Pending submissions never become representative.
func selectBestScore(start time.Time, sorted []types.Submission) *Cell {
	var best *Cell
	for i, s := range sorted {
		if !s.Verdict.Terminal() {
			continue
		}
		if best == nil || s.Score > best.Score {
			best = &Cell{
				SubmissionID: s.ID,
				Score:        s.Score,
				Seconds:      s.ElapsedSeconds(start),
				Attempts:     i + 1,
			}
		}
	}
	return best
}
