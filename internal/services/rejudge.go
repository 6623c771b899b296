package services

import (
	"context"

	"github.com/cses-oj/portal/internal/judge"
	"github.com/cses-oj/portal/internal/scoring"
	"github.com/cses-oj/portal/internal/storage"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

// RejudgeService replays a contest's representative submissions
// through the judge gateway.
type RejudgeService struct {
	contests ContestRepository
	subs     SubmissionLedger
	gateway  judge.Gateway
	log      *zap.Logger
}

func NewRejudgeService(contests ContestRepository, subs SubmissionLedger, gateway judge.Gateway, log *zap.Logger) *RejudgeService {
	return &RejudgeService{contests: contests, subs: subs, gateway: gateway, log: log}
}

// RejudgeContest re-enqueues the current representative submission of
// every (task, competitor) cell that has one, plus every submission
// still PENDING, which is how a dispatch that never reached the
// broker gets recovered. The replay set is snapshotted from the
// ledger before any dispatch, so a result arriving mid-replay cannot
// change which submissions get replayed. No new records are created;
// each replay overwrites the record's verdict when the judge
// responds, and scoreboard reads in between may see a mix of old and
// new verdicts.
func (s *RejudgeService) RejudgeContest(ctx context.Context, contestID int) (int, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return 0, err
	}
	tasks, err := s.contests.ListTasks(ctx, contestID)
	if err != nil {
		return 0, err
	}
	subs, err := s.subs.ListByContest(ctx, contestID)
	if err != nil {
		return 0, err
	}

	tasksByID := make(map[int]types.Task, len(tasks))
	for _, task := range tasks {
		tasksByID[task.ID] = task
	}

	replay := scoring.Representatives(contest, subs)
	reps := len(replay)
	for _, s := range subs {
		if !s.Verdict.Terminal() {
			replay = append(replay, s)
		}
	}

	enqueued := 0
	for _, rep := range replay {
		task, ok := tasksByID[rep.TaskID]
		if !ok {
			continue
		}
		job := judge.JobForSubmission(rep, task, storage.SourceKey(rep.ID))
		if err := s.gateway.Enqueue(ctx, job); err != nil {
			s.log.Warn("rejudge dispatch failed",
				zap.Int64("submission_id", rep.ID),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	s.log.Info("contest rejudge dispatched",
		zap.Int("contest_id", contestID),
		zap.Int("representatives", reps),
		zap.Int("pending", len(replay)-reps),
		zap.Int("enqueued", enqueued),
	)
	return enqueued, nil
}
