package services

import (
	"context"
	"time"

	"github.com/cses-oj/portal/internal/scoring"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
)

// ContestRepository defines persistence operations for contests,
// tasks and test cases.
type ContestRepository interface {
	List(ctx context.Context) ([]types.Contest, error)
	Get(ctx context.Context, id int) (types.Contest, error)
	UpdateTiming(ctx context.Context, id int, start, end time.Time) error
	ListTasks(ctx context.Context, contestID int) ([]types.Task, error)
	GetTask(ctx context.Context, taskID int) (types.Task, error)
	ListTestCases(ctx context.Context, taskID int) ([]types.TestCase, error)
	CreateImported(ctx context.Context, contest types.Contest, tasks []store.ImportedTask) (types.Contest, error)
}

// EligibleUserLister answers the competitor-set query for a contest.
type EligibleUserLister interface {
	ListEligible(ctx context.Context, contestID int) ([]types.User, error)
}

// ContestService encapsulates contest and standings use-cases.
type ContestService struct {
	contests ContestRepository
	subs     SubmissionLedger
	users    EligibleUserLister
}

func NewContestService(contests ContestRepository, subs SubmissionLedger, users EligibleUserLister) *ContestService {
	return &ContestService{contests: contests, subs: subs, users: users}
}

func (s *ContestService) List(ctx context.Context) ([]types.Contest, error) {
	return s.contests.List(ctx)
}

func (s *ContestService) Get(ctx context.Context, id int) (types.Contest, error) {
	return s.contests.Get(ctx, id)
}

func (s *ContestService) ListTasks(ctx context.Context, contestID int) ([]types.Task, error) {
	return s.contests.ListTasks(ctx, contestID)
}

// Schedule sets the contest window. Imported contests start with a
// zero-length window and are scheduled here afterwards.
func (s *ContestService) Schedule(ctx context.Context, contestID int, start, end time.Time) error {
	return s.contests.UpdateTiming(ctx, contestID, start, end)
}

// Scoreboard recomputes the ranked standings table from the full
// submission history. There is no cached rank state anywhere: a
// rejudge that rewrites historical verdicts is reflected on the very
// next request.
func (s *ContestService) Scoreboard(ctx context.Context, contestID int, requester types.User, hideInactive bool) (scoring.Board, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return scoring.Board{}, err
	}
	tasks, err := s.contests.ListTasks(ctx, contestID)
	if err != nil {
		return scoring.Board{}, err
	}
	users, err := s.users.ListEligible(ctx, contestID)
	if err != nil {
		return scoring.Board{}, err
	}
	subs, err := s.subs.ListByContest(ctx, contestID)
	if err != nil {
		return scoring.Board{}, err
	}

	return scoring.Compute(contest, tasks, users, subs, scoring.Options{
		Requester:    requester,
		Now:          time.Now(),
		HideInactive: hideInactive,
	}), nil
}
