package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cses-oj/portal/internal/judge"
	"github.com/cses-oj/portal/internal/storage"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

// SubmissionLedger defines the ledger operations the services need.
// Submissions are append-only; UpdateVerdict is the only mutation.
type SubmissionLedger interface {
	Get(ctx context.Context, id int64) (types.Submission, error)
	Create(ctx context.Context, submission types.Submission) (types.Submission, error)
	ListByContest(ctx context.Context, contestID int) ([]types.Submission, error)
	ListByContestUser(ctx context.Context, contestID, userID int) ([]types.Submission, error)
	UpdateVerdict(ctx context.Context, id int64, verdict types.Verdict, score int) error
}

// SubmissionService encapsulates the submit/dispatch/record pipeline.
type SubmissionService struct {
	subs     SubmissionLedger
	contests ContestRepository
	gateway  judge.Gateway
	storage  *storage.Storage
	maxSize  int64
	log      *zap.Logger
}

func NewSubmissionService(
	subs SubmissionLedger,
	contests ContestRepository,
	gateway judge.Gateway,
	store *storage.Storage,
	maxSize int64,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		subs:     subs,
		contests: contests,
		gateway:  gateway,
		storage:  store,
		maxSize:  maxSize,
		log:      log,
	}
}

// Create records a new submission and hands it to the judge. The
// record is committed before dispatch: if the judge gateway is
// unreachable the submission stays PENDING until an administrator
// rejudges, and the contestant still gets their receipt.
func (s *SubmissionService) Create(ctx context.Context, contestID, taskID, userID int, language, sourceName string, source []byte) (types.Submission, error) {
	contest, err := s.contests.Get(ctx, contestID)
	if err != nil {
		return types.Submission{}, err
	}
	if !contest.Running(time.Now()) {
		return types.Submission{}, ErrContestNotRunning
	}

	task, err := s.contests.GetTask(ctx, taskID)
	if err != nil {
		return types.Submission{}, err
	}
	if task.ContestID != contestID {
		return types.Submission{}, store.ErrNotFound
	}

	if s.maxSize > 0 && int64(len(source)) > s.maxSize {
		return types.Submission{}, ErrSubmissionTooLarge
	}

	submission, err := s.subs.Create(ctx, types.Submission{
		ContestID:  contestID,
		TaskID:     taskID,
		UserID:     userID,
		Language:   language,
		Source:     string(source),
		SourceName: sourceName,
	})
	if err != nil {
		return types.Submission{}, err
	}

	if err := s.dispatch(ctx, submission, task); err != nil {
		s.log.Warn("judge dispatch failed, submission left pending",
			zap.Int64("submission_id", submission.ID),
			zap.Error(err),
		)
	}
	return submission, nil
}

// dispatch uploads the source artifact and enqueues the judge job.
func (s *SubmissionService) dispatch(ctx context.Context, sub types.Submission, task types.Task) error {
	key := storage.SourceKey(sub.ID)
	reader := bytes.NewReader([]byte(sub.Source))
	if err := s.storage.Put(ctx, key, reader, int64(len(sub.Source)), "text/plain"); err != nil {
		return fmt.Errorf("store source artifact: %w", err)
	}
	return s.gateway.Enqueue(ctx, judge.JobForSubmission(sub, task, key))
}

// RecordVerdict is the entry point the judge result consumer invokes.
// It applies one PENDING→terminal transition on a single record.
func (s *SubmissionService) RecordVerdict(ctx context.Context, submissionID int64, verdict types.Verdict, score int) error {
	if !verdict.Terminal() {
		return fmt.Errorf("verdict %s is not terminal", verdict)
	}
	return s.subs.UpdateVerdict(ctx, submissionID, verdict, score)
}

// Get returns one submission by id.
func (s *SubmissionService) Get(ctx context.Context, id int64) (types.Submission, error) {
	return s.subs.Get(ctx, id)
}

// ListForUser returns the requester's own submissions in a contest,
// newest first.
func (s *SubmissionService) ListForUser(ctx context.Context, contestID, userID int) ([]types.Submission, error) {
	return s.subs.ListByContestUser(ctx, contestID, userID)
}

// CanView reports whether a user may open a submission's detail view:
// the owner always, administrators always, anyone once the contest
// has ended.
func CanView(sub types.Submission, contest types.Contest, requester types.User, now time.Time) bool {
	if requester.IsAdmin() || sub.UserID == requester.ID {
		return true
	}
	return contest.Ended(now)
}
