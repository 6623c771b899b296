package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cses-oj/portal/types"
)

// SubmissionRepository is the append-only submission ledger. Records
// are never deleted; after creation only the verdict/score pair (and
// its update timestamp) ever changes, one row at a time, so
// concurrent judge callbacks for different submissions never contend.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, contest_id, task_id, user_id, language, source, source_name, verdict, score, submitted_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }) (types.Submission, error) {
	var s types.Submission
	err := row.Scan(
		&s.ID,
		&s.ContestID,
		&s.TaskID,
		&s.UserID,
		&s.Language,
		&s.Source,
		&s.SourceName,
		&s.Verdict,
		&s.Score,
		&s.SubmittedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *SubmissionRepository) Get(ctx context.Context, id int64) (types.Submission, error) {
	const query = `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE id = $1`
	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Submission{}, ErrNotFound
		}
		return types.Submission{}, err
	}
	return submission, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	now := time.Now()
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = now
	}
	submission.UpdatedAt = now
	submission.Verdict = types.VerdictPending
	submission.Score = 0

	const query = `
		INSERT INTO submissions (contest_id, task_id, user_id, language, source, source_name, verdict, score, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		submission.ContestID,
		submission.TaskID,
		submission.UserID,
		submission.Language,
		submission.Source,
		submission.SourceName,
		submission.Verdict,
		submission.Score,
		submission.SubmittedAt,
		submission.UpdatedAt,
	).Scan(&submission.ID); err != nil {
		return types.Submission{}, err
	}
	return submission, nil
}

// ListByContest returns the contest's full submission history ordered
// by submission time. The scoreboard recomputes from this on every
// request.
func (r *SubmissionRepository) ListByContest(ctx context.Context, contestID int) ([]types.Submission, error) {
	const query = `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE contest_id = $1
		ORDER BY submitted_at, id`
	return r.list(ctx, query, contestID)
}

// ListByContestUser returns one user's submissions in a contest,
// newest first.
func (r *SubmissionRepository) ListByContestUser(ctx context.Context, contestID, userID int) ([]types.Submission, error) {
	const query = `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE contest_id = $1 AND user_id = $2
		ORDER BY submitted_at DESC, id DESC`
	return r.list(ctx, query, contestID, userID)
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]types.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []types.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

// UpdateVerdict records a judging outcome on a single submission. It
// touches only the verdict/score fields of that one row.
func (r *SubmissionRepository) UpdateVerdict(ctx context.Context, id int64, verdict types.Verdict, score int) error {
	const query = `
		UPDATE submissions
		SET verdict = $1, score = $2, updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, verdict, score, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
