package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cses-oj/portal/types"
)

// ContestRepository handles persistence for contests, their tasks and
// test cases. Contests are read-only after creation except for the
// timing fields.
type ContestRepository struct {
	db *sql.DB
}

func NewContestRepository(db *sql.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

// ImportedTask couples a task with the test cases created alongside it
// during archive ingestion.
type ImportedTask struct {
	Task  types.Task
	Cases []types.TestCase
}

func (r *ContestRepository) List(ctx context.Context) ([]types.Contest, error) {
	const query = `
		SELECT id, name, start_time, end_time, mode, penalty_seconds, created_at
		FROM contests
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []types.Contest
	for rows.Next() {
		var contest types.Contest
		if err := rows.Scan(
			&contest.ID,
			&contest.Name,
			&contest.StartTime,
			&contest.EndTime,
			&contest.Mode,
			&contest.PenaltySeconds,
			&contest.CreatedAt,
		); err != nil {
			return nil, err
		}
		contests = append(contests, contest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contests, nil
}

func (r *ContestRepository) Get(ctx context.Context, id int) (types.Contest, error) {
	const query = `
		SELECT id, name, start_time, end_time, mode, penalty_seconds, created_at
		FROM contests
		WHERE id = $1`
	var contest types.Contest
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contest.ID,
		&contest.Name,
		&contest.StartTime,
		&contest.EndTime,
		&contest.Mode,
		&contest.PenaltySeconds,
		&contest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contest{}, ErrNotFound
		}
		return types.Contest{}, err
	}

	const groupQuery = `
		SELECT group_id FROM contest_groups WHERE contest_id = $1 ORDER BY group_id`
	rows, err := r.db.QueryContext(ctx, groupQuery, id)
	if err != nil {
		return types.Contest{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var groupID int
		if err := rows.Scan(&groupID); err != nil {
			return types.Contest{}, err
		}
		contest.GroupIDs = append(contest.GroupIDs, groupID)
	}
	if err := rows.Err(); err != nil {
		return types.Contest{}, err
	}
	return contest, nil
}

// UpdateTiming reschedules a contest. Everything else about a contest
// is fixed at creation time.
func (r *ContestRepository) UpdateTiming(ctx context.Context, id int, start, end time.Time) error {
	const query = `UPDATE contests SET start_time = $1, end_time = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, start, end, id)
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

// ListTasks returns the contest's tasks in their fixed column order.
func (r *ContestRepository) ListTasks(ctx context.Context, contestID int) ([]types.Task, error) {
	const query = `
		SELECT id, contest_id, name, position, time_limit_ms, max_score, evaluator, created_at
		FROM tasks
		WHERE contest_id = $1
		ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		var task types.Task
		if err := rows.Scan(
			&task.ID,
			&task.ContestID,
			&task.Name,
			&task.Position,
			&task.TimeLimitMS,
			&task.MaxScore,
			&task.Evaluator,
			&task.CreatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *ContestRepository) GetTask(ctx context.Context, taskID int) (types.Task, error) {
	const query = `
		SELECT id, contest_id, name, position, time_limit_ms, max_score, evaluator, created_at
		FROM tasks
		WHERE id = $1`
	var task types.Task
	err := r.db.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID,
		&task.ContestID,
		&task.Name,
		&task.Position,
		&task.TimeLimitMS,
		&task.MaxScore,
		&task.Evaluator,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// ListTestCases returns a task's cases in evaluation order.
func (r *ContestRepository) ListTestCases(ctx context.Context, taskID int) ([]types.TestCase, error) {
	const query = `
		SELECT id, task_id, position, input, output
		FROM testcases
		WHERE task_id = $1
		ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []types.TestCase
	for rows.Next() {
		var tc types.TestCase
		if err := rows.Scan(&tc.ID, &tc.TaskID, &tc.Position, &tc.Input, &tc.Output); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// CreateImported persists a freshly ingested contest with its tasks
// and test cases in a single transaction, so a failed ingestion never
// leaves a half-configured contest behind.
func (r *ContestRepository) CreateImported(ctx context.Context, contest types.Contest, tasks []ImportedTask) (types.Contest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Contest{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	contest.CreatedAt = time.Now()

	const contestQuery = `
		INSERT INTO contests (name, start_time, end_time, mode, penalty_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		contestQuery,
		contest.Name,
		contest.StartTime,
		contest.EndTime,
		contest.Mode,
		contest.PenaltySeconds,
		contest.CreatedAt,
	).Scan(&contest.ID); err != nil {
		return types.Contest{}, err
	}

	const groupQuery = `INSERT INTO contest_groups (contest_id, group_id) VALUES ($1, $2)`
	for _, groupID := range contest.GroupIDs {
		if _, err := tx.ExecContext(ctx, groupQuery, contest.ID, groupID); err != nil {
			return types.Contest{}, err
		}
	}

	const taskQuery = `
		INSERT INTO tasks (contest_id, name, position, time_limit_ms, max_score, evaluator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	const caseQuery = `
		INSERT INTO testcases (task_id, position, input, output)
		VALUES ($1, $2, $3, $4)`
	for _, imported := range tasks {
		task := imported.Task
		task.ContestID = contest.ID
		task.CreatedAt = contest.CreatedAt
		if err := tx.QueryRowContext(
			ctx,
			taskQuery,
			task.ContestID,
			task.Name,
			task.Position,
			task.TimeLimitMS,
			task.MaxScore,
			task.Evaluator,
			task.CreatedAt,
		).Scan(&task.ID); err != nil {
			return types.Contest{}, err
		}
		for _, tc := range imported.Cases {
			if _, err := tx.ExecContext(ctx, caseQuery, task.ID, tc.Position, tc.Input, tc.Output); err != nil {
				return types.Contest{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Contest{}, err
	}
	return contest, nil
}

// SetGroups replaces the contest's eligible group set.
func (r *ContestRepository) SetGroups(ctx context.Context, contestID int, groupIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contest_groups WHERE contest_id = $1`, contestID); err != nil {
		return err
	}
	const query = `INSERT INTO contest_groups (contest_id, group_id) VALUES ($1, $2)`
	for _, groupID := range groupIDs {
		if _, err := tx.ExecContext(ctx, query, contestID, groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
