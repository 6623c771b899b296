package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cses-oj/portal/internal/archive"
	"github.com/cses-oj/portal/internal/storage"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

// Defaults applied to every imported task. Administrators tune them
// per task afterwards if needed.
const (
	defaultTimeLimitMS = 1000
	defaultMaxScore    = 100
	defaultEvaluator   = "compare"
)

// ImportService ingests an uploaded task archive into a new contest.
type ImportService struct {
	contests ContestRepository
	storage  *storage.Storage
	log      *zap.Logger
}

func NewImportService(contests ContestRepository, store *storage.Storage, log *zap.Logger) *ImportService {
	return &ImportService{contests: contests, storage: store, log: log}
}

// ImportArchive parses the archive and creates a contest with one
// task per distinct first path segment, in natural name order, plus
// the test cases paired by the out/ans→in filename rule. The contest
// is created in IOI mode with a zero-length window; scheduling is a
// separate administrative step. A malformed archive fails the import
// with nothing persisted; a missing input pair only skips that case.
func (s *ImportService) ImportArchive(ctx context.Context, name string, data []byte) (types.Contest, error) {
	plan, err := archive.Parse(data)
	if err != nil {
		return types.Contest{}, fmt.Errorf("import %q: %w", name, err)
	}

	for _, missing := range plan.Missing {
		s.log.Warn("no input pair for output file",
			zap.String("archive", name),
			zap.String("output", missing.Output),
			zap.String("expected_input", missing.Input),
		)
	}

	tasks := make([]store.ImportedTask, 0, len(plan.Tasks))
	for i, taskPlan := range plan.Tasks {
		imported := store.ImportedTask{
			Task: types.Task{
				Name:        name + "_" + taskPlan.Name,
				Position:    i,
				TimeLimitMS: defaultTimeLimitMS,
				MaxScore:    defaultMaxScore,
				Evaluator:   defaultEvaluator,
			},
		}
		for j, c := range taskPlan.Cases {
			imported.Cases = append(imported.Cases, types.TestCase{
				Position: j,
				Input:    c.Input,
				Output:   c.Output,
			})
		}
		tasks = append(tasks, imported)
	}

	now := time.Now()
	contest, err := s.contests.CreateImported(ctx, types.Contest{
		Name:      name,
		StartTime: now,
		EndTime:   now,
		Mode:      types.ScoreModeIOI,
	}, tasks)
	if err != nil {
		return types.Contest{}, fmt.Errorf("import %q: %w", name, err)
	}

	// Keep the original archive around for audits and re-imports.
	key := storage.ArchiveKey(contest.ID)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/zip"); err != nil {
		s.log.Warn("failed to store original archive",
			zap.Int("contest_id", contest.ID),
			zap.Error(err),
		)
	}

	s.log.Info("archive imported",
		zap.String("archive", name),
		zap.Int("contest_id", contest.ID),
		zap.Int("tasks", len(tasks)),
		zap.Int("missing_pairs", len(plan.Missing)),
	)
	return contest, nil
}
