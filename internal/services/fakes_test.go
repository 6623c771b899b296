package services

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/cses-oj/portal/internal/judge"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
)

type fakeContestRepo struct {
	contests map[int]types.Contest
	tasks    map[int]types.Task

	imported     []store.ImportedTask
	importedMeta types.Contest
	importErr    error
}

func newFakeContestRepo() *fakeContestRepo {
	return &fakeContestRepo{
		contests: make(map[int]types.Contest),
		tasks:    make(map[int]types.Task),
	}
}

func (r *fakeContestRepo) List(context.Context) ([]types.Contest, error) {
	var contests []types.Contest
	for _, c := range r.contests {
		contests = append(contests, c)
	}
	return contests, nil
}

func (r *fakeContestRepo) Get(_ context.Context, id int) (types.Contest, error) {
	contest, ok := r.contests[id]
	if !ok {
		return types.Contest{}, store.ErrNotFound
	}
	return contest, nil
}

func (r *fakeContestRepo) UpdateTiming(_ context.Context, id int, start, end time.Time) error {
	contest, ok := r.contests[id]
	if !ok {
		return store.ErrNotFound
	}
	contest.StartTime = start
	contest.EndTime = end
	r.contests[id] = contest
	return nil
}

func (r *fakeContestRepo) ListTasks(_ context.Context, contestID int) ([]types.Task, error) {
	var tasks []types.Task
	for _, task := range r.tasks {
		if task.ContestID == contestID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *fakeContestRepo) GetTask(_ context.Context, taskID int) (types.Task, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *fakeContestRepo) ListTestCases(context.Context, int) ([]types.TestCase, error) {
	return nil, nil
}

func (r *fakeContestRepo) CreateImported(_ context.Context, contest types.Contest, tasks []store.ImportedTask) (types.Contest, error) {
	if r.importErr != nil {
		return types.Contest{}, r.importErr
	}
	contest.ID = 42
	r.importedMeta = contest
	r.imported = tasks
	return contest, nil
}

type fakeLedger struct {
	nextID      int64
	submissions map[int64]types.Submission
	updateErr   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextID: 1, submissions: make(map[int64]types.Submission)}
}

func (l *fakeLedger) Get(_ context.Context, id int64) (types.Submission, error) {
	sub, ok := l.submissions[id]
	if !ok {
		return types.Submission{}, store.ErrNotFound
	}
	return sub, nil
}

func (l *fakeLedger) Create(_ context.Context, sub types.Submission) (types.Submission, error) {
	sub.ID = l.nextID
	l.nextID++
	sub.Verdict = types.VerdictPending
	sub.Score = 0
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	l.submissions[sub.ID] = sub
	return sub, nil
}

func (l *fakeLedger) ListByContest(_ context.Context, contestID int) ([]types.Submission, error) {
	var subs []types.Submission
	for _, sub := range l.submissions {
		if sub.ContestID == contestID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (l *fakeLedger) ListByContestUser(_ context.Context, contestID, userID int) ([]types.Submission, error) {
	var subs []types.Submission
	for _, sub := range l.submissions {
		if sub.ContestID == contestID && sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (l *fakeLedger) UpdateVerdict(_ context.Context, id int64, verdict types.Verdict, score int) error {
	if l.updateErr != nil {
		return l.updateErr
	}
	sub, ok := l.submissions[id]
	if !ok {
		return store.ErrNotFound
	}
	sub.Verdict = verdict
	sub.Score = score
	l.submissions[id] = sub
	return nil
}

type fakeGateway struct {
	jobs []judge.Job
	err  error
}

func (g *fakeGateway) Enqueue(_ context.Context, job judge.Job) error {
	if g.err != nil {
		return g.err
	}
	g.jobs = append(g.jobs, job)
	return nil
}

type memoryBackend struct {
	objects map[string][]byte
	putErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: make(map[string][]byte)}
}

func (b *memoryBackend) EnsureBucket(context.Context) error { return nil }

func (b *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *memoryBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBackend) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

func (b *memoryBackend) Bucket() string { return "test-bucket" }
