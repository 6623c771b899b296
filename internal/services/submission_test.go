package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cses-oj/portal/internal/storage"
	"github.com/cses-oj/portal/internal/store"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

func runningContest(id int) types.Contest {
	now := time.Now()
	return types.Contest{
		ID:        id,
		Name:      "live",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Mode:      types.ScoreModeIOI,
	}
}

func endedContest(id int) types.Contest {
	c := runningContest(id)
	c.StartTime = c.StartTime.Add(-24 * time.Hour)
	c.EndTime = c.EndTime.Add(-24 * time.Hour)
	return c
}

func newSubmissionService(
	contests *fakeContestRepo,
	ledger *fakeLedger,
	gateway *fakeGateway,
	backend *memoryBackend,
	maxSize int64,
) *SubmissionService {
	return NewSubmissionService(ledger, contests, gateway, storage.NewStorage(backend), maxSize, zap.NewNop())
}

func TestSubmissionCreateDispatches(t *testing.T) {
	contests := newFakeContestRepo()
	contests.contests[1] = runningContest(1)
	contests.tasks[3] = types.Task{ID: 3, ContestID: 1, Name: "task_a", TimeLimitMS: 2000, MaxScore: 100, Evaluator: "compare"}
	ledger := newFakeLedger()
	gateway := &fakeGateway{}
	backend := newMemoryBackend()
	svc := newSubmissionService(contests, ledger, gateway, backend, 1<<20)

	sub, err := svc.Create(context.Background(), 1, 3, 5, "cpp", "main.cpp", []byte("int main() {}"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.ID == 0 || sub.Verdict != types.VerdictPending || sub.Score != 0 {
		t.Errorf("submission = %+v", sub)
	}

	if len(gateway.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(gateway.jobs))
	}
	job := gateway.jobs[0]
	if job.SubmissionID != sub.ID || job.TaskID != 3 || job.TimeLimitMS != 2000 {
		t.Errorf("job = %+v", job)
	}
	if job.SourceKey != storage.SourceKey(sub.ID) {
		t.Errorf("source key = %s", job.SourceKey)
	}
	if got := string(backend.objects[job.SourceKey]); got != "int main() {}" {
		t.Errorf("stored source = %q", got)
	}
}

func TestSubmissionCreateRejectsClosedContest(t *testing.T) {
	contests := newFakeContestRepo()
	contests.contests[1] = endedContest(1)
	contests.tasks[3] = types.Task{ID: 3, ContestID: 1}
	svc := newSubmissionService(contests, newFakeLedger(), &fakeGateway{}, newMemoryBackend(), 0)

	_, err := svc.Create(context.Background(), 1, 3, 5, "cpp", "main.cpp", []byte("x"))
	if !errors.Is(err, ErrContestNotRunning) {
		t.Fatalf("err = %v, want ErrContestNotRunning", err)
	}
}

func TestSubmissionCreateRejectsForeignTask(t *testing.T) {
	contests := newFakeContestRepo()
	contests.contests[1] = runningContest(1)
	contests.tasks[3] = types.Task{ID: 3, ContestID: 2}
	svc := newSubmissionService(contests, newFakeLedger(), &fakeGateway{}, newMemoryBackend(), 0)

	_, err := svc.Create(context.Background(), 1, 3, 5, "cpp", "main.cpp", []byte("x"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmissionCreateRejectsOversizedSource(t *testing.T) {
	contests := newFakeContestRepo()
	contests.contests[1] = runningContest(1)
	contests.tasks[3] = types.Task{ID: 3, ContestID: 1}
	svc := newSubmissionService(contests, newFakeLedger(), &fakeGateway{}, newMemoryBackend(), 4)

	_, err := svc.Create(context.Background(), 1, 3, 5, "cpp", "main.cpp", []byte("too long"))
	if !errors.Is(err, ErrSubmissionTooLarge) {
		t.Fatalf("err = %v, want ErrSubmissionTooLarge", err)
	}
}

func TestSubmissionCreateSurvivesDispatchFailure(t *testing.T) {
	contests := newFakeContestRepo()
	contests.contests[1] = runningContest(1)
	contests.tasks[3] = types.Task{ID: 3, ContestID: 1}
	ledger := newFakeLedger()
	gateway := &fakeGateway{err: errors.New("broker down")}
	svc := newSubmissionService(contests, ledger, gateway, newMemoryBackend(), 0)

	sub, err := svc.Create(context.Background(), 1, 3, 5, "cpp", "main.cpp", []byte("x"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored, err := ledger.Get(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Verdict != types.VerdictPending {
		t.Errorf("verdict = %s, want PENDING", stored.Verdict)
	}
}

func TestRecordVerdict(t *testing.T) {
	ledger := newFakeLedger()
	sub, _ := ledger.Create(context.Background(), types.Submission{ContestID: 1, TaskID: 3, UserID: 5})
	svc := newSubmissionService(newFakeContestRepo(), ledger, &fakeGateway{}, newMemoryBackend(), 0)

	if err := svc.RecordVerdict(context.Background(), sub.ID, types.VerdictPending, 0); err == nil {
		t.Fatal("expected error for non-terminal verdict")
	}

	if err := svc.RecordVerdict(context.Background(), sub.ID, types.VerdictAccepted, 100); err != nil {
		t.Fatalf("RecordVerdict: %v", err)
	}
	stored, _ := ledger.Get(context.Background(), sub.ID)
	if stored.Verdict != types.VerdictAccepted || stored.Score != 100 {
		t.Errorf("submission = %+v", stored)
	}
}

func TestCanView(t *testing.T) {
	now := time.Now()
	live := runningContest(1)
	over := endedContest(1)
	owner := types.User{ID: 5, Role: types.RoleUser}
	other := types.User{ID: 6, Role: types.RoleUser}
	root := types.User{ID: 7, Role: types.RoleAdmin}
	sub := types.Submission{ID: 9, ContestID: 1, UserID: 5}

	tests := []struct {
		name      string
		contest   types.Contest
		requester types.User
		want      bool
	}{
		{"owner during contest", live, owner, true},
		{"admin during contest", live, root, true},
		{"stranger during contest", live, other, false},
		{"stranger after contest", over, other, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(sub, tt.contest, tt.requester, now); got != tt.want {
				t.Errorf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}
