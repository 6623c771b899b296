package judge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cses-oj/portal/internal/mq"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

type fakeBackend struct {
	published []mq.Message
	pubErr    error
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.pubErr != nil {
		return "", f.pubErr
	}
	f.published = append(f.published, mq.Message{ID: channel, Data: data, Attributes: attrs})
	return "msg-1", nil
}

func (f *fakeBackend) Subscribe(context.Context, string, mq.Handler) error { return nil }
func (f *fakeBackend) Close() error                                        { return nil }

type fakeRecorder struct {
	calls []recordedVerdict
	err   error
}

type recordedVerdict struct {
	submissionID int64
	verdict      types.Verdict
	score        int
}

func (f *fakeRecorder) RecordVerdict(_ context.Context, id int64, verdict types.Verdict, score int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, recordedVerdict{submissionID: id, verdict: verdict, score: score})
	return nil
}

func TestMQGatewayEnqueue(t *testing.T) {
	backend := &fakeBackend{}
	gateway := NewMQGateway(mq.New(backend), "judge.jobs", zap.NewNop())

	job := JobForSubmission(
		types.Submission{ID: 7, ContestID: 1, TaskID: 3, Language: "cpp"},
		types.Task{ID: 3, TimeLimitMS: 2000, MaxScore: 100, Evaluator: "compare"},
		"submissions/7/source",
	)
	if err := gateway.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if len(backend.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(backend.published))
	}
	msg := backend.published[0]
	if msg.ID != "judge.jobs" {
		t.Errorf("channel = %s", msg.ID)
	}
	if msg.Attributes["submission_id"] != "7" {
		t.Errorf("attrs = %v", msg.Attributes)
	}

	var got Job
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != job {
		t.Errorf("payload = %+v, want %+v", got, job)
	}
	if got.SourceKey != "submissions/7/source" || got.TimeLimitMS != 2000 {
		t.Errorf("payload = %+v", got)
	}
}

func TestMQGatewayEnqueueError(t *testing.T) {
	backend := &fakeBackend{pubErr: errors.New("broker down")}
	gateway := NewMQGateway(mq.New(backend), "judge.jobs", zap.NewNop())

	if err := gateway.Enqueue(context.Background(), Job{SubmissionID: 1}); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestConsumerHandle(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantErr     bool
		wantRecords int
	}{
		{"accepted", `{"submission_id":5,"verdict":"AC","score":100}`, false, 1},
		{"wrong answer", `{"submission_id":6,"verdict":"WA","score":30}`, false, 1},
		{"malformed json", `{"submission_id":`, false, 0},
		{"missing id", `{"verdict":"AC","score":100}`, false, 0},
		{"unknown verdict", `{"submission_id":5,"verdict":"??","score":0}`, false, 0},
		{"pending verdict", `{"submission_id":5,"verdict":"PENDING","score":0}`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			consumer := NewResultConsumer(mq.New(&fakeBackend{}), "judge.results", recorder, zap.NewNop())

			err := consumer.handle(context.Background(), mq.Message{ID: "m1", Data: []byte(tt.payload)})
			if (err != nil) != tt.wantErr {
				t.Fatalf("handle error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(recorder.calls) != tt.wantRecords {
				t.Fatalf("recorded %d verdicts, want %d", len(recorder.calls), tt.wantRecords)
			}
		})
	}
}

func TestConsumerHandleRecorderFailure(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	consumer := NewResultConsumer(mq.New(&fakeBackend{}), "judge.results", recorder, zap.NewNop())

	err := consumer.handle(context.Background(), mq.Message{
		ID:   "m1",
		Data: []byte(`{"submission_id":5,"verdict":"AC","score":100}`),
	})
	if err == nil {
		t.Fatal("expected error so the broker redelivers")
	}
}

func TestConsumerHandleRecordsScore(t *testing.T) {
	recorder := &fakeRecorder{}
	consumer := NewResultConsumer(mq.New(&fakeBackend{}), "judge.results", recorder, zap.NewNop())

	if err := consumer.handle(context.Background(), mq.Message{
		ID:   "m1",
		Data: []byte(`{"submission_id":9,"verdict":"TLE","score":40}`),
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	call := recorder.calls[0]
	if call.submissionID != 9 || call.verdict != types.VerdictTimeLimitExceeded || call.score != 40 {
		t.Errorf("call = %+v", call)
	}
}
