// Package judge is the portal-side contract with the external judging
// subsystem. Jobs leave through a message broker and verdicts come
// back the same way; the portal never blocks on judge completion.
package judge

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cses-oj/portal/internal/mq"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

// Job is the payload handed to the judge for one evaluation cycle.
// The judge compiles and runs the referenced source against the
// task's test cases and publishes a Result when done.
type Job struct {
	SubmissionID int64  `json:"submission_id"`
	ContestID    int    `json:"contest_id"`
	TaskID       int    `json:"task_id"`
	Language     string `json:"language"`
	SourceKey    string `json:"source_key"`
	Evaluator    string `json:"evaluator"`
	TimeLimitMS  int64  `json:"time_limit_ms"`
	MaxScore     int    `json:"max_score"`
}

// Gateway enqueues submissions for asynchronous evaluation. Enqueue
// returns as soon as the job is handed to the broker; completion time
// and ordering are not guaranteed. If the broker is unreachable the
// submission simply stays PENDING until an administrator rejudges.
type Gateway interface {
	Enqueue(ctx context.Context, job Job) error
}

// MQGateway publishes judge jobs to a broker channel.
type MQGateway struct {
	mq      *mq.MQ
	channel string
	log     *zap.Logger
}

// NewMQGateway constructs a gateway publishing to the named channel.
func NewMQGateway(queue *mq.MQ, channel string, log *zap.Logger) *MQGateway {
	return &MQGateway{mq: queue, channel: channel, log: log}
}

// Enqueue publishes the job and returns without waiting for judging.
func (g *MQGateway) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	attrs := map[string]string{
		"submission_id": strconv.FormatInt(job.SubmissionID, 10),
	}
	msgID, err := g.mq.Publish(ctx, g.channel, data, attrs)
	if err != nil {
		return err
	}

	g.log.Info("submission dispatched",
		zap.Int64("submission_id", job.SubmissionID),
		zap.Int("task_id", job.TaskID),
		zap.String("message_id", msgID),
	)
	return nil
}

// JobForSubmission builds the judge job for a submission on its task.
func JobForSubmission(sub types.Submission, task types.Task, sourceKey string) Job {
	return Job{
		SubmissionID: sub.ID,
		ContestID:    sub.ContestID,
		TaskID:       task.ID,
		Language:     sub.Language,
		SourceKey:    sourceKey,
		Evaluator:    task.Evaluator,
		TimeLimitMS:  task.TimeLimitMS,
		MaxScore:     task.MaxScore,
	}
}
