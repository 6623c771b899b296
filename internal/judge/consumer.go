package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cses-oj/portal/internal/mq"
	"github.com/cses-oj/portal/types"
	"go.uber.org/zap"
)

// Result is the judge's terminal outcome for one evaluation cycle.
type Result struct {
	SubmissionID int64  `json:"submission_id"`
	Verdict      string `json:"verdict"`
	Score        int    `json:"score"`
}

// VerdictRecorder is the record-verdict entry point the consumer
// invokes when a result arrives. It must touch only the verdict and
// score fields of the one submission.
type VerdictRecorder interface {
	RecordVerdict(ctx context.Context, submissionID int64, verdict types.Verdict, score int) error
}

// ResultConsumer subscribes to the judge results channel and feeds
// each outcome into the ledger. Results may arrive in any order
// relative to submission order; the scoreboard tolerates that.
type ResultConsumer struct {
	mq       *mq.MQ
	channel  string
	recorder VerdictRecorder
	log      *zap.Logger
}

// NewResultConsumer constructs a consumer for the named channel.
func NewResultConsumer(queue *mq.MQ, channel string, recorder VerdictRecorder, log *zap.Logger) *ResultConsumer {
	return &ResultConsumer{mq: queue, channel: channel, recorder: recorder, log: log}
}

// Run blocks consuming results until the context is cancelled or the
// broker subscription fails.
func (c *ResultConsumer) Run(ctx context.Context) error {
	return c.mq.Subscribe(ctx, c.channel, c.handle)
}

func (c *ResultConsumer) handle(ctx context.Context, msg mq.Message) error {
	result, err := decodeResult(msg.Data)
	if err != nil {
		// Malformed results are dropped, not requeued: redelivery
		// would fail the same way forever.
		c.log.Warn("dropping malformed judge result",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	verdict, err := types.ParseVerdict(result.Verdict)
	if err != nil || !verdict.Terminal() {
		c.log.Warn("dropping judge result with invalid verdict",
			zap.Int64("submission_id", result.SubmissionID),
			zap.String("verdict", result.Verdict),
		)
		return nil
	}

	if err := c.recorder.RecordVerdict(ctx, result.SubmissionID, verdict, result.Score); err != nil {
		c.log.Error("failed to record verdict",
			zap.Int64("submission_id", result.SubmissionID),
			zap.Error(err),
		)
		return err
	}

	c.log.Info("verdict recorded",
		zap.Int64("submission_id", result.SubmissionID),
		zap.Stringer("verdict", verdict),
		zap.Int("score", result.Score),
	)
	return nil
}

func decodeResult(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, err
	}
	if result.SubmissionID <= 0 {
		return Result{}, fmt.Errorf("invalid submission id %d", result.SubmissionID)
	}
	return result, nil
}
