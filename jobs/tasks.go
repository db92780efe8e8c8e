package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLotteryExpirySweep reverts expired pending lottery closes.
	TaskLotteryExpirySweep = "lottery:expiry_sweep"
)

// NewLotteryExpirySweepTask constructs the periodic sweep task. The
// sweep takes no parameters; it operates on every expired pending close.
func NewLotteryExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskLotteryExpirySweep, nil)
}
