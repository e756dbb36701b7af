package strategy

import (
	"context"
	"encoding/json"
)

const (
	JOB_EXIT_CODE_SUCCESS         = 200
	JOB_EXIT_CODE_FAILED          = 500
	JOB_EXIT_CODE_SKIPPED         = 204
	JOB_EXIT_CODE_PARTIAL_SUCCESS = 206
)

type JobType string

const (
	JobTypePositionTrigger    JobType = "position_trigger"
	JobTypePriceAlert         JobType = "price_alert"
	JobTypeVolatilityScreener JobType = "volatility_screener"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypePositionTrigger, JobTypePriceAlert, JobTypeVolatilityScreener:
		return true
	}
	return false
}

type JobResult struct {
	ExitCode int32  `json:"exit_code"`
	Output   string `json:"output"`
}

// JobExecutionStrategy is one evaluation cycle of a background loop.
type JobExecutionStrategy interface {
	Execute(ctx context.Context) (JobResult, error)
	GetType() JobType
}

func skipped(reason string) JobResult {
	return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: reason}
}

func resultOf(exitCode int32, summary interface{}) JobResult {
	out, err := json.Marshal(summary)
	if err != nil {
		return JobResult{ExitCode: exitCode}
	}
	return JobResult{ExitCode: exitCode, Output: string(out)}
}
