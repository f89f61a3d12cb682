package chains

import "time"

// ExecutionStatus is the aggregate outcome of a chain run.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
	StatusPartial ExecutionStatus = "partial"
)

// StepStatus is the outcome of a single step invocation.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
	StepSkipped StepStatus = "skipped"
)

// StepResult records one step's outcome within a chain run.
type StepResult struct {
	StepID   StepID     `json:"step_id"`
	StepName StepName   `json:"step_name"`
	Status   StepStatus `json:"status"`

	Output map[string]interface{} `json:"output,omitempty"`
	Err    string                 `json:"error,omitempty"`

	ExecutionTime time.Duration `json:"execution_time"`
}

// ExecutionResult aggregates a single chain run. It is immutable after
// construction and never persisted by the engine.
type ExecutionResult struct {
	ChainID     string          `json:"chain_id"`
	ExecutionID string          `json:"execution_id"`
	Status      ExecutionStatus `json:"status"`

	// Results holds the outputs of successful steps, keyed by step name.
	// Aggregation is commutative: parallel interleaving never changes it.
	Results map[string]interface{} `json:"results"`

	// StepResults lists every step's outcome in plan order.
	StepResults []StepResult `json:"step_results"`

	TotalTime time.Duration `json:"total_execution_time"`
	Err       string        `json:"error,omitempty"`
}

// Report is the outcome of chain validation. Warnings are advisory and never
// affect Valid.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
