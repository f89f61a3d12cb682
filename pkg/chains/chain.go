package chains

import (
	"time"
)

// ExecutionOrder selects the scheduling discipline for a chain.
type ExecutionOrder string

const (
	// Sequential runs steps strictly in ascending Order.
	Sequential ExecutionOrder = "sequential"

	// Parallel runs steps concurrently, constrained only by the
	// dependency graph implied by the data mappings.
	Parallel ExecutionOrder = "parallel"
)

// DataMapping is a directed edge describing how one step's output feeds
// another step's input. Endpoints reference step names, not ids.
type DataMapping struct {
	FromStep     StepName          `json:"from_step"`
	ToStep       StepName          `json:"to_step"`
	FieldMapping map[string]string `json:"field_mapping,omitempty"`
}

func (m *DataMapping) clone() DataMapping {
	out := *m
	out.FieldMapping = cloneStringMap(m.FieldMapping)
	return out
}

// Chain is an ordered or graph-structured composition of prompt and template
// steps.
type Chain struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     string    `json:"version" validate:"omitempty,chain_version"`

	Steps          []ChainStep    `json:"steps" validate:"omitempty,dive"`
	ExecutionOrder ExecutionOrder `json:"execution_order" validate:"required,oneof=sequential parallel"`
	DataMappings   []DataMapping  `json:"data_mappings,omitempty"`
}

// Clone returns a deep copy. Validation and execution operate on a snapshot
// so concurrent updates to the stored chain cannot be observed mid-operation.
func (c *Chain) Clone() *Chain {
	if c == nil {
		return nil
	}
	out := *c

	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Steps != nil {
		out.Steps = make([]ChainStep, len(c.Steps))
		for i := range c.Steps {
			out.Steps[i] = c.Steps[i].clone()
		}
	}
	if c.DataMappings != nil {
		out.DataMappings = make([]DataMapping, len(c.DataMappings))
		for i := range c.DataMappings {
			out.DataMappings[i] = c.DataMappings[i].clone()
		}
	}
	return &out
}

// StepByName returns the step with the given name, if present.
func (c *Chain) StepByName(name StepName) (*ChainStep, bool) {
	for i := range c.Steps {
		if c.Steps[i].Name == name {
			return &c.Steps[i], true
		}
	}
	return nil, false
}
