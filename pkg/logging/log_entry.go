package logging

// LogEntry represents a structured log record with fields relevant to chain
// validation and execution.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Chain-specific fields
	ChainID     string // The chain being validated or executed
	ExecutionID string // Identifies a single execution run

	// General structured data
	Fields map[string]interface{}
}
