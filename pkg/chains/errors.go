package chains

import (
	"fmt"
	"strings"

	"github.com/lumen-oss/chainflow/pkg/errors"
)

var (
	// ErrChainNotFound indicates the referenced chain doesn't exist.
	ErrChainNotFound = errors.New(errors.ChainNotFound, "chain not found")

	// ErrMissingChainID indicates a caller omitted the chain id.
	ErrMissingChainID = errors.New(errors.InvalidInput, "chain id is required")

	// ErrNilChain indicates a caller passed a nil chain.
	ErrNilChain = errors.New(errors.InvalidInput, "chain must not be nil")
)

// ChainValidationError is returned when execution is requested for a chain
// that fails validation. Nothing has run when this error is returned.
type ChainValidationError struct {
	ChainID string
	Report  *Report
}

func (e *ChainValidationError) Error() string {
	return fmt.Sprintf("chain %s failed validation: %s",
		e.ChainID, strings.Join(e.Report.Errors, "; "))
}
