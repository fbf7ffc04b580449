package valuation

import (
	"errors"
	"fmt"

	"stock-insight/models"
)

// ErrInvalidAssumption is the sentinel for configuration values that
// violate a model precondition, e.g. terminal growth at or above the
// discount rate. Matching it with errors.Is lets callers skip the
// model without failing the analysis.
var ErrInvalidAssumption = errors.New("invalid assumption")

// InvalidAssumptionError carries the model and detail of a violated
// precondition.
type InvalidAssumptionError struct {
	Model  models.ValuationModel
	Detail string
}

func (e *InvalidAssumptionError) Error() string {
	return fmt.Sprintf("invalid assumption for %s model: %s", e.Model, e.Detail)
}

func (e *InvalidAssumptionError) Is(target error) bool {
	return target == ErrInvalidAssumption
}
