// Package covenants stores per-deal covenant definitions and evaluates them
// against submitted financial data.
package covenants

import (
	"strings"
	"time"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Definition is one financial covenant of a deal expressed as a ratio of
// summed financial fields compared against a threshold.
// With no denominator fields the numerator sum is compared directly.
type Definition struct {
	ID                string          `json:"id"`
	DealID            string          `json:"dealId"`
	Name              string          `json:"name"`
	NumeratorFields   []string        `json:"numeratorFields"`
	DenominatorFields []string        `json:"denominatorFields"`
	Operator          domain.Operator `json:"operator"`
	Threshold         float64         `json:"threshold"`
	Suspended         bool            `json:"suspended"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Validate checks the fields every stored definition must carry
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.DealID) == "" {
		return domain.ValidationError("dealId is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return domain.ValidationError("name is required")
	}
	if !d.Operator.IsValid() {
		return domain.ValidationError("operator %q is not one of <=, <, >=, >, =, !=", d.Operator)
	}
	if len(d.NumeratorFields) == 0 {
		return domain.ValidationError("covenant %q needs at least one numerator field", d.Name)
	}
	return nil
}

// CreateDefinitionInput is the payload for a new covenant definition
type CreateDefinitionInput struct {
	DealID            string          `json:"dealId"`
	Name              string          `json:"name"`
	NumeratorFields   []string        `json:"numeratorFields"`
	DenominatorFields []string        `json:"denominatorFields"`
	Operator          domain.Operator `json:"operator"`
	Threshold         float64         `json:"threshold"`
	Suspended         bool            `json:"suspended"`
}

// DefinitionPatch updates only the fields that are present
type DefinitionPatch struct {
	Name              domain.Optional[string]          `json:"name"`
	NumeratorFields   domain.Optional[[]string]        `json:"numeratorFields"`
	DenominatorFields domain.Optional[[]string]        `json:"denominatorFields"`
	Operator          domain.Optional[domain.Operator] `json:"operator"`
	Threshold         domain.Optional[float64]         `json:"threshold"`
	Suspended         domain.Optional[bool]            `json:"suspended"`
}

// Apply merges the patch into d
func (p DefinitionPatch) Apply(d *Definition) {
	p.Name.Apply(&d.Name)
	p.NumeratorFields.Apply(&d.NumeratorFields)
	p.DenominatorFields.Apply(&d.DenominatorFields)
	p.Operator.Apply(&d.Operator)
	p.Threshold.Apply(&d.Threshold)
	p.Suspended.Apply(&d.Suspended)
}
