// Package domain provides core domain models and types.
package domain

// Operator is the comparison a covenant applies between its actual and required values
type Operator string

const (
	OperatorLTE      Operator = "<="
	OperatorLT       Operator = "<"
	OperatorGTE      Operator = ">="
	OperatorGT       Operator = ">"
	OperatorEqual    Operator = "="
	OperatorNotEqual Operator = "!="
)

// IsValid reports whether the operator is one of the six known comparisons
func (o Operator) IsValid() bool {
	switch o {
	case OperatorLTE, OperatorLT, OperatorGTE, OperatorGT, OperatorEqual, OperatorNotEqual:
		return true
	}
	return false
}

// IsMaxType reports whether a lower actual value is better (<=, <).
// Leverage ratios are the typical max-type covenant.
func (o Operator) IsMaxType() bool {
	return o == OperatorLTE || o == OperatorLT
}

// IsMinType reports whether a higher actual value is better (>=, >).
// DSCR is the typical min-type covenant.
func (o Operator) IsMinType() bool {
	return o == OperatorGTE || o == OperatorGT
}

// IsDirectional reports whether the operator has a utilization direction
func (o Operator) IsDirectional() bool {
	return o.IsMaxType() || o.IsMinType()
}

// Compare reports whether actual satisfies the operator against required.
// Unknown operators never pass.
func (o Operator) Compare(actual, required float64) bool {
	switch o {
	case OperatorLTE:
		return actual <= required
	case OperatorLT:
		return actual < required
	case OperatorGTE:
		return actual >= required
	case OperatorGT:
		return actual > required
	case OperatorEqual:
		return actual == required
	case OperatorNotEqual:
		return actual != required
	}
	return false
}

// Financials maps financial field names (e.g. "SeniorDebt", "EBITDA") to values
type Financials map[string]float64

// Clone returns an independent copy of the map
func (f Financials) Clone() Financials {
	out := make(Financials, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// CovenantObservation is a single covenant's evaluated state fed to zone,
// alert and ranking logic. Name is unique within a deal.
// When Undefined is set Actual carries no information and the zone follows
// Compliant alone: breach unless Compliant is non-nil and true.
type CovenantObservation struct {
	Name      string   `json:"name" msgpack:"name"`
	Actual    float64  `json:"actual" msgpack:"actual"`
	Required  float64  `json:"required" msgpack:"required"`
	Operator  Operator `json:"operator" msgpack:"operator"`
	Suspended bool     `json:"suspended" msgpack:"suspended"`
	Headroom  *float64 `json:"headroom,omitempty" msgpack:"headroom,omitempty"`
	Undefined bool     `json:"undefined,omitempty" msgpack:"undefined,omitempty"`
	Compliant *bool    `json:"compliant,omitempty" msgpack:"compliant,omitempty"`
}

// CovenantResult is the output of a CovenantEvaluator for one covenant
type CovenantResult struct {
	Name      string   `json:"name" msgpack:"name"`
	Actual    float64  `json:"actual" msgpack:"actual"`
	Required  float64  `json:"required" msgpack:"required"`
	Operator  Operator `json:"operator" msgpack:"operator"`
	Compliant bool     `json:"compliant" msgpack:"compliant"`
	Headroom  float64  `json:"headroom" msgpack:"headroom"`
	Suspended bool     `json:"suspended,omitempty" msgpack:"suspended,omitempty"`
	// Undefined marks a ratio whose denominator summed to 0; Actual is then 0
	Undefined bool `json:"undefined,omitempty" msgpack:"undefined,omitempty"`
}

// Observation converts an evaluated result into an observation
func (r CovenantResult) Observation() CovenantObservation {
	headroom := r.Headroom
	compliant := r.Compliant
	return CovenantObservation{
		Name:      r.Name,
		Actual:    r.Actual,
		Required:  r.Required,
		Operator:  r.Operator,
		Suspended: r.Suspended,
		Headroom:  &headroom,
		Undefined: r.Undefined,
		Compliant: &compliant,
	}
}

// BasketCapacity tracks usage of a permitted-action basket (e.g. permitted investments)
type BasketCapacity struct {
	Name      string  `json:"name" msgpack:"name"`
	Capacity  float64 `json:"capacity" msgpack:"capacity"`
	Used      float64 `json:"used" msgpack:"used"`
	Available float64 `json:"available" msgpack:"available"`
}
