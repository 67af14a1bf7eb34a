// Package submissions stores periodic financial submissions together with
// the covenant results evaluated from them.
package submissions

import (
	"strings"
	"time"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// PeriodType is the reporting cadence of a submission
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodAnnual    PeriodType = "annual"
)

// IsValid reports whether the period type is known
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodAnnual:
		return true
	}
	return false
}

// VerificationStatus tracks lender review of a submission
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusDisputed VerificationStatus = "disputed"
)

// CanVerify reports whether a submission in this status may be verified
func (s VerificationStatus) CanVerify() bool {
	return s == StatusPending || s == StatusDisputed
}

// CanDispute reports whether a submission in this status may be disputed
func (s VerificationStatus) CanDispute() bool {
	return s == StatusPending || s == StatusVerified
}

// FinancialSubmission is one period's reported financials for a deal
type FinancialSubmission struct {
	ID                      string                  `json:"id"`
	DealID                  string                  `json:"dealId"`
	Period                  string                  `json:"period"`
	PeriodType              PeriodType              `json:"periodType"`
	PeriodEndDate           time.Time               `json:"periodEndDate"`
	FinancialData           domain.Financials       `json:"financialData"`
	SubmittedBy             string                  `json:"submittedBy"`
	SubmittedAt             time.Time               `json:"submittedAt"`
	VerifiedBy              *string                 `json:"verifiedBy"`
	VerifiedAt              *time.Time              `json:"verifiedAt"`
	VerificationStatus      VerificationStatus      `json:"verificationStatus"`
	DisputeReason           *string                 `json:"disputeReason,omitempty"`
	CovenantResults         []domain.CovenantResult `json:"covenantResults"`
	BasketCapacities        []domain.BasketCapacity `json:"basketCapacities"`
	ComplianceCertificateID *string                 `json:"complianceCertificateId"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// OverallCompliant is the AND of every covenant's compliant flag.
// A submission without results is vacuously compliant.
func (s *FinancialSubmission) OverallCompliant() bool {
	for _, r := range s.CovenantResults {
		if !r.Compliant {
			return false
		}
	}
	return true
}

// CreateFinancialSubmissionInput is the payload for a new submission
type CreateFinancialSubmissionInput struct {
	DealID           string                  `json:"dealId"`
	Period           string                  `json:"period"`
	PeriodType       PeriodType              `json:"periodType"`
	PeriodEndDate    string                  `json:"periodEndDate"`
	FinancialData    domain.Financials       `json:"financialData"`
	SubmittedBy      string                  `json:"submittedBy"`
	BasketCapacities []domain.BasketCapacity `json:"basketCapacities,omitempty"`
}

// Validate checks required fields
func (in *CreateFinancialSubmissionInput) Validate() error {
	switch {
	case strings.TrimSpace(in.DealID) == "":
		return domain.ValidationError("dealId is required")
	case strings.TrimSpace(in.Period) == "":
		return domain.ValidationError("period is required")
	case !in.PeriodType.IsValid():
		return domain.ValidationError("periodType %q must be monthly, quarterly or annual", in.PeriodType)
	case strings.TrimSpace(in.SubmittedBy) == "":
		return domain.ValidationError("submittedBy is required")
	case len(in.FinancialData) == 0:
		return domain.ValidationError("financialData must contain at least one field")
	}
	return nil
}

// SubmissionPatch is an explicit partial update.
// Optional fields are absent or set; Nullable fields may also be cleared with null.
// Verification status is not patchable: use Verify and Dispute.
type SubmissionPatch struct {
	Period                  domain.Optional[string]                  `json:"period"`
	PeriodType              domain.Optional[PeriodType]              `json:"periodType"`
	PeriodEndDate           domain.Optional[string]                  `json:"periodEndDate"`
	FinancialData           domain.Optional[domain.Financials]       `json:"financialData"`
	BasketCapacities        domain.Optional[[]domain.BasketCapacity] `json:"basketCapacities"`
	ComplianceCertificateID domain.Nullable[string]                  `json:"complianceCertificateId"`
}

// ChangesFinancials reports whether covenant results must be re-evaluated
func (p SubmissionPatch) ChangesFinancials() bool {
	return p.FinancialData.Set
}
