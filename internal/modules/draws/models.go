// Package draws implements the construction-loan draw request workflow:
// draft -> submitted -> under_review -> approved -> funded, or rejected
// from review, with conditions precedent gating the release of funds.
package draws

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Status is the lifecycle state of a draw request
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFunded      Status = "funded"
)

// transitions lists the legal next states; terminal states have no entry
var transitions = map[Status][]Status{
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusFunded},
}

// CanTransitionTo reports whether next is a legal successor of s
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ConditionStatus is the state of one condition precedent
type ConditionStatus string

const (
	ConditionPending   ConditionStatus = "pending"
	ConditionSatisfied ConditionStatus = "satisfied"
	ConditionWaived    ConditionStatus = "waived"
)

// IsResolved reports whether the condition no longer blocks funding.
// Resolved conditions never change again.
func (c ConditionStatus) IsResolved() bool {
	return c == ConditionSatisfied || c == ConditionWaived
}

// DrawCondition is a condition precedent attached to a draw
type DrawCondition struct {
	ConditionID string          `json:"conditionId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Status      ConditionStatus `json:"status"`
	SatisfiedAt *time.Time      `json:"satisfiedAt"`
	WaivedAt    *time.Time      `json:"waivedAt,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// DrawRequest is a request to release loan proceeds.
// DrawNumber is unique and strictly increasing within a deal.
type DrawRequest struct {
	ID                    string           `json:"id"`
	DealID                string           `json:"dealId"`
	DrawNumber            int              `json:"drawNumber"`
	RequestedAmount       decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount        *decimal.Decimal `json:"approvedAmount"`
	FundedAmount          *decimal.Decimal `json:"fundedAmount"`
	Status                Status           `json:"status"`
	RequestedAt           time.Time        `json:"requestedAt"`
	SubmittedAt           *time.Time       `json:"submittedAt,omitempty"`
	ReviewStartedAt       *time.Time       `json:"reviewStartedAt,omitempty"`
	ApprovedAt            *time.Time       `json:"approvedAt"`
	RejectedAt            *time.Time       `json:"rejectedAt,omitempty"`
	RejectionReason       *string          `json:"rejectionReason,omitempty"`
	FundedAt              *time.Time       `json:"fundedAt"`
	Conditions            []DrawCondition  `json:"conditions"`
	SupportingDocumentIDs []string         `json:"supportingDocumentIds"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// OutstandingConditions returns the ids of conditions still pending
func (d *DrawRequest) OutstandingConditions() []string {
	ids := make([]string, 0)
	for _, c := range d.Conditions {
		if !c.Status.IsResolved() {
			ids = append(ids, c.ConditionID)
		}
	}
	return ids
}

// ConditionInput describes a condition attached at creation
type ConditionInput struct {
	ConditionID string `json:"conditionId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// CreateDrawRequestInput is the payload for a new draw.
// When Conditions is empty the draw is seeded from the condition templates.
type CreateDrawRequestInput struct {
	DealID                string           `json:"dealId"`
	RequestedAmount       decimal.Decimal  `json:"requestedAmount"`
	Conditions            []ConditionInput `json:"conditions"`
	SupportingDocumentIDs []string         `json:"supportingDocumentIds"`
}

// Validate checks required fields and condition id uniqueness
func (in CreateDrawRequestInput) Validate() error {
	if strings.TrimSpace(in.DealID) == "" {
		return domain.ValidationError("dealId is required")
	}
	if !in.RequestedAmount.IsPositive() {
		return domain.ValidationError("requestedAmount must be positive, got %s", in.RequestedAmount)
	}
	seen := make(map[string]bool, len(in.Conditions))
	for i, c := range in.Conditions {
		if strings.TrimSpace(c.ConditionID) == "" || strings.TrimSpace(c.Title) == "" {
			return domain.ValidationError("condition %d needs a conditionId and a title", i)
		}
		if seen[c.ConditionID] {
			return domain.ValidationError("duplicate conditionId %q", c.ConditionID)
		}
		seen[c.ConditionID] = true
	}
	return nil
}
