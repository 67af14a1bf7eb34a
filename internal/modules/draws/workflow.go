package draws

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// The methods below mutate a draw in memory. Every one checks its
// precondition first and leaves the draw untouched when it fails.

func (d *DrawRequest) checkTransition(to Status) error {
	if !d.Status.CanTransitionTo(to) {
		return domain.NewInvalidTransition("draw", string(d.Status), string(to))
	}
	return nil
}

// Submit moves a draft to submitted
func (d *DrawRequest) Submit(now time.Time) error {
	if err := d.checkTransition(StatusSubmitted); err != nil {
		return err
	}
	d.Status = StatusSubmitted
	d.SubmittedAt = &now
	return nil
}

// StartReview moves a submitted draw under review
func (d *DrawRequest) StartReview(now time.Time) error {
	if err := d.checkTransition(StatusUnderReview); err != nil {
		return err
	}
	d.Status = StatusUnderReview
	d.ReviewStartedAt = &now
	return nil
}

// Approve records the approved amount, which must be positive and no more
// than the requested amount
func (d *DrawRequest) Approve(amount decimal.Decimal, now time.Time) error {
	if err := d.checkTransition(StatusApproved); err != nil {
		return err
	}
	if !amount.IsPositive() || amount.GreaterThan(d.RequestedAmount) {
		return fmt.Errorf("%w: approved amount %s must be in (0, %s]", domain.ErrInvalidAmount, amount, d.RequestedAmount)
	}
	d.Status = StatusApproved
	d.ApprovedAmount = &amount
	d.ApprovedAt = &now
	return nil
}

// Reject closes a draw under review. reason may be empty.
func (d *DrawRequest) Reject(reason string, now time.Time) error {
	if err := d.checkTransition(StatusRejected); err != nil {
		return err
	}
	d.Status = StatusRejected
	d.RejectedAt = &now
	if reason = strings.TrimSpace(reason); reason != "" {
		d.RejectionReason = &reason
	}
	return nil
}

// Fund releases an approved draw. The amount must be positive and no more
// than the approved amount, and every condition must be resolved.
func (d *DrawRequest) Fund(amount decimal.Decimal, now time.Time) error {
	if err := d.checkTransition(StatusFunded); err != nil {
		return err
	}
	if !amount.IsPositive() || d.ApprovedAmount == nil || amount.GreaterThan(*d.ApprovedAmount) {
		approved := decimal.Zero
		if d.ApprovedAmount != nil {
			approved = *d.ApprovedAmount
		}
		return fmt.Errorf("%w: funded amount %s must be in (0, %s]", domain.ErrInvalidAmount, amount, approved)
	}
	if outstanding := d.OutstandingConditions(); len(outstanding) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConditionsOutstanding, strings.Join(outstanding, ", "))
	}
	d.Status = StatusFunded
	d.FundedAmount = &amount
	d.FundedAt = &now
	return nil
}

// SatisfyCondition marks a pending condition satisfied
func (d *DrawRequest) SatisfyCondition(conditionID string, now time.Time) error {
	c, err := d.pendingCondition(conditionID, ConditionSatisfied)
	if err != nil {
		return err
	}
	c.Status = ConditionSatisfied
	c.SatisfiedAt = &now
	return nil
}

// WaiveCondition marks a pending condition waived with an optional note
func (d *DrawRequest) WaiveCondition(conditionID, note string, now time.Time) error {
	c, err := d.pendingCondition(conditionID, ConditionWaived)
	if err != nil {
		return err
	}
	c.Status = ConditionWaived
	c.WaivedAt = &now
	c.Notes = strings.TrimSpace(note)
	return nil
}

// pendingCondition finds a condition that may still move to target.
// Conditions of a funded or rejected draw are frozen.
func (d *DrawRequest) pendingCondition(conditionID string, target ConditionStatus) (*DrawCondition, error) {
	for i := range d.Conditions {
		c := &d.Conditions[i]
		if c.ConditionID != conditionID {
			continue
		}
		if c.Status.IsResolved() {
			return nil, domain.NewInvalidTransition("condition", string(c.Status), string(target))
		}
		if d.Status.IsTerminal() {
			return nil, domain.NewInvalidTransition("condition", fmt.Sprintf("%s (draw %s)", c.Status, d.Status), string(target))
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q on draw %s", domain.ErrConditionNotFound, conditionID, d.ID)
}
