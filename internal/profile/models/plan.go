package models

import (
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	pstrings "casefile/pkg/platform/strings"
)

// PlanStatus is the lifecycle state of a response plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusSubmitted PlanStatus = "submitted"
	PlanStatusApproved  PlanStatus = "approved"
)

// CanTransitionTo reports whether the lifecycle permits moving to target.
// The only legal path is draft → submitted → approved.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	switch s {
	case PlanStatusDraft:
		return target == PlanStatusSubmitted
	case PlanStatusSubmitted:
		return target == PlanStatusApproved
	}
	return false
}

// ParsePlanStatus validates a status read from storage or external input.
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(s) {
	case PlanStatusDraft, PlanStatusSubmitted, PlanStatusApproved:
		return PlanStatus(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown plan status %q", s)
}

// ResponsePlan is a crisis-response plan related to a profile. Plans have an
// independent lifecycle: they are managed elsewhere and mostly read here.
//
// Invariants:
//   - Status follows draft → submitted → approved, never backwards
//   - ApprovedAt is set exactly when Status is approved
type ResponsePlan struct {
	ID         id.PlanID
	ProfileID  id.ProfileID
	Status     PlanStatus
	Strategies []string
	ApprovedAt optional.Optional[time.Time]
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewResponsePlan creates a draft plan for a profile.
func NewResponsePlan(planID id.PlanID, profileID id.ProfileID, strategies []string, now time.Time) (*ResponsePlan, error) {
	if planID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan id cannot be nil")
	}
	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan must belong to a profile")
	}
	return &ResponsePlan{
		ID:         planID,
		ProfileID:  profileID,
		Status:     PlanStatusDraft,
		Strategies: pstrings.DedupeAndTrim(strategies),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsApproved reports whether the plan has completed its lifecycle.
func (p *ResponsePlan) IsApproved() bool {
	return p.Status == PlanStatusApproved
}

// ApprovedBefore reports whether the plan was approved strictly before t.
func (p *ResponsePlan) ApprovedBefore(t time.Time) bool {
	approvedAt, ok := p.ApprovedAt.Get()
	return p.IsApproved() && ok && approvedAt.Before(t)
}

// CanSubmit checks the draft → submitted transition.
func (p *ResponsePlan) CanSubmit() error {
	if !p.Status.CanTransitionTo(PlanStatusSubmitted) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot submit a %s plan", p.Status)
	}
	return nil
}

// ApplySubmit moves the plan to submitted. Call CanSubmit first.
func (p *ResponsePlan) ApplySubmit(now time.Time) {
	p.Status = PlanStatusSubmitted
	p.UpdatedAt = now
}

// Submit validates and applies the draft → submitted transition.
func (p *ResponsePlan) Submit(now time.Time) error {
	if err := p.CanSubmit(); err != nil {
		return err
	}
	p.ApplySubmit(now)
	return nil
}

// CanApprove checks the submitted → approved transition.
func (p *ResponsePlan) CanApprove() error {
	if !p.Status.CanTransitionTo(PlanStatusApproved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot approve a %s plan", p.Status)
	}
	return nil
}

// ApplyApprove moves the plan to approved and stamps the approval instant.
// Call CanApprove first.
func (p *ResponsePlan) ApplyApprove(now time.Time) {
	p.Status = PlanStatusApproved
	p.ApprovedAt = optional.Some(now)
	p.UpdatedAt = now
}

// Approve validates and applies the submitted → approved transition.
func (p *ResponsePlan) Approve(now time.Time) error {
	if err := p.CanApprove(); err != nil {
		return err
	}
	p.ApplyApprove(now)
	return nil
}
