package service

import (
	"context"
	"errors"

	"casefile/internal/profile/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/requestcontext"
)

// Timeline write operations: response plans, visibility events, reviews.
// The models own the lifecycle rules; this layer loads, delegates, and
// persists.

// CreatePlan drafts a response plan for a profile.
func (s *Service) CreatePlan(ctx context.Context, profileID id.ProfileID, strategies []string) (*models.ResponsePlan, error) {
	plan, err := models.NewResponsePlan(id.NewPlanID(), profileID, strategies, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.timeline.CreatePlan(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create plan")
	}
	s.logChange(ctx, "response plan drafted",
		"profile_id", profileID.String(),
		"plan_id", plan.ID.String())
	return plan, nil
}

// SubmitPlan moves a draft plan to submitted.
func (s *Service) SubmitPlan(ctx context.Context, profileID id.ProfileID, planID id.PlanID) (*models.ResponsePlan, error) {
	plan, err := s.findPlan(ctx, profileID, planID)
	if err != nil {
		return nil, err
	}
	if err := plan.Submit(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.timeline.UpdatePlan(ctx, plan); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update plan")
	}
	s.logChange(ctx, "response plan submitted",
		"profile_id", profileID.String(),
		"plan_id", plan.ID.String())
	return plan, nil
}

// ApprovePlan moves a submitted plan to approved, stamping the approval
// instant that active-plan selection keys on.
func (s *Service) ApprovePlan(ctx context.Context, profileID id.ProfileID, planID id.PlanID) (*models.ResponsePlan, error) {
	plan, err := s.findPlan(ctx, profileID, planID)
	if err != nil {
		return nil, err
	}
	if err := plan.Approve(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.timeline.UpdatePlan(ctx, plan); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update plan")
	}
	s.logChange(ctx, "response plan approved",
		"profile_id", profileID.String(),
		"plan_id", plan.ID.String())
	return plan, nil
}

func (s *Service) findPlan(ctx context.Context, profileID id.ProfileID, planID id.PlanID) (*models.ResponsePlan, error) {
	plans, err := s.timeline.PlansForProfile(ctx, profileID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plans")
	}
	for i := range plans {
		if plans[i].ID == planID {
			return &plans[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "plan not found")
}

// OpenVisibility starts a visibility window. A window opened by a person
// carries the acting user from the request context and counts as manual;
// one opened by automation carries no actor.
func (s *Service) OpenVisibility(ctx context.Context, profileID id.ProfileID) (*models.Visibility, error) {
	v := &models.Visibility{
		ID:        id.NewVisibilityID(),
		ProfileID: profileID,
		CreatedBy: actorFrom(ctx),
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.timeline.CreateVisibility(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open visibility window")
	}
	s.logChange(ctx, "visibility window opened",
		"profile_id", profileID.String(),
		"visibility_id", v.ID.String())
	return v, nil
}

// CloseVisibility ends an open visibility window. Closing an already-closed
// window is a conflict, not a repeatable no-op: a second closer should learn
// someone else got there first.
func (s *Service) CloseVisibility(ctx context.Context, visibilityID id.VisibilityID) error {
	err := s.timeline.CloseVisibility(ctx, visibilityID, actorFrom(ctx), requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "visibility window not found")
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeConflict, "visibility window already closed")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close visibility window")
	}
	s.logChange(ctx, "visibility window closed",
		"visibility_id", visibilityID.String())
	return nil
}

// RecordReview appends a review event for a profile.
func (s *Service) RecordReview(ctx context.Context, profileID id.ProfileID, note string) (*models.Review, error) {
	r := &models.Review{
		ID:         id.NewReviewID(),
		ProfileID:  profileID,
		ReviewerID: actorFrom(ctx),
		Note:       note,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.timeline.CreateReview(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record review")
	}
	s.logChange(ctx, "profile reviewed",
		"profile_id", profileID.String(),
		"review_id", r.ID.String())
	return r, nil
}

func actorFrom(ctx context.Context) optional.Optional[id.ActorID] {
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		return optional.Some(actor)
	}
	return optional.None[id.ActorID]()
}

func (s *Service) logChange(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
