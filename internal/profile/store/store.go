// Package store persists profiles, their owned collections, and the related
// timeline collections the derivation engine reads. Stores are pure I/O;
// lifecycle rules and derivations live in the models and the engine.
package store

import (
	"context"
	"time"

	"casefile/internal/profile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/optional"
)

// ProfileStore persists profiles and their owned alias and image
// collections. Deleting a profile cascades to both.
//
// FindByID hydrates aliases and images and returns the profile marked
// persisted and clean; linking the RMS mirror record is the service's job.
// Update never touches the analytics token column.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
	Delete(ctx context.Context, profileID id.ProfileID) error

	AddAlias(ctx context.Context, alias *models.Alias) error
	RemoveAlias(ctx context.Context, aliasID id.AliasID) error
	AddImage(ctx context.Context, image *models.Image) error
}

// TimelineStore reads and writes the related collections with independent
// lifecycles: response plans, visibility events, and reviews. Read methods
// honor a context transaction so one aggregation run sees one snapshot.
type TimelineStore interface {
	PlansForProfile(ctx context.Context, profileID id.ProfileID) ([]models.ResponsePlan, error)
	// ApprovedPlansBefore returns approved plans with ApprovedAt strictly
	// before t, ordered by ApprovedAt ascending.
	ApprovedPlansBefore(ctx context.Context, profileID id.ProfileID, t time.Time) ([]models.ResponsePlan, error)
	VisibilitiesForProfile(ctx context.Context, profileID id.ProfileID) ([]models.Visibility, error)
	ReviewsForProfile(ctx context.Context, profileID id.ProfileID) ([]models.Review, error)

	CreatePlan(ctx context.Context, plan *models.ResponsePlan) error
	UpdatePlan(ctx context.Context, plan *models.ResponsePlan) error
	CreateVisibility(ctx context.Context, v *models.Visibility) error
	// CloseVisibility ends an open visibility window, recording who closed
	// it when a person did.
	CloseVisibility(ctx context.Context, visibilityID id.VisibilityID, removedBy optional.Optional[id.ActorID], at time.Time) error
	CreateReview(ctx context.Context, r *models.Review) error
}
