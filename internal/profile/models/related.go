package models

import (
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
)

// Alias is an alternate name owned by a profile. Aliases live and die with
// their profile; the store cascades deletes.
type Alias struct {
	ID        id.AliasID
	ProfileID id.ProfileID
	Name      string
	CreatedAt time.Time
}

// NewAlias creates an alias after validating ownership and content.
func NewAlias(aliasID id.AliasID, profileID id.ProfileID, name string, now time.Time) (*Alias, error) {
	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "alias must belong to a profile")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "alias name cannot be empty")
	}
	return &Alias{ID: aliasID, ProfileID: profileID, Name: name, CreatedAt: now}, nil
}

// Image is a profile photograph owned by a profile, cascade-deleted with it.
// The image with the lowest position is the profile image.
type Image struct {
	ID        id.ImageID
	ProfileID id.ProfileID
	URL       string
	Position  int
	CreatedAt time.Time
}

// NewImage creates an image record after validating ownership and content.
func NewImage(imageID id.ImageID, profileID id.ProfileID, url string, position int, now time.Time) (*Image, error) {
	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "image must belong to a profile")
	}
	if url == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "image url cannot be empty")
	}
	return &Image{ID: imageID, ProfileID: profileID, URL: url, Position: position, CreatedAt: now}, nil
}

// Visibility is one visibility event for a profile: an activity window that
// opens at CreatedAt and closes at RemovedAt when set. Events created or
// removed by a person carry the actor; events driven by automation carry
// none.
type Visibility struct {
	ID        id.VisibilityID
	ProfileID id.ProfileID
	CreatedBy optional.Optional[id.ActorID]
	RemovedBy optional.Optional[id.ActorID]
	CreatedAt time.Time
	RemovedAt optional.Optional[time.Time]
}

// ActiveAt reports whether the event's window is open at t.
func (v Visibility) ActiveAt(t time.Time) bool {
	if v.CreatedAt.After(t) {
		return false
	}
	removedAt, removed := v.RemovedAt.Get()
	return !removed || removedAt.After(t)
}

// Manual reports whether a person, rather than automation, created or removed
// the event.
func (v Visibility) Manual() bool {
	return v.CreatedBy.IsSet() || v.RemovedBy.IsSet()
}

// Review is one profile-review event. Reviews only accrue; they are never
// edited.
type Review struct {
	ID         id.ReviewID
	ProfileID  id.ProfileID
	ReviewerID optional.Optional[id.ActorID]
	Note       string
	CreatedAt  time.Time
}
