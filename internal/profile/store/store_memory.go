package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"casefile/internal/profile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/optional"
	"casefile/pkg/platform/sentinel"
)

// MemoryProfileStore is the in-memory ProfileStore for tests and
// single-node development.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[id.ProfileID]*models.Profile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[id.ProfileID]*models.Profile)}
}

func (s *MemoryProfileStore) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s: %w", p.ID, sentinel.ErrConflict)
	}
	s.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (s *MemoryProfileStore) FindByID(_ context.Context, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", profileID, sentinel.ErrNotFound)
	}
	out := cloneProfile(p)
	out.MarkClean()
	return out, nil
}

func (s *MemoryProfileStore) Update(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[p.ID]
	if !ok {
		return fmt.Errorf("profile %s: %w", p.ID, sentinel.ErrNotFound)
	}
	updated := cloneProfile(p)
	// The analytics token is written once at creation and never updated.
	updated.AnalyticsToken = existing.AnalyticsToken
	updated.Aliases = existing.Aliases
	updated.Images = existing.Images
	s.profiles[p.ID] = updated
	return nil
}

func (s *MemoryProfileStore) Delete(_ context.Context, profileID id.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profileID]; !ok {
		return fmt.Errorf("profile %s: %w", profileID, sentinel.ErrNotFound)
	}
	delete(s.profiles, profileID)
	return nil
}

func (s *MemoryProfileStore) AddAlias(_ context.Context, alias *models.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[alias.ProfileID]
	if !ok {
		return fmt.Errorf("profile %s: %w", alias.ProfileID, sentinel.ErrNotFound)
	}
	p.Aliases = append(p.Aliases, *alias)
	return nil
}

func (s *MemoryProfileStore) RemoveAlias(_ context.Context, aliasID id.AliasID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		for i, a := range p.Aliases {
			if a.ID == aliasID {
				p.Aliases = append(p.Aliases[:i], p.Aliases[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("alias %s: %w", aliasID, sentinel.ErrNotFound)
}

func (s *MemoryProfileStore) AddImage(_ context.Context, image *models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[image.ProfileID]
	if !ok {
		return fmt.Errorf("profile %s: %w", image.ProfileID, sentinel.ErrNotFound)
	}
	p.Images = append(p.Images, *image)
	sort.SliceStable(p.Images, func(i, j int) bool { return p.Images[i].Position < p.Images[j].Position })
	return nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.Aliases = append([]models.Alias(nil), p.Aliases...)
	cp.Images = append([]models.Image(nil), p.Images...)
	return &cp
}

// MemoryTimelineStore is the in-memory TimelineStore. Each read copies under
// one lock acquisition, so a caller reading several collections back to back
// observes internally consistent state as long as nothing writes in between;
// tests arrange exactly that.
type MemoryTimelineStore struct {
	mu           sync.RWMutex
	plans        map[id.PlanID]*models.ResponsePlan
	visibilities map[id.VisibilityID]*models.Visibility
	reviews      map[id.ReviewID]*models.Review
}

// NewMemoryTimelineStore creates an empty in-memory timeline store.
func NewMemoryTimelineStore() *MemoryTimelineStore {
	return &MemoryTimelineStore{
		plans:        make(map[id.PlanID]*models.ResponsePlan),
		visibilities: make(map[id.VisibilityID]*models.Visibility),
		reviews:      make(map[id.ReviewID]*models.Review),
	}
}

func (s *MemoryTimelineStore) PlansForProfile(_ context.Context, profileID id.ProfileID) ([]models.ResponsePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ResponsePlan
	for _, p := range s.plans {
		if p.ProfileID == profileID {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryTimelineStore) ApprovedPlansBefore(_ context.Context, profileID id.ProfileID, t time.Time) ([]models.ResponsePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ResponsePlan
	for _, p := range s.plans {
		if p.ProfileID == profileID && p.ApprovedBefore(t) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, _ := out[i].ApprovedAt.Get()
		aj, _ := out[j].ApprovedAt.Get()
		return ai.Before(aj)
	})
	return out, nil
}

func (s *MemoryTimelineStore) VisibilitiesForProfile(_ context.Context, profileID id.ProfileID) ([]models.Visibility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Visibility
	for _, v := range s.visibilities {
		if v.ProfileID == profileID {
			out = append(out, *v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryTimelineStore) ReviewsForProfile(_ context.Context, profileID id.ProfileID) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Review
	for _, r := range s.reviews {
		if r.ProfileID == profileID {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryTimelineStore) CreatePlan(_ context.Context, plan *models.ResponsePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return fmt.Errorf("plan %s: %w", plan.ID, sentinel.ErrConflict)
	}
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *MemoryTimelineStore) UpdatePlan(_ context.Context, plan *models.ResponsePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return fmt.Errorf("plan %s: %w", plan.ID, sentinel.ErrNotFound)
	}
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *MemoryTimelineStore) CreateVisibility(_ context.Context, v *models.Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.visibilities[v.ID]; exists {
		return fmt.Errorf("visibility %s: %w", v.ID, sentinel.ErrConflict)
	}
	cp := *v
	s.visibilities[v.ID] = &cp
	return nil
}

func (s *MemoryTimelineStore) CloseVisibility(_ context.Context, visibilityID id.VisibilityID, removedBy optional.Optional[id.ActorID], at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visibilities[visibilityID]
	if !ok {
		return fmt.Errorf("visibility %s: %w", visibilityID, sentinel.ErrNotFound)
	}
	if v.RemovedAt.IsSet() {
		return fmt.Errorf("visibility %s already closed: %w", visibilityID, sentinel.ErrInvalidState)
	}
	v.RemovedAt = optional.Some(at)
	v.RemovedBy = removedBy
	return nil
}

func (s *MemoryTimelineStore) CreateReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[r.ID]; exists {
		return fmt.Errorf("review %s: %w", r.ID, sentinel.ErrConflict)
	}
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}
