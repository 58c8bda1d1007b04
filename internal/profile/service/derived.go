package service

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"casefile/internal/profile/cache"
	"casefile/internal/profile/engine"
	"casefile/internal/profile/format"
	"casefile/internal/profile/models"
	"casefile/internal/rms"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// summaryConcurrency bounds the roster fan-out so a long list does not
// exhaust the store's connection pool.
const summaryConcurrency = 8

// Summary is the derived read model for one profile: resolved fields,
// display strings, and the composite timeline facts, all evaluated at one
// instant over one consistent snapshot.
type Summary struct {
	ProfileID   id.ProfileID        `json:"profile_id"`
	Resolved    models.ResolvedView `json:"resolved"`
	DisplayName string              `json:"display_name"`
	Shorthand   string              `json:"shorthand"`
	ImageURL    string              `json:"image_url"`

	AddressLineOne string `json:"address_line_one"`
	AddressLineTwo string `json:"address_line_two"`

	ActivePlan             *models.ResponsePlan `json:"active_plan,omitempty"`
	HasNominalResponsePlan bool                 `json:"has_nominal_response_plan"`
	LastReviewedOn         time.Time            `json:"last_reviewed_on"`
	DueForReview           bool                 `json:"due_for_review"`
	VisibilityStatus       string               `json:"visibility_status"`
	Veteran                bool                 `json:"veteran"`
	RecentIncidents        []rms.CrisisIncident `json:"recent_incidents,omitempty"`
}

// Summary assembles the derived read model for one profile. All reads run
// inside one snapshot; the resolved view and image URL read through the
// derived-value cache unless the profile is new or dirty.
func (s *Service) Summary(ctx context.Context, profileID id.ProfileID) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "profile.summary")
	span.SetAttributes(attribute.String("profile.id", profileID.String()))
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDerivation(time.Since(start))
		}
	}()

	var out *Summary
	err := s.snapshots.Snapshot(ctx, func(ctx context.Context) error {
		p, err := s.GetProfile(ctx, profileID)
		if err != nil {
			return err
		}
		eng, err := s.engineFor(ctx, p)
		if err != nil {
			return err
		}
		out, err = s.assembleSummary(ctx, p, eng)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Summaries assembles summaries for a roster of profiles concurrently. The
// first failure cancels the rest.
func (s *Service) Summaries(ctx context.Context, profileIDs []id.ProfileID) ([]*Summary, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	out := make([]*Summary, len(profileIDs))
	for i, profileID := range profileIDs {
		g.Go(func() error {
			summary, err := s.Summary(ctx, profileID)
			if err != nil {
				return err
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// engineFor loads every related collection the derivation engine needs and
// builds an engine evaluated at the request's instant. Incidents come from
// the whole mirror history: the veteran flag looks at everything on record,
// not just the recency window.
func (s *Service) engineFor(ctx context.Context, p *models.Profile) (*engine.Engine, error) {
	now := requestcontext.Now(ctx)

	plans, err := s.timeline.PlansForProfile(ctx, p.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plans")
	}
	visibilities, err := s.timeline.VisibilitiesForProfile(ctx, p.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visibility events")
	}
	reviews, err := s.timeline.ReviewsForProfile(ctx, p.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviews")
	}

	var incidents []rms.CrisisIncident
	if recordID, linked := p.RMSRecordID.Get(); linked && s.reader != nil {
		incidents, err = s.reader.IncidentsInRange(ctx, recordID, time.Time{}, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load incidents")
		}
	}

	return engine.New(engine.Snapshot{
		Profile:            p,
		Plans:              plans,
		Visibilities:       visibilities,
		Reviews:            reviews,
		Incidents:          incidents,
		Now:                now,
		ReviewPeriodMonths: s.settings.ReviewPeriodMonths,
	})
}

func (s *Service) assembleSummary(ctx context.Context, p *models.Profile, eng *engine.Engine) (*Summary, error) {
	view, err := s.resolvedView(ctx, p)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.imageURL(ctx, p)
	if err != nil {
		return nil, err
	}
	lastReviewed, err := eng.LastReviewedOn()
	if err != nil {
		return nil, err
	}
	due, err := eng.DueForReview()
	if err != nil {
		return nil, err
	}

	totalInches := view.HeightInches.UnwrapOr(0)
	address := view.LocationAddress.UnwrapOr("")
	return &Summary{
		ProfileID: p.ID,
		Resolved:  view,
		DisplayName: format.DisplayName(
			view.FirstName.UnwrapOr(""),
			view.MiddleName.UnwrapOr(""),
			view.LastName.UnwrapOr(""),
		),
		Shorthand: format.ShorthandDescription(
			view.Race.UnwrapOr(""),
			view.Sex.UnwrapOr(""),
			totalInches/12,
			totalInches%12,
			view.WeightPounds.UnwrapOr(0),
		),
		ImageURL:               imageURL,
		AddressLineOne:         format.AddressLineOne(address),
		AddressLineTwo:         format.AddressLineTwo(address),
		ActivePlan:             eng.ActivePlan(),
		HasNominalResponsePlan: eng.HasNominalResponsePlan(),
		LastReviewedOn:         lastReviewed,
		DueForReview:           due,
		VisibilityStatus:       eng.VisibilityStatus(),
		Veteran:                eng.Veteran(),
		RecentIncidents:        eng.RecentIncidents(),
	}, nil
}

// resolvedView reads the cached field resolution, computing it on miss.
func (s *Service) resolvedView(ctx context.Context, p *models.Profile) (models.ResolvedView, error) {
	payload, err := s.cachedDerived(ctx, p, cache.LabelResolved, func(context.Context) ([]byte, error) {
		return json.Marshal(p.ResolvedView())
	})
	if err != nil {
		return models.ResolvedView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive resolved view")
	}
	var view models.ResolvedView
	if err := json.Unmarshal(payload, &view); err != nil {
		return models.ResolvedView{}, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt cached resolved view")
	}
	return view, nil
}

// imageURL reads the cached profile image URL, computing it on miss.
func (s *Service) imageURL(ctx context.Context, p *models.Profile) (string, error) {
	payload, err := s.cachedDerived(ctx, p, cache.LabelImageURL, func(context.Context) ([]byte, error) {
		return json.Marshal(p.ImageURL(s.settings.DefaultImageURL))
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive image url")
	}
	var url string
	if err := json.Unmarshal(payload, &url); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "corrupt cached image url")
	}
	return url, nil
}

func (s *Service) cachedDerived(ctx context.Context, p *models.Profile, label string, compute cache.ComputeFunc) ([]byte, error) {
	if s.metrics != nil && (!p.IsPersisted() || p.IsDirty()) {
		s.metrics.CacheBypass.Inc()
	}
	return cache.ForProfile(ctx, s.cache, p, label, compute)
}
