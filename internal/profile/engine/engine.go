// Package engine computes derived facts over one consistent snapshot of a
// profile and its related collections. An Engine is built per logical call,
// memoizes within its own lifetime only, and is not safe for concurrent use;
// callers needing fresh results build a new Engine.
package engine

import (
	"sort"
	"time"

	"casefile/internal/profile/models"
	"casefile/internal/rms"
	dErrors "casefile/pkg/domain-errors"
)

// Snapshot is the engine's input: the profile plus every related collection
// it derives from, read together so no derivation compares reads from
// different moments. Incidents come from the RMS mirror, a second snapshot
// domain; they are loaded once per Snapshot for the same reason.
type Snapshot struct {
	Profile      *models.Profile
	Plans        []models.ResponsePlan
	Visibilities []models.Visibility
	Reviews      []models.Review
	Incidents    []rms.CrisisIncident

	// Now is the instant every derivation is evaluated at.
	Now time.Time

	// ReviewPeriodMonths is required configuration for DueForReview. Zero
	// means unconfigured, which DueForReview reports as a config error.
	ReviewPeriodMonths int
}

// Engine derives composite facts from a Snapshot.
type Engine struct {
	snap Snapshot

	activePlanMemo     *models.ResponsePlan
	activePlanResolved bool

	recentMemo     []rms.CrisisIncident
	recentResolved bool
}

// New builds an engine over snap.
func New(snap Snapshot) (*Engine, error) {
	if snap.Profile == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "engine snapshot has no profile")
	}
	if snap.Now.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "engine snapshot has no evaluation instant")
	}
	return &Engine{snap: snap}, nil
}

// ActivePlanAt returns the approved plan with the greatest ApprovedAt
// strictly before t, or nil when none qualifies. Approval instants are
// effectively unique; should two plans ever tie, the higher plan ID wins so
// the result stays deterministic.
func (e *Engine) ActivePlanAt(t time.Time) *models.ResponsePlan {
	var best *models.ResponsePlan
	for i := range e.snap.Plans {
		p := &e.snap.Plans[i]
		if !p.ApprovedBefore(t) {
			continue
		}
		if best == nil || laterApproval(p, best) {
			best = p
		}
	}
	return best
}

func laterApproval(a, b *models.ResponsePlan) bool {
	at, _ := a.ApprovedAt.Get()
	bt, _ := b.ApprovedAt.Get()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.ID.String() > b.ID.String()
}

// ActivePlan returns ActivePlanAt(now), computed once per engine instance.
func (e *Engine) ActivePlan() *models.ResponsePlan {
	if !e.activePlanResolved {
		e.activePlanMemo = e.ActivePlanAt(e.snap.Now)
		e.activePlanResolved = true
	}
	return e.activePlanMemo
}

// HasNominalResponsePlan reports whether an active plan exists and carries
// at least one response strategy.
func (e *Engine) HasNominalResponsePlan() bool {
	plan := e.ActivePlan()
	return plan != nil && len(plan.Strategies) > 0
}

// LastReviewedOn returns the most recent instant the profile was looked at:
// the max of approved plans' approval times, active visibility events'
// creation times, review times, and the profile's own creation time. The
// creation time is the mandatory floor; a profile without one is a broken
// invariant, not a data case.
func (e *Engine) LastReviewedOn() (time.Time, error) {
	if e.snap.Profile.CreatedAt.IsZero() {
		return time.Time{}, dErrors.New(dErrors.CodeInvariantViolation, "profile has no creation time")
	}

	last := e.snap.Profile.CreatedAt
	for _, p := range e.snap.Plans {
		if approvedAt, ok := p.ApprovedAt.Get(); p.IsApproved() && ok && approvedAt.After(last) {
			last = approvedAt
		}
	}
	for _, v := range e.snap.Visibilities {
		if v.ActiveAt(e.snap.Now) && v.CreatedAt.After(last) {
			last = v.CreatedAt
		}
	}
	for _, r := range e.snap.Reviews {
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	return last, nil
}

// DueForReview reports whether the last review is strictly older than the
// configured review period. An unconfigured period is a configuration error,
// never a silent default.
func (e *Engine) DueForReview() (bool, error) {
	if e.snap.ReviewPeriodMonths <= 0 {
		return false, dErrors.New(dErrors.CodeInvalidConfig, "review period months is not configured")
	}
	last, err := e.LastReviewedOn()
	if err != nil {
		return false, err
	}
	cutoff := e.snap.Now.AddDate(0, -e.snap.ReviewPeriodMonths, 0)
	return last.Before(cutoff), nil
}

// IncidentsSince returns the snapshot's incidents with OccurredAt in
// [moment, now].
func (e *Engine) IncidentsSince(moment time.Time) []rms.CrisisIncident {
	var out []rms.CrisisIncident
	for _, inc := range e.snap.Incidents {
		if inc.OccurredAt.Before(moment) || inc.OccurredAt.After(e.snap.Now) {
			continue
		}
		out = append(out, inc)
	}
	return out
}

// RecentIncidents returns the last year of incidents, newest first, computed
// once per engine instance.
func (e *Engine) RecentIncidents() []rms.CrisisIncident {
	if !e.recentResolved {
		recent := e.IncidentsSince(e.snap.Now.AddDate(-1, 0, 0))
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].OccurredAt.After(recent[j].OccurredAt)
		})
		e.recentMemo = recent
		e.recentResolved = true
	}
	return e.recentMemo
}

// Veteran reports whether any crisis incident on record involved a veteran.
func (e *Engine) Veteran() bool {
	for _, inc := range e.snap.Incidents {
		if inc.VeteranInvolved {
			return true
		}
	}
	return false
}

// Visible reports whether any visibility event is currently active.
func (e *Engine) Visible() bool {
	for _, v := range e.snap.Visibilities {
		if v.ActiveAt(e.snap.Now) {
			return true
		}
	}
	return false
}

// VisibilityStatus renders the visibility state for display: "VISIBLE" or
// "HIDDEN", with "(manual)" when the most recently created event was touched
// by a person and "(auto)" otherwise. No events reads "HIDDEN (auto)".
func (e *Engine) VisibilityStatus() string {
	status := "HIDDEN"
	if e.Visible() {
		status = "VISIBLE"
	}

	reason := "(auto)"
	if latest := e.latestVisibility(); latest != nil && latest.Manual() {
		reason = "(manual)"
	}
	return status + " " + reason
}

func (e *Engine) latestVisibility() *models.Visibility {
	var latest *models.Visibility
	for i := range e.snap.Visibilities {
		v := &e.snap.Visibilities[i]
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	return latest
}
