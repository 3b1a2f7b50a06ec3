package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// Generator orchestrates availability lookup, scoring and transactional
// commit to fill a set of open roles for one service instance.
type Generator struct {
	availability AvailabilityProvider
	store        Store
	scorer       *Scorer
	roster       *RosterManager
	notifier     Notifier
}

// NewGenerator wires the generator's collaborators together.
func NewGenerator(availability AvailabilityProvider, store Store, scorer *Scorer, roster *RosterManager, notifier Notifier) *Generator {
	return &Generator{
		availability: availability,
		store:        store,
		scorer:       scorer,
		roster:       roster,
		notifier:     notifier,
	}
}

// GenerateOptimalSchedule picks the best available candidate for each
// requested role and commits all selections as one batch.  Role
// lookups and scoring run concurrently since they only read committed
// state; the results are gathered before the single validate-and-commit
// step.  A role with no eligible candidates is left unfilled rather
// than failing the operation; callers detect unfilled roles by diffing
// the requested role ids against the returned assignments.  When the
// batch commit fails no partial schedule is created, because
// cross-role constraints can only be verified against the full set.
func (g *Generator) GenerateOptimalSchedule(ctx context.Context, date time.Time, serviceType string, roleIDs []uint64) ([]model.Assignment, error) {
	selections := make([]*ScoredCandidate, len(roleIDs))
	eg, gctx := errgroup.WithContext(ctx)
	for i, roleID := range roleIDs {
		i, roleID := i, roleID
		eg.Go(func() error {
			members, err := g.availability.AvailableMembers(gctx, date, roleID)
			if err != nil {
				return err
			}
			scored, err := g.scorer.ScoreCandidates(gctx, roleID, members, date, serviceType)
			if err != nil {
				return err
			}
			selections[i] = SelectBest(scored)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	reqs := make([]AssignmentRequest, 0, len(selections))
	for _, sel := range selections {
		if sel == nil {
			continue
		}
		reqs = append(reqs, AssignmentRequest{
			MemberID:    sel.MemberID,
			RoleID:      sel.RoleID,
			Date:        date,
			ServiceType: serviceType,
		})
	}
	if len(reqs) == 0 {
		return []model.Assignment{}, nil
	}

	created, err := g.roster.CreateRoster(ctx, reqs)
	if err != nil {
		return nil, err
	}

	// The schedule is committed at this point; notification failures
	// are logged and must not undo it.
	for _, a := range created {
		roleName := fmt.Sprintf("role %d", a.RoleID)
		if role, err := g.store.RoleByID(ctx, a.RoleID); err == nil {
			roleName = role.Name
		}
		msg := fmt.Sprintf("You have been scheduled as %s on %s", roleName, date.Format(model.DateLayout))
		if err := g.notifier.Notify(ctx, a.MemberID, "roster_assignment", "New Roster Assignment", msg); err != nil {
			log.Printf("scheduler: assignment notification failed for member %d: %v", a.MemberID, err)
		}
	}
	return created, nil
}
