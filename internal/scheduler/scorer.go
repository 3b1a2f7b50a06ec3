package scheduler

import (
	"context"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// Score weights.  The total is an additive fold over independently
// computed terms; no term depends on another.
const (
	skillWeight         = 2
	recencyPenalty      = 3
	languageWeight      = 2
	preferredRoleBonus  = 5
	familyServingBonus  = 3
	languageScoreFluent = 5
	languageScoreBasic  = 2
)

// Scorer ranks eligible members for a role on a date.
type Scorer struct {
	store Store
}

// NewScorer returns a scorer reading history, skills and preferences
// from the given store.
func NewScorer(store Store) *Scorer {
	return &Scorer{store: store}
}

// ScoreCandidates computes a score for every candidate member, in the
// order given.  The score sums: skill level for the role times two,
// minus three per assignment in the prior 28 days, plus the language
// score (fluent 5, basic 2, none 0) times two, plus five when the role
// is marked preferred, plus three when a family member already serves
// that date.
func (s *Scorer) ScoreCandidates(ctx context.Context, roleID uint64, members []model.Member, date time.Time, serviceType string) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, 0, len(members))
	for _, member := range members {
		score := 0

		skill, err := s.store.SkillLevel(ctx, member.ID, roleID)
		if err != nil {
			return nil, err
		}
		score += skill * skillWeight

		recent, err := s.store.CountRecentAssignments(ctx, member.ID, date)
		if err != nil {
			return nil, err
		}
		score -= recent * recencyPenalty

		score += languageScore(member.Proficiency(serviceType)) * languageWeight

		preferred, err := s.store.IsPreferredRole(ctx, member.ID, roleID)
		if err != nil {
			return nil, err
		}
		if preferred {
			score += preferredRoleBonus
		}

		family, err := s.store.HasFamilyMemberServing(ctx, member.ID, date)
		if err != nil {
			return nil, err
		}
		if family {
			score += familyServingBonus
		}

		scored = append(scored, ScoredCandidate{MemberID: member.ID, RoleID: roleID, Score: score})
	}
	return scored, nil
}

func languageScore(proficiency string) int {
	switch proficiency {
	case model.ProficiencyFluent:
		return languageScoreFluent
	case model.ProficiencyBasic:
		return languageScoreBasic
	default:
		return 0
	}
}

// SelectBest returns the candidate with the highest score, or nil when
// the list is empty.  The comparison is strict, so on a tie the
// earliest candidate in the list wins; callers rely on the stable
// order of the evaluated candidate list.
func SelectBest(scored []ScoredCandidate) *ScoredCandidate {
	if len(scored) == 0 {
		return nil
	}
	best := scored[0]
	for _, c := range scored[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return &best
}
