package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/ps-vitor/immo-sys/backend/internal/alerts"
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

var ErrNoTargets = errors.New("no references given")

type Repository interface {
	Apply(ctx context.Context, mutations []repositories.Mutation) (int, error)
	FindByReference(ctx context.Context, refOrID string) (domain.PropertyDocument, error)
}

// AlertMatcher finds the saved searches a property satisfies.
type AlertMatcher interface {
	MatchesFor(p domain.PropertyDocument) []alerts.Alert
}

// AlertMatch pairs a newly published property with a saved search it satisfies.
type AlertMatch struct {
	Reference string `json:"reference"`
	AlertID   string `json:"alert_id"`
	Email     string `json:"email,omitempty"`
}

// Service applies one operation to many properties inside a single transaction.
type Service struct {
	repo    Repository
	matcher AlertMatcher
	log     *logger.Logger
}

// NewService builds the service. matcher may be nil, in which case Publish never
// reports alert matches.
func NewService(repo Repository, matcher AlertMatcher, log *logger.Logger) *Service {
	return &Service{repo: repo, matcher: matcher, log: log.Component("bulk")}
}

// Publish makes the properties visible on the public site and returns the saved searches
// they now satisfy.
func (s *Service) Publish(ctx context.Context, refs []string) (int, []AlertMatch, error) {
	hidden := false
	n, err := s.patch(ctx, "publish", refs, repositories.Patch{Hidden: &hidden})
	if err != nil {
		return 0, nil, err
	}
	return n, s.matchAlerts(ctx, refs), nil
}

// matchAlerts runs after the commit; a failed lookup only costs that property's matches.
func (s *Service) matchAlerts(ctx context.Context, refs []string) []AlertMatch {
	if s.matcher == nil {
		return nil
	}
	var out []AlertMatch
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup || ref == "" {
			continue
		}
		seen[ref] = struct{}{}

		p, err := s.repo.FindByReference(ctx, ref)
		if err != nil {
			s.log.Warn("alert lookup", "ref", ref, logger.Err(err))
			continue
		}
		for _, a := range s.matcher.MatchesFor(p) {
			out = append(out, AlertMatch{Reference: p.Reference, AlertID: a.ID, Email: a.Email})
		}
	}
	if len(out) > 0 {
		s.log.Info("published properties match saved searches", "matches", len(out))
	}
	return out
}

func (s *Service) Hide(ctx context.Context, refs []string) (int, error) {
	hidden := true
	return s.patch(ctx, "hide", refs, repositories.Patch{Hidden: &hidden})
}

func (s *Service) SetStatus(ctx context.Context, refs []string, status domain.Status) (int, error) {
	return s.patch(ctx, "status", refs, repositories.Patch{Status: &status})
}

func (s *Service) Delete(ctx context.Context, refs []string) (int, error) {
	return s.run(ctx, "delete", refs, func(ref string) repositories.Mutation {
		return repositories.Mutation{Op: repositories.OpDelete, Target: ref}
	})
}

func (s *Service) patch(ctx context.Context, op string, refs []string, p repositories.Patch) (int, error) {
	return s.run(ctx, op, refs, func(ref string) repositories.Mutation {
		return repositories.Mutation{Op: repositories.OpPatch, Target: ref, Patch: p}
	})
}

func (s *Service) run(ctx context.Context, op string, refs []string, build func(string) repositories.Mutation) (int, error) {
	seen := make(map[string]struct{}, len(refs))
	var mutations []repositories.Mutation
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		mutations = append(mutations, build(r))
	}
	if len(mutations) == 0 {
		return 0, ErrNoTargets
	}

	n, err := s.repo.Apply(ctx, mutations)
	if err != nil {
		s.log.Error("bulk operation rolled back", "op", op, "targets", len(mutations), logger.Err(err))
		return 0, fmt.Errorf("bulk %s: %w", op, err)
	}
	s.log.Info("bulk operation applied", "op", op, "count", n)
	return n, nil
}
