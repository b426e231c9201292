package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// CollaboratorService shares a trip with other accounts.
type CollaboratorService struct {
	trips         repo.TripStore
	users         repo.UserStore
	trackMetadata bool
}

// NewCollaboratorService constructs a CollaboratorService. With trackMetadata
// set, each added collaborator's email is kept in Trip.Collaborators.
func NewCollaboratorService(trips repo.TripStore, users repo.UserStore, trackMetadata bool) *CollaboratorService {
	return &CollaboratorService{trips: trips, users: users, trackMetadata: trackMetadata}
}

// AddByEmail grants the account registered under email access to the trip.
// Returns domain.ErrUserNotFound, leaving the trip untouched, when no account
// matches. Adding an existing member is a no-op on AllowedUsers.
func (s *CollaboratorService) AddByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.Collaborator, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Collaborator{}, fmt.Errorf("service.CollaboratorService.AddByEmail: %w: email is required", domain.ErrValidation)
	}

	var added domain.Collaborator
	_, err := mutate(ctx, s.trips, "CollaboratorService.AddByEmail", tripID, func(t *domain.Trip, _ domain.Identity) error {
		u, err := s.users.FindByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no account for %s", domain.ErrUserNotFound, email)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}

		added = domain.Collaborator{UID: u.UID, Email: u.Email}
		if !slices.Contains(t.AllowedUsers, u.UID) {
			t.AllowedUsers = append(t.AllowedUsers, u.UID)
		}
		if s.trackMetadata && !slices.ContainsFunc(t.Collaborators, func(c domain.Collaborator) bool { return c.UID == u.UID }) {
			t.Collaborators = append(t.Collaborators, added)
		}
		return nil
	})
	if err != nil {
		return domain.Collaborator{}, err
	}
	return added, nil
}

// Remove revokes uid's access. The owner cannot be removed.
// Removing a uid that has no access is a no-op.
func (s *CollaboratorService) Remove(ctx context.Context, tripID uuid.UUID, uid string) error {
	_, err := mutate(ctx, s.trips, "CollaboratorService.Remove", tripID, func(t *domain.Trip, _ domain.Identity) error {
		if uid == t.OwnerID {
			return fmt.Errorf("%w: the owner cannot be removed from a trip", domain.ErrValidation)
		}
		t.AllowedUsers = slices.DeleteFunc(t.AllowedUsers, func(u string) bool { return u == uid })
		t.Collaborators = slices.DeleteFunc(t.Collaborators, func(c domain.Collaborator) bool { return c.UID == uid })
		return nil
	})
	return err
}

// List returns one entry per user with access, in AllowedUsers order.
// Email is empty for users without recorded metadata.
func (s *CollaboratorService) List(ctx context.Context, tripID uuid.UUID) ([]domain.Collaborator, error) {
	t, _, err := loadForCaller(ctx, s.trips, "CollaboratorService.List", tripID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Collaborator, 0, len(t.AllowedUsers))
	for _, uid := range t.AllowedUsers {
		c := domain.Collaborator{UID: uid}
		if i := slices.IndexFunc(t.Collaborators, func(m domain.Collaborator) bool { return m.UID == uid }); i >= 0 {
			c.Email = t.Collaborators[i].Email
		}
		out = append(out, c)
	}
	return out, nil
}
