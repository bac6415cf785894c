package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"messenger/internal/domain"
)

// ContactService manages the directed contact graph and answers the
// "which of my contacts are online right now" bootstrap query.
type ContactService struct {
	contacts domain.ContactRepository
	users    domain.UserRepository
	pusher   Pusher
}

func NewContactService(contacts domain.ContactRepository, users domain.UserRepository, pusher Pusher) *ContactService {
	return &ContactService{contacts: contacts, users: users, pusher: pusher}
}

// ContactResponse is a contact enriched with live presence.
type ContactResponse struct {
	*domain.User
	IsOnline bool `json:"is_online"`
}

func (s *ContactService) List(ctx context.Context, ownerID int64) ([]*ContactResponse, error) {
	users, err := s.contacts.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return lo.Map(users, func(u *domain.User, _ int) *ContactResponse {
		return &ContactResponse{User: u, IsOnline: s.pusher.IsOnline(u.ID)}
	}), nil
}

// ListOnline returns only the contacts with at least one live connection.
// Presence announcements are not replayed, so clients call this once after
// connecting to seed their presence view.
func (s *ContactService) ListOnline(ctx context.Context, ownerID int64) ([]*ContactResponse, error) {
	all, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(c *ContactResponse, _ int) bool { return c.IsOnline }), nil
}

// Add creates an owner -> contact edge, resolving the contact by email.
func (s *ContactService) Add(ctx context.Context, owner *domain.User, contactEmail string) (*ContactResponse, error) {
	if contactEmail == owner.Email {
		return nil, fmt.Errorf("%w: cannot add yourself as a contact", domain.ErrInvalidInput)
	}

	contact, err := s.users.GetByEmail(ctx, contactEmail)
	if err != nil {
		return nil, fmt.Errorf("get contact user: %w", err)
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}

	exists, err := s.contacts.Exists(ctx, owner.ID, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: contact already exists", domain.ErrConflict)
	}

	if err := s.contacts.Create(ctx, owner.ID, contact.ID); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &ContactResponse{User: contact, IsOnline: s.pusher.IsOnline(contact.ID)}, nil
}

func (s *ContactService) Remove(ctx context.Context, ownerID, contactID int64) error {
	exists, err := s.contacts.Exists(ctx, ownerID, contactID)
	if err != nil {
		return fmt.Errorf("check contact: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return s.contacts.Delete(ctx, ownerID, contactID)
}
