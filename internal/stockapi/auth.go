package stockapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

// Profile returns the signed-in user's profile. It is never cached.
func (s *Service) Profile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := s.client.Get(ctx, "/auth/user/profile/", nil, &p); err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &p, nil
}

// Permissions returns the capabilities the backend grants the signed-in user.
// A user without a role gets an empty set.
func (s *Service) Permissions(ctx context.Context) (policy.Set, error) {
	var doc map[string]bool
	err := s.client.Get(ctx, "/auth/user/permissions/", nil, &doc)
	if upstream.StatusOf(err) == http.StatusNotFound {
		return policy.Set{}, nil
	}
	if err != nil {
		return policy.Set{}, fmt.Errorf("getting permissions: %w", err)
	}
	return policy.FromMap(doc), nil
}
