package service

import (
	"context"
	"fmt"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// GetDevUser resolves a /auth/login handle to its seeded archive user. An
// empty handle selects the default depositor.
func (s *UserService) GetDevUser(ctx context.Context, handle string) (domain.User, error) {
	if handle == "" {
		handle = DefaultDevUser
	}
	dev, ok := FindDevUser(handle)
	if !ok {
		return domain.User{}, domain.NotFoundError("not_found",
			fmt.Sprintf("unknown dev user %q, available: %s", handle, devUserHandles()))
	}
	return s.Store.Users().GetUserByProviderIdentity(ctx, dev.Provider, dev.ExternalID)
}
