package dashboard

import (
	"context"

	"github.com/bookbuddy/storefront/pkg/types"
)

// Directory is the admin users page.
type Directory struct {
	Users     []types.UserProfile
	Admins    int
	Customers int
}

func (s *Service) Users(ctx context.Context) (Directory, error) {
	if _, err := s.requireAdmin(); err != nil {
		return Directory{}, err
	}
	users, err := s.api.AllUsers(ctx)
	if err != nil {
		s.fail(ctx, "dashboard.users_failed", err)
		return Directory{}, err
	}
	dir := Directory{Users: users}
	for _, u := range users {
		if u.Role.IsAdmin() {
			dir.Admins++
		} else {
			dir.Customers++
		}
	}
	return dir, nil
}
