package dashboard

import (
	"context"
	"strings"

	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/bookbuddy/storefront/pkg/validators"
)

// ProfileForm prefills the profile editor from the session.
func (s *Service) ProfileForm() types.ProfileUpdate {
	sess := s.sessions.Current()
	if sess.User == nil {
		return types.ProfileUpdate{}
	}
	return types.ProfileUpdate{
		Name:    sess.User.Name,
		Email:   sess.User.Email,
		Phone:   sess.User.Phone,
		Address: sess.User.Address,
	}
}

// UpdateProfile saves the profile and swaps the stored user into the session,
// in memory and in the durable mirror.
func (s *Service) UpdateProfile(ctx context.Context, form types.ProfileUpdate) (types.UserProfile, error) {
	sess, err := s.requireSignedIn()
	if err != nil {
		return types.UserProfile{}, err
	}
	form.Name = validators.SanitizeString(form.Name, 100)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = validators.SanitizeString(form.Phone, 32)
	form.Address = validators.SanitizeString(form.Address, 500)
	if err := validators.Struct(form); err != nil {
		return types.UserProfile{}, err
	}
	if sess.User != nil {
		ctx = s.logg.WithUserID(ctx, sess.User.ID)
	}

	updated, err := s.api.UpdateProfile(ctx, form)
	if err != nil {
		s.fail(ctx, "dashboard.profile_update_failed", err)
		return types.UserProfile{}, err
	}
	if err := s.sessions.UpdateUser(ctx, updated); err != nil {
		s.fail(ctx, "dashboard.profile_persist_failed", err)
		return types.UserProfile{}, err
	}
	if s.notifier != nil {
		s.notifier.Success(ctx, "Profile Updated Successfully")
	}
	return updated, nil
}
