package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
)

// ProfileUseCase covers profile reads and edits for the signed-in user.
type ProfileUseCase struct {
	userRepo repository.UserRepository
	sessions *AuthUseCase
}

func NewProfileUseCase(userRepo repository.UserRepository, sessions *AuthUseCase) *ProfileUseCase {
	return &ProfileUseCase{userRepo: userRepo, sessions: sessions}
}

func (uc *ProfileUseCase) GetProfile(ctx context.Context, uid string) (*entity.User, error) {
	if uid == "" {
		ident := uc.sessions.CurrentIdentity()
		if ident == nil {
			return nil, errors.Unauthorized("An active session is required", nil)
		}
		uid = ident.UID
	}
	return uc.userRepo.GetByID(ctx, uid)
}

type UpdateProfileInput struct {
	DisplayName string
	PhotoURL    string
}

func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*entity.User, error) {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return nil, errors.Unauthorized("An active session is required", nil)
	}

	fields := storage.Record{"updatedAt": time.Now()}
	if input.DisplayName != "" {
		fields["displayName"] = input.DisplayName
	}
	if input.PhotoURL != "" {
		fields["photoURL"] = input.PhotoURL
	}
	if err := uc.userRepo.UpdateFields(ctx, ident.UID, fields); err != nil {
		return nil, err
	}
	return uc.userRepo.GetByID(ctx, ident.UID)
}

// AddSocialLink writes one key under the socialLinks map via a dotted field
// path, leaving sibling platforms untouched.
func (uc *ProfileUseCase) AddSocialLink(ctx context.Context, platform, url string) error {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return errors.Unauthorized("An active session is required", nil)
	}
	if platform == "" || url == "" {
		return errors.BadRequest("platform and url are required", nil)
	}

	return uc.userRepo.UpdateFields(ctx, ident.UID, storage.Record{
		"socialLinks." + platform: url,
		"updatedAt":               time.Now(),
	})
}

// DeleteAccount removes the user document and ends the session.
func (uc *ProfileUseCase) DeleteAccount(ctx context.Context) error {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return errors.Unauthorized("An active session is required", nil)
	}

	if err := uc.userRepo.Delete(ctx, ident.UID); err != nil {
		return err
	}
	uc.sessions.EndSession(ctx)
	return nil
}

// NearbyUser decorates a user with a display-only distance. There is no
// real geolocation behind it; the value is a random placeholder.
type NearbyUser struct {
	*entity.User
	Distance string `json:"distance"`
}

// NearbyUsers lists currently-online users other than the caller.
func (uc *ProfileUseCase) NearbyUsers(ctx context.Context, limit int) ([]*NearbyUser, error) {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return nil, errors.Unauthorized("An active session is required", nil)
	}

	users, err := uc.userRepo.ListOnline(ctx, limit)
	if err != nil {
		return nil, err
	}

	nearby := make([]*NearbyUser, 0, len(users))
	for _, user := range users {
		if user.UID == ident.UID {
			continue
		}
		nearby = append(nearby, &NearbyUser{
			User:     user,
			Distance: fmt.Sprintf("%.1f km", rand.Float64()*10),
		})
	}
	return nearby, nil
}
