package repository

import (
	"context"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
)

const usersCollection = "users"

type storeUserRepository struct {
	store storage.Store
}

func NewStoreUserRepository(store storage.Store) repository.UserRepository {
	return &storeUserRepository{store: store}
}

func (r *storeUserRepository) Set(ctx context.Context, user *entity.User, merge bool) error {
	if err := r.store.SetDocument(ctx, usersCollection, user.UID, userToRecord(user), merge); err != nil {
		return errors.Internal("Failed to write user", err)
	}
	return nil
}

func (r *storeUserRepository) GetByID(ctx context.Context, uid string) (*entity.User, error) {
	rec, exists, err := r.store.GetDocument(ctx, usersCollection, uid)
	if err != nil {
		return nil, errors.Internal("Failed to get user", err)
	}
	if !exists {
		return nil, errors.NotFound("User", nil)
	}
	return userFromRecord(uid, rec), nil
}

func (r *storeUserRepository) UpdateFields(ctx context.Context, uid string, fields storage.Record) error {
	if err := r.store.UpdateDocument(ctx, usersCollection, uid, fields); err != nil {
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

func (r *storeUserRepository) Delete(ctx context.Context, uid string) error {
	if err := r.store.DeleteDocument(ctx, usersCollection, uid); err != nil {
		return errors.Internal("Failed to delete user", err)
	}
	return nil
}

func (r *storeUserRepository) ListOnline(ctx context.Context, limit int) ([]*entity.User, error) {
	docs, err := r.store.Query(ctx, usersCollection, storage.Query{
		Filters: []storage.Filter{{Field: "online", Op: storage.OpEqual, Value: true}},
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.Internal("Failed to query online users", err)
	}

	users := make([]*entity.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, userFromRecord(doc.ID, doc.Data))
	}
	return users, nil
}

func userToRecord(user *entity.User) storage.Record {
	rec := storage.Record{
		"uid":         user.UID,
		"userId":      user.UserID,
		"displayName": user.DisplayName,
		"isGuest":     user.IsGuest,
		"online":      user.Online,
		"lastSeen":    user.LastSeen,
		"createdAt":   user.CreatedAt,
		"updatedAt":   user.UpdatedAt,
	}
	if user.Email != "" {
		rec["email"] = user.Email
	}
	if user.PhotoURL != "" {
		rec["photoURL"] = user.PhotoURL
	}
	if len(user.SocialLinks) > 0 {
		links := make(map[string]interface{}, len(user.SocialLinks))
		for k, v := range user.SocialLinks {
			links[k] = v
		}
		rec["socialLinks"] = links
	}
	return rec
}

func userFromRecord(uid string, rec storage.Record) *entity.User {
	user := &entity.User{
		UID:         uid,
		UserID:      rec.String("userId"),
		DisplayName: rec.String("displayName"),
		Email:       rec.String("email"),
		PhotoURL:    rec.String("photoURL"),
		IsGuest:     rec.Bool("isGuest"),
		Online:      rec.Bool("online"),
		LastSeen:    rec.Time("lastSeen"),
		CreatedAt:   rec.Time("createdAt"),
		UpdatedAt:   rec.Time("updatedAt"),
	}
	if links := rec.Map("socialLinks"); links != nil {
		user.SocialLinks = make(map[string]string, len(links))
		for k, v := range links {
			if s, ok := v.(string); ok {
				user.SocialLinks[k] = s
			}
		}
	}
	if stored := rec.String("uid"); stored != "" {
		user.UID = stored
	}
	return user
}
