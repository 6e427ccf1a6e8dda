package repository

import (
	"context"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/storage"
)

type UserRepository interface {
	Set(ctx context.Context, user *entity.User, merge bool) error
	GetByID(ctx context.Context, uid string) (*entity.User, error)
	UpdateFields(ctx context.Context, uid string, fields storage.Record) error
	Delete(ctx context.Context, uid string) error
	ListOnline(ctx context.Context, limit int) ([]*entity.User, error)
}
