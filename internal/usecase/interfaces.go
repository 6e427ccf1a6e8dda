package usecase

import (
	"context"

	"github.com/google/uuid"
)

// UIDAllocator produces fresh user ids. The local allocator backs the
// in-memory store; the firebase allocator registers an anonymous auth user
// when a hosted project is configured.
type UIDAllocator interface {
	AllocateUID(ctx context.Context) (string, error)
}

type LocalUIDs struct{}

func (LocalUIDs) AllocateUID(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}
