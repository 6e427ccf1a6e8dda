package usecase

import (
	"context"
	"time"

	"vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	"vexachat/pkg/logger"
)

// PresenceTracker maintains the online flag and last-seen timestamp on user
// documents. Presence is advisory: a failed write is logged and swallowed so
// it never fails the session transition that triggered it.
type PresenceTracker struct {
	userRepo repository.UserRepository
}

func NewPresenceTracker(userRepo repository.UserRepository) *PresenceTracker {
	return &PresenceTracker{userRepo: userRepo}
}

func (p *PresenceTracker) MarkOnline(ctx context.Context, uid string) {
	p.setStatus(ctx, uid, true)
}

func (p *PresenceTracker) MarkOffline(ctx context.Context, uid string) {
	p.setStatus(ctx, uid, false)
}

func (p *PresenceTracker) setStatus(ctx context.Context, uid string, online bool) {
	err := p.userRepo.UpdateFields(ctx, uid, storage.Record{
		"online":   online,
		"lastSeen": time.Now(),
	})
	if err != nil {
		logger.Warn("Presence update for %s failed: %v", uid, err)
	}
}
