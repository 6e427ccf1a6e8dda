package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/repository"
	"vexachat/pkg/errors"
)

type SessionKind string

const (
	SessionGuest SessionKind = "guest"
	SessionNamed SessionKind = "named"
)

// Identity is the signed-in user as seen by the rest of the application.
type Identity struct {
	UID         string      `json:"uid"`
	UserID      string      `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Kind        SessionKind `json:"kind"`
}

// AuthUseCase manages the single active session per process: SignedOut until
// a session begins, Active until it ends. State-change listeners get the
// current identity replayed immediately on registration, so a consumer
// attaching after login still renders correctly.
type AuthUseCase struct {
	userRepo repository.UserRepository
	presence *PresenceTracker
	uids     UIDAllocator

	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

func NewAuthUseCase(userRepo repository.UserRepository, presence *PresenceTracker, uids UIDAllocator) *AuthUseCase {
	return &AuthUseCase{
		userRepo:  userRepo,
		presence:  presence,
		uids:      uids,
		listeners: make(map[int]func(*Identity)),
	}
}

// BeginGuestSession creates an anonymous identity: a random guest number
// yields the display name ("Guest_1234") and public handle ("#VX-1234"),
// backed by a merged user document. A store failure here is fatal to the
// call; the session is not established.
func (uc *AuthUseCase) BeginGuestSession(ctx context.Context) (*Identity, error) {
	uid, err := uc.uids.AllocateUID(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to allocate user id", err)
	}

	guestNumber := rand.Intn(10000)
	now := time.Now()
	user := &entity.User{
		UID:         uid,
		UserID:      fmt.Sprintf("#VX-%d", guestNumber),
		DisplayName: fmt.Sprintf("Guest_%d", guestNumber),
		IsGuest:     true,
		Online:      true,
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Set(ctx, user, true); err != nil {
		return nil, errors.Internal("Failed to create guest user", err)
	}

	ident := &Identity{
		UID:         uid,
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Kind:        SessionGuest,
	}
	uc.transition(ident)
	uc.presence.MarkOnline(ctx, uid)
	return ident, nil
}

type NamedSessionInput struct {
	DisplayName string
	Email       string
	PhotoURL    string
}

// BeginNamedSession establishes a session for a named (non-anonymous) user,
// creating the user document on first sign-in and reusing it afterwards.
func (uc *AuthUseCase) BeginNamedSession(ctx context.Context, input NamedSessionInput) (*Identity, error) {
	if input.DisplayName == "" {
		return nil, errors.BadRequest("display name is required", nil)
	}

	uid, err := uc.uids.AllocateUID(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to allocate user id", err)
	}

	now := time.Now()
	user := &entity.User{
		UID:         uid,
		UserID:      fmt.Sprintf("#VX-%d", 1000+rand.Intn(9000)),
		DisplayName: input.DisplayName,
		Email:       input.Email,
		PhotoURL:    input.PhotoURL,
		Online:      true,
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Set(ctx, user, true); err != nil {
		return nil, errors.Internal("Failed to create user", err)
	}

	ident := &Identity{
		UID:         uid,
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Kind:        SessionNamed,
	}
	uc.transition(ident)
	uc.presence.MarkOnline(ctx, uid)
	return ident, nil
}

// EndSession marks the user offline and signs out. Calling it while already
// signed out is a no-op.
func (uc *AuthUseCase) EndSession(ctx context.Context) {
	uc.mu.Lock()
	current := uc.current
	uc.mu.Unlock()

	if current == nil {
		return
	}
	uc.presence.MarkOffline(ctx, current.UID)
	uc.transition(nil)
}

func (uc *AuthUseCase) CurrentIdentity() *Identity {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.current
}

// OnStateChange registers a session listener. The callback fires once
// immediately with the current identity (nil when signed out) and again on
// every transition. The returned function unregisters it.
func (uc *AuthUseCase) OnStateChange(fn func(*Identity)) func() {
	uc.mu.Lock()
	id := uc.nextID
	uc.nextID++
	uc.listeners[id] = fn
	current := uc.current
	uc.mu.Unlock()

	fn(current)

	return func() {
		uc.mu.Lock()
		delete(uc.listeners, id)
		uc.mu.Unlock()
	}
}

func (uc *AuthUseCase) transition(ident *Identity) {
	uc.mu.Lock()
	uc.current = ident
	fns := make([]func(*Identity), 0, len(uc.listeners))
	for _, fn := range uc.listeners {
		fns = append(fns, fn)
	}
	uc.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}
