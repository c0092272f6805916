// Package guard is the authoritative uniqueness check run before an identity
// is created or a phone number is changed.
//
// The guard fails closed: when the store cannot answer, callers get
// common.ErrGuardUnavailable and must refuse to proceed. An inconclusive
// check is never reported as "available".
package guard

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/google/uuid"
)

// Store is the part of the profile store the guard reads.
type Store interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	PhoneExistsExcludingSelf(ctx context.Context, phone, ownerID string) (bool, error)
}

type Guard struct {
	store  Store
	logger logging.Logger
}

func New(store Store, logger logging.Logger) *Guard {
	return &Guard{store: store, logger: logger.With("module", "guard")}
}

// EmailExists expects a normalized email. A store failure is returned as
// ErrGuardUnavailable together with exists=false; callers must check err
// before looking at exists.
func (g *Guard) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := g.store.EmailExists(ctx, email)
	if err != nil {
		g.logger.Error(ctx, "email existence check failed", "error", err)
		return false, fmt.Errorf("%w: %v", common.ErrGuardUnavailable, err)
	}
	return exists, nil
}

// PhoneExists expects a normalized phone number.
func (g *Guard) PhoneExists(ctx context.Context, phone string) (bool, error) {
	exists, err := g.store.PhoneExists(ctx, phone)
	if err != nil {
		g.logger.Error(ctx, "phone existence check failed", "error", err)
		return false, fmt.Errorf("%w: %v", common.ErrGuardUnavailable, err)
	}
	return exists, nil
}

// PhoneExistsExcludingSelf ignores the row owned by ownerID, so a user
// re-saving their own number is not reported as a collision.
func (g *Guard) PhoneExistsExcludingSelf(ctx context.Context, phone, ownerID string) (bool, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return false, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}
	exists, err := g.store.PhoneExistsExcludingSelf(ctx, phone, ownerID)
	if err != nil {
		g.logger.Error(ctx, "phone existence check failed", "error", err, "owner_id", ownerID)
		return false, fmt.Errorf("%w: %v", common.ErrGuardUnavailable, err)
	}
	return exists, nil
}

// EnsureEmailAvailable folds EmailExists into a single error:
// ErrAlreadyRegistered, ErrGuardUnavailable or nil.
func (g *Guard) EnsureEmailAvailable(ctx context.Context, email string) error {
	return ensure(g.EmailExists(ctx, email))
}

func (g *Guard) EnsurePhoneAvailable(ctx context.Context, phone string) error {
	return ensure(g.PhoneExists(ctx, phone))
}

func (g *Guard) EnsurePhoneAvailableFor(ctx context.Context, phone, ownerID string) error {
	return ensure(g.PhoneExistsExcludingSelf(ctx, phone, ownerID))
}

func ensure(exists bool, err error) error {
	if err != nil {
		return err
	}
	if exists {
		return common.ErrAlreadyRegistered
	}
	return nil
}
