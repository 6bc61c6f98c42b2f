// Package access implements the factory's privilege gate and reentrancy guard.
//
// A single administrator identity, fixed at construction and transferable only
// by the current administrator, is the sole identity allowed to mutate the
// template table. The entry guard wraps every deployment operation and
// registry read in a shared "entered" flag: a second top-level entry (or a
// malicious template re-invoking a guarded operation from inside its
// initialization hook) is rejected immediately rather than blocked or queued.
package access

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// AdminStore persists the administrator identity across restarts.
type AdminStore interface {
	SaveAdmin(ctx context.Context, admin types.Identity) error
}

// Controller holds the single privileged administrator identity.
type Controller struct {
	mu    sync.RWMutex
	admin types.Identity
	store AdminStore // optional
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithAdminStore makes administrator transfers durable.
func WithAdminStore(store AdminStore) ControllerOption {
	return func(c *Controller) { c.store = store }
}

// NewController creates an access controller with the given administrator.
func NewController(admin types.Identity, opts ...ControllerOption) (*Controller, error) {
	if admin.IsZero() {
		return nil, errors.WrapInvalid(errors.ErrInvalidOwner, "Controller", "NewController", "admin validation")
	}
	c := &Controller{admin: admin}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Admin returns the current administrator identity.
func (c *Controller) Admin() types.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admin
}

// RequireAdmin fails with ErrUnauthorized unless caller is the administrator.
func (c *Controller) RequireAdmin(caller types.Identity) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if caller.IsZero() || caller != c.admin {
		return errors.WrapInvalid(errors.ErrUnauthorized, "Controller", "RequireAdmin", "privilege check")
	}
	return nil
}

// TransferAdmin hands the administrator capability to next. Only the current
// administrator can nominate; there is no separate acceptance step.
func (c *Controller) TransferAdmin(ctx context.Context, caller, next types.Identity) error {
	if err := c.RequireAdmin(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidOwner, "Controller", "TransferAdmin", "next admin validation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the write lock: the admin may have changed between the
	// RequireAdmin read and here.
	if caller != c.admin {
		return errors.WrapInvalid(errors.ErrUnauthorized, "Controller", "TransferAdmin", "privilege check")
	}

	if c.store != nil {
		if err := c.store.SaveAdmin(ctx, next); err != nil {
			return errors.WrapTransient(err, "Controller", "TransferAdmin", "persist admin")
		}
	}
	c.admin = next
	return nil
}

// EntryGuard rejects reentrant or overlapping entries into guarded operations.
// Enter fails immediately when another guarded operation is mid-flight; it
// never blocks or queues the second entrant.
type EntryGuard struct {
	entered atomic.Bool
}

// NewEntryGuard returns a guard in the not-entered state.
func NewEntryGuard() *EntryGuard {
	return &EntryGuard{}
}

// Enter marks the guard as entered. Callers must pair a successful Enter with
// exactly one Exit, normally via defer.
func (g *EntryGuard) Enter() error {
	if !g.entered.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrReentrantCall, "EntryGuard", "Enter", "entry check")
	}
	return nil
}

// Exit clears the entered flag.
func (g *EntryGuard) Exit() {
	g.entered.Store(false)
}
