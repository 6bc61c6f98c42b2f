// Package runtime defines the boundary to the host execution substrate: the
// environment that gives each token instance a distinct identity, lets new
// instances delegate their behavior to a shared template, and executes the
// single initialization call against a freshly cloned instance.
//
// The factory never assumes anything about the substrate beyond this
// interface. The production implementation rides on NATS: templates and
// instances are addressable services, cloning mints a new instance identity
// and records the delegation, and initialization is a synchronous
// request-reply exchange. That exchange may itself invoke further code, which
// is exactly the reentrancy hazard the factory's entry guard defends against.
package runtime

import (
	"context"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Runtime is the host substrate as seen by the factory.
type Runtime interface {
	// Resolve reports whether ref points at an executable template unit.
	Resolve(ctx context.Context, ref types.TemplateRef) bool

	// Clone creates a new independently-addressable instance delegating its
	// behavior to the template. The instance has its own state but shares
	// the template's logic; this is not a copy of the template.
	Clone(ctx context.Context, ref types.TemplateRef) (types.InstanceID, error)

	// Initialize performs the one-shot initialization call against a freshly
	// cloned instance. The call executes fully before Initialize returns.
	// A clone whose initialization failed is left orphaned: the substrate
	// offers no way to reclaim created instances.
	Initialize(ctx context.Context, id types.InstanceID, calldata []byte) error
}
