// Package registry implements the append-only deployment ledger: an ordered
// sequence of instance identifiers, a record per instance, and a membership
// set. Entries are born atomically with an instance's registration and are
// never mutated, removed, or relocated.
package registry

import (
	"context"
	"sync"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Store is the durable backing of the ledger. The in-memory state only
// becomes visible after the durable append succeeds.
type Store interface {
	AppendRecord(ctx context.Context, rec *types.DeploymentRecord) error
	Records(ctx context.Context) ([]*types.DeploymentRecord, error)
}

// Registry is the deployment ledger. The network identifier is fixed at
// construction and stamped into every record.
type Registry struct {
	mu      sync.RWMutex
	network string
	order   []types.InstanceID
	records map[types.InstanceID]*types.DeploymentRecord
	members map[types.InstanceID]struct{}
	store   Store // optional; nil keeps the ledger in memory only
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore attaches durable backing to the ledger.
func WithStore(store Store) Option {
	return func(r *Registry) { r.store = store }
}

// New creates an empty ledger for the given network.
func New(network string, opts ...Option) (*Registry, error) {
	if network == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Registry", "New", "network validation")
	}

	r := &Registry{
		network: network,
		records: make(map[types.InstanceID]*types.DeploymentRecord),
		members: make(map[types.InstanceID]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Network returns the network identifier fixed at construction.
func (r *Registry) Network() string {
	return r.network
}

// Reload rebuilds the in-memory ledger from the durable store, in ordinal
// order. Called once at process start, before any registration.
func (r *Registry) Reload(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	records, err := r.store.Records(ctx)
	if err != nil {
		return errors.Wrap(err, "Registry", "Reload", "load records")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = make([]types.InstanceID, 0, len(records))
	r.records = make(map[types.InstanceID]*types.DeploymentRecord, len(records))
	r.members = make(map[types.InstanceID]struct{}, len(records))

	for _, rec := range records {
		if _, exists := r.members[rec.Instance]; exists {
			return errors.WrapFatal(errors.ErrAlreadyRegistered, "Registry", "Reload", "ledger consistency check")
		}
		r.order = append(r.order, rec.Instance)
		r.records[rec.Instance] = rec
		r.members[rec.Instance] = struct{}{}
	}

	return nil
}

// Register appends a deployment record to the ledger. Internal-only entry
// point: it is invoked solely by the instantiation engine after a successful
// initialization call. The record's network and ordinal are stamped here.
func (r *Registry) Register(ctx context.Context, rec *types.DeploymentRecord) error {
	if rec == nil || rec.Instance.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidInstance, "Registry", "Register", "instance validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Instance identifiers are unique, so this should be unreachable;
	// enforced anyway to keep the ledger's invariant local.
	if _, exists := r.members[rec.Instance]; exists {
		return errors.WrapInvalid(errors.ErrAlreadyRegistered, "Registry", "Register", "duplicate check")
	}

	rec.Network = r.network
	rec.Ordinal = uint64(len(r.order))

	if err := rec.Validate(); err != nil {
		return err
	}

	if r.store != nil {
		if err := r.store.AppendRecord(ctx, rec); err != nil {
			return errors.Wrap(err, "Registry", "Register", "durable append")
		}
	}

	r.order = append(r.order, rec.Instance)
	r.records[rec.Instance] = rec
	r.members[rec.Instance] = struct{}{}

	return nil
}

// Count returns the number of deployments.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ByOrdinal returns the i-th deployed instance identifier in deployment order.
func (r *Registry) ByOrdinal(i int) (types.InstanceID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i < 0 || i >= len(r.order) {
		return "", errors.WrapInvalid(errors.ErrIndexOutOfRange, "Registry", "ByOrdinal", "index check")
	}
	return r.order[i], nil
}

// Info returns the full deployment record for an instance.
func (r *Registry) Info(instance types.InstanceID) (*types.DeploymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[instance]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrNotRegistered, "Registry", "Info", "membership check")
	}

	copied := *rec
	return &copied, nil
}

// IsRegistered reports whether the instance is a member of the ledger.
func (r *Registry) IsRegistered(instance types.InstanceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[instance]
	return ok
}

// ByDeployer returns, in deployment order, every instance whose record's
// deployer equals deployer. Two passes over the full sequence: count the
// matches, then collect them into an exactly-sized slice. O(n) in total
// deployments; fine at the volumes this registry sees. A deployment-heavy
// installation would want a secondary per-deployer index maintained
// alongside the append.
func (r *Registry) ByDeployer(deployer types.Identity) []types.InstanceID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, id := range r.order {
		if r.records[id].Deployer == deployer {
			count++
		}
	}

	matches := make([]types.InstanceID, 0, count)
	for _, id := range r.order {
		if r.records[id].Deployer == deployer {
			matches = append(matches, id)
		}
	}

	return matches
}
