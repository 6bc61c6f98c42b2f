// Package template holds the current template reference per product type.
// The table is the only mutable configuration of the factory: each of the
// four product types maps to at most one template, overwritable by the
// administrator alone. No history is kept beyond the latest value; every
// deployment snapshots the reference in effect at its creation time.
package template

import (
	"context"
	"sync"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/events"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/metric"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Resolver reports whether a template reference points at executable code.
// Satisfied by runtime.Runtime.
type Resolver interface {
	Resolve(ctx context.Context, ref types.TemplateRef) bool
}

// TemplateStore persists the table across restarts.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, product types.ProductType, ref types.TemplateRef) error
	Templates(ctx context.Context) (map[types.ProductType]types.TemplateRef, error)
}

// Table maps each product type to its current template reference.
type Table struct {
	mu       sync.RWMutex
	refs     map[types.ProductType]types.TemplateRef
	acl      *access.Controller
	resolver Resolver
	store    TemplateStore    // optional
	events   events.Publisher // optional
	metrics  *metric.Metrics  // optional
}

// Option configures a Table.
type Option func(*Table)

// WithStore makes template overwrites durable.
func WithStore(store TemplateStore) Option {
	return func(t *Table) { t.store = store }
}

// WithEvents attaches the notification publisher.
func WithEvents(pub events.Publisher) Option {
	return func(t *Table) { t.events = pub }
}

// WithMetrics attaches the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(t *Table) { t.metrics = m }
}

// New creates an empty table. Every product type starts unset.
func New(acl *access.Controller, resolver Resolver, opts ...Option) (*Table, error) {
	if acl == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Table", "New", "access controller validation")
	}
	if resolver == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Table", "New", "resolver validation")
	}

	t := &Table{
		refs:     make(map[types.ProductType]types.TemplateRef, 4),
		acl:      acl,
		resolver: resolver,
		events:   events.Nop{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Load restores the table from the durable store. Called once at process
// start, before the table is served.
func (t *Table) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	refs, err := t.store.Templates(ctx)
	if err != nil {
		return errors.Wrap(err, "Table", "Load", "load templates")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for product, ref := range refs {
		t.refs[product] = ref
	}
	return nil
}

// Set overwrites the template reference for a product type. Administrator
// only. Past deployments are unaffected: they keep the reference that was in
// effect when they were created.
func (t *Table) Set(ctx context.Context, caller types.Identity, product types.ProductType, ref types.TemplateRef) error {
	if err := t.acl.RequireAdmin(caller); err != nil {
		return err
	}
	if !product.Valid() {
		return errors.WrapInvalid(errors.ErrUnknownProductType, "Table", "Set", "product validation")
	}
	if ref.IsZero() || !t.resolver.Resolve(ctx, ref) {
		return errors.WrapInvalid(errors.ErrInvalidTemplate, "Table", "Set", "template validation")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveTemplate(ctx, product, ref); err != nil {
			return errors.Wrap(err, "Table", "Set", "persist template")
		}
	}
	t.refs[product] = ref

	t.events.TemplateChanged(ctx, product, ref)
	t.metrics.RecordTemplateUpdate(string(product))

	return nil
}

// Current returns the template reference registered for a product type,
// zero when unset. O(1).
func (t *Table) Current(product types.ProductType) (types.TemplateRef, error) {
	if !product.Valid() {
		return "", errors.WrapInvalid(errors.ErrUnknownProductType, "Table", "Current", "product validation")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refs[product], nil
}
