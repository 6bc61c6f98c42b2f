// Package factory implements the instantiation engine: it clones the current
// template for a product type into a new independently-addressable instance,
// forwards the single initialization call with the type-specific parameter
// bundle, and registers the instance in the deployment ledger.
//
// Every deployment entry point and every registry read runs under the shared
// entry guard: while an initialization call is outstanding, any attempt to
// re-enter a guarded operation fails immediately, whether it comes from
// inside the template's initialization hook or from an overlapping top-level
// caller. An operation either fully completes or fails with no instance
// registered; a clone whose initialization failed stays orphaned because the
// host substrate offers no way to reclaim created instances.
package factory

import (
	"context"
	"log/slog"
	"time"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/events"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/metric"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/registry"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/runtime"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/template"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Config wires the factory's collaborators.
type Config struct {
	Templates *template.Table
	Registry  *registry.Registry
	Runtime   runtime.Runtime
	Guard     *access.EntryGuard
	Events    events.Publisher // optional, defaults to events.Nop
	Metrics   *metric.Metrics  // optional
	Logger    *slog.Logger     // optional
	Clock     func() time.Time // optional, defaults to time.Now
}

// Factory is the instantiation engine.
type Factory struct {
	templates *template.Table
	registry  *registry.Registry
	rt        runtime.Runtime
	guard     *access.EntryGuard
	events    events.Publisher
	metrics   *metric.Metrics
	logger    *slog.Logger
	clock     func() time.Time
}

// New creates a factory from the given configuration.
func New(cfg Config) (*Factory, error) {
	if cfg.Templates == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Factory", "New", "template table validation")
	}
	if cfg.Registry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Factory", "New", "registry validation")
	}
	if cfg.Runtime == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Factory", "New", "runtime validation")
	}
	if cfg.Guard == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Factory", "New", "entry guard validation")
	}

	f := &Factory{
		templates: cfg.Templates,
		registry:  cfg.Registry,
		rt:        cfg.Runtime,
		guard:     cfg.Guard,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
	if f.events == nil {
		f.events = events.Nop{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.clock == nil {
		f.clock = time.Now
	}
	return f, nil
}

// DeployStandardToken deploys a standard token instance.
func (f *Factory) DeployStandardToken(
	ctx context.Context, caller types.Identity, params types.StandardTokenParams,
) (types.InstanceID, error) {
	return f.deploy(ctx, caller, params)
}

// DeployTaxToken deploys a tax token instance.
func (f *Factory) DeployTaxToken(
	ctx context.Context, caller types.Identity, params types.TaxTokenParams,
) (types.InstanceID, error) {
	return f.deploy(ctx, caller, params)
}

// DeployRoyaltyCollection deploys a royalty collection instance.
func (f *Factory) DeployRoyaltyCollection(
	ctx context.Context, caller types.Identity, params types.RoyaltyCollectionParams,
) (types.InstanceID, error) {
	return f.deploy(ctx, caller, params)
}

// DeployComplianceToken deploys a compliance token instance.
func (f *Factory) DeployComplianceToken(
	ctx context.Context, caller types.Identity, params types.ComplianceTokenParams,
) (types.InstanceID, error) {
	return f.deploy(ctx, caller, params)
}

// deploy is the single code path behind the four entry points: one critical
// section covering template lookup, clone, initialization and registration.
func (f *Factory) deploy(ctx context.Context, caller types.Identity, bundle types.ParamBundle) (types.InstanceID, error) {
	product := bundle.Product()

	if err := f.guard.Enter(); err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "reentrant_call")
		return "", err
	}
	defer f.guard.Exit()

	start := f.clock()

	ref, err := f.templates.Current(product)
	if err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "unknown_product")
		return "", err
	}
	if ref.IsZero() {
		f.metrics.RecordDeploymentFailure(string(product), "template_not_set")
		return "", errors.WrapInvalid(errors.ErrTemplateNotSet, "Factory", "deploy", "template lookup")
	}

	if err := bundle.Validate(); err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "invalid_params")
		return "", err
	}

	calldata, err := bundle.EncodeInit()
	if err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "encode_failed")
		return "", err
	}

	instance, err := f.rt.Clone(ctx, ref)
	if err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "clone_failed")
		return "", errors.Wrap(err, "Factory", "deploy", "clone template")
	}

	// The one initialization call. It must execute fully before the
	// deployment can succeed; on failure the clone is left orphaned and
	// nothing reaches the registry.
	if err := f.rt.Initialize(ctx, instance, calldata); err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "initialization_failed")
		f.logger.Warn("initialization failed, clone orphaned",
			"instance", instance, "product", product, "error", err)
		if errors.IsInvalid(err) {
			return "", err
		}
		return "", errors.WrapInvalid(errors.ErrInitializationFailed, "Factory", "deploy", "initializer call")
	}

	name, symbol, owner := bundle.Meta()
	rec := &types.DeploymentRecord{
		Instance:  instance,
		Product:   product,
		Name:      name,
		Symbol:    symbol,
		Deployer:  caller,
		Owner:     owner,
		CreatedAt: f.clock().UTC(),
		Template:  ref,
	}

	if err := f.registry.Register(ctx, rec); err != nil {
		f.metrics.RecordDeploymentFailure(string(product), "registration_failed")
		return "", err
	}

	f.events.InstanceCreated(ctx, instance, product, owner)
	f.metrics.RecordDeployment(string(product), f.clock().Sub(start))
	f.metrics.RecordRegistrySize(f.registry.Count())

	f.logger.Info("instance deployed",
		"instance", instance,
		"product", product,
		"deployer", caller,
		"owner", owner,
		"template", ref)

	return instance, nil
}

// SetTemplate overwrites the template for a product type. Administrator only.
func (f *Factory) SetTemplate(
	ctx context.Context, caller types.Identity, product types.ProductType, ref types.TemplateRef,
) error {
	if err := f.guard.Enter(); err != nil {
		return err
	}
	defer f.guard.Exit()

	return f.templates.Set(ctx, caller, product, ref)
}

// CurrentTemplate returns the template currently registered for a product type.
func (f *Factory) CurrentTemplate(product types.ProductType) (types.TemplateRef, error) {
	if err := f.guard.Enter(); err != nil {
		return "", err
	}
	defer f.guard.Exit()

	return f.templates.Current(product)
}

// DeploymentCount returns the number of deployments.
func (f *Factory) DeploymentCount() (int, error) {
	if err := f.guard.Enter(); err != nil {
		return 0, err
	}
	defer f.guard.Exit()

	return f.registry.Count(), nil
}

// DeploymentByOrdinal returns the i-th deployed instance in deployment order.
func (f *Factory) DeploymentByOrdinal(i int) (types.InstanceID, error) {
	if err := f.guard.Enter(); err != nil {
		return "", err
	}
	defer f.guard.Exit()

	return f.registry.ByOrdinal(i)
}

// DeploymentInfo returns the deployment record for an instance.
func (f *Factory) DeploymentInfo(instance types.InstanceID) (*types.DeploymentRecord, error) {
	if err := f.guard.Enter(); err != nil {
		return nil, err
	}
	defer f.guard.Exit()

	return f.registry.Info(instance)
}

// IsRegistered reports whether an instance was deployed through this factory.
func (f *Factory) IsRegistered(instance types.InstanceID) (bool, error) {
	if err := f.guard.Enter(); err != nil {
		return false, err
	}
	defer f.guard.Exit()

	return f.registry.IsRegistered(instance), nil
}

// DeploymentsByDeployer returns every instance deployed by deployer, in
// deployment order.
func (f *Factory) DeploymentsByDeployer(deployer types.Identity) ([]types.InstanceID, error) {
	if err := f.guard.Enter(); err != nil {
		return nil, err
	}
	defer f.guard.Exit()

	return f.registry.ByDeployer(deployer), nil
}
