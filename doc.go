// Package luxuryx provides the LuxuryX token factory: a factory-and-registry
// service that instantiates lightweight token instances from a small fixed set
// of pre-registered templates and records every deployment in a durable,
// append-only registry.
//
// # Architecture
//
// The factory is built from four cooperating parts:
//
//   - Template table: one current template reference per product type,
//     mutable only by the administrator (package template).
//   - Instantiation engine: clones the current template into a new
//     independently-addressable instance and forwards a single
//     initialization call with the type-specific parameter bundle
//     (package factory).
//   - Deployment registry: an append-only ledger mapping instance
//     identifier to its immutable deployment record, with ordinal and
//     deployer-indexed queries (package registry).
//   - Access control and reentrancy guard: a single privileged
//     administrator identity plus an entry guard that rejects a guarded
//     operation re-entering itself while an initialization call is
//     outstanding (package access).
//
// Instances delegate their behavior to the shared template rather than
// carrying their own copy of it; amortizing four templates across an
// unbounded number of instances is the central efficiency argument of the
// design.
//
// The host substrate that gives instances identity and executes the
// initialization call is reached through the runtime.Runtime interface. The
// production implementation and all durable state (template table,
// deployment ledger, administrator identity) ride on NATS JetStream, with
// notifications published as plain NATS messages (packages runtime, store,
// events, natsclient).
//
// cmd/luxfactory runs the factory as a NATS request/reply service (package
// gateway) with Prometheus metrics (package metric).
//
// The factory does not implement business logic for deployed instances,
// does not upgrade already-deployed instances, and never removes or
// relocates registry entries.
package luxuryx
