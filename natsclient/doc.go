// Package natsclient provides the NATS connection layer for the LuxuryX token
// factory: a managed connection with reconnection handling, publish /
// request-reply / subscription primitives, and JetStream Key-Value access for
// the factory's durable state.
//
// The factory keeps all of its process-wide durable state (template table,
// deployment ledger, administrator identity) in JetStream KV buckets and
// emits its notifications as plain NATS messages, so this package is the only
// place the rest of the codebase touches the wire.
//
// The KVStore wrapper applies a per-operation timeout and normalizes the
// not-found and conflict errors the registry relies on for its append-only
// semantics.
package natsclient
