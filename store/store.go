// Package store persists the factory's process-wide durable state in NATS
// JetStream KV: the deployment ledger, the template table, and the
// administrator identity. Deployment records are written with create-only
// semantics so the ledger stays append-only at the storage layer too.
package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Buckets names the KV buckets backing the factory state.
type Buckets struct {
	Deployments string
	Templates   string
	Meta        string
}

// DefaultBuckets returns the standard bucket names.
func DefaultBuckets() Buckets {
	return Buckets{
		Deployments: "luxuryx_deployments",
		Templates:   "luxuryx_templates",
		Meta:        "luxuryx_meta",
	}
}

const adminKey = "admin"

// Store provides persistence for factory state using NATS KV.
type Store struct {
	deployments *natsclient.KVStore
	templates   *natsclient.KVStore
	meta        *natsclient.KVStore
}

// New creates the buckets (or opens existing ones) and returns a store.
func New(ctx context.Context, client *natsclient.Client, buckets Buckets) (*Store, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "store", "New", "nats client validation")
	}
	if buckets.Deployments == "" || buckets.Templates == "" || buckets.Meta == "" {
		buckets = DefaultBuckets()
	}

	deployments, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      buckets.Deployments,
		Description: "Append-only token deployment records",
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "store", "New", "create deployments bucket")
	}

	templates, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      buckets.Templates,
		Description: "Current template reference per product type",
		History:     10, // recent history aids incident review; only the latest value is served
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "store", "New", "create templates bucket")
	}

	meta, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      buckets.Meta,
		Description: "Factory administrator identity",
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "store", "New", "create meta bucket")
	}

	return &Store{
		deployments: client.NewKVStore(deployments),
		templates:   client.NewKVStore(templates),
		meta:        client.NewKVStore(meta),
	}, nil
}

// AppendRecord durably appends a deployment record. A record for the same
// instance must not already exist.
func (s *Store) AppendRecord(ctx context.Context, rec *types.DeploymentRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapFatal(err, "store", "AppendRecord", "marshal record")
	}

	if _, err := s.deployments.Create(ctx, string(rec.Instance), data); err != nil {
		if natsclient.IsKVConflictError(err) {
			return errors.WrapInvalid(errors.ErrAlreadyRegistered, "store", "AppendRecord", "create record")
		}
		return errors.WrapTransient(err, "store", "AppendRecord", "create record")
	}

	return nil
}

// Records loads every deployment record, ordered by deployment ordinal.
func (s *Store) Records(ctx context.Context) ([]*types.DeploymentRecord, error) {
	keys, err := s.deployments.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "store", "Records", "list keys")
	}

	records := make([]*types.DeploymentRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := s.deployments.Get(ctx, key)
		if err != nil {
			return nil, errors.WrapTransient(err, "store", "Records", "get record "+key)
		}

		var rec types.DeploymentRecord
		if err := json.Unmarshal(entry.Value, &rec); err != nil {
			return nil, errors.WrapFatal(err, "store", "Records", "unmarshal record "+key)
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Ordinal < records[j].Ordinal
	})

	return records, nil
}

// SaveTemplate stores the current template reference for a product type.
func (s *Store) SaveTemplate(ctx context.Context, product types.ProductType, ref types.TemplateRef) error {
	if !product.Valid() {
		return errors.WrapInvalid(errors.ErrUnknownProductType, "store", "SaveTemplate", "product validation")
	}
	if _, err := s.templates.Put(ctx, string(product), []byte(ref)); err != nil {
		return errors.WrapTransient(err, "store", "SaveTemplate", "put template")
	}
	return nil
}

// Templates loads the stored template references.
func (s *Store) Templates(ctx context.Context) (map[types.ProductType]types.TemplateRef, error) {
	refs := make(map[types.ProductType]types.TemplateRef, 4)
	for _, product := range types.AllProductTypes() {
		entry, err := s.templates.Get(ctx, string(product))
		if err != nil {
			if natsclient.IsKVNotFoundError(err) {
				continue // never set for this type
			}
			return nil, errors.WrapTransient(err, "store", "Templates", "get template")
		}
		refs[product] = types.TemplateRef(entry.Value)
	}
	return refs, nil
}

// SaveAdmin stores the administrator identity.
func (s *Store) SaveAdmin(ctx context.Context, admin types.Identity) error {
	if admin.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidOwner, "store", "SaveAdmin", "admin validation")
	}
	if _, err := s.meta.Put(ctx, adminKey, []byte(admin)); err != nil {
		return errors.WrapTransient(err, "store", "SaveAdmin", "put admin")
	}
	return nil
}

// Admin loads the stored administrator identity; zero when never stored.
func (s *Store) Admin(ctx context.Context) (types.Identity, error) {
	entry, err := s.meta.Get(ctx, adminKey)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return "", nil
		}
		return "", errors.WrapTransient(err, "store", "Admin", "get admin")
	}
	return types.Identity(entry.Value), nil
}
