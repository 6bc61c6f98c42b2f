package template

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	pkgerrors "github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// staticResolver resolves every reference in the known set.
type staticResolver struct {
	known map[types.TemplateRef]bool
}

func (r staticResolver) Resolve(_ context.Context, ref types.TemplateRef) bool {
	return r.known[ref]
}

type memTemplateStore struct {
	saved   map[types.ProductType]types.TemplateRef
	saveErr error
}

func (m *memTemplateStore) SaveTemplate(_ context.Context, p types.ProductType, ref types.TemplateRef) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[types.ProductType]types.TemplateRef)
	}
	m.saved[p] = ref
	return nil
}

func (m *memTemplateStore) Templates(_ context.Context) (map[types.ProductType]types.TemplateRef, error) {
	return m.saved, nil
}

type capturedEvent struct {
	product types.ProductType
	ref     types.TemplateRef
}

type capturePublisher struct {
	templateChanges []capturedEvent
}

func (c *capturePublisher) TemplateChanged(_ context.Context, p types.ProductType, ref types.TemplateRef) {
	c.templateChanges = append(c.templateChanges, capturedEvent{p, ref})
}

func (c *capturePublisher) InstanceCreated(context.Context, types.InstanceID, types.ProductType, types.Identity) {
}

func newTable(t *testing.T, opts ...Option) *Table {
	t.Helper()
	acl, err := access.NewController("admin")
	require.NoError(t, err)

	resolver := staticResolver{known: map[types.TemplateRef]bool{
		"tmpl-v1": true,
		"tmpl-v2": true,
	}}

	table, err := New(acl, resolver, opts...)
	require.NoError(t, err)
	return table
}

func TestSetRequiresAdmin(t *testing.T) {
	table := newTable(t)
	ctx := context.Background()

	err := table.Set(ctx, "mallory", types.ProductStandardToken, "tmpl-v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)

	// The table is unchanged after the rejected call.
	ref, err := table.Current(types.ProductStandardToken)
	require.NoError(t, err)
	assert.True(t, ref.IsZero())
}

func TestSetValidation(t *testing.T) {
	table := newTable(t)
	ctx := context.Background()

	err := table.Set(ctx, "admin", "bogus", "tmpl-v1")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownProductType)

	err = table.Set(ctx, "admin", types.ProductStandardToken, "")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTemplate)

	// Resolvable check: unknown code reference is rejected.
	err = table.Set(ctx, "admin", types.ProductStandardToken, "tmpl-unknown")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTemplate)
}

func TestSetOverwritesAndEmits(t *testing.T) {
	pub := &capturePublisher{}
	table := newTable(t, WithEvents(pub))
	ctx := context.Background()

	require.NoError(t, table.Set(ctx, "admin", types.ProductStandardToken, "tmpl-v1"))
	require.NoError(t, table.Set(ctx, "admin", types.ProductStandardToken, "tmpl-v2"))

	ref, err := table.Current(types.ProductStandardToken)
	require.NoError(t, err)
	assert.Equal(t, types.TemplateRef("tmpl-v2"), ref)

	require.Len(t, pub.templateChanges, 2)
	assert.Equal(t, capturedEvent{types.ProductStandardToken, "tmpl-v1"}, pub.templateChanges[0])
	assert.Equal(t, capturedEvent{types.ProductStandardToken, "tmpl-v2"}, pub.templateChanges[1])
}

func TestCurrentIsIdempotent(t *testing.T) {
	table := newTable(t)
	ctx := context.Background()
	require.NoError(t, table.Set(ctx, "admin", types.ProductTaxToken, "tmpl-v1"))

	first, err := table.Current(types.ProductTaxToken)
	require.NoError(t, err)
	second, err := table.Current(types.ProductTaxToken)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = table.Current("bogus")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownProductType)
}

func TestPersistFailureLeavesTableUnchanged(t *testing.T) {
	store := &memTemplateStore{saveErr: stderrors.New("kv down")}
	table := newTable(t, WithStore(store))
	ctx := context.Background()

	err := table.Set(ctx, "admin", types.ProductStandardToken, "tmpl-v1")
	require.Error(t, err)

	ref, err := table.Current(types.ProductStandardToken)
	require.NoError(t, err)
	assert.True(t, ref.IsZero())
}

func TestLoadRestoresTable(t *testing.T) {
	store := &memTemplateStore{}
	table := newTable(t, WithStore(store))
	ctx := context.Background()

	require.NoError(t, table.Set(ctx, "admin", types.ProductStandardToken, "tmpl-v1"))
	require.NoError(t, table.Set(ctx, "admin", types.ProductComplianceToken, "tmpl-v2"))

	restored := newTable(t, WithStore(store))
	require.NoError(t, restored.Load(ctx))

	ref, err := restored.Current(types.ProductStandardToken)
	require.NoError(t, err)
	assert.Equal(t, types.TemplateRef("tmpl-v1"), ref)

	ref, err = restored.Current(types.ProductComplianceToken)
	require.NoError(t, err)
	assert.Equal(t, types.TemplateRef("tmpl-v2"), ref)

	ref, err = restored.Current(types.ProductTaxToken)
	require.NoError(t, err)
	assert.True(t, ref.IsZero())
}
