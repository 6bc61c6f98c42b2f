package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

type StoreIntegrationSuite struct {
	suite.Suite
	tc    *natsclient.TestClient
	store *Store
	ctx   context.Context
}

func (s *StoreIntegrationSuite) SetupSuite() {
	tc, err := natsclient.NewSharedTestClient()
	s.Require().NoError(err)
	s.tc = tc
	s.ctx = context.Background()

	store, err := New(s.ctx, tc.Client, DefaultBuckets())
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreIntegrationSuite) TearDownSuite() {
	if s.tc != nil {
		s.tc.Cleanup()
	}
}

func (s *StoreIntegrationSuite) record(instance string, ordinal uint64) *types.DeploymentRecord {
	return &types.DeploymentRecord{
		Instance:  types.InstanceID(instance),
		Product:   types.ProductStandardToken,
		Name:      "Gold",
		Symbol:    "GLD",
		Deployer:  "alice",
		Owner:     "bob",
		CreatedAt: time.Now().UTC(),
		Template:  "tmpl-v1",
		Network:   "testnet",
		Ordinal:   ordinal,
	}
}

func (s *StoreIntegrationSuite) TestAppendAndReloadInOrdinalOrder() {
	// Append out of key order to prove reload sorts by ordinal.
	s.Require().NoError(s.store.AppendRecord(s.ctx, s.record("lux-b", 1)))
	s.Require().NoError(s.store.AppendRecord(s.ctx, s.record("lux-a", 0)))
	s.Require().NoError(s.store.AppendRecord(s.ctx, s.record("lux-c", 2)))

	records, err := s.store.Records(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(types.InstanceID("lux-a"), records[0].Instance)
	s.Equal(types.InstanceID("lux-b"), records[1].Instance)
	s.Equal(types.InstanceID("lux-c"), records[2].Instance)
}

func (s *StoreIntegrationSuite) TestAppendRejectsDuplicate() {
	s.Require().NoError(s.store.AppendRecord(s.ctx, s.record("lux-dup", 10)))

	err := s.store.AppendRecord(s.ctx, s.record("lux-dup", 11))
	s.Require().Error(err)
	s.ErrorIs(err, errors.ErrAlreadyRegistered)
}

func (s *StoreIntegrationSuite) TestTemplatesRoundTrip() {
	refs, err := s.store.Templates(s.ctx)
	s.Require().NoError(err)
	s.NotContains(refs, types.ProductTaxToken)

	s.Require().NoError(s.store.SaveTemplate(s.ctx, types.ProductTaxToken, "tax-v1"))
	s.Require().NoError(s.store.SaveTemplate(s.ctx, types.ProductTaxToken, "tax-v2"))

	refs, err = s.store.Templates(s.ctx)
	s.Require().NoError(err)
	s.Equal(types.TemplateRef("tax-v2"), refs[types.ProductTaxToken])
}

func (s *StoreIntegrationSuite) TestAdminRoundTrip() {
	admin, err := s.store.Admin(s.ctx)
	s.Require().NoError(err)
	s.True(admin.IsZero())

	s.Require().NoError(s.store.SaveAdmin(s.ctx, "root"))

	admin, err = s.store.Admin(s.ctx)
	s.Require().NoError(err)
	s.Equal(types.Identity("root"), admin)
}

func TestStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreIntegrationSuite))
}
