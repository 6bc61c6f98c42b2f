package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/factory"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/registry"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/template"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

type stubRuntime struct {
	next int
}

func (r *stubRuntime) Resolve(context.Context, types.TemplateRef) bool { return true }

func (r *stubRuntime) Clone(context.Context, types.TemplateRef) (types.InstanceID, error) {
	r.next++
	return types.InstanceID(fmt.Sprintf("inst-%03d", r.next)), nil
}

func (r *stubRuntime) Initialize(context.Context, types.InstanceID, []byte) error {
	return nil
}

func newGateway(t *testing.T) *Gateway {
	t.Helper()

	acl, err := access.NewController("admin")
	require.NoError(t, err)

	rt := &stubRuntime{}
	table, err := template.New(acl, rt)
	require.NoError(t, err)

	reg, err := registry.New("testnet")
	require.NoError(t, err)

	f, err := factory.New(factory.Config{
		Templates: table,
		Registry:  reg,
		Runtime:   rt,
		Guard:     &access.EntryGuard{},
	})
	require.NoError(t, err)

	// The client is never connected: handler tests exercise the
	// decode/dispatch/envelope path only.
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	gw, err := New(client, f, acl, "luxuryx.factory.v1")
	require.NoError(t, err)
	return gw
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func decodeOK[T any](t *testing.T, reply []byte) T {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(reply, &resp))
	require.True(t, resp.OK, "expected ok response, got error: %+v", resp.Error)
	var result T
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	return result
}

func setTemplate(t *testing.T, gw *Gateway, product types.ProductType) {
	t.Helper()
	req := mustJSON(t, TemplateSetRequest{Caller: "admin", Product: product, Ref: "tmpl-v1"})
	_, err := gw.handleTemplateSet(context.Background(), req)
	require.NoError(t, err)
}

func TestHandleDeployStandard(t *testing.T) {
	gw := newGateway(t)
	ctx := context.Background()
	setTemplate(t, gw, types.ProductStandardToken)

	req := mustJSON(t, DeployRequest{
		Caller: "alice",
		Params: mustJSON(t, types.StandardTokenParams{
			Name: "Lux Gold", Symbol: "LXG", Owner: "alice",
			Decimals: 18, InitialSupply: 1000,
		}),
	})

	reply, err := gw.handleDeployStandard(ctx, req)
	require.NoError(t, err)
	result := decodeOK[DeployResult](t, reply)
	assert.NotEmpty(t, result.Instance)

	countReply, err := gw.handleCount(ctx, nil)
	require.NoError(t, err)
	count := decodeOK[CountResult](t, countReply)
	assert.Equal(t, 1, count.Count)
}

func TestHandleDeployRejectsMalformedRequest(t *testing.T) {
	gw := newGateway(t)

	_, err := gw.handleDeployStandard(context.Background(), []byte("{not json"))
	require.Error(t, err)

	reply := errResponse(err)
	var resp Response
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid", resp.Error.Class)
}

func TestErrorEnvelopeCarriesClass(t *testing.T) {
	gw := newGateway(t)
	ctx := context.Background()

	// No template set: deploy must fail with an invalid-class error.
	req := mustJSON(t, DeployRequest{
		Caller: "alice",
		Params: mustJSON(t, types.StandardTokenParams{
			Name: "Lux Gold", Symbol: "LXG", Owner: "alice", Decimals: 18,
		}),
	})
	_, err := gw.handleDeployStandard(ctx, req)
	require.Error(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(errResponse(err), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "invalid", resp.Error.Class)
	assert.Contains(t, resp.Error.Message, "no template set")
}

func TestHandleTemplateRoundTrip(t *testing.T) {
	gw := newGateway(t)
	ctx := context.Background()
	setTemplate(t, gw, types.ProductTaxToken)

	reply, err := gw.handleTemplateCurrent(ctx, mustJSON(t, TemplateCurrentRequest{
		Product: types.ProductTaxToken,
	}))
	require.NoError(t, err)
	result := decodeOK[TemplateResult](t, reply)
	assert.Equal(t, types.TemplateRef("tmpl-v1"), result.Ref)

	// Unset product type reads back as empty.
	reply, err = gw.handleTemplateCurrent(ctx, mustJSON(t, TemplateCurrentRequest{
		Product: types.ProductRoyaltyCollection,
	}))
	require.NoError(t, err)
	result = decodeOK[TemplateResult](t, reply)
	assert.True(t, result.Ref.IsZero())
}

func TestHandleTemplateSetRequiresAdmin(t *testing.T) {
	gw := newGateway(t)

	req := mustJSON(t, TemplateSetRequest{
		Caller: "mallory", Product: types.ProductStandardToken, Ref: "tmpl-v1",
	})
	_, err := gw.handleTemplateSet(context.Background(), req)
	require.Error(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(errResponse(err), &resp))
	assert.Equal(t, "invalid", resp.Error.Class)
}

func TestHandleRegistryReads(t *testing.T) {
	gw := newGateway(t)
	ctx := context.Background()
	setTemplate(t, gw, types.ProductStandardToken)

	deployReply, err := gw.handleDeployStandard(ctx, mustJSON(t, DeployRequest{
		Caller: "alice",
		Params: mustJSON(t, types.StandardTokenParams{
			Name: "Lux Gold", Symbol: "LXG", Owner: "bob", Decimals: 18,
		}),
	}))
	require.NoError(t, err)
	deployed := decodeOK[DeployResult](t, deployReply)

	reply, err := gw.handleOrdinal(ctx, mustJSON(t, OrdinalRequest{Index: 0}))
	require.NoError(t, err)
	assert.Equal(t, deployed.Instance, decodeOK[DeployResult](t, reply).Instance)

	reply, err = gw.handleInfo(ctx, mustJSON(t, InfoRequest{Instance: deployed.Instance}))
	require.NoError(t, err)
	rec := decodeOK[types.DeploymentRecord](t, reply)
	assert.Equal(t, types.Identity("alice"), rec.Deployer)
	assert.Equal(t, types.Identity("bob"), rec.Owner)

	reply, err = gw.handleByDeployer(ctx, mustJSON(t, ByDeployerRequest{Deployer: "alice"}))
	require.NoError(t, err)
	instances := decodeOK[InstancesResult](t, reply)
	assert.Equal(t, []types.InstanceID{deployed.Instance}, instances.Instances)

	_, err = gw.handleOrdinal(ctx, mustJSON(t, OrdinalRequest{Index: 7}))
	assert.Error(t, err)
}

func TestHandleAdminTransfer(t *testing.T) {
	gw := newGateway(t)
	ctx := context.Background()

	_, err := gw.handleAdminTransfer(ctx, mustJSON(t, AdminTransferRequest{
		Caller: "mallory", Next: "mallory",
	}))
	require.Error(t, err)

	_, err = gw.handleAdminTransfer(ctx, mustJSON(t, AdminTransferRequest{
		Caller: "admin", Next: "admin-2",
	}))
	require.NoError(t, err)

	// The old admin lost the role.
	req := mustJSON(t, TemplateSetRequest{
		Caller: "admin", Product: types.ProductStandardToken, Ref: "tmpl-v1",
	})
	_, err = gw.handleTemplateSet(ctx, req)
	require.Error(t, err)

	req = mustJSON(t, TemplateSetRequest{
		Caller: "admin-2", Product: types.ProductStandardToken, Ref: "tmpl-v1",
	})
	_, err = gw.handleTemplateSet(ctx, req)
	require.NoError(t, err)
}
