package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/factory"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

const defaultRequestTimeout = 10 * time.Second

// Gateway serves the factory API over NATS request/reply.
type Gateway struct {
	client  *natsclient.Client
	factory *factory.Factory
	acl     *access.Controller
	prefix  string
	queue   string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithQueueGroup overrides the queue group handlers join.
func WithQueueGroup(queue string) Option {
	return func(g *Gateway) { g.queue = queue }
}

// WithRequestTimeout bounds the handling of a single request.
func WithRequestTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a gateway. The prefix is the subject root for all operations,
// without a trailing dot.
func New(client *natsclient.Client, f *factory.Factory, acl *access.Controller, prefix string, opts ...Option) (*Gateway, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "New", "client validation")
	}
	if f == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "New", "factory validation")
	}
	if acl == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "New", "access controller validation")
	}
	if prefix == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "New", "prefix validation")
	}

	g := &Gateway{
		client:  client,
		factory: f,
		acl:     acl,
		prefix:  prefix,
		queue:   "luxuryx-factory",
		timeout: defaultRequestTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Start subscribes every operation subject. Subscriptions are drained when
// the NATS client closes.
func (g *Gateway) Start(_ context.Context) error {
	handlers := map[string]func(context.Context, []byte) ([]byte, error){
		"deploy.standard":        g.handleDeployStandard,
		"deploy.tax":             g.handleDeployTax,
		"deploy.royalty":         g.handleDeployRoyalty,
		"deploy.compliance":      g.handleDeployCompliance,
		"template.set":           g.handleTemplateSet,
		"template.current":       g.handleTemplateCurrent,
		"admin.transfer":         g.handleAdminTransfer,
		"deployments.count":      g.handleCount,
		"deployments.ordinal":    g.handleOrdinal,
		"deployments.info":       g.handleInfo,
		"deployments.bydeployer": g.handleByDeployer,
	}

	for op, handler := range handlers {
		subject := g.prefix + "." + op
		if err := g.client.Subscribe(subject, g.queue, g.wrap(subject, handler)); err != nil {
			return errors.Wrap(err, "Gateway", "Start", "subscribe "+subject)
		}
	}

	g.logger.Info("gateway started", "prefix", g.prefix, "queue", g.queue, "subjects", len(handlers))
	return nil
}

// wrap adapts an operation handler to a NATS message callback: decode,
// handle with a bounded context, reply with the ok/error envelope.
func (g *Gateway) wrap(subject string, handler func(context.Context, []byte) ([]byte, error)) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		reply, err := handler(ctx, msg.Data)
		if err != nil {
			g.logger.Debug("request failed", "subject", subject, "error", err)
			reply = errResponse(err)
		}
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			g.logger.Warn("reply failed", "subject", subject, "error", err)
		}
	}
}

func decode[T any](data []byte) (T, error) {
	var req T
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errors.WrapInvalid(err, "Gateway", "decode", "parse request")
	}
	return req, nil
}

func (g *Gateway) handleDeployStandard(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[DeployRequest](data)
	if err != nil {
		return nil, err
	}
	params, err := decode[types.StandardTokenParams](req.Params)
	if err != nil {
		return nil, err
	}
	instance, err := g.factory.DeployStandardToken(ctx, req.Caller, params)
	if err != nil {
		return nil, err
	}
	return okResponse(DeployResult{Instance: instance})
}

func (g *Gateway) handleDeployTax(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[DeployRequest](data)
	if err != nil {
		return nil, err
	}
	params, err := decode[types.TaxTokenParams](req.Params)
	if err != nil {
		return nil, err
	}
	instance, err := g.factory.DeployTaxToken(ctx, req.Caller, params)
	if err != nil {
		return nil, err
	}
	return okResponse(DeployResult{Instance: instance})
}

func (g *Gateway) handleDeployRoyalty(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[DeployRequest](data)
	if err != nil {
		return nil, err
	}
	params, err := decode[types.RoyaltyCollectionParams](req.Params)
	if err != nil {
		return nil, err
	}
	instance, err := g.factory.DeployRoyaltyCollection(ctx, req.Caller, params)
	if err != nil {
		return nil, err
	}
	return okResponse(DeployResult{Instance: instance})
}

func (g *Gateway) handleDeployCompliance(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[DeployRequest](data)
	if err != nil {
		return nil, err
	}
	params, err := decode[types.ComplianceTokenParams](req.Params)
	if err != nil {
		return nil, err
	}
	instance, err := g.factory.DeployComplianceToken(ctx, req.Caller, params)
	if err != nil {
		return nil, err
	}
	return okResponse(DeployResult{Instance: instance})
}

func (g *Gateway) handleTemplateSet(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[TemplateSetRequest](data)
	if err != nil {
		return nil, err
	}
	if err := g.factory.SetTemplate(ctx, req.Caller, req.Product, req.Ref); err != nil {
		return nil, err
	}
	return okResponse(TemplateResult{Ref: req.Ref})
}

func (g *Gateway) handleTemplateCurrent(_ context.Context, data []byte) ([]byte, error) {
	req, err := decode[TemplateCurrentRequest](data)
	if err != nil {
		return nil, err
	}
	ref, err := g.factory.CurrentTemplate(req.Product)
	if err != nil {
		return nil, err
	}
	return okResponse(TemplateResult{Ref: ref})
}

func (g *Gateway) handleAdminTransfer(ctx context.Context, data []byte) ([]byte, error) {
	req, err := decode[AdminTransferRequest](data)
	if err != nil {
		return nil, err
	}
	if err := g.acl.TransferAdmin(ctx, req.Caller, req.Next); err != nil {
		return nil, err
	}
	return okResponse(struct{}{})
}

func (g *Gateway) handleCount(_ context.Context, _ []byte) ([]byte, error) {
	count, err := g.factory.DeploymentCount()
	if err != nil {
		return nil, err
	}
	return okResponse(CountResult{Count: count})
}

func (g *Gateway) handleOrdinal(_ context.Context, data []byte) ([]byte, error) {
	req, err := decode[OrdinalRequest](data)
	if err != nil {
		return nil, err
	}
	instance, err := g.factory.DeploymentByOrdinal(req.Index)
	if err != nil {
		return nil, err
	}
	return okResponse(DeployResult{Instance: instance})
}

func (g *Gateway) handleInfo(_ context.Context, data []byte) ([]byte, error) {
	req, err := decode[InfoRequest](data)
	if err != nil {
		return nil, err
	}
	rec, err := g.factory.DeploymentInfo(req.Instance)
	if err != nil {
		return nil, err
	}
	return okResponse(rec)
}

func (g *Gateway) handleByDeployer(_ context.Context, data []byte) ([]byte, error) {
	req, err := decode[ByDeployerRequest](data)
	if err != nil {
		return nil, err
	}
	instances, err := g.factory.DeploymentsByDeployer(req.Deployer)
	if err != nil {
		return nil, err
	}
	return okResponse(InstancesResult{Instances: instances})
}
