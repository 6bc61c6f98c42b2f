package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

const (
	// instancePrefix namespaces every instance identifier minted by this runtime.
	instancePrefix = "lux-"

	defaultSubjectPrefix = "luxuryx.runtime"
	defaultCallTimeout   = 10 * time.Second
	delegationsBucket    = "luxuryx_delegations"
)

// delegation records which template an instance delegates to.
type delegation struct {
	Instance types.InstanceID  `json:"instance"`
	Template types.TemplateRef `json:"template"`
	ClonedAt time.Time         `json:"cloned_at"`
}

// initReply is the response envelope of a template's initializer endpoint.
type initReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NATSRuntime reaches template and instance units over NATS request-reply.
// Template units answer on <prefix>.template.<ref>.resolve; instances accept
// their single initialization call on <prefix>.instance.<id>.init.
type NATSRuntime struct {
	client      *natsclient.Client
	delegations *natsclient.KVStore
	bucket      string
	prefix      string
	callTimeout time.Duration
}

// NATSRuntimeOption configures a NATSRuntime.
type NATSRuntimeOption func(*NATSRuntime)

// WithSubjectPrefix overrides the subject prefix for template and instance calls.
func WithSubjectPrefix(prefix string) NATSRuntimeOption {
	return func(r *NATSRuntime) { r.prefix = prefix }
}

// WithCallTimeout bounds each substrate call.
func WithCallTimeout(d time.Duration) NATSRuntimeOption {
	return func(r *NATSRuntime) { r.callTimeout = d }
}

// WithDelegationsBucket overrides the KV bucket recording clone delegations.
func WithDelegationsBucket(name string) NATSRuntimeOption {
	return func(r *NATSRuntime) { r.bucket = name }
}

// NewNATSRuntime creates the production runtime on top of the given client.
func NewNATSRuntime(ctx context.Context, client *natsclient.Client, opts ...NATSRuntimeOption) (*NATSRuntime, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "NATSRuntime", "NewNATSRuntime", "nats client validation")
	}

	r := &NATSRuntime{
		client:      client,
		bucket:      delegationsBucket,
		prefix:      defaultSubjectPrefix,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      r.bucket,
		Description: "Instance-to-template delegation entries",
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "NATSRuntime", "NewNATSRuntime", "create delegations bucket")
	}
	r.delegations = client.NewKVStore(bucket)

	return r, nil
}

// Resolve probes the template's resolve endpoint; any reply means the
// reference points at live executable code.
func (r *NATSRuntime) Resolve(ctx context.Context, ref types.TemplateRef) bool {
	if ref.IsZero() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s.template.%s.resolve", r.prefix, ref)
	_, err := r.client.Request(ctx, subject, nil)
	return err == nil
}

// Clone mints a new instance identity and records its delegation to the
// template. The instance's state is born empty; its behavior is the
// template's.
func (r *NATSRuntime) Clone(ctx context.Context, ref types.TemplateRef) (types.InstanceID, error) {
	if ref.IsZero() {
		return "", errors.WrapInvalid(errors.ErrInvalidTemplate, "NATSRuntime", "Clone", "template validation")
	}

	id := types.InstanceID(instancePrefix + uuid.NewString())

	entry := delegation{
		Instance: id,
		Template: ref,
		ClonedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", errors.WrapFatal(err, "NATSRuntime", "Clone", "marshal delegation")
	}

	// UUID collisions are not a practical concern; Create still guards the
	// invariant that a delegation entry is written exactly once.
	if _, err := r.delegations.Create(ctx, string(id), data); err != nil {
		return "", errors.WrapTransient(err, "NATSRuntime", "Clone", "record delegation")
	}

	return id, nil
}

// Initialize sends the one-shot initializer call to the instance and waits
// for its reply.
func (r *NATSRuntime) Initialize(ctx context.Context, id types.InstanceID, calldata []byte) error {
	if id.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidInstance, "NATSRuntime", "Initialize", "instance validation")
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s.instance.%s.init", r.prefix, id)
	data, err := r.client.Request(ctx, subject, calldata)
	if err != nil {
		return errors.WrapTransient(err, "NATSRuntime", "Initialize", "initializer call")
	}

	var reply initReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return errors.WrapInvalid(errors.ErrInitializationFailed, "NATSRuntime", "Initialize", "decode reply")
	}
	if !reply.OK {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInitializationFailed, reply.Error),
			"NATSRuntime", "Initialize", "initializer call")
	}

	return nil
}
