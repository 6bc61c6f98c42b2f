package natsclient

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Error variables for connection handling
var (
	ErrNotConnected = stderrors.New("not connected to NATS")
)

// Client manages a NATS connection for the factory
type Client struct {
	url    string
	status atomic.Value // stores ConnectionStatus
	logger *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream
	subs []*nats.Subscription

	// Connection options
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration

	// Authentication
	username string
	password string
	token    string

	// TLS
	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string

	clientName string

	onHealthChange func(bool)

	mu     sync.RWMutex
	closed atomic.Bool
}

// NewClient creates a new NATS client with optional configuration
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:           url,
		logger:        slog.Default(),
		maxReconnects: -1, // infinite by default
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
		drainTimeout:  30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	c.status.Store(StatusDisconnected)
	return c, nil
}

// URL returns the NATS server URL
func (m *Client) URL() string {
	return m.url
}

// Status returns the current connection status
func (m *Client) Status() ConnectionStatus {
	val := m.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(ConnectionStatus)
}

// IsHealthy returns true if the connection is healthy
func (m *Client) IsHealthy() bool {
	return m.Status() == StatusConnected
}

func (m *Client) setStatus(status ConnectionStatus) {
	m.status.Store(status)
}

// OnHealthChange sets a callback for health status changes
func (m *Client) OnHealthChange(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHealthChange = fn
}

func (m *Client) buildConnectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(m.maxReconnects),
		nats.ReconnectWait(m.reconnectWait),
		nats.Timeout(m.timeout),
		nats.DrainTimeout(m.drainTimeout),
		nats.DisconnectErrHandler(m.handleDisconnect),
		nats.ReconnectHandler(m.handleReconnect),
		nats.ClosedHandler(m.handleClosed),
	}

	if m.username != "" && m.password != "" {
		opts = append(opts, nats.UserInfo(m.username, m.password))
	}
	if m.token != "" {
		opts = append(opts, nats.Token(m.token))
	}
	if m.tlsCertFile != "" && m.tlsKeyFile != "" {
		opts = append(opts, nats.ClientCert(m.tlsCertFile, m.tlsKeyFile))
	}
	if m.tlsCAFile != "" {
		opts = append(opts, nats.RootCAs(m.tlsCAFile))
	}
	if m.clientName != "" {
		opts = append(opts, nats.Name(m.clientName))
	}

	return opts
}

// Connect establishes the connection to the NATS server
func (m *Client) Connect(ctx context.Context) error {
	m.setStatus(StatusConnecting)
	m.logger.Info("connecting to NATS", "url", m.url)

	connectDone := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(m.url, m.buildConnectionOptions()...)
		if err != nil {
			connectDone <- err
			return
		}

		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			connectDone <- err
			return
		}

		m.mu.Lock()
		m.conn = conn
		m.js = js
		m.mu.Unlock()

		connectDone <- nil
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			m.setStatus(StatusDisconnected)
			return errors.WrapTransient(err, "Client", "Connect", "establish connection")
		}
	case <-ctx.Done():
		m.setStatus(StatusDisconnected)
		return errors.WrapTransient(ctx.Err(), "Client", "Connect", "connection cancelled")
	}

	m.setStatus(StatusConnected)
	m.logger.Info("connected to NATS", "url", m.url)

	m.mu.RLock()
	onHealthChange := m.onHealthChange
	m.mu.RUnlock()
	if onHealthChange != nil {
		onHealthChange(true)
	}

	return nil
}

// Close drains and closes the NATS connection
func (m *Client) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil // already closed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if err := sub.Unsubscribe(); err != nil {
			m.logger.Error("failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	m.subs = nil

	if m.conn != nil {
		drainTimeout := m.drainTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < drainTimeout {
				drainTimeout = remaining
			}
		}

		drainDone := make(chan error, 1)
		go func() {
			drainDone <- m.conn.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				m.logger.Error("drain error, force closing", "error", err)
			}
		case <-time.After(drainTimeout):
			m.logger.Error("drain timeout, force closing", "timeout", drainTimeout)
		case <-ctx.Done():
			m.logger.Error("context cancelled during drain, force closing")
		}

		m.conn.Close()
		m.conn = nil
	}

	// Clear credentials
	m.username = ""
	m.password = ""
	m.token = ""

	m.setStatus(StatusDisconnected)
	return nil
}

// Publish publishes a message to a NATS subject
func (m *Client) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	return conn.Publish(subject, data)
}

// Request performs a request-reply exchange on a NATS subject
func (m *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return nil, ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

// Subscribe subscribes to a subject, optionally as part of a queue group.
// The handler receives the raw message so it can reply via msg.Respond.
func (m *Client) Subscribe(subject, queue string, handler func(msg *nats.Msg)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || !m.conn.IsConnected() {
		return ErrNotConnected
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = m.conn.QueueSubscribe(subject, queue, handler)
	} else {
		sub, err = m.conn.Subscribe(subject, handler)
	}
	if err != nil {
		return err
	}

	m.subs = append(m.subs, sub)
	return nil
}

// JetStream returns the JetStream context
func (m *Client) JetStream() (jetstream.JetStream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.js == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "JetStream", "get JetStream context")
	}
	return m.js, nil
}

// CreateKeyValueBucket creates or gets a KV bucket with configuration
func (m *Client) CreateKeyValueBucket(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	js, err := m.JetStream()
	if err != nil {
		return nil, err
	}

	// Try to get the existing bucket first
	bucket, err := js.KeyValue(ctx, cfg.Bucket)
	if err == nil {
		return bucket, nil
	}

	bucket, err = js.CreateKeyValue(ctx, cfg)
	if err != nil {
		// Another process may have created it between the two calls
		if isAlreadyExistsError(err) {
			bucket, err = js.KeyValue(ctx, cfg.Bucket)
			if err != nil {
				return nil, errors.WrapTransient(err, "Client", "CreateKeyValueBucket", "access existing bucket")
			}
			return bucket, nil
		}
		return nil, errors.WrapTransient(err, "Client", "CreateKeyValueBucket", "create bucket")
	}

	m.logger.Info("created KV bucket", "bucket", cfg.Bucket)
	return bucket, nil
}

// Event handlers for NATS connection
func (m *Client) handleDisconnect(_ *nats.Conn, err error) {
	m.setStatus(StatusReconnecting)
	if err != nil {
		m.logger.Warn("NATS disconnected", "error", err)
	}
	m.notifyHealth(false)
}

func (m *Client) handleReconnect(_ *nats.Conn) {
	m.setStatus(StatusConnected)
	m.logger.Info("NATS reconnected")
	m.notifyHealth(true)
}

func (m *Client) handleClosed(_ *nats.Conn) {
	m.setStatus(StatusDisconnected)
	m.notifyHealth(false)
}

func (m *Client) notifyHealth(healthy bool) {
	m.mu.RLock()
	onHealthChange := m.onHealthChange
	m.mu.RUnlock()

	if onHealthChange != nil {
		go onHealthChange(healthy)
	}
}

// isAlreadyExistsError checks if an error indicates a KV bucket already exists
func isAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "bucket name already in use") ||
		strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "stream name already in use")
}
