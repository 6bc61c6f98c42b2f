package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestClient provides a testcontainers-backed NATS server for integration tests
type TestClient struct {
	container testcontainers.Container
	Client    *Client
	URL       string
	cleanup   func()
}

const testNATSVersion = "2.11.7-alpine"

// NewTestClient starts a JetStream-enabled NATS container and connects a
// Client to it. Cleanup is registered with the test automatically.
func NewTestClient(t *testing.T, opts ...ClientOption) *TestClient {
	t.Helper()

	tc, err := NewSharedTestClient(opts...)
	if err != nil {
		t.Fatalf("failed to start test NATS: %v", err)
	}
	t.Cleanup(tc.Cleanup)

	return tc
}

// NewSharedTestClient starts a test NATS container without requiring a
// testing.T, for use in TestMain.
func NewSharedTestClient(opts ...ClientOption) (*TestClient, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:" + testNATSVersion,
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          []string{"--port", "4222", "--http_port", "8222", "--js"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4222/tcp"),
			wait.ForHTTP("/").WithPort("8222/tcp").WithStartupTimeout(30*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start NATS container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "4222/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container port: %w", err)
	}

	url := fmt.Sprintf("nats://%s:%s", host, port.Port())

	client, err := NewClient(url, opts...)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("create client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connect client: %w", err)
	}

	tc := &TestClient{
		container: container,
		Client:    client,
		URL:       url,
	}
	tc.cleanup = func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
		_ = container.Terminate(context.Background())
	}

	return tc, nil
}

// Cleanup closes the client and terminates the container
func (tc *TestClient) Cleanup() {
	if tc.cleanup != nil {
		tc.cleanup()
		tc.cleanup = nil
	}
}
