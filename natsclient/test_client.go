package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestClient runs a disposable NATS server in a container for
// integration tests and connects a Client to it.
type TestClient struct {
	container testcontainers.Container
	Client    *Client
	URL       string
}

// natsTestImage is the server image used by integration tests.
const natsTestImage = "nats:2.11.7-alpine"

// NewTestClient starts a JetStream-enabled NATS container and returns
// a connected client. Cleanup is registered on t.
func NewTestClient(t testing.TB) *TestClient {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        natsTestImage,
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          []string{"--js", "--port", "4222", "--http_port", "8222"},
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
		t.Fatalf("start NATS container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	url := fmt.Sprintf("nats://%s:%s", host, port.Port())

	client, err := NewClient(url, WithMaxReconnects(0))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		t.Fatalf("connect to NATS: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	return &TestClient{container: container, Client: client, URL: url}
}
