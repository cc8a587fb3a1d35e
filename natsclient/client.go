// Package natsclient manages the NATS connection and JetStream
// key-value access used by the annotation set store.
//
// The client holds one connection for the life of the process and
// exposes a small KV surface: bucket creation plus a KVStore wrapper
// with compare-and-swap support. Reconnection is delegated to the
// NATS client library rather than handled here.
package natsclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
)

// Client wraps a NATS connection with JetStream enabled.
type Client struct {
	url    string
	logger *slog.Logger

	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration

	conn *nats.Conn
	js   jetstream.JetStream
}

// ClientOption configures a Client before it connects.
type ClientOption func(*Client) error

// WithClientLogger sets the structured logger. The default discards.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Client", "WithClientLogger", "logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithConnectTimeout sets the dial timeout.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Client", "WithConnectTimeout", "timeout must be positive")
		}
		c.timeout = timeout
		return nil
	}
}

// WithMaxReconnects caps reconnection attempts. Negative means retry
// forever, which is the default.
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) error {
		c.maxReconnects = n
		return nil
	}
}

// NewClient creates a client for the given NATS URL. The client does
// not connect until Connect is called.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Client", "NewClient", "url cannot be empty")
	}

	c := &Client{
		url:           url,
		logger:        slog.New(slog.DiscardHandler),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}
	return c, nil
}

// Connect establishes the NATS connection and initializes JetStream.
// Calling Connect on an already connected client is a no-op.
func (c *Client) Connect(_ context.Context) error {
	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}

	conn, err := nats.Connect(c.url,
		nats.Timeout(c.timeout),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return errors.WrapTransient(err, "Client", "Connect", "dial NATS")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return errors.WrapFatal(err, "Client", "Connect", "initialize JetStream")
	}

	c.conn = conn
	c.js = js
	c.logger.Info("nats connected", "url", conn.ConnectedUrl())
	return nil
}

// Close drains and closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return errors.WrapTransient(err, "Client", "Close", "drain connection")
	}
	c.conn = nil
	c.js = nil
	return nil
}

// CreateKeyValueBucket creates the bucket if it does not exist and
// returns a handle to it either way.
func (c *Client) CreateKeyValueBucket(
	ctx context.Context, cfg jetstream.KeyValueConfig,
) (jetstream.KeyValue, error) {
	if c.js == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Client", "CreateKeyValueBucket", "client not connected")
	}
	bucket, err := c.js.CreateKeyValue(ctx, cfg)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "CreateKeyValueBucket", "create KV bucket")
	}
	return bucket, nil
}
