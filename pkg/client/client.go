// Package client is the lovelock Go SDK: create, accept/decline and browse
// lock records on a configured network.
//
//	net, _ := config.Default("testnet")
//	c, err := client.New(net,
//	    client.WithSigner(mySigner),
//	    client.WithLogger(logger),
//	)
//	id, err := c.CreateLock(ctx, "0xrecipient", "forever", 14, 2, 2025)
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/lovebridge/lovelock/internal/config"
	"github.com/lovebridge/lovelock/internal/ledger"
	"github.com/lovebridge/lovelock/internal/lifecycle"
	"github.com/lovebridge/lovelock/internal/lock"
	"github.com/lovebridge/lovelock/internal/txn"
)

// Lock is the canonical lock record.
type Lock = lock.Lock

// Date is a lock's creation date.
type Date = lock.Date

// Decision is the recipient's verdict on a pending lock.
type Decision string

const (
	Accept  Decision = "accept"
	Decline Decision = "decline"
)

// Re-exported sentinel errors so callers need only this package.
var (
	ErrNotFound            = lock.ErrNotFound
	ErrNotLock             = lock.ErrNotLock
	ErrConcurrencyRejected = lock.ErrConcurrencyRejected
)

// Client is the SDK entry point. Safe for concurrent use; the lifecycle
// coordinator serializes state-changing operations per lock ID.
type Client struct {
	net    config.Network
	logger *zap.Logger

	httpClient *http.Client
	signer     ledger.Signer
	rateRPS    float64
	rateBurst  int

	rpc       *ledger.Client
	discovery *lock.Discovery
	coord     *lifecycle.Coordinator
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithSigner attaches the transaction signer. Read-only clients can skip
// it; CreateLock and ResolveLock then fail with a clear error.
func WithSigner(s ledger.Signer) Option {
	return func(c *Client) { c.signer = s }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient sets a custom http.Client for node traffic.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing node calls (requests per second, burst).
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.rateRPS = rps
		c.rateBurst = burst
	}
}

// New creates a Client for the given network.
func New(net config.Network, opts ...Option) (*Client, error) {
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("network config: %w", err)
	}

	c := &Client{
		net:    net,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}

	rpcOpts := []ledger.Option{ledger.WithLogger(c.logger)}
	if c.httpClient != nil {
		rpcOpts = append(rpcOpts, ledger.WithHTTPClient(c.httpClient))
	}
	if c.signer != nil {
		rpcOpts = append(rpcOpts, ledger.WithSigner(c.signer))
	}
	if c.rateRPS > 0 {
		rpcOpts = append(rpcOpts, ledger.WithRateLimit(c.rateRPS, c.rateBurst))
	}
	if net.FinalityTimeout > 0 {
		rpcOpts = append(rpcOpts, ledger.WithFinalityTimeout(net.FinalityTimeout))
	}
	c.rpc = ledger.NewClient(net.Endpoint, rpcOpts...)

	c.discovery = lock.NewDiscovery(c.rpc, net.LockType(), c.logger)
	builder := txn.NewBuilder(net.PackageID, net.BridgeID)
	c.coord = lifecycle.New(c.discovery, builder, c.rpc, c.rpc, c.logger)
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(net config.Network, opts ...Option) *Client {
	c, err := New(net, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Address returns the signer's address, or "" for a read-only client.
func (c *Client) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address()
}

// CreateLock proposes a lock to recipient, escrows the lock price, waits
// for finality and returns the new lock's ID.
func (c *Client) CreateLock(ctx context.Context, recipient, message string, day, month, year int) (string, error) {
	return c.coord.CreateLock(ctx, recipient, message, day, month, year)
}

// ResolveLock submits the recipient's decision for a pending lock.
// Accepting closes the lock forever under the bridge registry; declining
// destroys it and refunds the creator.
func (c *Client) ResolveLock(ctx context.Context, lockID string, decision Decision) error {
	switch decision {
	case Accept, Decline:
	default:
		return fmt.Errorf("unknown decision %q", decision)
	}
	return c.coord.ResolveLock(ctx, lockID, decision == Accept)
}

// Ping verifies the fullnode answers queries, using the bridge registry
// object as the probe target. Any answered lookup counts, even one that
// says the object is not there.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.rpc.GetObject(ctx, c.net.BridgeID)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("bridge registry %s not found on %s", c.net.BridgeID, c.net.Name)
	}
	return err
}

// FetchLockByID fetches one lock. Returns ErrNotFound on a miss and
// ErrNotLock when the object exists but is something else.
func (c *Client) FetchLockByID(ctx context.Context, id string) (*Lock, error) {
	return c.discovery.ByID(ctx, id)
}

// FetchPendingForRecipient lists the locks awaiting address's decision.
// An empty slice is a valid outcome, not an error.
func (c *Client) FetchPendingForRecipient(ctx context.Context, address string) ([]Lock, error) {
	return c.discovery.PendingFor(ctx, address)
}

// FetchRegistryLocks lists every accepted lock held by the bridge
// registry.
func (c *Client) FetchRegistryLocks(ctx context.Context) ([]Lock, error) {
	return c.discovery.RegistryLocks(ctx, c.net.BridgeID)
}

// FetchLocksByOwner lists every lock owned by an address, regardless of
// role. Order follows the node's listing.
func (c *Client) FetchLocksByOwner(ctx context.Context, owner string) ([]Lock, error) {
	return c.discovery.ByOwner(ctx, owner)
}
