package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lovebridge/lovelock/internal/txn"
)

const (
	defaultPollInterval    = 500 * time.Millisecond
	maxPollInterval        = 3 * time.Second
	defaultFinalityTimeout = 30 * time.Second

	suiCoinType = "0x2::sui::SUI"
)

// Client talks JSON-RPC to a fullnode. It implements QueryService,
// Submitter and FinalityWaiter.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	limiter         *rate.Limiter
	signer          Signer
	logger          *zap.Logger
	pollInterval    time.Duration
	finalityTimeout time.Duration

	nextID atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSigner attaches the signer used by Submit. Queries work without one.
func WithSigner(s Signer) Option {
	return func(c *Client) { c.signer = s }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit caps outgoing RPC calls with a token bucket. Public
// fullnodes throttle aggressively; staying under their limit beats
// handling 429s.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithFinalityTimeout bounds AwaitFinality. Expiry surfaces as an error;
// the transaction itself cannot be retracted and may still land.
func WithFinalityTimeout(d time.Duration) Option {
	return func(c *Client) { c.finalityTimeout = d }
}

// WithPollInterval sets the initial finality polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates a Client for the fullnode at endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		logger:          zap.NewNop(),
		pollInterval:    defaultPollInterval,
		finalityTimeout: defaultFinalityTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC request and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      c.nextID.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	rpcRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		rpcRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		rpcRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode >= 300 {
		rpcRequestsTotal.WithLabelValues(method, "http_error").Inc()
		return fmt.Errorf("%s: node returned HTTP %d: %s", method, resp.StatusCode, string(body))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		rpcRequestsTotal.WithLabelValues(method, "decode_error").Inc()
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		rpcRequestsTotal.WithLabelValues(method, "rpc_error").Inc()
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}

	rpcRequestsTotal.WithLabelValues(method, "ok").Inc()
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// objectStatus mirrors the node's per-object error variant.
type objectStatus struct {
	Code string `json:"code"` // "notExists", "deleted", ...
}

// GetObject implements QueryService.
func (c *Client) GetObject(ctx context.Context, id string) (*RawObject, error) {
	var result struct {
		Data  *RawObject    `json:"data"`
		Error *objectStatus `json:"error"`
	}
	opts := map[string]bool{"showContent": true, "showOwner": true, "showType": true}
	if err := c.call(ctx, "sui_getObject", []any{id, opts}, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		switch result.Error.Code {
		case "notExists", "deleted":
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("get object %s: node reported %q", id, result.Error.Code)
		}
	}
	if result.Data == nil {
		return nil, ErrNotFound
	}
	return result.Data, nil
}

// ListOwnedObjects implements QueryService. Pages are walked to the end;
// the node's relative order within and across pages is preserved.
func (c *Client) ListOwnedObjects(ctx context.Context, owner string) ([]RawObject, error) {
	query := map[string]any{
		"options": map[string]bool{"showContent": true, "showOwner": true, "showType": true},
	}

	var all []RawObject
	var cursor any
	for {
		var page struct {
			Data []struct {
				Data  *RawObject    `json:"data"`
				Error *objectStatus `json:"error"`
			} `json:"data"`
			HasNextPage bool `json:"hasNextPage"`
			NextCursor  any  `json:"nextCursor"`
		}
		if err := c.call(ctx, "suix_getOwnedObjects", []any{owner, query, cursor, nil}, &page); err != nil {
			return nil, err
		}

		for _, entry := range page.Data {
			if entry.Data != nil {
				all = append(all, *entry.Data)
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// Submit implements Submitter: resolve payment coins, have the node shape
// the transaction bytes, sign them, and execute.
func (c *Client) Submit(ctx context.Context, call *txn.MoveCall) (string, error) {
	if c.signer == nil {
		return "", fmt.Errorf("submit: no signer configured")
	}

	pkg, module, fn, err := splitTarget(call.Target)
	if err != nil {
		return "", err
	}

	args := make([]any, 0, len(call.Args))
	for _, a := range call.Args {
		v, err := c.resolveArg(ctx, a)
		if err != nil {
			return "", err
		}
		args = append(args, v)
	}

	var built struct {
		TxBytes string `json:"txBytes"`
	}
	params := []any{
		c.signer.Address(),
		pkg, module, fn,
		[]string{}, // no type arguments
		args,
		nil, // node picks the gas object
		strconv.FormatUint(call.GasBudget, 10),
	}
	if err := c.call(ctx, "unsafe_moveCall", params, &built); err != nil {
		return "", err
	}

	signature, err := c.signer.SignTransaction(built.TxBytes)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	var executed struct {
		Digest string `json:"digest"`
	}
	execParams := []any{
		built.TxBytes,
		[]string{signature},
		map[string]bool{"showEffects": false},
		"WaitForEffectsCert",
	}
	if err := c.call(ctx, "sui_executeTransactionBlock", execParams, &executed); err != nil {
		return "", err
	}

	c.logger.Info("transaction submitted",
		zap.String("target", call.Target),
		zap.String("digest", executed.Digest),
	)
	return executed.Digest, nil
}

// resolveArg maps a builder argument to its JSON-RPC value. Payment
// arguments are resolved to a concrete coin here because coin selection
// needs the sender's ownership view.
func (c *Client) resolveArg(ctx context.Context, a txn.Arg) (any, error) {
	switch arg := a.(type) {
	case txn.ObjectArg:
		return arg.ID, nil
	case txn.AddressArg:
		return arg.Address, nil
	case txn.StringArg:
		return arg.Value, nil
	case txn.U8Arg:
		return int(arg.Value), nil
	case txn.U16Arg:
		return int(arg.Value), nil
	case txn.BoolArg:
		return arg.Value, nil
	case txn.PaymentArg:
		return c.pickPaymentCoin(ctx, arg.Amount)
	default:
		return nil, fmt.Errorf("unsupported argument type %T", a)
	}
}

// pickPaymentCoin finds a coin of the sender with enough balance to cover
// amount. The contract takes the escrow from it and refunds the rest.
func (c *Client) pickPaymentCoin(ctx context.Context, amount uint64) (string, error) {
	var page struct {
		Data []struct {
			CoinObjectID string `json:"coinObjectId"`
			Balance      string `json:"balance"`
		} `json:"data"`
	}
	if err := c.call(ctx, "suix_getCoins", []any{c.signer.Address(), suiCoinType, nil, nil}, &page); err != nil {
		return "", err
	}

	for _, coin := range page.Data {
		balance, err := strconv.ParseUint(coin.Balance, 10, 64)
		if err != nil {
			continue
		}
		if balance >= amount {
			return coin.CoinObjectID, nil
		}
	}
	return "", fmt.Errorf("no coin with balance >= %d found for %s", amount, c.signer.Address())
}

// AwaitFinality implements FinalityWaiter by polling the transaction
// digest with capped backoff until the node reports effects or the
// deadline passes. The deadline keeps the caller's single-flight guard
// from being held forever; expiry is retryable.
func (c *Client) AwaitFinality(ctx context.Context, digest string) (*Effects, error) {
	ctx, cancel := context.WithTimeout(ctx, c.finalityTimeout)
	defer cancel()

	start := time.Now()
	defer func() { finalityWaitDuration.Observe(time.Since(start).Seconds()) }()

	interval := c.pollInterval
	for {
		effects, err := c.fetchEffects(ctx, digest)
		if err == nil {
			return effects, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("awaiting finality for %s: %w", digest, ctx.Err())
		}
		c.logger.Debug("transaction not yet final",
			zap.String("digest", digest),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("awaiting finality for %s: %w", digest, ctx.Err())
		case <-time.After(interval):
		}
		interval = min(interval*3/2, maxPollInterval)
	}
}

func (c *Client) fetchEffects(ctx context.Context, digest string) (*Effects, error) {
	var result struct {
		Effects *struct {
			Status struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"status"`
			Created []struct {
				Reference ObjectRef `json:"reference"`
			} `json:"created"`
		} `json:"effects"`
	}
	opts := map[string]bool{"showEffects": true}
	if err := c.call(ctx, "sui_getTransactionBlock", []any{digest, opts}, &result); err != nil {
		return nil, err
	}
	if result.Effects == nil {
		return nil, fmt.Errorf("transaction %s has no effects yet", digest)
	}

	effects := &Effects{
		Status: result.Effects.Status.Status,
		Error:  result.Effects.Status.Error,
	}
	for _, created := range result.Effects.Created {
		effects.Created = append(effects.Created, created.Reference)
	}
	return effects, nil
}

func splitTarget(target string) (pkg, module, fn string, err error) {
	parts := strings.Split(target, "::")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed move call target %q", target)
	}
	return parts[0], parts[1], parts[2], nil
}
