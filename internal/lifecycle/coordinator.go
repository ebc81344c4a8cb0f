// Package lifecycle drives the three state-changing lock operations:
// submit the transaction, await finality, refetch authoritative state,
// report the outcome. One coordinator serves a whole session.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovebridge/lovelock/internal/ledger"
	"github.com/lovebridge/lovelock/internal/lock"
	"github.com/lovebridge/lovelock/internal/txn"
)

// Stage is where an in-flight operation currently is. Operations not in
// the table are idle.
type Stage string

const (
	StageSubmitting       Stage = "submitting"
	StageAwaitingFinality Stage = "awaiting_finality"
	StageReconciling      Stage = "reconciling"
)

// Coordinator serializes state-changing operations per lock ID and
// reconciles client state with ledger state after each transaction.
// Operations on distinct lock IDs proceed independently.
type Coordinator struct {
	discovery *lock.Discovery
	builder   *txn.Builder
	submitter ledger.Submitter
	finality  ledger.FinalityWaiter
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]Stage
}

// New creates a Coordinator.
func New(
	discovery *lock.Discovery,
	builder *txn.Builder,
	submitter ledger.Submitter,
	finality ledger.FinalityWaiter,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		discovery: discovery,
		builder:   builder,
		submitter: submitter,
		finality:  finality,
		logger:    logger,
		inflight:  make(map[string]Stage),
	}
}

// Stage reports the stage of an in-flight operation on key, if any.
func (c *Coordinator) Stage(key string) (Stage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.inflight[key]
	return s, ok
}

// acquire claims the single-flight guard for key. A second claim while
// the first is active is rejected.
func (c *Coordinator) acquire(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return lock.ErrConcurrencyRejected
	}
	c.inflight[key] = StageSubmitting
	return nil
}

func (c *Coordinator) setStage(key string, s Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key] = s
}

func (c *Coordinator) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
}

// CreateLock submits a lock-creation transaction and returns the new
// lock's ID once it is finalized and readable. Validation failures are
// returned before anything touches the ledger.
//
// Create has no lock ID yet, so the guard is keyed by a synthetic
// pending-create token; creates never contend with each other.
func (c *Coordinator) CreateLock(ctx context.Context, recipient, message string, day, month, year int) (string, error) {
	call, err := c.builder.CreateLock(recipient, message, day, month, year)
	if err != nil {
		return "", err
	}

	key := "create/" + uuid.NewString()
	if err := c.acquire(key); err != nil {
		return "", err
	}
	defer c.release(key)

	effects, err := c.execute(ctx, key, call)
	if err != nil {
		return "", err
	}

	if len(effects.Created) == 0 {
		return "", fmt.Errorf("create finalized but no object was created")
	}
	id := effects.Created[0].ObjectID

	// Refetch rather than trusting the optimistic view: the record the
	// node stored is the record the client reports.
	created, err := c.discovery.ByID(c.detach(ctx), id)
	if err != nil {
		return "", fmt.Errorf("reconcile created lock %s: %w", id, err)
	}

	c.logger.Info("lock created",
		zap.String("id", created.ID),
		zap.String("recipient", created.Recipient),
	)
	return created.ID, nil
}

// ResolveLock submits the accept/decline decision for a lock and
// reconciles the outcome.
//
// A lookup miss while reconciling a decline is the expected terminal
// signal — declined locks are destroyed — and counts as success. A miss
// after an accept means the accepted lock vanished, which is an error.
func (c *Coordinator) ResolveLock(ctx context.Context, lockID string, accept bool) error {
	call, err := c.builder.ChooseFate(lockID, accept)
	if err != nil {
		return err
	}

	if err := c.acquire(lockID); err != nil {
		return err
	}
	defer c.release(lockID)

	if _, err := c.execute(ctx, lockID, call); err != nil {
		return err
	}

	resolved, err := c.discovery.ByID(c.detach(ctx), lockID)
	switch {
	case err == nil:
		if !accept {
			return fmt.Errorf("lock %s still present after decline", lockID)
		}
		if !resolved.Closed {
			return fmt.Errorf("lock %s not closed after accept", lockID)
		}
		c.logger.Info("lock accepted", zap.String("id", lockID))
		return nil

	case errors.Is(err, lock.ErrNotFound):
		if !accept {
			c.logger.Info("lock declined and destroyed", zap.String("id", lockID))
			return nil
		}
		return fmt.Errorf("accepted lock %s missing from ledger: %w", lockID, err)

	default:
		return fmt.Errorf("reconcile lock %s: %w", lockID, err)
	}
}

// execute runs submit → await-finality for one guarded operation.
func (c *Coordinator) execute(ctx context.Context, key string, call *txn.MoveCall) (*ledger.Effects, error) {
	digest, err := c.submitter.Submit(ctx, call)
	if err != nil {
		return nil, &lock.TransportError{Op: "submit " + call.Target, Err: err}
	}

	// Once handed to the signer the transaction cannot be retracted. The
	// wait and the reconcile run detached from the caller's cancellation
	// so an abandoned caller never leaves the guard stuck.
	c.setStage(key, StageAwaitingFinality)
	effects, err := c.finality.AwaitFinality(c.detach(ctx), digest)
	if err != nil {
		return nil, &lock.TransportError{Op: "await finality for " + digest, Err: err}
	}
	if !effects.Finalized() {
		return nil, fmt.Errorf("transaction %s failed on chain: %s", digest, effects.Error)
	}

	c.setStage(key, StageReconciling)
	return effects, nil
}

// detach strips the caller's cancellation while keeping its values. The
// finality waiter applies its own deadline.
func (c *Coordinator) detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
