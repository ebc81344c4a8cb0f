package lock

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lovebridge/lovelock/internal/ledger"
)

// Discovery finds locks relevant to a party by querying ledger state and
// filtering by type, ownership and role. All query modes are pure
// projections of the ledger's answers: the node's object order is
// preserved and an empty result is a valid outcome, not an error.
//
// The ledger offers no way to enumerate all locks system-wide — only
// per-owner listing and by-ID lookup exist, and Discovery deliberately
// mirrors that.
type Discovery struct {
	query    ledger.QueryService
	lockType string
	logger   *zap.Logger
}

// NewDiscovery creates a Discovery for the deployment whose lock type tag
// is lockType (e.g. "<packageID>::lovelock::Lock").
func NewDiscovery(query ledger.QueryService, lockType string, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{query: query, lockType: lockType, logger: logger}
}

// ByID fetches exactly one lock.
//
// Errors: ErrNotFound when nothing exists under id, ErrNotLock when an
// object exists but is not a lock, *TransportError for node failures.
func (d *Discovery) ByID(ctx context.Context, id string) (*Lock, error) {
	obj, err := d.query.GetObject(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "get object " + id, Err: err}
	}

	l, err := Normalize(obj, d.lockType)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ByOwner lists every lock owned by an address, in the node's order.
// Non-lock objects are skipped; locks with a degraded creation date are
// kept.
func (d *Discovery) ByOwner(ctx context.Context, owner string) ([]Lock, error) {
	raw, err := d.query.ListOwnedObjects(ctx, owner)
	if err != nil {
		return nil, &TransportError{Op: "list objects owned by " + owner, Err: err}
	}

	locks := make([]Lock, 0, len(raw))
	for i := range raw {
		l, err := Normalize(&raw[i], d.lockType)
		if err != nil {
			// Owners hold arbitrary objects; anything that is not a
			// lock simply does not belong in the result.
			continue
		}
		locks = append(locks, *l)
	}

	d.logger.Debug("listed locks by owner",
		zap.String("owner", owner),
		zap.Int("objects", len(raw)),
		zap.Int("locks", len(locks)),
	)
	return locks, nil
}

// PendingFor lists the locks addressed to recipient that still await a
// decision: owned by the recipient, recipient matches, not closed.
func (d *Discovery) PendingFor(ctx context.Context, recipient string) ([]Lock, error) {
	all, err := d.ByOwner(ctx, recipient)
	if err != nil {
		return nil, err
	}

	pending := make([]Lock, 0, len(all))
	for _, l := range all {
		if l.PendingFor(recipient) {
			pending = append(pending, l)
		}
	}
	return pending, nil
}

// RegistryLocks lists the locks held by the bridge registry. Everything
// the registry owns is closed by construction, so no further filtering
// is applied.
func (d *Discovery) RegistryLocks(ctx context.Context, bridgeID string) ([]Lock, error) {
	return d.ByOwner(ctx, bridgeID)
}
