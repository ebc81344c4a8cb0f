// Package ledger defines the narrow query/submit surface the lock client
// needs from the object ledger, plus a JSON-RPC implementation of it.
//
// The lock packages never see raw fullnode responses directly; they consume
// the RawObject shape defined here and everything above the normalizer works
// on typed records.
package ledger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lovebridge/lovelock/internal/txn"
)

// ErrNotFound is returned by GetObject when no object exists under the
// requested ID. A previously-known object yielding ErrNotFound is
// indistinguishable from one that never existed; callers decide what that
// means.
var ErrNotFound = errors.New("ledger: object not found")

// RawObject is a loosely-typed on-chain object as returned by the node.
type RawObject struct {
	ObjectID string   `json:"objectId"`
	Version  string   `json:"version,omitempty"`
	Digest   string   `json:"digest,omitempty"`
	Type     string   `json:"type,omitempty"`
	Owner    *Owner   `json:"owner,omitempty"`
	Content  *Content `json:"content,omitempty"`
}

// Owner describes who holds an object. Exactly one field is set.
type Owner struct {
	AddressOwner string `json:"AddressOwner,omitempty"`
	ObjectOwner  string `json:"ObjectOwner,omitempty"`
	Shared       any    `json:"Shared,omitempty"`
}

// Content is the object's payload. Fields stays raw: its shape varies per
// type and per node serialization, and only the normalizer may interpret it.
type Content struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type,omitempty"`
	Fields   json.RawMessage `json:"fields,omitempty"`
}

// ObjectRef identifies an object touched by a transaction.
type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  string `json:"version,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// Effects is the finalized outcome of a transaction. Created carries the
// references of newly created objects, which is how the ID of a
// just-created lock is recovered.
type Effects struct {
	Status  string
	Error   string
	Created []ObjectRef
}

// Finalized reports whether the transaction executed successfully.
func (e *Effects) Finalized() bool {
	return e != nil && e.Status == "success"
}

// QueryService is the read side of the ledger.
type QueryService interface {
	// GetObject fetches one object by ID. Returns ErrNotFound on a miss.
	GetObject(ctx context.Context, id string) (*RawObject, error)

	// ListOwnedObjects lists every object owned by an address, in the
	// node's own order. Works for account addresses and for object owners
	// such as the bridge registry.
	ListOwnedObjects(ctx context.Context, owner string) ([]RawObject, error)
}

// Submitter hands a built move call to the signer and the node, returning
// the transaction digest. A rejection at any point is an error; nothing is
// retried here.
type Submitter interface {
	Submit(ctx context.Context, call *txn.MoveCall) (digest string, err error)
}

// FinalityWaiter blocks until a submitted transaction's effects are
// confirmed, or the context expires.
type FinalityWaiter interface {
	AwaitFinality(ctx context.Context, digest string) (*Effects, error)
}

// Signer turns serialized transaction bytes into a signature the node will
// accept. Key management is out of the client's hands; wallet-backed and
// keyfile-backed implementations both satisfy this.
type Signer interface {
	// Address is the sender address the signer signs for.
	Address() string

	// SignTransaction signs base64 transaction bytes and returns the
	// serialized signature, also base64.
	SignTransaction(txBytesB64 string) (string, error)
}
