// Package txn builds the three lovelock move calls. Argument order and
// typing are part of the wire contract with the deployed contract and must
// not change.
package txn

import "fmt"

// LockPrice is the protocol-defined escrow for creating a lock, in minor
// units (MIST). The payment is forfeited to the bridge registry on accept
// and returned to the creator on decline.
const LockPrice uint64 = 390

// DefaultGasBudget is used when the caller does not set one.
const DefaultGasBudget uint64 = 10_000_000

const contractModule = "lovelock"

// Arg is one positional move-call argument. Concrete types below are the
// only implementations.
type Arg interface {
	isArg()
}

// ObjectArg references an owned or shared object by ID.
type ObjectArg struct{ ID string }

// AddressArg is a pure address value.
type AddressArg struct{ Address string }

// StringArg is a pure UTF-8 string value.
type StringArg struct{ Value string }

// U8Arg is a pure u8 value.
type U8Arg struct{ Value uint8 }

// U16Arg is a pure u16 value.
type U16Arg struct{ Value uint16 }

// BoolArg is a pure bool value.
type BoolArg struct{ Value bool }

// PaymentArg asks the submitter to supply a coin covering Amount, split
// from the sender's balance. The builder never picks the coin; coin
// selection needs the sender's ownership view, which the submitter has.
type PaymentArg struct{ Amount uint64 }

func (ObjectArg) isArg()  {}
func (AddressArg) isArg() {}
func (StringArg) isArg()  {}
func (U8Arg) isArg()      {}
func (U16Arg) isArg()     {}
func (BoolArg) isArg()    {}
func (PaymentArg) isArg() {}

// MoveCall is a fully-shaped transaction description, ready for the
// submitter. It carries no signatures and no gas object; those are the
// submitter's concern.
type MoveCall struct {
	// Target is "<packageID>::lovelock::<function>".
	Target string

	// Args in exact positional order.
	Args []Arg

	GasBudget uint64
}

// ValidationError reports a malformed user-supplied argument, caught
// before any transaction is built. It never reaches the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Builder builds lovelock move calls for one deployment.
type Builder struct {
	packageID string
	bridgeID  string
}

// NewBuilder creates a Builder bound to a deployed package and its bridge
// registry object.
func NewBuilder(packageID, bridgeID string) *Builder {
	return &Builder{packageID: packageID, bridgeID: bridgeID}
}

// CreateLock builds the lock-creation call:
//
//	create_lock(bridge, recipient: address, message: string,
//	            day: u8, month: u8, year: u16, payment: Coin)
//
// Arguments are validated client-side first; an invalid input returns a
// *ValidationError and no call.
func (b *Builder) CreateLock(recipient, message string, day, month, year int) (*MoveCall, error) {
	if err := ValidateCreate(recipient, message, day, month, year); err != nil {
		return nil, err
	}

	return &MoveCall{
		Target: b.target("create_lock"),
		Args: []Arg{
			ObjectArg{ID: b.bridgeID},
			AddressArg{Address: recipient},
			StringArg{Value: message},
			U8Arg{Value: uint8(day)},
			U8Arg{Value: uint8(month)},
			U16Arg{Value: uint16(year)},
			PaymentArg{Amount: LockPrice},
		},
		GasBudget: DefaultGasBudget,
	}, nil
}

// ChooseFate builds the fate-resolution call:
//
//	choose_fate_lock(lock, bridge, accept: bool)
//
// accept=true locks the record forever; accept=false destroys it and
// refunds the creator.
func (b *Builder) ChooseFate(lockID string, accept bool) (*MoveCall, error) {
	if lockID == "" {
		return nil, &ValidationError{Field: "lock id", Reason: "must not be empty"}
	}

	return &MoveCall{
		Target: b.target("choose_fate_lock"),
		Args: []Arg{
			ObjectArg{ID: lockID},
			ObjectArg{ID: b.bridgeID},
			BoolArg{Value: accept},
		},
		GasBudget: DefaultGasBudget,
	}, nil
}

// ValidateCreate checks creation arguments without building anything.
// Exposed so front ends can validate forms with the same rules the
// builder enforces.
func ValidateCreate(recipient, message string, day, month, year int) error {
	if recipient == "" {
		return &ValidationError{Field: "recipient", Reason: "must not be empty"}
	}
	if message == "" {
		return &ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if day < 1 || day > 31 {
		return &ValidationError{Field: "day", Reason: "must be between 1 and 31"}
	}
	if month < 1 || month > 12 {
		return &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if year < 2024 || year > 2100 {
		return &ValidationError{Field: "year", Reason: "must be between 2024 and 2100"}
	}
	return nil
}

func (b *Builder) target(fn string) string {
	return b.packageID + "::" + contractModule + "::" + fn
}
