package txn_test

import (
	"errors"
	"testing"

	"github.com/lovebridge/lovelock/internal/txn"
)

const (
	pkgID    = "0xp0ckage"
	bridgeID = "0xbr1dge"
)

func TestCreateLock_shape(t *testing.T) {
	b := txn.NewBuilder(pkgID, bridgeID)

	call, err := b.CreateLock("0xrecipient", "forever", 14, 2, 2025)
	if err != nil {
		t.Fatalf("CreateLock error: %v", err)
	}

	if call.Target != pkgID+"::lovelock::create_lock" {
		t.Errorf("Target: got %q", call.Target)
	}
	if call.GasBudget == 0 {
		t.Error("GasBudget must be set")
	}

	// The positional contract with the deployed module: bridge, recipient,
	// message, day u8, month u8, year u16, payment.
	want := []txn.Arg{
		txn.ObjectArg{ID: bridgeID},
		txn.AddressArg{Address: "0xrecipient"},
		txn.StringArg{Value: "forever"},
		txn.U8Arg{Value: 14},
		txn.U8Arg{Value: 2},
		txn.U16Arg{Value: 2025},
		txn.PaymentArg{Amount: txn.LockPrice},
	}
	if len(call.Args) != len(want) {
		t.Fatalf("got %d args, want %d", len(call.Args), len(want))
	}
	for i, w := range want {
		if call.Args[i] != w {
			t.Errorf("arg[%d]: got %#v, want %#v", i, call.Args[i], w)
		}
	}
}

func TestCreateLock_validation(t *testing.T) {
	b := txn.NewBuilder(pkgID, bridgeID)

	cases := []struct {
		name      string
		recipient string
		message   string
		d, m, y   int
		field     string
	}{
		{"empty recipient", "", "msg", 1, 1, 2024, "recipient"},
		{"empty message", "0xr", "", 1, 1, 2024, "message"},
		{"day low", "0xr", "msg", 0, 1, 2024, "day"},
		{"day high", "0xr", "msg", 32, 1, 2024, "day"},
		{"month low", "0xr", "msg", 1, 0, 2024, "month"},
		{"month high", "0xr", "msg", 1, 13, 2024, "month"},
		{"year low", "0xr", "msg", 1, 1, 2023, "year"},
		{"year high", "0xr", "msg", 1, 1, 2101, "year"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call, err := b.CreateLock(tc.recipient, tc.message, tc.d, tc.m, tc.y)
			if call != nil {
				t.Error("no call may be built from invalid input")
			}
			var verr *txn.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("Field: got %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestCreateLock_boundaryDates(t *testing.T) {
	b := txn.NewBuilder(pkgID, bridgeID)
	for _, d := range [][3]int{{1, 1, 2024}, {31, 12, 2100}} {
		if _, err := b.CreateLock("0xr", "msg", d[0], d[1], d[2]); err != nil {
			t.Errorf("date %v should be valid: %v", d, err)
		}
	}
}

func TestChooseFate_shape(t *testing.T) {
	b := txn.NewBuilder(pkgID, bridgeID)

	for _, accept := range []bool{true, false} {
		call, err := b.ChooseFate("0xl0ck", accept)
		if err != nil {
			t.Fatalf("ChooseFate error: %v", err)
		}
		if call.Target != pkgID+"::lovelock::choose_fate_lock" {
			t.Errorf("Target: got %q", call.Target)
		}
		want := []txn.Arg{
			txn.ObjectArg{ID: "0xl0ck"},
			txn.ObjectArg{ID: bridgeID},
			txn.BoolArg{Value: accept},
		}
		for i, w := range want {
			if call.Args[i] != w {
				t.Errorf("accept=%v arg[%d]: got %#v, want %#v", accept, i, call.Args[i], w)
			}
		}
	}
}

func TestChooseFate_emptyID(t *testing.T) {
	b := txn.NewBuilder(pkgID, bridgeID)
	var verr *txn.ValidationError
	if _, err := b.ChooseFate("", true); !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}
