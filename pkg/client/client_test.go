package client_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lovebridge/lovelock/internal/config"
	"github.com/lovebridge/lovelock/internal/signer"
	"github.com/lovebridge/lovelock/pkg/client"
)

const (
	pkgID    = "0x73107b51f0a2c9b4c2e32739aabd845d744a378feb288ceabdceec4270ec618e"
	bridgeID = "0x418c940e3be13371c8d64e64e205989fe61f0ad0ccbbbd862a677210835a92a1"
)

// chainLock is a lock record inside the stub node.
type chainLock struct {
	id        string
	creator   string
	recipient string
	message   string
	day       int
	month     int
	year      int
	closed    bool
	owner     string
}

// stubChain is a stateful fullnode stub that emulates the deployed
// lovelock contract: create transfers the new lock to the recipient,
// accept closes it under the bridge, decline destroys it.
type stubChain struct {
	t *testing.T

	mu          sync.Mutex
	locks       map[string]*chainLock
	nextID      int
	pending     map[string]func(sender string) // txBytes -> effect
	effects     map[string][]string            // digest -> created object ids
	lastCreated []string
	nextTx      int
}

func newStubChain(t *testing.T) *stubChain {
	return &stubChain{
		t:       t,
		locks:   make(map[string]*chainLock),
		pending: make(map[string]func(string)),
		effects: make(map[string][]string),
	}
}

func (s *stubChain) addLock(l *chainLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[l.id] = l
}

func (s *stubChain) lockJSON(l *chainLock) map[string]any {
	return map[string]any{
		"objectId": l.id,
		"type":     pkgID + "::lovelock::Lock",
		"owner":    map[string]any{"AddressOwner": l.owner},
		"content": map[string]any{
			"dataType": "moveObject",
			"type":     pkgID + "::lovelock::Lock",
			"fields": map[string]any{
				"p1":      l.creator,
				"p2":      l.recipient,
				"message": l.message,
				"closed":  l.closed,
				"creation_date": map[string]any{
					"fields": map[string]any{"day": l.day, "month": l.month, "year": l.year},
				},
			},
		},
	}
}

func (s *stubChain) serve() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.t.Errorf("decode rpc request: %v", err)
			return
		}

		result, rpcErr := s.dispatch(req.Method, req.Params)
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = map[string]any{"code": -32000, "message": rpcErr.Error()}
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
}

func (s *stubChain) dispatch(method string, params []json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case "sui_getObject":
		var id string
		if err := json.Unmarshal(params[0], &id); err != nil {
			return nil, err
		}
		l, ok := s.locks[id]
		if !ok {
			return map[string]any{"error": map[string]any{"code": "notExists"}}, nil
		}
		return map[string]any{"data": s.lockJSON(l)}, nil

	case "suix_getOwnedObjects":
		var owner string
		if err := json.Unmarshal(params[0], &owner); err != nil {
			return nil, err
		}
		var data []any
		for _, l := range s.locks {
			if l.owner == owner {
				data = append(data, map[string]any{"data": s.lockJSON(l)})
			}
		}
		return map[string]any{"data": data, "hasNextPage": false}, nil

	case "suix_getCoins":
		return map[string]any{"data": []any{
			map[string]any{"coinObjectId": "0xc01n", "balance": "1000000000"},
		}}, nil

	case "unsafe_moveCall":
		return s.buildMoveCall(params)

	case "sui_executeTransactionBlock":
		var txBytes string
		if err := json.Unmarshal(params[0], &txBytes); err != nil {
			return nil, err
		}
		var sigs []string
		if err := json.Unmarshal(params[1], &sigs); err != nil || len(sigs) != 1 {
			return nil, errors.New("expected one signature")
		}
		apply, ok := s.pending[txBytes]
		if !ok {
			return nil, errors.New("unknown transaction bytes")
		}
		delete(s.pending, txBytes)
		apply("")
		s.nextTx++
		digest := fmt.Sprintf("DIGEST-%d", s.nextTx)
		s.effects[digest] = s.lastCreated
		s.lastCreated = nil
		return map[string]any{"digest": digest}, nil

	case "sui_getTransactionBlock":
		var digest string
		if err := json.Unmarshal(params[0], &digest); err != nil {
			return nil, err
		}
		created, ok := s.effects[digest]
		if !ok {
			return nil, errors.New("could not find the referenced transaction")
		}
		var refs []any
		for _, id := range created {
			refs = append(refs, map[string]any{"reference": map[string]any{"objectId": id}})
		}
		return map[string]any{"effects": map[string]any{
			"status":  map[string]any{"status": "success"},
			"created": refs,
		}}, nil

	default:
		return nil, fmt.Errorf("method not found: %s", method)
	}
}

func (s *stubChain) buildMoveCall(params []json.RawMessage) (any, error) {
	var sender, function string
	if err := json.Unmarshal(params[0], &sender); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params[3], &function); err != nil {
		return nil, err
	}
	var args []any
	if err := json.Unmarshal(params[5], &args); err != nil {
		return nil, err
	}

	txBytes := base64.StdEncoding.EncodeToString(fmt.Appendf(nil, "tx-%s-%d", function, len(s.pending)))

	switch function {
	case "create_lock":
		recipient := args[1].(string)
		message := args[2].(string)
		day := int(args[3].(float64))
		month := int(args[4].(float64))
		year := int(args[5].(float64))
		s.pending[txBytes] = func(string) {
			s.nextID++
			id := fmt.Sprintf("0x10ck%d", s.nextID)
			s.locks[id] = &chainLock{
				id: id, creator: sender, recipient: recipient, message: message,
				day: day, month: month, year: year, owner: recipient,
			}
			s.lastCreated = append(s.lastCreated, id)
		}
	case "choose_fate_lock":
		lockID := args[0].(string)
		accept := args[2].(bool)
		s.pending[txBytes] = func(string) {
			l, ok := s.locks[lockID]
			if !ok {
				return
			}
			if accept {
				l.closed = true
				l.owner = bridgeID
			} else {
				delete(s.locks, lockID)
			}
		}
	default:
		return nil, fmt.Errorf("unknown function %s", function)
	}
	return map[string]any{"txBytes": txBytes}, nil
}

func testNetwork(endpoint string) config.Network {
	return config.Network{
		Name:      "stub",
		Endpoint:  endpoint,
		PackageID: pkgID,
		BridgeID:  bridgeID,
	}
}

func newTestClient(t *testing.T, chain *stubChain) (*client.Client, string) {
	t.Helper()
	srv := chain.serve()
	t.Cleanup(srv.Close)

	sgn, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	c, err := client.New(testNetwork(srv.URL), client.WithSigner(sgn))
	if err != nil {
		t.Fatal(err)
	}
	return c, sgn.Address()
}

func TestCreateThenFetch(t *testing.T) {
	chain := newStubChain(t)
	c, me := newTestClient(t, chain)
	ctx := context.Background()

	id, err := c.CreateLock(ctx, "0xrecipient", "M", 14, 2, 2025)
	if err != nil {
		t.Fatalf("CreateLock error: %v", err)
	}
	if id == "" {
		t.Fatal("empty lock id")
	}

	l, err := c.FetchLockByID(ctx, id)
	if err != nil {
		t.Fatalf("FetchLockByID error: %v", err)
	}
	if l.Creator != me {
		t.Errorf("Creator: got %q, want signer address %q", l.Creator, me)
	}
	if l.Recipient != "0xrecipient" || l.Message != "M" || l.Closed {
		t.Errorf("unexpected lock: %+v", l)
	}
	if (l.CreationDate != client.Date{Day: 14, Month: 2, Year: 2025}) {
		t.Errorf("CreationDate: got %+v", l.CreationDate)
	}
}

func TestCreate_validationNeverHitsLedger(t *testing.T) {
	chain := newStubChain(t)
	c, _ := newTestClient(t, chain)

	_, err := c.CreateLock(context.Background(), "", "M", 1, 1, 2024)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "recipient") {
		t.Errorf("error should name the field: %v", err)
	}
	if len(chain.pending) != 0 || chain.nextTx != 0 {
		t.Error("no transaction may be built or executed for invalid input")
	}
}

func TestDecline_destroysLock(t *testing.T) {
	chain := newStubChain(t)
	c, _ := newTestClient(t, chain)
	ctx := context.Background()

	id, err := c.CreateLock(ctx, "0xrecipient", "M", 1, 1, 2024)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.ResolveLock(ctx, id, client.Decline); err != nil {
		t.Fatalf("decline should reconcile the lookup miss as success: %v", err)
	}

	if _, err := c.FetchLockByID(ctx, id); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("declined lock should be gone, got %v", err)
	}
}

func TestAccept_movesLockToRegistry(t *testing.T) {
	chain := newStubChain(t)
	c, _ := newTestClient(t, chain)
	ctx := context.Background()

	id, err := c.CreateLock(ctx, "0xrecipient", "M", 1, 1, 2024)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.ResolveLock(ctx, id, client.Accept); err != nil {
		t.Fatalf("ResolveLock(accept) error: %v", err)
	}

	registry, err := c.FetchRegistryLocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, l := range registry {
		if l.ID == id {
			found = true
			if !l.Closed {
				t.Error("registry lock must be closed")
			}
		}
	}
	if !found {
		t.Errorf("accepted lock %s not in registry set", id)
	}

	// Terminal-state monotonicity: once closed, always closed.
	l, err := c.FetchLockByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Closed {
		t.Error("closed lock observed open on refetch")
	}
}

func TestFetchPendingForRecipient(t *testing.T) {
	chain := newStubChain(t)
	chain.addLock(&chainLock{id: "0xl1", creator: "0xa", recipient: "0xme", message: "m",
		day: 1, month: 1, year: 2024, owner: "0xme"})
	chain.addLock(&chainLock{id: "0xl2", creator: "0xb", recipient: "0xme", message: "m",
		day: 1, month: 1, year: 2024, closed: true, owner: "0xme"})

	c, _ := newTestClient(t, chain)

	pending, err := c.FetchPendingForRecipient(context.Background(), "0xme")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != "0xl1" {
		t.Errorf("pending set: got %+v", pending)
	}
}

func TestFetchPending_emptyIsNotError(t *testing.T) {
	chain := newStubChain(t)
	c, _ := newTestClient(t, chain)

	pending, err := c.FetchPendingForRecipient(context.Background(), "0xnobody")
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d locks", len(pending))
	}
}

func TestResolveLock_unknownDecision(t *testing.T) {
	chain := newStubChain(t)
	c, _ := newTestClient(t, chain)

	if err := c.ResolveLock(context.Background(), "0xl", client.Decision("maybe")); err == nil {
		t.Error("expected error for unknown decision")
	}
}

func TestNew_invalidNetwork(t *testing.T) {
	_, err := client.New(config.Network{Name: "x"})
	if err == nil {
		t.Error("expected error for invalid network config")
	}
}
