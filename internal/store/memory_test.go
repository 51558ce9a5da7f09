package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

func newUser(t *testing.T, m *Memory, cash string) model.User {
	t.Helper()
	u, err := m.CreateUser(context.Background(), "bob", "hash", decimal.RequireFromString(cash))
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.CreateUser(ctx, "bob", "hash", decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateUser(ctx, "bob", "hash", decimal.Zero); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("err = %v, want %v", err, ErrUsernameTaken)
	}
}

func TestPositionAlwaysEqualsLedgerSum(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := newUser(t, m, "100000")

	deltas := []int64{10, -4, 7, -13, 2}
	price := decimal.RequireFromString("5.00")
	for _, d := range deltas {
		if _, err := m.ExecuteTrade(ctx, TradeIntent{UserID: u.ID, Symbol: "AAA", Shares: d, Price: price}); err != nil {
			t.Fatalf("delta %d: %v", d, err)
		}
	}

	trades, err := m.Trades(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, tr := range trades {
		sum += tr.Shares
	}
	positions, err := m.Positions(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 {
		t.Fatalf("positions = %+v, want one row", positions)
	}
	if positions[0].Shares != sum {
		t.Fatalf("position shares = %d, ledger sum = %d", positions[0].Shares, sum)
	}
	if sum != 2 {
		t.Fatalf("ledger sum = %d, want 2", sum)
	}
}

func TestExecuteTradeRejectionsMutateNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := newUser(t, m, "100.00")
	price := decimal.RequireFromString("60.00")

	if _, err := m.ExecuteTrade(ctx, TradeIntent{UserID: u.ID, Symbol: "AAA", Shares: 2, Price: price}); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientCash)
	}
	if _, err := m.ExecuteTrade(ctx, TradeIntent{UserID: u.ID, Symbol: "AAA", Shares: -1, Price: price}); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("err = %v, want %v", err, ErrNoPosition)
	}
	// A zero delta for an unheld symbol is still a sell without a
	// position.
	if _, err := m.ExecuteTrade(ctx, TradeIntent{UserID: u.ID, Symbol: "AAA", Shares: 0, Price: price}); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("err = %v, want %v", err, ErrNoPosition)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Cash.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("cash = %s after rejections, want 100.00", got.Cash)
	}
	trades, err := m.Trades(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 0 {
		t.Fatalf("ledger has %d entries after rejections", len(trades))
	}
}

/// Two concurrent buys against a balance that covers only one of them:
// exactly one may pass the affordability check.
func TestConcurrentBuysCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := newUser(t, m, "100.00")
	price := decimal.RequireFromString("60.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.ExecuteTrade(ctx, TradeIntent{UserID: u.ID, Symbol: "AAA", Shares: 1, Price: price})
		}(i)
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			if !errors.Is(err, ErrInsufficientCash) {
				t.Fatalf("unexpected error: %v", err)
			}
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("%d of 2 concurrent buys failed, want exactly 1", failed)
	}
	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Cash.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("cash = %s, want 40.00", got.Cash)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := newUser(t, m, "0.01")

	s := model.Session{ID: "s1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := m.CreateSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.SessionExists(ctx, "s1"); !ok {
		t.Fatal("session not found after create")
	}
	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.SessionExists(ctx, "s1"); ok {
		t.Fatal("session still live after delete")
	}
	// Deleting again is not an error.
	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	expired := model.Session{ID: "s2", UserID: u.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := m.CreateSession(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.SessionExists(ctx, "s2"); ok {
		t.Fatal("expired session reported live")
	}
}
