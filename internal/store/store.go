package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInsufficientCash   = errors.New("not enough cash")
	ErrInsufficientShares = errors.New("not enough shares owned")
	ErrNoPosition         = errors.New("stock not owned")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// TradeIntent is one validated trade to apply atomically. Shares is the
// signed delta: positive buys, negative sells.
type TradeIntent struct {
	UserID string
	Symbol string
	Shares int64
	Price  decimal.Decimal
}

// Store is the persistence boundary. Every method that mutates more
// than one row does so atomically: either the whole mutation lands or
// none of it does, and concurrent mutations for the same user are
// serialized so two requests cannot both pass an affordability check
// against the same starting balance.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (model.User, error)
	UserByName(ctx context.Context, username string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)

	// Deposit adds amount to the user's cash and returns the new
	// balance. Non-positive amounts are rejected with ErrInvalidAmount.
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)

	// ExecuteTrade appends the ledger row, recomputes the position as
	// the sum of the user's ledger deltas for the symbol, and adjusts
	// cash, all in one transaction. Buys exceeding cash fail with
	// ErrInsufficientCash; sells beyond the held shares fail with
	// ErrNoPosition or ErrInsufficientShares.
	ExecuteTrade(ctx context.Context, intent TradeIntent) (model.Trade, error)

	Positions(ctx context.Context, userID string) ([]model.Position, error)
	Trades(ctx context.Context, userID string) ([]model.Trade, error)

	CreateSession(ctx context.Context, s model.Session) error
	DeleteSession(ctx context.Context, id string) error
	SessionExists(ctx context.Context, id string) (bool, error)
}
