package model

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/types"
)

type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Trade is one immutable ledger row. Shares is the signed delta:
// positive for a buy, negative for a sell.
type Trade struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (t Trade) Side() types.TradeSide {
	if t.Shares < 0 {
		return types.TradeSideSell
	}
	return types.TradeSideBuy
}

// Position is the cached per-symbol aggregate of a user's trades.
// Shares always equals the sum of the user's trade deltas for the
// symbol; the store recomputes it inside every trade transaction.
type Position struct {
	UserID    string          `json:"-"`
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	LastPrice decimal.Decimal `json:"last_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}
