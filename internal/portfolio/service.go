package portfolio

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"stocksim/internal/model"
	"stocksim/internal/quotes"
	"stocksim/internal/store"
)

var (
	ErrSymbolRequired = errors.New("must select a stock")
	ErrInvalidShares  = errors.New("must purchase at least one share")
	ErrNegativeShares = errors.New("invalid share count")
)

type Service struct {
	store    store.Store
	provider quotes.Provider
}

func NewService(st store.Store, provider quotes.Provider) *Service {
	return &Service{store: st, provider: provider}
}

type Holding struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

type View struct {
	Cash       decimal.Decimal `json:"cash"`
	Holdings   []Holding       `json:"holdings"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// View prices every held position at the live quote and totals it with
// cash. Zero-share rows are kept in storage as previously-traded
// markers but never shown here.
func (s *Service) View(ctx context.Context, userID string) (View, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return View{}, err
	}
	positions, err := s.store.Positions(ctx, userID)
	if err != nil {
		return View{}, err
	}
	view := View{Cash: u.Cash, GrandTotal: u.Cash}
	for _, p := range positions {
		if p.Shares == 0 {
			continue
		}
		q, err := s.provider.Lookup(ctx, p.Symbol)
		if err != nil {
			return View{}, err
		}
		value := q.Price.Mul(decimal.NewFromInt(p.Shares))
		view.Holdings = append(view.Holdings, Holding{
			Symbol: p.Symbol,
			Name:   q.Name,
			Shares: p.Shares,
			Price:  q.Price,
			Value:  value,
		})
		view.GrandTotal = view.GrandTotal.Add(value)
	}
	return view, nil
}

// Buy purchases shares at the current quoted price. The store applies
// the ledger append, position recompute and cash debit as one
// transaction, so a rejection mutates nothing.
func (s *Service) Buy(ctx context.Context, userID, symbol string, shares int64) (model.Trade, error) {
	if shares < 1 {
		return model.Trade{}, ErrInvalidShares
	}
	q, err := s.provider.Lookup(ctx, symbol)
	if err != nil {
		return model.Trade{}, err
	}
	return s.store.ExecuteTrade(ctx, store.TradeIntent{
		UserID: userID,
		Symbol: q.Symbol,
		Shares: shares,
		Price:  q.Price,
	})
}

// Sell disposes of up to the held share count at the current quoted
// price. A negative count is rejected before anything is read.
func (s *Service) Sell(ctx context.Context, userID, symbol string, shares int64) (model.Trade, error) {
	if quotes.NormalizeSymbol(symbol) == "" {
		return model.Trade{}, ErrSymbolRequired
	}
	if shares < 0 {
		return model.Trade{}, ErrNegativeShares
	}
	q, err := s.provider.Lookup(ctx, symbol)
	if err != nil {
		return model.Trade{}, err
	}
	return s.store.ExecuteTrade(ctx, store.TradeIntent{
		UserID: userID,
		Symbol: q.Symbol,
		Shares: -shares,
		Price:  q.Price,
	})
}

func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.store.Deposit(ctx, userID, amount)
}

func (s *Service) History(ctx context.Context, userID string) ([]model.Trade, error) {
	return s.store.Trades(ctx, userID)
}

func (s *Service) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	return s.provider.Lookup(ctx, symbol)
}
