package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

// Memory is a map-backed Store. One mutex serializes every mutation,
// which gives it the same all-or-nothing, no-concurrent-races contract
// as the Postgres implementation. Used in tests.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]model.User
	byName    map[string]string
	trades    map[string][]model.Trade
	positions map[string]map[string]model.Position
	sessions  map[string]model.Session
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]model.User),
		byName:    make(map[string]string),
		trades:    make(map[string][]model.Trade),
		positions: make(map[string]map[string]model.Position),
		sessions:  make(map[string]model.Session),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) CreateUser(_ context.Context, username, passwordHash string, cash decimal.Decimal) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byName[username]; taken {
		return model.User{}, ErrUsernameTaken
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	m.byName[username] = u.ID
	return u, nil
}

func (m *Memory) UserByName(_ context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) UserByID(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) Deposit(_ context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	u.Cash = u.Cash.Add(amount)
	m.users[userID] = u
	return u.Cash, nil
}

func (m *Memory) ExecuteTrade(_ context.Context, intent TradeIntent) (model.Trade, error) {
	if intent.Price.LessThanOrEqual(decimal.Zero) {
		return model.Trade{}, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[intent.UserID]
	if !ok {
		return model.Trade{}, ErrNotFound
	}
	cost := intent.Price.Mul(decimal.NewFromInt(intent.Shares))
	if intent.Shares > 0 && cost.GreaterThan(u.Cash) {
		return model.Trade{}, ErrInsufficientCash
	}
	// A zero delta is a sell of zero shares; it still requires a live
	// position, so it takes the sell path.
	if intent.Shares <= 0 {
		pos, held := m.positions[intent.UserID][intent.Symbol]
		if !held || pos.Shares == 0 {
			return model.Trade{}, ErrNoPosition
		}
		if -intent.Shares > pos.Shares {
			return model.Trade{}, ErrInsufficientShares
		}
	}

	now := time.Now().UTC()
	t := model.Trade{
		ID:        uuid.NewString(),
		UserID:    intent.UserID,
		Symbol:    intent.Symbol,
		Shares:    intent.Shares,
		Price:     intent.Price,
		CreatedAt: now,
	}
	m.trades[intent.UserID] = append(m.trades[intent.UserID], t)

	var total int64
	for _, tr := range m.trades[intent.UserID] {
		if tr.Symbol == intent.Symbol {
			total += tr.Shares
		}
	}
	if m.positions[intent.UserID] == nil {
		m.positions[intent.UserID] = make(map[string]model.Position)
	}
	m.positions[intent.UserID][intent.Symbol] = model.Position{
		UserID:    intent.UserID,
		Symbol:    intent.Symbol,
		Shares:    total,
		LastPrice: intent.Price,
		UpdatedAt: now,
	}
	u.Cash = u.Cash.Sub(cost)
	m.users[intent.UserID] = u
	return t, nil
}

func (m *Memory) Positions(_ context.Context, userID string) ([]model.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Position
	for _, pos := range m.positions[userID] {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) Trades(_ context.Context, userID string) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Trade, len(m.trades[userID]))
	copy(out, m.trades[userID])
	return out, nil
}

func (m *Memory) CreateSession(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) SessionExists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	return s.ExpiresAt.After(time.Now()), nil
}
