package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stocksim/internal/model"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

const uniqueViolation = "23505"

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (model.User, error) {
	var u model.User
	err := p.pool.QueryRow(ctx,
		"insert into users (username, password_hash, cash) values ($1, $2, $3) returning id, username, password_hash, cash, created_at",
		username, passwordHash, cash).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Cash, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, err
	}
	return u, nil
}

func (p *Postgres) UserByName(ctx context.Context, username string) (model.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		"select id, username, password_hash, cash, created_at from users where username = $1", username))
}

func (p *Postgres) UserByID(ctx context.Context, id string) (model.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		"select id, username, password_hash, cash, created_at from users where id = $1", id))
}

func (p *Postgres) scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Cash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (p *Postgres) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)
	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "select cash from users where id = $1 for update", userID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	newCash := cash.Add(amount)
	if _, err := tx.Exec(ctx, "update users set cash = $1 where id = $2", newCash, userID); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newCash, nil
}

func (p *Postgres) ExecuteTrade(ctx context.Context, intent TradeIntent) (model.Trade, error) {
	if intent.Price.LessThanOrEqual(decimal.Zero) {
		return model.Trade{}, ErrInvalidAmount
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return model.Trade{}, err
	}
	defer tx.Rollback(ctx)

	// The user row lock serializes all money mutations for this user,
	// so the affordability check below cannot race a concurrent trade.
	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "select cash from users where id = $1 for update", intent.UserID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trade{}, ErrNotFound
	}
	if err != nil {
		return model.Trade{}, err
	}
	cost := intent.Price.Mul(decimal.NewFromInt(intent.Shares))
	if intent.Shares > 0 && cost.GreaterThan(cash) {
		return model.Trade{}, ErrInsufficientCash
	}
	// A zero delta is a sell of zero shares; it still requires a live
	// position, so it takes the sell path.
	if intent.Shares <= 0 {
		var owned int64
		err := tx.QueryRow(ctx, "select shares from positions where user_id = $1 and symbol = $2 for update",
			intent.UserID, intent.Symbol).Scan(&owned)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Trade{}, ErrNoPosition
		}
		if err != nil {
			return model.Trade{}, err
		}
		if owned == 0 {
			return model.Trade{}, ErrNoPosition
		}
		if -intent.Shares > owned {
			return model.Trade{}, ErrInsufficientShares
		}
	}

	now := time.Now().UTC()
	var t model.Trade
	err = tx.QueryRow(ctx,
		"insert into trades (user_id, symbol, shares, price, created_at) values ($1, $2, $3, $4, $5) returning id, user_id, symbol, shares, price, created_at",
		intent.UserID, intent.Symbol, intent.Shares, intent.Price, now).Scan(&t.ID, &t.UserID, &t.Symbol, &t.Shares, &t.Price, &t.CreatedAt)
	if err != nil {
		return model.Trade{}, err
	}

	// The position is always the ledger sum, for buys and sells alike.
	var total int64
	err = tx.QueryRow(ctx, "select coalesce(sum(shares), 0) from trades where user_id = $1 and symbol = $2",
		intent.UserID, intent.Symbol).Scan(&total)
	if err != nil {
		return model.Trade{}, err
	}
	_, err = tx.Exec(ctx,
		"insert into positions (user_id, symbol, shares, last_price, updated_at) values ($1, $2, $3, $4, $5) on conflict (user_id, symbol) do update set shares = excluded.shares, last_price = excluded.last_price, updated_at = excluded.updated_at",
		intent.UserID, intent.Symbol, total, intent.Price, now)
	if err != nil {
		return model.Trade{}, err
	}
	if _, err := tx.Exec(ctx, "update users set cash = $1 where id = $2", cash.Sub(cost), intent.UserID); err != nil {
		return model.Trade{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Trade{}, err
	}
	return t, nil
}

func (p *Postgres) Positions(ctx context.Context, userID string) ([]model.Position, error) {
	rows, err := p.pool.Query(ctx,
		"select user_id, symbol, shares, last_price, updated_at from positions where user_id = $1 order by symbol", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		var pos model.Position
		if err := rows.Scan(&pos.UserID, &pos.Symbol, &pos.Shares, &pos.LastPrice, &pos.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

func (p *Postgres) Trades(ctx context.Context, userID string) ([]model.Trade, error) {
	rows, err := p.pool.Query(ctx,
		"select id, user_id, symbol, shares, price, created_at from trades where user_id = $1 order by created_at asc, id asc", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Shares, &t.Price, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSession(ctx context.Context, s model.Session) error {
	_, err := p.pool.Exec(ctx, "insert into sessions (id, user_id, expires_at) values ($1, $2, $3)",
		s.ID, s.UserID, s.ExpiresAt)
	return err
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, "delete from sessions where id = $1", id)
	return err
}

func (p *Postgres) SessionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		"select exists(select 1 from sessions where id = $1 and expires_at > now())", id).Scan(&exists)
	return exists, err
}
