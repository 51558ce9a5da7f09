package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

var schema = []string{
	`create extension if not exists "pgcrypto"`,
	`create table if not exists users (
		id uuid primary key default gen_random_uuid(),
		username text not null unique,
		password_hash text not null,
		cash numeric(18,2) not null check (cash >= 0),
		created_at timestamptz not null default now()
	)`,
	`create table if not exists trades (
		id uuid primary key default gen_random_uuid(),
		user_id uuid not null references users(id),
		symbol text not null,
		shares bigint not null,
		price numeric(18,4) not null,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists trades_user_created_idx on trades (user_id, created_at)`,
	`create table if not exists positions (
		user_id uuid not null references users(id),
		symbol text not null,
		shares bigint not null check (shares >= 0),
		last_price numeric(18,4) not null,
		updated_at timestamptz not null default now(),
		primary key (user_id, symbol)
	)`,
	`create table if not exists sessions (
		id uuid primary key,
		user_id uuid not null references users(id),
		expires_at timestamptz not null
	)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
