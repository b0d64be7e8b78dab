package storage

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

/* ===================== CONNECT ===================== */

func MustDB(url string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Fatal(err)
	}
	cfg.MaxConns = 10

	var pool *pgxpool.Pool

	deadline := time.Now().Add(30 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				cancel()
				break
			}
			pool.Close()
			err = ctx.Err()
		}
		cancel()

		if time.Now().After(deadline) {
			log.Fatalf("failed to connect DB after retries: %v", err)
		}
		time.Sleep(1 * time.Second)
	}

	return pool
}

/* ===================== SCHEMA ===================== */

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id serial PRIMARY KEY,
		username text NOT NULL UNIQUE,
		pass_hash text NOT NULL,
		role text NOT NULL DEFAULT 'user'
	)`,
	`CREATE TABLE IF NOT EXISTS boost_orders (
		id serial PRIMARY KEY,
		user_id int NOT NULL REFERENCES users(id),
		description text NOT NULL DEFAULT '',
		is_party boolean NOT NULL DEFAULT true,
		is_priority boolean NOT NULL DEFAULT false,
		steam_username text NOT NULL DEFAULT '',
		steam_password text NOT NULL DEFAULT '',
		start_rating int NOT NULL,
		current_rating int NOT NULL,
		required_rating int NOT NULL,
		is_paid boolean NOT NULL DEFAULT false,
		is_closed boolean NOT NULL DEFAULT false,
		booster_id int,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	// максимум один незакрытый заказ на владельца
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_boost_orders_active
		ON boost_orders(user_id) WHERE NOT is_closed`,
	`CREATE TABLE IF NOT EXISTS boosters (
		id serial PRIMARY KEY,
		user_id int NOT NULL UNIQUE REFERENCES users(id),
		order_id int
	)`,
	`CREATE TABLE IF NOT EXISTS booster_applications (
		id serial PRIMARY KEY,
		user_id int NOT NULL REFERENCES users(id),
		motivation text NOT NULL DEFAULT '',
		contact text NOT NULL DEFAULT '',
		steam_account_link text NOT NULL DEFAULT '',
		status text NOT NULL DEFAULT 'pending',
		review_comment text,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	// максимум одна pending заявка на пользователя
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_booster_applications_pending
		ON booster_applications(user_id) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS batches (
		id serial PRIMARY KEY,
		screen text NOT NULL DEFAULT '',
		received_mmr int NOT NULL,
		is_win boolean NOT NULL,
		order_id int NOT NULL REFERENCES boost_orders(id),
		booster_id int NOT NULL REFERENCES boosters(id),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id bigserial PRIMARY KEY,
		actor_id int,
		action text NOT NULL,
		details text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
