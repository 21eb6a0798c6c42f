package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/models"
)

// PostgresStore keeps the session as key/value rows scoped by profile.
type PostgresStore struct {
	pool    *pgxpool.Pool
	profile string
}

func OpenPostgresStore(ctx context.Context, cfg config.PostgresConfig, profile string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpen)
	poolConfig.MinConns = int32(cfg.MaxIdle)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := NewPostgresStore(pool, profile)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStore(pool *pgxpool.Pool, profile string) *PostgresStore {
	if profile == "" {
		profile = "digicon"
	}
	return &PostgresStore{pool: pool, profile: profile}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS client_session (
			profile TEXT NOT NULL,
			key     TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (profile, key)
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create client_session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (models.Session, error) {
	const query = `SELECT key, value FROM client_session WHERE profile = $1`

	rows, err := s.pool.Query(ctx, query, s.profile)
	if err != nil {
		return models.Session{}, fmt.Errorf("postgres load session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Session{}, err
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Session{}, err
	}
	if len(values) == 0 {
		return models.Session{}, ErrNoSession
	}

	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil {
		return models.Session{}, fmt.Errorf("postgres session user_id: %w", err)
	}
	return models.Session{
		Token:    values["token"],
		IsAdmin:  values["is_admin"] == "true",
		Username: values["username"],
		UserID:   userID,
	}, nil
}

func (s *PostgresStore) Save(ctx context.Context, sess models.Session) error {
	const upsert = `
		INSERT INTO client_session (profile, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value
	`

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for key, value := range map[string]string{
			"token":    sess.Token,
			"is_admin": strconv.FormatBool(sess.IsAdmin),
			"username": sess.Username,
			"user_id":  strconv.FormatInt(sess.UserID, 10),
		} {
			if _, err := tx.Exec(ctx, upsert, s.profile, key, value); err != nil {
				return fmt.Errorf("postgres save %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	const query = `DELETE FROM client_session WHERE profile = $1`
	if _, err := s.pool.Exec(ctx, query, s.profile); err != nil {
		return fmt.Errorf("postgres clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
