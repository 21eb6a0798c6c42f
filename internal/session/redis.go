package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/models"
)

// RedisStore keeps the session as a hash, for shared kiosk devices that
// point several terminals at one profile.
type RedisStore struct {
	client *redis.Client
	key    string
}

func OpenRedisStore(ctx context.Context, cfg config.RedisConfig, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStore(client, prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "digicon"
	}
	return &RedisStore{client: client, key: prefix + ":session"}
}

func (s *RedisStore) Load(ctx context.Context) (models.Session, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return models.Session{}, fmt.Errorf("redis load session: %w", err)
	}
	if len(values) == 0 {
		return models.Session{}, ErrNoSession
	}

	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil {
		return models.Session{}, fmt.Errorf("redis session user_id: %w", err)
	}

	return models.Session{
		Token:    values["token"],
		IsAdmin:  values["is_admin"] == "true",
		Username: values["username"],
		UserID:   userID,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, sess models.Session) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			"token", sess.Token,
			"is_admin", strconv.FormatBool(sess.IsAdmin),
			"username", sess.Username,
			"user_id", strconv.FormatInt(sess.UserID, 10),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
