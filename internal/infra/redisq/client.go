package redisq

import (
	"context"
	"fmt"
	"workq/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client is a ports.Store backed by Redis hashes with sorted-set indexes.
type Client struct {
	Cfg config.Redis
	Rdb *redis.Client
	// MaxTxRetries bounds optimistic transaction retries on WATCH conflicts.
	MaxTxRetries int
}

func New(cfg config.Redis) *Client {
	log.Info().Msgf("connecting to redis at %s", cfg.Addr)
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(c, cfg)
}

func NewWithClient(rdb *redis.Client, cfg config.Redis) *Client {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "workq:"
	}
	return &Client{Cfg: cfg, Rdb: rdb, MaxTxRetries: 100}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Ctx(ctx).Info().Str("prefix", c.Cfg.KeyPrefix).Msg("connected to redis")
	return nil
}

func (c *Client) Close() error {
	return c.Rdb.Close()
}
