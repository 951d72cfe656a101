// Package rediscache comparte resoluciones de mercados entre procesos usando Redis.
package rediscache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientConfig son los parámetros de conexión a Redis.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
}

// Client envuelve un *redis.Client.
type Client struct {
	rdb *redis.Client
}

// New crea el cliente y hace ping; falla si Redis no responde.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache.New: ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close cierra el pool de conexiones.
func (c *Client) Close() error {
	return c.rdb.Close()
}
