package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/carrito"

	"github.com/redis/go-redis/v9"
)

// ErrCarritoNoExiste is returned when the cart key expired or was never
// created.
var ErrCarritoNoExiste = errors.New("el carrito no existe o expiró")

// CarritoStore persists storefront carts in Redis, keyed by an opaque cart
// id the client carries. Carts expire after the TTL of inactivity.
type CarritoStore interface {
	Obtener(ctx context.Context, id string) (*carrito.Carrito, error)
	Guardar(ctx context.Context, id string, c *carrito.Carrito) error
	Eliminar(ctx context.Context, id string) error
}

type carritoStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCarritoStore(rdb *redis.Client, ttl time.Duration) CarritoStore {
	return &carritoStore{rdb: rdb, ttl: ttl}
}

func carritoKey(id string) string { return fmt.Sprintf("carrito:%s", id) }

func (s *carritoStore) Obtener(ctx context.Context, id string) (*carrito.Carrito, error) {
	raw, err := s.rdb.Get(ctx, carritoKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCarritoNoExiste
	}
	if err != nil {
		return nil, err
	}
	var c carrito.Carrito
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *carritoStore) Guardar(ctx context.Context, id string, c *carrito.Carrito) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, carritoKey(id), raw, s.ttl).Err()
}

func (s *carritoStore) Eliminar(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, carritoKey(id)).Err()
}
