package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis, for deployments running more than
// one frontend instance behind a load balancer.
type RedisStore struct {
	rdb *goredis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Println("Session store: redis at", addr)
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Save(ctx context.Context, sid string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return s.rdb.Set(ctx, storeKey(sid), data, TTL).Err()
}

func (s *RedisStore) Load(ctx context.Context, sid string) (Record, error) {
	data, err := s.rdb.Get(ctx, storeKey(sid)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, storeKey(sid)).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
