package apicache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// L2 is a shared second-level store consulted on in-memory misses. Get
// reports the remaining lifetime of the value, or zero when unknown.
type L2 interface {
	Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, pathPrefix string) error
}

// Watcher is implemented by shared layers that broadcast invalidations. Watch
// calls fn for each invalidated prefix until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, fn func(pathPrefix string)) error
}

type RedisL2 struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisL2 stores entries under keyPrefix in client.
func NewRedisL2(client *redis.Client, keyPrefix string) *RedisL2 {
	return &RedisL2{client: client, keyPrefix: keyPrefix}
}

func (r *RedisL2) channel() string { return r.keyPrefix + "invalidate" }

func (r *RedisL2) Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	var get *redis.StringCmd
	var ttl *redis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, r.keyPrefix+key)
		ttl = pipe.PTTL(ctx, r.keyPrefix+key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}
	raw, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = 0
	}
	return raw, remaining, true, nil
}

func (r *RedisL2) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.keyPrefix+key, value, ttl).Err()
}

// DeletePrefix removes every cached GET whose path starts with pathPrefix.
func (r *RedisL2) DeletePrefix(ctx context.Context, pathPrefix string) error {
	pattern := r.keyPrefix + "GET " + globEscape(pathPrefix) + "*"
	iter := r.client.Scan(ctx, 0, pattern, 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return r.client.Publish(ctx, r.channel(), pathPrefix).Err()
}

// Watch subscribes to invalidations published by DeletePrefix.
func (r *RedisL2) Watch(ctx context.Context, fn func(pathPrefix string)) error {
	sub := r.client.Subscribe(ctx, r.channel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("apicache: invalidation channel closed")
			}
			fn(msg.Payload)
		}
	}
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func globEscape(s string) string {
	return globReplacer.Replace(s)
}
