package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"asterias/models"
	"asterias/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// lockPoll is how often a contended lock is retried.
const lockPoll = 50 * time.Millisecond

// RedisSessionStore keeps checkout sessions in Redis as JSON.
type RedisSessionStore struct {
	client   *redis.Client
	lockWait time.Duration
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, lockWait: 5 * time.Second}
}

func sessionKey(id string) string { return utils.CheckoutSessionPrefix + id }

func (s *RedisSessionStore) Save(ctx context.Context, sess *models.CheckoutSession, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ID), b, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess models.CheckoutSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding checkout session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Lock takes a short-lived per-session lock, polling until lockWait runs out.
func (s *RedisSessionStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := sessionKey(id) + ":lock"
	token := uuid.NewString()
	deadline := time.Now().Add(s.lockWait)
	for {
		ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.WithoutCancel(ctx), s.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrSessionBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPoll):
		}
	}
}

var _ SessionStore = (*RedisSessionStore)(nil)
