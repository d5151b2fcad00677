package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const nonceKeyPrefix = "wallet:nonce:"

// consumeNonceScript deletes the stored nonce only when the signed message embeds it.
var consumeNonceScript = redis.NewScript(`
local nonce = redis.call("GET", KEYS[1])
if not nonce then
	return 0
end
if string.find(ARGV[1], nonce, 1, true) then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// NonceStore keeps the current wallet-link nonce per address.
type NonceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNonceStore creates a nonce store. A nil client falls back to the package client.
func NewNonceStore(c *redis.Client, ttl time.Duration) *NonceStore {
	if c == nil {
		c = client
	}
	return &NonceStore{client: c, ttl: ttl}
}

// Issue records nonce as the current one for address, replacing any earlier nonce.
func (s *NonceStore) Issue(ctx context.Context, address, nonce string) error {
	return s.client.Set(ctx, nonceKey(address), nonce, s.ttl).Err()
}

// Current returns the outstanding nonce for address, or "" when none is live.
func (s *NonceStore) Current(ctx context.Context, address string) (string, error) {
	nonce, err := s.client.Get(ctx, nonceKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return nonce, err
}

// Consume atomically burns the nonce for address if message embeds it.
func (s *NonceStore) Consume(ctx context.Context, address, message string) (bool, error) {
	res, err := consumeNonceScript.Run(ctx, s.client, []string{nonceKey(address)}, message).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func nonceKey(address string) string {
	return nonceKeyPrefix + strings.ToLower(strings.TrimSpace(address))
}
