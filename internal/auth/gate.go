// Package auth implements the workshop access gate: a single shared password
// unlocks the application and issues a redis-backed bearer token.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrBadPassword indicates the supplied password does not match the gate hash.
	ErrBadPassword = errors.New("auth: invalid password")
	// ErrTokenInvalid indicates an unknown or expired gate token.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Gate validates the workshop password and manages access tokens.
type Gate struct {
	client       *redis.Client
	passwordHash []byte
	ttl          time.Duration
}

// NewGate constructs a Gate. passwordHash is a bcrypt hash.
func NewGate(client *redis.Client, passwordHash string, ttl time.Duration) *Gate {
	return &Gate{client: client, passwordHash: []byte(passwordHash), ttl: ttl}
}

// Unlock checks the password and, on success, issues a token valid for the
// configured TTL.
func (g *Gate) Unlock(ctx context.Context, password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := g.client.Set(ctx, g.redisKey(token), time.Now().UTC().Format(time.RFC3339), g.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Verify reports whether token is a live gate token and refreshes its TTL.
func (g *Gate) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenInvalid
	}
	ok, err := g.client.Expire(ctx, g.redisKey(token), g.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenInvalid
	}
	return nil
}

// Lock revokes a token.
func (g *Gate) Lock(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.client.Del(ctx, g.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

func (g *Gate) redisKey(token string) string {
	return "gate:" + token
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
