package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestGate(t *testing.T) (*Gate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hash, err := bcrypt.GenerateFromPassword([]byte("workshop-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewGate(client, string(hash), time.Hour), mr
}

func TestUnlockAndVerify(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	token, err := gate.Unlock(ctx, "workshop-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, gate.Verify(ctx, token))
}

func TestUnlockRejectsBadPassword(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := gate.Unlock(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrBadPassword)
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	gate, _ := newTestGate(t)

	require.ErrorIs(t, gate.Verify(context.Background(), "nope"), ErrTokenInvalid)
	require.ErrorIs(t, gate.Verify(context.Background(), ""), ErrTokenInvalid)
}

func TestLockRevokesToken(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	token, err := gate.Unlock(ctx, "workshop-pass")
	require.NoError(t, err)

	require.NoError(t, gate.Lock(ctx, token))
	require.ErrorIs(t, gate.Verify(ctx, token), ErrTokenInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	gate, mr := newTestGate(t)
	ctx := context.Background()

	token, err := gate.Unlock(ctx, "workshop-pass")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	require.ErrorIs(t, gate.Verify(ctx, token), ErrTokenInvalid)
}
