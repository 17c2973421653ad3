package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginKey = "ratelimit:login:ip:10.0.0.1"

func expectHit(mock redismock.ClientMock, count int64) {
	mock.ExpectTxPipeline()
	mock.ExpectIncr(loginKey).SetVal(count)
	mock.ExpectExpireNX(loginKey, time.Minute).SetVal(count == 1)
	mock.ExpectTxPipelineExec()
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		count   int64
		allowed bool
	}{
		{name: "first request", count: 1, allowed: true},
		{name: "below limit", count: 2, allowed: true},
		{name: "last request in window", count: 3, allowed: true},
		{name: "over limit", count: 4, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			expectHit(mock, tt.count)

			limiter := NewLimiter(client, 3, time.Minute)
			allowed, err := limiter.AllowIPRequestWithPurpose(ctx, "10.0.0.1", "login")

			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLimiter_WindowSetOnEveryHit(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, 3, time.Minute)

	// The first EXPIRE fails and the transaction reports it.
	mock.ExpectTxPipeline()
	mock.ExpectIncr(loginKey).SetVal(1)
	mock.ExpectExpireNX(loginKey, time.Minute).SetErr(errors.New("READONLY"))
	mock.ExpectTxPipelineExec()

	// The next request still carries EXPIRE NX, so the key gets its TTL.
	mock.ExpectTxPipeline()
	mock.ExpectIncr(loginKey).SetVal(2)
	mock.ExpectExpireNX(loginKey, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	_, err := limiter.AllowIPRequestWithPurpose(ctx, "10.0.0.1", "login")
	require.Error(t, err)

	allowed, err := limiter.AllowIPRequestWithPurpose(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_AllowError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewLimiter(client, 3, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectIncr(loginKey).SetErr(redis.ErrClosed)
	mock.ExpectExpireNX(loginKey, time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()

	allowed, err := limiter.AllowIPRequestWithPurpose(context.Background(), "10.0.0.1", "login")
	require.Error(t, err)
	assert.ErrorIs(t, err, redis.ErrClosed)
	assert.False(t, allowed)
}
