package redissuo_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-xlan/redis-go-suo/internal/utils"
	"github.com/go-xlan/redis-go-suo/redissuo"
	"github.com/stretchr/testify/require"
)

// TestNewExclusiveSuoFromConfig validates constructing a handle that dials its
// own client from host/port settings
//
// TestNewExclusiveSuoFromConfig 验证通过 host/port 设置自行拨号客户端来构造句柄
func TestNewExclusiveSuoFromConfig(t *testing.T) {
	ctx := context.Background()

	port, err := strconv.Atoi(caseMiniRedis.Port())
	require.NoError(t, err)

	lock := redissuo.NewExclusiveSuoFromConfig(&redissuo.Config{
		Name:   utils.NewSecret(),
		Prefix: "UT",
		TTL:    5 * time.Second,
		Host:   caseMiniRedis.Host(),
		Port:   port,
	})

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, false))
}

// TestNewSharedSuoFromConfigReusesClient validates that a configured client
// connection pool is reused as-is instead of dialing a new one
//
// TestNewSharedSuoFromConfigReusesClient 验证已配置的客户端连接池会被原样复用，
// 而不是重新拨号
func TestNewSharedSuoFromConfigReusesClient(t *testing.T) {
	ctx := context.Background()

	reader := redissuo.NewSharedSuoFromConfig(&redissuo.Config{
		Name:   utils.NewSecret(),
		TTL:    5 * time.Second,
		Client: caseRedisClient,
	})

	ok, err := reader.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, reader.Release(ctx, false))
}
