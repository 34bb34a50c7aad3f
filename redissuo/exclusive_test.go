// Package redissuo_test provides comprehensive testing to validate distributed lock operations
// Tests include basic lock acquisition, contention, timeout handling, and lock extension
// Uses an in-process fake Redis instance to validate lock coordination without outside services
//
// redissuo_test 为分布式锁操作提供全面的测试
// 测试涵盖基本锁获取、竞争、超时处理和锁延期
// 使用内存 Redis 实例验证锁协调而无需外部依赖
package redissuo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-xlan/redis-go-suo/internal/lockcodec"
	"github.com/go-xlan/redis-go-suo/internal/utils"
	"github.com/go-xlan/redis-go-suo/redissuo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/yyle88/must"
	"github.com/yyle88/rese"
)

var caseRedisClient redis.UniversalClient
var caseMiniRedis *miniredis.Miniredis

func TestMain(m *testing.M) {
	miniRedis := rese.P1(miniredis.Run())
	defer miniRedis.Close()
	caseMiniRedis = miniRedis

	redisClient := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{miniRedis.Addr()},
		PoolSize:     10,
		MinIdleConns: 10,
	})
	must.Done(redisClient.Ping(context.Background()).Err())

	caseRedisClient = redisClient

	m.Run()
}

// TestExclusiveSuoAcquireRelease validates basic lock acquisition and release cycle
// 验证基本的锁获取和释放周期
func TestExclusiveSuoAcquireRelease(t *testing.T) {
	ctx := context.Background()

	suo := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", 200*time.Millisecond)
	ok, err := suo.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, suo.Release(ctx, false))
}

// TestExclusiveSuoRecordShape validates the stored record of a fresh acquire:
// the key named "{prefix}:lock:{name}", a JSON body carrying exclusive=true
// plus this handle's secret, and an expiry matching the configured ttl
//
// TestExclusiveSuoRecordShape 验证一次新获取所存储的记录：
// 键名形如 "{prefix}:lock:{name}"，JSON 内容带有 exclusive=true 与本句柄的密钥，
// 过期时间与配置的 ttl 一致
func TestExclusiveSuoRecordShape(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suo := redissuo.NewExclusiveSuo(caseRedisClient, name, "UT", 15*time.Second)
	require.Equal(t, "UT:lock:"+name, suo.Key())

	ok, err := suo.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := caseRedisClient.Get(ctx, suo.Key()).Bytes()
	require.NoError(t, err)
	rec, err := lockcodec.Decode(data)
	require.NoError(t, err)
	require.True(t, rec.Exclusive)
	require.Equal(t, suo.Secret(), rec.Secret)
	require.NotZero(t, rec.Timestamp)

	ttl, err := caseRedisClient.TTL(ctx, suo.Key()).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, 15*time.Second)

	require.NoError(t, suo.Release(ctx, false))
}

// TestExclusiveSuoNoExpiryWhenTTLUnset validates that a non-positive ttl
// stores the key without any expiration
//
// TestExclusiveSuoNoExpiryWhenTTLUnset 验证非正的 ttl 会使该键在存储时没有任何过期时间
func TestExclusiveSuoNoExpiryWhenTTLUnset(t *testing.T) {
	ctx := context.Background()

	suo := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", -1)
	ok, err := suo.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := caseRedisClient.TTL(ctx, suo.Key()).Result()
	require.NoError(t, err)
	require.Less(t, ttl, time.Duration(0)) // the no-expiry sentinel

	require.NoError(t, suo.Release(ctx, false))
}

// TestExclusiveSuoMutualExclusion validates that two handles on the same name
// can never both hold the lock at once
//
// TestExclusiveSuoMutualExclusion 验证同名的两个句柄永远不能同时持有该锁
func TestExclusiveSuoMutualExclusion(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suoA := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	suoB := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)

	ok, err := suoA.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = suoB.AcquireTimeout(ctx, false, -1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, suoA.Release(ctx, false))

	ok, err = suoB.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, suoB.Release(ctx, false))
}

// TestExclusiveSuoAcquireTwoNames validates independent lock operations across names
// 验证不同名称的锁独立操作
func TestExclusiveSuoAcquireTwoNames(t *testing.T) {
	ctx := context.Background()

	suo1 := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", 5*time.Second)
	ok, err := suo1.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	suo2 := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", 5*time.Second)
	ok, err = suo2.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, suo1.Release(ctx, false))
	require.NoError(t, suo2.Release(ctx, false))
}

// TestExclusiveSuoReleaseAfterExpiry validates releasing after the TTL elapses
// returns ErrLostLock rather than success, since no record names us anymore
// Expiry is driven with FastForward because the fake Redis clock stands still
//
// TestExclusiveSuoReleaseAfterExpiry 验证 TTL 过期后释放会返回 ErrLostLock 而非成功，
// 因为已没有任何记录认领我们为所有者
// 过期通过 FastForward 驱动，因为内存 Redis 的时钟不会自行流逝
func TestExclusiveSuoReleaseAfterExpiry(t *testing.T) {
	ctx := context.Background()
	duration := 80 * time.Millisecond

	suo := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", duration)
	ok, err := suo.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	caseMiniRedis.FastForward(duration + 20*time.Millisecond)

	err = suo.Release(ctx, false)
	require.ErrorIs(t, err, redissuo.ErrLostLock)
}

// TestExclusiveSuoReleaseByForeignSecretFails validates that a handle which
// never held the lock cannot release one owned by someone else
//
// TestExclusiveSuoReleaseByForeignSecretFails 验证从未持有过锁的句柄
// 无法释放属于他人的锁
func TestExclusiveSuoReleaseByForeignSecretFails(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	owner := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	stranger := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	err = stranger.Release(ctx, false)
	require.ErrorIs(t, err, redissuo.ErrNotOwner)

	require.NoError(t, owner.Release(ctx, false))
}

// TestExclusiveSuoForceRelease validates that force=true removes the key
// regardless of who currently owns it
//
// TestExclusiveSuoForceRelease 验证 force=true 无论当前由谁持有都能移除该键
func TestExclusiveSuoForceRelease(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	owner := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	stranger := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	require.NoError(t, stranger.Release(ctx, true))

	// the key is gone now, a force release finds nothing left to remove
	require.ErrorIs(t, owner.Release(ctx, true), redissuo.ErrLostLock)
}

// TestExclusiveSuoNonBlockingContention validates that acquire(blocking=false)
// returns immediately with no sleep under contention
//
// TestExclusiveSuoNonBlockingContention 验证 acquire(blocking=false)
// 在竞争下立刻返回，没有任何休眠
func TestExclusiveSuoNonBlockingContention(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suoA := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	suoB := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)

	ok, err := suoA.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	ok, err = suoB.AcquireTimeout(ctx, false, -1)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.False(t, ok)
	require.Less(t, elapsed, 50*time.Millisecond)

	require.NoError(t, suoA.Release(ctx, false))
}

// TestExclusiveSuoTimedWaitSucceedsAfterRelease validates that a blocked
// acquirer succeeds once the holder releases, within the configured timeout
//
// TestExclusiveSuoTimedWaitSucceedsAfterRelease 验证阻塞的获取者
// 会在持有者释放后、于配置的超时内成功
func TestExclusiveSuoTimedWaitSucceedsAfterRelease(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suoA := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	suoB := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)

	ok, err := suoA.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(300 * time.Millisecond)
		require.NoError(t, suoA.Release(ctx, false))
	}()

	ok, err = suoB.AcquireTimeout(ctx, true, 3*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, suoB.Release(ctx, false))
}

// TestExclusiveSuoTimedWaitExpires validates that a blocked acquirer gives up
// once the timeout is strictly exceeded, without ever succeeding
//
// TestExclusiveSuoTimedWaitExpires 验证阻塞的获取者一旦严格超过超时时间就会放弃，
// 并且从不会成功
func TestExclusiveSuoTimedWaitExpires(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suoA := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	suoB := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)

	ok, err := suoA.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	ok, err = suoB.AcquireTimeout(ctx, true, 120*time.Millisecond)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.False(t, ok)
	require.GreaterOrEqual(t, elapsed, 120*time.Millisecond)

	require.NoError(t, suoA.Release(ctx, false))
}

// TestExclusiveSuoAcquireAgainExtendLock validates that the lock's TTL can be
// refreshed while it's held, keeping the same secret
//
// TestExclusiveSuoAcquireAgainExtendLock 验证锁在持有期间可以刷新其 TTL，
// 并保持相同的密钥不变
func TestExclusiveSuoAcquireAgainExtendLock(t *testing.T) {
	ctx := context.Background()
	duration := 150 * time.Millisecond

	suo := redissuo.NewExclusiveSuo(caseRedisClient, utils.NewSecret(), "", duration)
	ok, err := suo.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(duration / 2)

	extended, err := suo.AcquireAgainExtendLock(ctx)
	require.NoError(t, err)
	require.True(t, extended)

	time.Sleep(duration / 2)

	require.NoError(t, suo.Release(ctx, false))
}

// TestExclusiveSuoRejectsMalformedRecord validates that a record whose secret
// isn't a plain string is treated as having no recognizable owner
//
// TestExclusiveSuoRejectsMalformedRecord 验证 secret 字段不是纯字符串的记录
// 会被视为没有可识别的所有者
func TestExclusiveSuoRejectsMalformedRecord(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	suo := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	require.NoError(t, caseRedisClient.Set(ctx, suo.Key(), `{"timestamp":1,"secret":42,"exclusive":true}`, 0).Err())

	err := suo.Release(ctx, false)
	require.ErrorIs(t, err, redissuo.ErrLostLock)

	require.NoError(t, caseRedisClient.Del(ctx, suo.Key()).Err())
}

// TestExclusiveSuoReleaseOnSharedRecord validates that an exclusive handle
// cannot release a key currently held as a shared lock: the record has
// recognizable owners, they just aren't us
//
// TestExclusiveSuoReleaseOnSharedRecord 验证独占句柄无法释放当前被共享锁持有的键：
// 记录中有可识别的所有者，只是并非我们
func TestExclusiveSuoReleaseOnSharedRecord(t *testing.T) {
	ctx := context.Background()
	name := utils.NewSecret()

	reader := redissuo.NewSharedSuo(caseRedisClient, name, "", 5*time.Second)
	ok, err := reader.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	writer := redissuo.NewExclusiveSuo(caseRedisClient, name, "", 5*time.Second)
	err = writer.Release(ctx, false)
	require.ErrorIs(t, err, redissuo.ErrNotOwner)

	require.NoError(t, reader.Release(ctx, false))
}
