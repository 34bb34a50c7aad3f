// Package redissuo: Redis distributed lock implementation with exclusive and shared flavors
// Provides consistent lock acquisition, release, and extension mechanisms with secret-token ownership
// Features blocking/timed acquisition, optimistic watched transactions, and comprehensive logging support
// Supports high-contention scenarios with precise timing coordination and race condition prevention
//
// redissuo: 带有独占与共享两种形态的 Redis 分布式锁实现
// 提供一致的锁获取、释放和延期机制，并基于密钥令牌追踪所有权
// 具有阻塞/定时获取、乐观 watch 事务和完整的日志支持
// 支持高竞争场景，具备精确的时间协调和竞态条件预防
package redissuo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-xlan/redis-go-suo/internal/lockcodec"
	"github.com/go-xlan/redis-go-suo/internal/logging"
	"github.com/go-xlan/redis-go-suo/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/yyle88/must"
	"github.com/yyle88/zaplog"
	"go.uber.org/zap"
)

// defaultBackoff is the sleep interval between failed acquisition attempts
// 默认退避时长，即两次失败的获取尝试之间的休眠时间
const defaultBackoff = time.Second

// Locker is the narrow store-access capability both lock flavors implement
// The acquisition loop and the release algorithm depend only on this, never
// on the concrete exclusive or shared engine
//
// Locker 是独占锁与共享锁两种引擎都实现的最小存取能力
// 获取循环与释放算法只依赖于它，从不依赖具体的独占或共享引擎
type Locker interface {
	// Key returns the Lock Key this handle operates on
	// Key 返回该句柄操作的 Lock Key
	Key() string
	// Secret returns this handle's fixed owner token
	// Secret 返回该句柄固定不变的所有者令牌
	Secret() string
	// TTL returns the configured expiration; zero or negative means no expiry
	// TTL 返回配置的过期时长；零或负值表示不过期
	TTL() time.Duration
	// TryWrite attempts a single non-blocking set-if-absent-or-join
	// TryWrite 尝试单次非阻塞的"若缺失则创建/加入"操作
	TryWrite(ctx context.Context) (bool, error)
	// VerifyOwner reports whether this handle's secret currently owns the lock
	// VerifyOwner 判断该句柄的密钥当前是否拥有这把锁
	VerifyOwner(ctx context.Context) (bool, error)
	// Delete removes this handle's ownership from the record, deleting the
	// key outright when no owners remain
	// Delete 从记录中移除该句柄的所有权，若不再有所有者则直接删除该键
	Delete(ctx context.Context) (bool, error)
}

// Handle is the public per-acquirer contract exposed by both ExclusiveSuo
// and SharedSuo: the acquisition loop plus the release algorithm
//
// Handle 是 ExclusiveSuo 与 SharedSuo 共同对外暴露的单次获取者协定：
// 获取循环加上释放算法
type Handle interface {
	Locker
	// Acquire blocks indefinitely (default parameters) before success
	// Acquire 使用默认参数无限期阻塞直到成功
	Acquire(ctx context.Context) (bool, error)
	// AcquireTimeout drives the blocking/timed acquisition loop explicitly
	// AcquireTimeout 显式驱动阻塞/定时获取循环
	AcquireTimeout(ctx context.Context, blocking bool, timeout time.Duration) (bool, error)
	// Release verifies ownership (unless forced) then deletes
	// Release 验证所有权（除非强制）然后删除
	Release(ctx context.Context, force bool) error
}

// lockBase carries the fields common to both lock flavors: the Lock Key,
// the fixed per-handle secret, the configured TTL, and the logger
//
// lockBase 承载两种锁共用的字段：Lock Key、句柄固定的密钥、配置的 TTL 以及日志记录器
type lockBase struct {
	redisClient redis.UniversalClient // Redis client connection // Redis 客户端连接
	name        string                // Lock name // 锁名
	prefix      string                // Namespace prefix, empty means none // 命名空间前缀，空表示无
	key         string                // Full Lock Key // 完整的 Lock Key
	ttl         time.Duration         // Configured expiration // 配置的过期时长
	secret      string                // Fixed owner token, minted once // 固定不变的所有者令牌，只生成一次
	logger      logging.Logger        // Logger instance used in operations // 操作中使用的日志记录器实例
}

// newLockBase validates inputs and mints the handle's fixed secret
// 验证输入并生成该句柄固定不变的密钥
func newLockBase(rds redis.UniversalClient, name string, prefix string, ttl time.Duration) lockBase {
	return lockBase{
		redisClient: must.Nice(rds),
		name:        must.Nice(name),
		prefix:      prefix,
		key:         lockcodec.BuildKey(prefix, name),
		ttl:         ttl,
		secret:      utils.NewSecret(),
		logger:      logging.NewZapLogger(zaplog.LOGS.Skip(2)),
	}
}

func (b *lockBase) Key() string            { return b.key }
func (b *lockBase) Secret() string         { return b.secret }
func (b *lockBase) TTL() time.Duration     { return b.ttl }
func (b *lockBase) Name() string           { return b.name }
func (b *lockBase) Prefix() string         { return b.prefix }
func (b *lockBase) Logger() logging.Logger { return b.logger }

// expiry converts the configured TTL into the value passed to go-redis:
// zero means no expiration, matching a ttl<=0 configuration
//
// expiry 把配置的 TTL 转换为传给 go-redis 的值：零表示不过期，对应 ttl<=0 的配置
func (b *lockBase) expiry() time.Duration {
	if b.ttl > 0 {
		return b.ttl
	}
	return 0
}

// String renders a debug-friendly summary of the handle
// String 渲染该句柄便于调试的摘要
func (b *lockBase) String() string {
	return fmt.Sprintf("prefix=%q name=%q key=%q ttl=%s secret=%q", b.prefix, b.name, b.key, b.ttl, b.secret)
}

// acquireLoop is the acquisition loop shared by both lock flavors (spec'd
// blocking/timeout semantics): try once, return on success, return on
// non-blocking failure, return once the timeout is strictly exceeded,
// otherwise sleep and retry
//
// acquireLoop 是两种锁共用的获取循环：尝试一次，成功即返回，
// 非阻塞失败即返回，严格超过超时时间即返回，否则休眠后重试
func acquireLoop(ctx context.Context, tryWrite func(ctx context.Context) (bool, error), blocking bool, timeout time.Duration, sleep time.Duration) (bool, error) {
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ok, err := tryWrite(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !blocking {
			return false, nil
		}
		if timeout > 0 && time.Now().After(start.Add(timeout)) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// release is the engine-agnostic release algorithm (spec's owner/force
// semantics), operating purely through the Locker capability
//
// release 是与引擎无关的释放算法（依据所有权/强制语义），只通过 Locker 能力操作
func release(ctx context.Context, locker Locker, force bool, logger logging.Logger) error {
	LOG := logger.WithMeta(
		zap.String("action", "release"),
		zap.String("key", locker.Key()),
		zap.String("secret", locker.Secret()),
	)

	if force {
		removed, err := locker.Delete(ctx)
		if err != nil {
			return err
		}
		if !removed {
			LOG.DebugLog("force release found nothing to remove")
			return ErrLostLock
		}
		LOG.DebugLog("lock force-released")
		return nil
	}

	owned, err := locker.VerifyOwner(ctx)
	if err != nil {
		// the exclusive engine raises ErrLostLock directly from VerifyOwner
		// when no record identifies any owner at all
		return err
	}
	if !owned {
		LOG.DebugLog("not the current owner")
		return ErrNotOwner
	}

	removed, err := locker.Delete(ctx)
	if err != nil {
		return err
	}
	if !removed {
		LOG.DebugLog("lock already gone before delete")
		return ErrLostLock
	}
	LOG.DebugLog("lock released")
	return nil
}
