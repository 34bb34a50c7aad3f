package redissuo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-xlan/redis-go-suo/internal/lockcodec"
	"github.com/go-xlan/redis-go-suo/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/yyle88/erero"
	"go.uber.org/zap"
)

// ExclusiveSuo is a single-owner distributed lock instance with configurable TTL
// Contains Redis client connection, lock name, prefix, and a fixed owner secret
// Provides core locking operations with set-if-absent/get/delete primitives
// Thread-safe when used across multiple goroutines
//
// ExclusiveSuo 是具有可配置 TTL 的单所有者分布式锁实例
// 包含 Redis 客户端连接、锁名、命名空间前缀和固定不变的所有者密钥
// 通过 set-if-absent/get/delete 原语提供核心锁定操作
// 在多个 goroutine 中使用时是线程安全的
type ExclusiveSuo struct {
	lockBase

	// maxWatchRetries caps AcquireAgainExtendLock's optimistic-transaction
	// retries; 0 means unbounded
	//
	// maxWatchRetries 限制 AcquireAgainExtendLock 乐观事务的重试次数；0 表示无限
	maxWatchRetries int
}

// NewExclusiveSuo creates a new exclusive Redis distributed lock instance
// Validates each input setting and returns configured lock instance
// client and name must be non-blank otherwise the function panics via must.Nice
// ttl<=0 means the key never expires
//
// NewExclusiveSuo 创建新的独占 Redis 分布式锁实例
// 验证每个输入设置并返回配置好的锁实例
// client 与 name 不能为空，否则通过 must.Nice 触发 panic
// ttl<=0 表示该键永不过期
func NewExclusiveSuo(rds redis.UniversalClient, name string, prefix string, ttl time.Duration) *ExclusiveSuo {
	return &ExclusiveSuo{lockBase: newLockBase(rds, name, prefix, ttl)}
}

// WithLogger sets a custom logger during lock operations, returns the receiver
// to support method chaining
//
// WithLogger 为锁操作设置自定义日志记录器，返回接收者以支持方法链式调用
func (o *ExclusiveSuo) WithLogger(logger logging.Logger) *ExclusiveSuo {
	o.logger = logger
	return o
}

// WithMaxWatchRetries caps the number of optimistic-transaction retries
// AcquireAgainExtendLock performs before giving up with an error; max<=0
// means unbounded (the default)
//
// WithMaxWatchRetries 限制 AcquireAgainExtendLock 在放弃并返回错误之前
// 执行乐观事务重试的次数；max<=0 表示无限（默认）
func (o *ExclusiveSuo) WithMaxWatchRetries(max int) *ExclusiveSuo {
	o.maxWatchRetries = max
	return o
}

// String renders a debug summary naming the concrete lock flavor
// String 渲染带具体锁种类名的调试摘要
func (o *ExclusiveSuo) String() string {
	return fmt.Sprintf("<redissuo.ExclusiveSuo %p> %s", o, o.lockBase.String())
}

// TryWrite attempts a single set-if-absent acquisition
// Returns true iff the store reports the key was newly created
// Never re-enters when the handle already owns the key: a held key is
// already present, so a second set-if-absent simply fails like contention
//
// TryWrite 尝试单次 set-if-absent 获取
// 仅当存储报告该键是新创建的时返回 true
// 即便句柄已持有该键也不会重入：持有中的键已经存在，
// 再次 set-if-absent 会像遇到竞争一样直接失败
func (o *ExclusiveSuo) TryWrite(ctx context.Context) (bool, error) {
	LOG := o.logger.WithMeta(zap.String("action", "try-write"), zap.String("key", o.key), zap.String("secret", o.secret))

	payload, err := lockcodec.EncodeExclusive(o.secret, lockcodec.Now())
	if err != nil {
		return false, erero.Wro(err)
	}

	created, err := o.redisClient.SetNX(ctx, o.key, payload, o.expiry()).Result()
	if err != nil {
		LOG.ErrorLog("set failed", zap.Error(err))
		return false, erero.Wro(err)
	}
	if created {
		LOG.DebugLog("lock created")
	} else {
		LOG.DebugLog("lock already held")
	}
	return created, nil
}

// VerifyOwner reads the key and compares its secret to this handle's
// If the key is absent, or its record names no recognizable owner secret,
// this fails outright with ErrLostLock rather than returning false: there is
// nothing to verify ownership against
// A shared-shaped record is a recognizable owner that just isn't us, so it
// reports false instead of failing
//
// VerifyOwner 读取该键并比对其密钥与本句柄的密钥
// 若该键不存在，或其记录未给出可识别的所有者密钥，
// 则直接以 ErrLostLock 失败而非返回 false：根本没有可供核对所有权的对象
// 共享形状的记录是可识别的所有者，只是并非我们，因此返回 false 而非报错
func (o *ExclusiveSuo) VerifyOwner(ctx context.Context) (bool, error) {
	data, err := o.redisClient.Get(ctx, o.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, ErrLostLock
	}
	if err != nil {
		return false, erero.Wro(err)
	}

	rec, decErr := lockcodec.Decode(data)
	if decErr != nil || rec.Malformed {
		return false, ErrLostLock
	}
	return rec.Exclusive && rec.Secret == o.secret, nil
}

// Delete unconditionally removes the key
// Returns whether a key was actually removed
//
// Delete 无条件删除该键
// 返回是否确实移除了一个键
func (o *ExclusiveSuo) Delete(ctx context.Context) (bool, error) {
	removed, err := o.redisClient.Del(ctx, o.key).Result()
	if err != nil {
		return false, erero.Wro(err)
	}
	return removed > 0, nil
}

// Acquire blocks indefinitely (blocking=true, timeout unbounded) before success
// 使用默认参数（blocking=true，超时无限）无限期阻塞直到成功
func (o *ExclusiveSuo) Acquire(ctx context.Context) (bool, error) {
	return o.AcquireTimeout(ctx, true, -1)
}

// AcquireTimeout drives the acquisition loop with explicit blocking/timeout parameters
// 使用显式的阻塞/超时参数驱动获取循环
func (o *ExclusiveSuo) AcquireTimeout(ctx context.Context, blocking bool, timeout time.Duration) (bool, error) {
	return acquireLoop(ctx, o.TryWrite, blocking, timeout, defaultBackoff)
}

// Release verifies ownership (unless force) then deletes the key
// 验证所有权（除非 force）然后删除该键
func (o *ExclusiveSuo) Release(ctx context.Context, force bool) error {
	return release(ctx, o, force, o.logger)
}

// AcquireAgainExtendLock refreshes the lock's TTL while it's already held by
// this handle's secret, through the same watched-transaction idiom the
// shared engine uses, since a plain set-if-absent cannot refresh a key that
// already exists
//
// AcquireAgainExtendLock 在本句柄的密钥已持有该锁的前提下刷新其 TTL，
// 采用与共享引擎相同的 watch 事务写法，
// 因为普通的 set-if-absent 无法刷新一个已经存在的键
func (o *ExclusiveSuo) AcquireAgainExtendLock(ctx context.Context) (bool, error) {
	for attempt := 0; ; attempt++ {
		if o.maxWatchRetries > 0 && attempt > o.maxWatchRetries {
			return false, erero.New("gave up extending lock: too many watch conflicts")
		}

		var extended bool
		err := o.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			data, getErr := tx.Get(ctx, o.key).Bytes()
			if errors.Is(getErr, redis.Nil) {
				return nil
			}
			if getErr != nil {
				return getErr
			}

			rec, decErr := lockcodec.Decode(data)
			if decErr != nil || !rec.Exclusive || rec.Secret != o.secret {
				return nil
			}

			payload, encErr := lockcodec.EncodeExclusive(o.secret, lockcodec.Now())
			if encErr != nil {
				return encErr
			}

			_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, o.key, payload, o.expiry())
				return nil
			})
			if pipeErr != nil {
				return pipeErr
			}
			extended = true
			return nil
		}, o.key)

		if errors.Is(err, redis.TxFailedErr) {
			o.logger.InfoLog("watched key changed during extend, retrying", zap.String("key", o.key))
			continue
		}
		if err != nil {
			return false, erero.Wro(err)
		}
		return extended, nil
	}
}
