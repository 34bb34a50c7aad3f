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

// SharedSuo is a multi-owner distributed lock instance with configurable TTL
// Maintains a set of owner secrets under one key through watched transactions
// Mutually incompatible with an exclusive holder of the same key
//
// SharedSuo 是具有可配置 TTL 的多所有者分布式锁实例
// 通过 watch 事务在同一个键下维护一组所有者密钥
// 与同一个键上的独占持有者互斥
type SharedSuo struct {
	lockBase
	// maxWatchRetries caps internal optimistic-transaction retries;
	// zero (the default) means unbounded
	//
	// maxWatchRetries 限制内部乐观事务的重试次数；
	// 零值（默认）表示不限
	maxWatchRetries int
}

// NewSharedSuo creates a new shared (read) Redis distributed lock instance
// client and name must be non-blank otherwise the function panics via must.Nice
// ttl<=0 means the key never expires
//
// NewSharedSuo 创建新的共享（读）Redis 分布式锁实例
// client 与 name 不能为空，否则通过 must.Nice 触发 panic
// ttl<=0 表示该键永不过期
func NewSharedSuo(rds redis.UniversalClient, name string, prefix string, ttl time.Duration) *SharedSuo {
	return &SharedSuo{lockBase: newLockBase(rds, name, prefix, ttl)}
}

// WithLogger sets a custom logger during lock operations, returns the receiver
// to support method chaining
//
// WithLogger 为锁操作设置自定义日志记录器，返回接收者以支持方法链式调用
func (o *SharedSuo) WithLogger(logger logging.Logger) *SharedSuo {
	o.logger = logger
	return o
}

// WithMaxWatchRetries caps the number of optimistic-transaction retries this
// handle performs before giving up with an error; zero (the default) keeps
// the original unbounded-retry behavior
//
// WithMaxWatchRetries 限制该句柄执行乐观事务重试的次数，超出后以错误放弃；
// 零值（默认）保持原始的不限次数重试行为
func (o *SharedSuo) WithMaxWatchRetries(max int) *SharedSuo {
	o.maxWatchRetries = max
	return o
}

// String renders a debug summary naming the concrete lock flavor
// String 渲染带具体锁种类名的调试摘要
func (o *SharedSuo) String() string {
	return fmt.Sprintf("<redissuo.SharedSuo %p> %s", o, o.lockBase.String())
}

func (o *SharedSuo) retriesExceeded(attempt int) bool {
	return o.maxWatchRetries > 0 && attempt > o.maxWatchRetries
}

func addSecret(secrets []string, secret string) []string {
	for _, s := range secrets {
		if s == secret {
			return secrets
		}
	}
	joined := make([]string, 0, len(secrets)+1)
	joined = append(joined, secrets...)
	return append(joined, secret)
}

func removeSecret(secrets []string, secret string) ([]string, bool) {
	remaining := make([]string, 0, len(secrets))
	found := false
	for _, s := range secrets {
		if s == secret {
			found = true
			continue
		}
		remaining = append(remaining, s)
	}
	return remaining, found
}

func containsSecret(secrets []string, secret string) bool {
	for _, s := range secrets {
		if s == secret {
			return true
		}
	}
	return false
}

// redisTTLToExpiry converts a TTL command result (which can be -1 for "no
// expiry" or -2 for "key absent") into the expiration value go-redis expects
// on a write (zero meaning no expiry)
//
// redisTTLToExpiry 把 TTL 命令的结果（-1 表示不过期，-2 表示键不存在）
// 转换为 go-redis 写入时所需要的过期值（零表示不过期）
func redisTTLToExpiry(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}

// TryWrite joins the shared set under a watched transaction
// Rejects outright (false, no error) when the existing record is exclusive
// or otherwise not a valid shared shape, without ever writing
// Refreshes the record's TTL to this handle's configured value on every
// successful join, even when joining an already-shared record whose holders
// configured a different ttl: acquirers bring lifetime, releasers don't
//
// TryWrite 在 watch 事务中加入共享集合
// 当已有记录是独占锁或其它无效的共享形状时直接拒绝（false，无错误），绝不写入
// 每次成功加入都会把记录的 TTL 刷新为本句柄配置的值，
// 即便加入的是持有者配置了不同 ttl 的已有共享记录：获取者带来存活时间，释放者不带
func (o *SharedSuo) TryWrite(ctx context.Context) (bool, error) {
	LOG := o.logger.WithMeta(zap.String("action", "try-write-shared"), zap.String("key", o.key), zap.String("secret", o.secret))

	for attempt := 0; ; attempt++ {
		if o.retriesExceeded(attempt) {
			return false, erero.New("exceeded max watch retries joining shared lock")
		}

		var acquired, rejected bool
		err := o.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			secrets := []string{}

			data, getErr := tx.Get(ctx, o.key).Bytes()
			switch {
			case errors.Is(getErr, redis.Nil):
				// no record at all, starting a fresh shared set
			case getErr != nil:
				return getErr
			default:
				rec, decErr := lockcodec.Decode(data)
				if decErr != nil || !rec.IsValidShared() {
					rejected = true
					return nil
				}
				secrets = rec.Secrets
			}

			joined := addSecret(secrets, o.secret)
			payload, encErr := lockcodec.EncodeShared(joined, lockcodec.Now())
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
			acquired = true
			return nil
		}, o.key)

		if errors.Is(err, redis.TxFailedErr) {
			LOG.InfoLog("watched key changed during transaction, retrying")
			continue
		}
		if err != nil {
			LOG.ErrorLog("watch transaction failed", zap.Error(err))
			return false, erero.Wro(err)
		}
		if rejected {
			LOG.DebugLog("existing record is not a valid shared lock")
			return false, nil
		}
		LOG.DebugLog("joined shared lock")
		return acquired, nil
	}
}

// VerifyOwner reports whether this handle's secret is a current member of
// the shared owner set
// Absent keys, exclusive-typed records, and malformed records all report
// false rather than raising, unlike the exclusive flavor where an absent
// key fails outright
//
// VerifyOwner 判断本句柄的密钥当前是否是共享所有者集合的成员
// 键不存在、记录是独占类型、或记录已损坏，均返回 false 而非抛出错误，
// 这与独占锁不同，后者在键不存在时会直接报错
func (o *SharedSuo) VerifyOwner(ctx context.Context) (bool, error) {
	for attempt := 0; ; attempt++ {
		if o.retriesExceeded(attempt) {
			return false, erero.New("exceeded max watch retries verifying shared lock")
		}

		var owner bool
		err := o.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			data, getErr := tx.Get(ctx, o.key).Bytes()
			if errors.Is(getErr, redis.Nil) {
				return nil
			}
			if getErr != nil {
				return getErr
			}

			rec, decErr := lockcodec.Decode(data)
			if decErr != nil || !rec.IsValidShared() {
				return nil
			}
			owner = containsSecret(rec.Secrets, o.secret)
			return nil
		}, o.key)

		if errors.Is(err, redis.TxFailedErr) {
			o.logger.InfoLog("watched key changed during transaction, retrying", zap.String("key", o.key))
			continue
		}
		if err != nil {
			return false, erero.Wro(err)
		}
		return owner, nil
	}
}

// Delete removes this handle's secret from the shared owner set
// Deletes the key outright when no owners remain, otherwise rewrites it with
// the remaining secrets while preserving both the stored timestamp and the
// queried TTL (never refreshing either on a partial release)
// Returns false without error when there was nothing of ours to remove
//
// Delete 从共享所有者集合中移除本句柄的密钥
// 若不再有所有者则直接删除该键，否则用剩余密钥重写记录，
// 同时保留已存储的时间戳与查询到的 TTL（部分释放时两者都不会被刷新）
// 当集合中本就没有我们的份额时，返回 false 且不报错
func (o *SharedSuo) Delete(ctx context.Context) (bool, error) {
	for attempt := 0; ; attempt++ {
		if o.retriesExceeded(attempt) {
			return false, erero.New("exceeded max watch retries deleting shared lock")
		}

		var removed bool
		err := o.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			data, getErr := tx.Get(ctx, o.key).Bytes()
			if errors.Is(getErr, redis.Nil) {
				return nil
			}
			if getErr != nil {
				return getErr
			}

			rec, decErr := lockcodec.Decode(data)
			if decErr != nil || !rec.IsValidShared() {
				return nil
			}

			remaining, found := removeSecret(rec.Secrets, o.secret)
			if !found {
				return nil
			}

			ttl, ttlErr := tx.PTTL(ctx, o.key).Result()
			if ttlErr != nil {
				return ttlErr
			}

			_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(remaining) == 0 {
					pipe.Del(ctx, o.key)
					return nil
				}
				payload, encErr := lockcodec.EncodeShared(remaining, rec.Timestamp)
				if encErr != nil {
					return encErr
				}
				pipe.Set(ctx, o.key, payload, redisTTLToExpiry(ttl))
				return nil
			})
			if pipeErr != nil {
				return pipeErr
			}
			removed = true
			return nil
		}, o.key)

		if errors.Is(err, redis.TxFailedErr) {
			o.logger.InfoLog("watched key changed during transaction, retrying", zap.String("key", o.key))
			continue
		}
		if err != nil {
			return false, erero.Wro(err)
		}
		return removed, nil
	}
}

// Acquire blocks indefinitely (blocking=true, timeout unbounded) before success
// 使用默认参数（blocking=true，超时无限）无限期阻塞直到成功
func (o *SharedSuo) Acquire(ctx context.Context) (bool, error) {
	return o.AcquireTimeout(ctx, true, -1)
}

// AcquireTimeout drives the acquisition loop with explicit blocking/timeout parameters
// 使用显式的阻塞/超时参数驱动获取循环
func (o *SharedSuo) AcquireTimeout(ctx context.Context, blocking bool, timeout time.Duration) (bool, error) {
	return acquireLoop(ctx, o.TryWrite, blocking, timeout, defaultBackoff)
}

// Release verifies ownership (unless force) then deletes this handle's share
// 验证所有权（除非 force）然后删除本句柄所持的份额
func (o *SharedSuo) Release(ctx context.Context, force bool) error {
	return release(ctx, o, force, o.logger)
}

// AcquireAgainExtendLock re-joins the shared set, which both confirms this
// handle is still a recognized owner and refreshes the record's TTL: the
// shared TryWrite is already idempotent on membership, so no separate
// extend operation is needed
//
// AcquireAgainExtendLock 重新加入共享集合，既确认本句柄仍是被识别的所有者，
// 也刷新记录的 TTL：共享锁的 TryWrite 在成员关系上本就是幂等的，
// 因此无需单独的延期操作
func (o *SharedSuo) AcquireAgainExtendLock(ctx context.Context) (bool, error) {
	return o.TryWrite(ctx)
}
