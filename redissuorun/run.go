// Package redissuorun: High-grade distributed lock package with automatic attempt again and lifecycle management
// Provides convenient lock acquisition with built-in attempt again logic, timeout handling, and guaranteed cleanup
// Features automatic lock release, panic restore, and context-aware execution management
// Generalized over the redissuo.Handle capability, serving both exclusive and shared locks alike
// Designed during robust production environments requiring reliable distributed coordination
//
// redissuorun: 带有自动重试和生命周期管理的高级分布式锁包装器
// 提供便捷的锁获取，内置重试逻辑、超时处理和保证的清理机制
// 具有自动锁释放、panic 恢复和上下文感知的执行控制
// 基于 redissuo.Handle 能力泛化，同时服务独占锁与共享锁
// 专为需要可靠分布式协调的健壮生产环境设计
package redissuorun

import (
	"context"
	"errors"
	"time"

	"github.com/go-xlan/redis-go-suo/internal/logging"
	"github.com/go-xlan/redis-go-suo/redissuo"
	"github.com/yyle88/erero"
	"github.com/yyle88/zaplog"
	"go.uber.org/zap"
)

// LockRun acquires the handle with unlimited attempt again, runs fn, and
// guarantees release regardless of fn's outcome
// Handles lock acquisition retries, guaranteed lock release, and panic restore
// Returns issue just if context cancellation and business logic fails
//
// LockRun 以无限重试获取句柄，执行 fn，并无论 fn 结果如何都保证释放
// 处理锁获取重试、保证锁释放和 panic 恢复
// 仅在上下文取消或业务逻辑失败时返回错误
func LockRun(ctx context.Context, handle redissuo.Handle, run func(ctx context.Context) error, sleep time.Duration) error {
	return LockXqt(ctx, handle, run, sleep, logging.NewZapLogger(zaplog.LOGS.Skip(1)))
}

// LockXqt (execute) runs fn within the lock with a custom logger
// Supports custom logging implementation to track operations and debug issues
//
// LockXqt 使用自定义日志记录器在锁内执行 fn
// 支持自定义日志实现用于操作跟踪和调试
func LockXqt(ctx context.Context, handle redissuo.Handle, run func(ctx context.Context) error, sleep time.Duration, logger logging.Logger) error {
	expireAt, err := retryingAcquire(ctx, handle, sleep, logger)
	if err != nil {
		return erero.Wro(err) // context issue prevented acquisition // 上下文问题阻止了获取
	}

	defer retryingRelease(handle, sleep, logger)

	if err := execRun(ctx, run, time.Until(expireAt)); err != nil {
		return erero.Wro(err)
	}
	return nil
}

// retryingAcquire retries TryWrite before success or context cancellation,
// swallowing transient errors (logged, then retried after backoff) rather
// than surfacing every transport hiccup to the caller
// Returns a conservative expiration estimate that accounts during the
// acquisition attempt's own duration
//
// retryingAcquire 在成功或上下文取消之前持续重试 TryWrite，
// 吞掉瞬时错误（记录日志后退避重试），而不是把每次传输故障都抛给调用方
// 返回一个计入获取尝试自身耗时的保守过期时间估算
func retryingAcquire(ctx context.Context, handle redissuo.Handle, sleep time.Duration, logger logging.Logger) (time.Time, error) {
	for {
		if err := ctx.Err(); err != nil {
			return time.Time{}, erero.Wro(err)
		}

		start := time.Now()
		ok, err := handle.TryWrite(ctx)
		if err != nil {
			logger.DebugLog("wrong", zap.Error(err))
			time.Sleep(sleep)
			continue
		}
		if ok {
			elapsed := time.Since(start)
			ttl := handle.TTL()
			if ttl <= 0 {
				return time.Now().Add(365 * 24 * time.Hour), nil
			}
			return time.Now().Add(ttl - elapsed), nil
		}
		time.Sleep(sleep)
	}
}

// retryingRelease retries Release before success, never giving up on lock
// cleanup to prevent resource leakage; a terminal outcome (success, or the
// lock already confirmed gone/foreign) stops the loop, transient errors keep
// it retrying with backoff
//
// retryingRelease 在成功之前持续重试 Release，永不放弃锁清理以防止资源泄漏；
// 终止状态（成功，或确认锁已消失/属于他人）会停止循环，
// 瞬时错误则继续带退避重试
func retryingRelease(handle redissuo.Handle, sleep time.Duration, logger logging.Logger) {
	for {
		err := releaseOnce(handle, max(sleep, 10*time.Second))
		if err == nil || errors.Is(err, redissuo.ErrLostLock) || errors.Is(err, redissuo.ErrNotOwner) {
			return
		}
		logger.DebugLog("wrong", zap.Error(err))
		time.Sleep(sleep)
	}
}

// releaseOnce performs a single release attempt under a fresh timeout, so a
// stalled attempt never poisons the next one
//
// releaseOnce 在新的超时下执行单次释放尝试，避免一次卡住的尝试拖累下一次
func releaseOnce(handle redissuo.Handle, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return handle.Release(ctx, false)
}

// execRun runs the business logic within a timeout derived from the
// remaining lock TTL, with panic restore
// 在由剩余锁 TTL 派生的超时内执行业务逻辑，带 panic 恢复
func execRun(ctx context.Context, run func(ctx context.Context) error, duration time.Duration) (err error) {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	return safeRun(ctx, run)
}

// safeRun executes fn with panic restore, converting panics to errors so a
// panicking business function never leaks the lock
//
// safeRun 执行 fn，带 panic 恢复，把 panic 转换为错误，
// 从而避免业务函数 panic 时泄漏锁
func safeRun(ctx context.Context, run func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			switch erx := rec.(type) {
			case error:
				err = erx
			default:
				err = erero.Errorf("recovered from panic: %v", rec)
			}
		}
	}()
	return run(ctx)
}
