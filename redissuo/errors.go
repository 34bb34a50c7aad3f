package redissuo

import "github.com/pkg/errors"

// ErrNotOwner is returned by a non-forced release when the current record
// does not name this handle's secret as an owner
// Exclusive handles: a record owned by another secret, or a shared-shaped record
// Shared handles: no record at all, an exclusive-typed record, a secret set
// that does not contain us, or a malformed record
//
// ErrNotOwner 在非强制释放时，当前记录未把本句柄的密钥列为所有者时返回
// 独占句柄：记录属于其它密钥，或记录是共享形状
// 共享句柄：完全没有记录、记录是独占类型、密钥集合不包含自己、或记录已损坏
var ErrNotOwner = errors.New("cannot release un-acquired lock")

// ErrLostLock is returned when a release finds nothing of this handle's to
// remove: ownership was verified but the record disappeared (expired,
// force-released elsewhere, or concurrently rewritten) before the delete step
// completed, a forced release removed nothing, or, for an exclusive handle,
// the key is absent or its record names no recognizable owner secret
//
// ErrLostLock 在释放找不到属于本句柄的可移除内容时返回：
// 所有权验证通过后记录却在 delete 步骤完成前消失（过期、被其它地方强制释放、或被并发改写），
// 强制释放没有移除任何内容，或对独占句柄而言该键不存在或其记录没有可识别的所有者密钥
var ErrLostLock = errors.New("release unlocked lock")
