// Package utils: Shared utilities to generate secrets and perform common operations
// Provides hex-encoded UUID generation to support secure ownership identification
// Supports distributed lock secret management with secure identifiers
// Lightweight utilities to handle project infrastructure needs
//
// utils: 在生成密钥和执行通用操作时的内部工具函数
// 在安全所有权标识期间提供十六进制编码 UUID 生成
// 支持具有加密安全标识符的分布式锁密钥管理
// 在处理内部项目基础设施需要时的轻量级工具包
package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewSecret generates a secure per-handle owner token encoded as hex string
// Creates random UUID v4 and converts to hex string to support consistent ownership identification
// Returns 32-byte hex string suitable when managing distributed lock ownership
// Guarantees uniqueness across distributed systems to support lock ownership verification
//
// NewSecret 生成编码为十六进制字符串的加密安全单句柄所有者令牌
// 在一致所有权标识期间创建随机 UUID v4 并转换为十六进制字符串
// 在管理分布式锁所有权时返回适用的 32 字符十六进制字符串
// 在锁所有权验证期间保证在分布式系统中的唯一性
func NewSecret() string {
	// Generate new random UUID v4
	// 生成新的随机 UUID v4
	newUUID := uuid.New()
	// Convert UUID bytes to hex string to support consistent representation
	// 在一致表示期间将 UUID 字节转换为十六进制字符串
	return hex.EncodeToString(newUUID[:])
}
