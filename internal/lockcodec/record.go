package lockcodec

import (
	"encoding/json"
	"time"
)

// wireRecord is the raw JSON shape read from and written to Redis
// The secret field is polymorphic: a string for exclusive records, a string
// array for shared records
//
// wireRecord 是读写 Redis 时使用的原始 JSON 结构
// secret 字段是多态的：独占记录是字符串，共享记录是字符串数组
type wireRecord struct {
	Timestamp int64       `json:"timestamp"`
	Secret    interface{} `json:"secret,omitempty"`
	Exclusive *bool       `json:"exclusive,omitempty"`
}

// Record is the decoded, typed view of a Lock Record value
//
// Record 是 Lock Record 值解码后的带类型视图
type Record struct {
	Timestamp int64
	// Exclusive reports the record's flavor; absent on the wire reads as true
	// Exclusive 记录记录的种类；线上缺失该字段时按 true 处理
	Exclusive bool
	// Secret holds the owner token of an exclusive record
	// Secret 持有独占记录的所有者令牌
	Secret string
	// Secrets holds the owner-token set of a shared record
	// Secrets 持有共享记录的所有者令牌集合
	Secrets []string
	// Malformed is true when the secret shape didn't match an owner at all
	// (missing, null, or a type neither a string nor a string array)
	//
	// Malformed 表示 secret 字段的形状完全无法识别所有者
	// （缺失、为 null，或既非字符串也非字符串数组的类型）
	Malformed bool
}

// EncodeExclusive builds the wire JSON of a single-owner record
//
// EncodeExclusive 构造单一所有者记录的线上 JSON
func EncodeExclusive(secret string, timestamp int64) ([]byte, error) {
	exclusive := true
	return json.Marshal(wireRecord{
		Timestamp: timestamp,
		Secret:    secret,
		Exclusive: &exclusive,
	})
}

// EncodeShared builds the wire JSON of a multi-owner record
//
// EncodeShared 构造多所有者记录的线上 JSON
func EncodeShared(secrets []string, timestamp int64) ([]byte, error) {
	exclusive := false
	return json.Marshal(wireRecord{
		Timestamp: timestamp,
		Secret:    secrets,
		Exclusive: &exclusive,
	})
}

// Decode parses a stored Lock Record
// A JSON syntax error is returned to the caller, who treats it as "unlocked"
// and never attempts to auto-repair the stored value
//
// Decode 解析已存储的 Lock Record
// JSON 语法错误会直接返回给调用方，调用方将其视为"未加锁"状态，从不尝试自动修复存储值
func Decode(data []byte) (*Record, error) {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	rec := &Record{Timestamp: wire.Timestamp, Exclusive: true}
	if wire.Exclusive != nil {
		rec.Exclusive = *wire.Exclusive
	}

	switch secret := wire.Secret.(type) {
	case string:
		rec.Secret = secret
	case []interface{}:
		secrets := make([]string, 0, len(secret))
		for _, item := range secret {
			s, ok := item.(string)
			if !ok {
				rec.Malformed = true
				continue
			}
			secrets = append(secrets, s)
		}
		rec.Secrets = secrets
	default:
		rec.Malformed = true
	}
	return rec, nil
}

// IsValidShared reports whether the record is a well-formed shared record
//
// IsValidShared 判断该记录是否为格式良好的共享记录
func (r *Record) IsValidShared() bool {
	return !r.Exclusive && !r.Malformed && r.Secrets != nil
}

// Now returns the current time truncated down to seconds, matching the
// whole-second "timestamp" field the wire format has always stored
//
// Now 返回截断到秒的当前时间，与线上格式一直使用的整秒 "timestamp" 字段保持一致
func Now() int64 {
	return time.Now().Unix()
}
