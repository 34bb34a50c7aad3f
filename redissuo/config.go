package redissuo

import (
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config carries the constructor settings of both lock flavors
// Either reuse an existing client connection pool via Client, or leave it
// empty and provide dial settings so the constructor creates its own
//
// Config 承载两种锁构造时的设置
// 既可以通过 Client 复用已有的客户端连接池，
// 也可以将其留空并提供拨号设置，由构造函数自行创建
type Config struct {
	Name     string                // Lock name, required // 锁名，必填
	Prefix   string                // Namespace prefix, empty means none // 命名空间前缀，空表示无
	TTL      time.Duration         // Expiration, <=0 means no expiry // 过期时长，<=0 表示不过期
	Client   redis.UniversalClient // Existing connection pool to reuse // 复用的已有连接池
	Host     string                // Dial host, default "localhost" // 拨号主机，默认 "localhost"
	Port     int                   // Dial port, default 6379 // 拨号端口，默认 6379
	Password string                // Dial password, empty means none // 拨号密码，空表示无
	DB       int                   // Redis database number // Redis 数据库编号
}

// newClient reuses the configured connection pool when present, otherwise
// dials a new client from the host/port/password/db settings
//
// newClient 在已配置连接池时直接复用，否则根据 host/port/password/db 设置拨号新建客户端
func (cfg *Config) newClient() redis.UniversalClient {
	if cfg.Client != nil {
		return cfg.Client
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewExclusiveSuoFromConfig creates an exclusive lock handle from a Config
// NewExclusiveSuoFromConfig 根据 Config 创建独占锁句柄
func NewExclusiveSuoFromConfig(cfg *Config) *ExclusiveSuo {
	return NewExclusiveSuo(cfg.newClient(), cfg.Name, cfg.Prefix, cfg.TTL)
}

// NewSharedSuoFromConfig creates a shared lock handle from a Config
// NewSharedSuoFromConfig 根据 Config 创建共享锁句柄
func NewSharedSuoFromConfig(cfg *Config) *SharedSuo {
	return NewSharedSuo(cfg.newClient(), cfg.Name, cfg.Prefix, cfg.TTL)
}
