package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，如 CHESSMEM_SERVER_PORT
const EnvPrefix = "CHESSMEM_"

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 10000
	defaultRedisAddr      = "localhost:6379"

	defaultGracePeriod           = 120 // 秒
	defaultRoomTimeout           = 10  // 分钟
	defaultClockTickMs           = 1000
	defaultSnapshotTTL           = 120 // 分钟
	defaultShutdownTimeout       = 30  // 分钟
	defaultShutdownCheckInterval = 10  // 秒

	defaultRateMaxPerSecond    = 10
	defaultRateMaxPerMinute    = 60
	defaultBanDuration         = 60 // 秒
	defaultMessageMaxPerSecond = 20
	defaultChatMaxPerSecond    = 1
	defaultChatMaxPerMinute    = 20
	defaultChatCooldown        = 5 // 秒

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Game     GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host" env:"HOST"`
	Port           int    `yaml:"port" env:"PORT"`
	MaxConnections int    `yaml:"max_connections" env:"MAX_CONNECTIONS"`
}

// RedisConfig Redis 配置，Disabled 时房间快照与排行榜均不落库
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Disabled bool   `yaml:"disabled" env:"DISABLED"`
}

// GameConfig 游戏配置
type GameConfig struct {
	GracePeriod           int `yaml:"grace_period" env:"GRACE_PERIOD"`                       // 全员掉线后保留房间（秒）
	RoomTimeout           int `yaml:"room_timeout" env:"ROOM_TIMEOUT"`                       // 房间等待超时（分钟）
	ClockTickMs           int `yaml:"clock_tick_ms" env:"CLOCK_TICK_MS"`                     // 计时器步长（毫秒）
	SnapshotTTL           int `yaml:"snapshot_ttl" env:"SNAPSHOT_TTL"`                       // Redis 房间快照过期（分钟）
	ShutdownTimeout       int `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`               // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval" env:"SHUTDOWN_CHECK_INTERVAL"` // 优雅关闭检查间隔（秒）
}

// GracePeriodDuration 返回断线保留时长
func (c *GameConfig) GracePeriodDuration() time.Duration {
	return time.Duration(c.GracePeriod) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// ClockTickDuration 返回计时器步长
func (c *GameConfig) ClockTickDuration() time.Duration {
	return time.Duration(c.ClockTickMs) * time.Millisecond
}

// SnapshotTTLDuration 返回房间快照过期时长
func (c *GameConfig) SnapshotTTLDuration() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Minute
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回优雅关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit" envPrefix:"MESSAGE_LIMIT_"`
	ChatLimit      ChatLimitConfig    `yaml:"chat_limit" envPrefix:"CHAT_LIMIT_"`
	IPWhitelist    []string           `yaml:"ip_whitelist" env:"IP_WHITELIST"` // 非空时只放行名单内的 IP
	IPBlacklist    []string           `yaml:"ip_blacklist" env:"IP_BLACKLIST"`
	OperatorToken  string             `yaml:"operator_token" env:"OPERATOR_TOKEN"` // rooms 运维接口口令，空则关闭该接口
}

// RateLimitConfig 连接频率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"MAX_PER_MINUTE"`
	BanDuration  int `yaml:"ban_duration" env:"BAN_DURATION"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单连接消息频率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
}

// ChatLimitConfig 聊天频率限制
type ChatLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"MAX_PER_MINUTE"`
	Cooldown     int `yaml:"cooldown" env:"COOLDOWN"` // 秒
}

// CooldownDuration 返回聊天冷却时长
func (c *ChatLimitConfig) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug / info / warn / error
	Format string `yaml:"format" env:"FORMAT"` // json / console
	File   string `yaml:"file" env:"FILE"`     // 额外写入的日志文件，空则只输出到 stderr
}

// Load 加载配置文件，随后应用默认值与环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回默认配置（同样应用环境变量覆盖）
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	_ = cfg.applyEnv()
	return &cfg
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, defaultHost)
	setDefault(&c.Server.Port, defaultPort)
	setDefault(&c.Server.MaxConnections, defaultMaxConnections)
	setDefault(&c.Redis.Addr, defaultRedisAddr)

	setDefault(&c.Game.GracePeriod, defaultGracePeriod)
	setDefault(&c.Game.RoomTimeout, defaultRoomTimeout)
	setDefault(&c.Game.ClockTickMs, defaultClockTickMs)
	setDefault(&c.Game.SnapshotTTL, defaultSnapshotTTL)
	setDefault(&c.Game.ShutdownTimeout, defaultShutdownTimeout)
	setDefault(&c.Game.ShutdownCheckInterval, defaultShutdownCheckInterval)

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	setDefault(&c.Security.RateLimit.MaxPerSecond, defaultRateMaxPerSecond)
	setDefault(&c.Security.RateLimit.MaxPerMinute, defaultRateMaxPerMinute)
	setDefault(&c.Security.RateLimit.BanDuration, defaultBanDuration)
	setDefault(&c.Security.MessageLimit.MaxPerSecond, defaultMessageMaxPerSecond)
	setDefault(&c.Security.ChatLimit.MaxPerSecond, defaultChatMaxPerSecond)
	setDefault(&c.Security.ChatLimit.MaxPerMinute, defaultChatMaxPerMinute)
	setDefault(&c.Security.ChatLimit.Cooldown, defaultChatCooldown)

	setDefault(&c.Log.Level, defaultLogLevel)
	setDefault(&c.Log.Format, defaultLogFormat)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
