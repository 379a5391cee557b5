package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 运行环境
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config 定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	RateLimit    RateLimitConfig    `mapstructure:"rateLimit"`
	Game         GameConfig         `mapstructure:"game"`
	Gamification GamificationConfig `mapstructure:"gamification"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Address     string     `mapstructure:"address"`
	Environment string     `mapstructure:"environment"`
	Cors        CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了PostgreSQL连接池的配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	BootstrapScript string        `mapstructure:"bootstrapScript"`
}

// DSN 返回 lib/pq 风格的连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig 定义了Redis的配置。Redis只用于分布式限流。
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 定义了令牌签发和密码哈希的配置
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwtSecret"`
	TokenTTL   time.Duration `mapstructure:"tokenTTL"`
	BcryptCost int           `mapstructure:"bcryptCost"`
}

// RateLimitConfig 定义了每个客户端在一个窗口内允许的请求数
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Window  time.Duration `mapstructure:"window"`
	Max     int           `mapstructure:"max"`
}

// GameConfig 定义了小游戏数据接口的默认数量
type GameConfig struct {
	MemoryDefaultPairs int `mapstructure:"memoryDefaultPairs"`
	ConnectionsDefault int `mapstructure:"connectionsDefault"`
	MaxLimit           int `mapstructure:"maxLimit"`
}

// GamificationConfig 定义了成就规则的参数
type GamificationConfig struct {
	FrequentVisitorThreshold int `mapstructure:"frequentVisitorThreshold"`
}

// LogConfig 定义了日志级别
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// IsProduction 决定内部错误信息是否对客户端隐藏
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Load 负责查找、加载和解析配置。
// 顺序: 默认值 -> config.yaml -> .env / 环境变量。
func Load() (*Config, error) {
	// .env 不存在时不是错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法读取 .env 文件: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("无法解析配置文件: %w", err)
		}
	}

	applyLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法反序列化配置: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3001")
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:5000"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "mangues")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", time.Hour)
	v.SetDefault("database.bootstrapScript", "database.sql")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 7*24*time.Hour)
	v.SetDefault("auth.bcryptCost", 10)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.window", 15*time.Minute)
	v.SetDefault("rateLimit.max", 100)

	v.SetDefault("game.memoryDefaultPairs", 8)
	v.SetDefault("game.connectionsDefault", 6)
	v.SetDefault("game.maxLimit", 50)

	v.SetDefault("gamification.frequentVisitorThreshold", 5)

	v.SetDefault("log.level", "info")
}

// applyLegacyEnv 兼容旧部署使用的环境变量名
func applyLegacyEnv(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.address", ":"+port)
	}
	for _, key := range []string{"APP_ENV", "NODE_ENV"} {
		if env := os.Getenv(key); env != "" {
			v.Set("server.environment", env)
			break
		}
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		v.Set("database.host", host)
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("database.port", p)
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		v.Set("database.user", user)
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		v.Set("database.password", password)
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		v.Set("database.name", name)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		v.Set("auth.jwtSecret", secret)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		v.Set("redis.address", addr)
		v.Set("redis.enabled", true)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		v.Set("log.level", level)
	}
}

func (c *Config) validate() error {
	if c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rateLimit.max 和 rateLimit.window 必须为正数")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTTL 必须为正数")
	}
	if c.Game.MaxLimit <= 0 {
		return errors.New("game.maxLimit 必须为正数")
	}
	return nil
}
