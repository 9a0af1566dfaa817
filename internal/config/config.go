package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Email    EmailConfig
	Tracking TrackingConfig
	Cache    CacheConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	MigrationsPath string   `mapstructure:"migrations_path"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки токенов администратора
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	ExpirationHrs   int           `mapstructure:"expiration_hrs"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
}

// AdminConfig содержит учетные данные администратора, создаваемого при пустой таблице admins
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig содержит разрешенные origin фронтендов теста и админ-панели
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig содержит настройки уведомлений через Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	NotifyTo     string `mapstructure:"notify_to"`
}

// Enabled проверяет, настроены ли уведомления
func (e EmailConfig) Enabled() bool {
	return e.ResendAPIKey != "" && e.From != "" && e.NotifyTo != ""
}

// TrackingConfig содержит настройки записи IP/сессий
type TrackingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ThrottleSeconds: как часто одна пара (пользователь, IP) обновляется в БД
	ThrottleSeconds int `mapstructure:"throttle_seconds"`
	// TrustGeoHeaders: доверять заголовкам страны/города от CDN (Cloudflare, Vercel, Netlify)
	TrustGeoHeaders bool `mapstructure:"trust_geo_headers"`
}

// CacheConfig содержит настройки кеша
type CacheConfig struct {
	LatestRecordTTLSeconds int `mapstructure:"latest_record_ttl_seconds"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (для golang-migrate и lib/pq)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.migrations_path", "migrations")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("jwt.expiration_hrs", 24)
	vip.SetDefault("jwt.cleanup_interval", time.Hour)
	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	vip.SetDefault("tracking.enabled", true)
	vip.SetDefault("tracking.throttle_seconds", 600)
	vip.SetDefault("tracking.trust_geo_headers", true)
	vip.SetDefault("cache.latest_record_ttl_seconds", 300)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase загружает только настройки PostgreSQL (для утилиты миграций)
func LoadDatabase(configPath string) (*DatabaseConfig, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func read(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_hrs", "JWT_EXPIRATION_HRS")
	vip.BindEnv("jwt.cleanup_interval", "JWT_CLEANUP_INTERVAL")
	vip.BindEnv("jwt.cookie_secure", "JWT_COOKIE_SECURE")

	vip.BindEnv("admin.username", "ADMIN_USERNAME")
	vip.BindEnv("admin.password", "ADMIN_PASSWORD")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")
	vip.BindEnv("email.notify_to", "EMAIL_NOTIFY_TO")

	vip.BindEnv("tracking.enabled", "TRACKING_ENABLED")
	vip.BindEnv("tracking.throttle_seconds", "TRACKING_THROTTLE_SECONDS")
	vip.BindEnv("tracking.trust_geo_headers", "TRACKING_TRUST_GEO_HEADERS")

	vip.BindEnv("cache.latest_record_ttl_seconds", "CACHE_LATEST_RECORD_TTL_SECONDS")

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.trusted_proxies", "SERVER_TRUSTED_PROXIES")
	vip.BindEnv("server.migrations_path", "MIGRATIONS_PATH")

	// Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("[Config] Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("[Config] Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Списки из переменных окружения приходят одной строкой через запятую
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s (mode %s)", cfg.Redis.Addr, cfg.Redis.Mode)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("CORS Origins: %v", cfg.CORS.AllowedOrigins)
		log.Printf("Email notifications: %t", cfg.Email.Enabled())
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры подключения
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" || d.DBName == "" || d.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	return nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("JWT secret is required and must be at least 16 characters (check JWT_SECRET env var)")
	}
	if c.Admin.Username != "" && len(c.Admin.Password) < 8 {
		return fmt.Errorf("admin bootstrap password must be at least 8 characters (check ADMIN_PASSWORD env var)")
	}
	return nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
