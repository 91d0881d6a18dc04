package config

import "time"

type Config struct {
	Service   *ServiceConfig
	Server    *ServerConfig
	Redis     *RedisConfig
	Postgres  *PostgresConfig
	RateLimit *RateLimitConfig
	WS        *WSConfig
	Worker    *WorkerConfig
	Tracer    *TracerConfig
	Logger    *LoggerConfig
	// AuthSecret signs API tokens. Empty means auth is disabled and all
	// routes are open, which is the out-of-the-box template behavior.
	AuthSecret   string
	AuthTokenTTL time.Duration
}

type ServiceConfig struct {
	Name    string
	Env     string
	Version string
}

// ServerConfig has no write timeout on purpose: the HTTP server hosts
// websocket endpoints, and a write deadline would kill hijacked connections.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Prefix   string
}

type WSConfig struct {
	ReadLimit    int64
	SendTimeout  time.Duration
	WriteTimeout time.Duration
	// Inbound message budget per connection (token bucket).
	MessageRate  float64
	MessageBurst int
}

type WorkerConfig struct {
	NotificationStream string
	ConsumerGroup      string
}

type TracerConfig struct {
	Enabled bool
	Address string
}

type LoggerConfig struct {
	Level  string
	Format string
}
