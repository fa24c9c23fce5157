package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	PublicURL      string                `yaml:"public_url"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	Image          ImageProviderConfig   `yaml:"image"`
	Chat           ChatProviderConfig    `yaml:"chat"`
	Storage        StorageConfig         `yaml:"storage"`
	Stripe         StripeConfig          `yaml:"stripe"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// ImageProviderConfig describes the external image generation contract.
// Type "http" posts JSON to Endpoint/EditEndpoint and expects image bytes back.
type ImageProviderConfig struct {
	Type           string            `yaml:"type"` // mock | http | openai
	Endpoint       string            `yaml:"endpoint"`
	EditEndpoint   string            `yaml:"edit_endpoint"`
	APIKey         string            `yaml:"api_key"`
	AuthHeader     string            `yaml:"auth_header"`
	Model          string            `yaml:"model"`
	Size           string            `yaml:"size"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	MockDelayMS    int               `yaml:"mock_delay_ms"`
	Headers        map[string]string `yaml:"headers"`
}

func (c ImageProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ChatProviderConfig struct {
	Type           string `yaml:"type"` // anthropic | openai
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c ChatProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type StorageConfig struct {
	Driver    string `yaml:"driver"` // local | s3
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

type StripeConfig struct {
	SecretKey     string   `yaml:"secret_key"`
	WebhookSecret string   `yaml:"webhook_secret"`
	SuccessURL    string   `yaml:"success_url"`
	CancelURL     string   `yaml:"cancel_url"`
	Prices        []string `yaml:"prices"`
}

type RateLimitConfig struct {
	Generate string `yaml:"generate"` // limiter format, e.g. "10-M"
}

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	DSN                string            `yaml:"dsn"`
	DatabaseURL        string            `yaml:"database_url"`
	RedisURL           string            `yaml:"redis_url"`
	Database           rawDatabaseConfig `yaml:"database"`
	Redis              rawRedisConfig    `yaml:"redis"`
	Env                string            `yaml:"env"`
	NodeEnv            string            `yaml:"node_env"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
	StaticDir          string            `yaml:"static_dir"`
	PublicURL          string            `yaml:"public_url"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	JWTSecret          string            `yaml:"jwt_secret"`
	Timezone           string            `yaml:"timezone"`
	TZ                 string            `yaml:"tz"`
	Image              rawImageConfig    `yaml:"image"`
	Chat               rawChatConfig     `yaml:"chat"`
	Storage            rawStorageConfig  `yaml:"storage"`
	Stripe             StripeConfig      `yaml:"stripe"`
	RateLimit          RateLimitConfig   `yaml:"rate_limit"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

type rawImageConfig struct {
	Type           string            `yaml:"type"`
	Provider       string            `yaml:"provider"`
	Endpoint       string            `yaml:"endpoint"`
	EditEndpoint   string            `yaml:"edit_endpoint"`
	APIKey         string            `yaml:"api_key"`
	AuthHeader     string            `yaml:"auth_header"`
	Model          string            `yaml:"model"`
	Size           string            `yaml:"size"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	MockDelayMS    *int              `yaml:"mock_delay_ms"`
	Headers        map[string]string `yaml:"headers"`
}

type rawChatConfig struct {
	Type           string `yaml:"type"`
	Provider       string `yaml:"provider"`
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type rawStorageConfig struct {
	Driver    string `yaml:"driver"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
	PathStyle *bool  `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}
