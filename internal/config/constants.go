package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3210
	// defaultDSN      = "root:password@tcp(127.0.0.1:3306)/logoforge?charset=utf8mb4&parseTime=True&loc=Local"
	// defaultRedisURL = "redis://localhost:6379/0"
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "logoforge"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultImageProvider    = ImageProviderMock
	defaultImageTimeout     = 120
	defaultImageMockDelayMS = 3000
	defaultImageSize        = "1024x1024"
	defaultChatProvider     = ChatProviderAnthropic
	defaultChatModel        = "claude-3-5-haiku-latest"
	defaultChatMaxTokens    = 512
	defaultChatTimeout      = 60
	defaultStorageDriver    = StorageDriverLocal
	defaultStoragePrefix    = "logos"
	defaultS3Region         = "us-east-1"
	defaultGenerateRate     = "10-M"
)

const (
	ImageProviderMock   = "mock"
	ImageProviderHTTP   = "http"
	ImageProviderOpenAI = "openai"

	ChatProviderAnthropic = "anthropic"
	ChatProviderOpenAI    = "openai"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)
