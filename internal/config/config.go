// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	NFT         NFTConfig
	IPFS        IPFSConfig
	Generation  GenerationConfig
	Contracts   ContractsConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey           string
	RelayerTokenTTL     int // in hours
	RequireRelayerToken bool
}

type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	GenerateBurst     int // per minute
}

type CORSConfig struct {
	AllowedOrigins []string
}

type NFTConfig struct {
	AlchemyAPIKey    string
	AlchemyBaseURL   string // overrides https://{network}.g.alchemy.com when set
	HyperSyncURL     string
	HyperSyncAPIKey  string
	MockFallback     bool
	FetchTimeout     int // in seconds
	MaxChainsPerCall int
}

type IPFSConfig struct {
	Backend           string // pinata, filebase or none
	PinataJWT         string
	PinataAPIURL      string
	FilebaseAccessKey string
	FilebaseSecretKey string
	FilebaseBucket    string
	FilebaseEndpoint  string
	GatewayURL        string
	MockFallback      bool
	DownloadTimeout   int // in seconds
	MaxImageSizeMB    int
}

type GenerationConfig struct {
	MinDelayMS int
	MaxDelayMS int
}

type ContractsConfig struct {
	ArbitrumDerivativeNFT string
	ArbitrumMarketplace   string
	MonadDerivativeNFT    string
	MonadMarketplace      string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "vials"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "vials.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:           getEnv("JWT_SECRET", defaultJWTSecret),
			RelayerTokenTTL:     getEnvAsInt("JWT_RELAYER_TTL", 720), // 30 days
			RequireRelayerToken: getEnvAsBool("REQUIRE_RELAYER_TOKEN", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			GenerateBurst:     getEnvAsInt("RATE_LIMIT_GENERATE_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		NFT: NFTConfig{
			AlchemyAPIKey:    getEnv("ALCHEMY_API_KEY", ""),
			AlchemyBaseURL:   getEnv("ALCHEMY_BASE_URL", ""),
			HyperSyncURL:     getEnv("HYPERSYNC_URL", "https://monad-testnet.hypersync.xyz/query"),
			HyperSyncAPIKey:  getEnv("HYPERSYNC_API_KEY", ""),
			MockFallback:     getEnvAsBool("NFT_MOCK_FALLBACK", false),
			FetchTimeout:     getEnvAsInt("NFT_FETCH_TIMEOUT", 15),
			MaxChainsPerCall: getEnvAsInt("NFT_MAX_CHAINS_PER_CALL", 2),
		},
		IPFS: IPFSConfig{
			Backend:           getEnv("IPFS_BACKEND", "pinata"),
			PinataJWT:         getEnv("PINATA_JWT", ""),
			PinataAPIURL:      getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
			FilebaseAccessKey: getEnv("FILEBASE_ACCESS_KEY", ""),
			FilebaseSecretKey: getEnv("FILEBASE_SECRET_KEY", ""),
			FilebaseBucket:    getEnv("FILEBASE_BUCKET", "vials-derivatives"),
			FilebaseEndpoint:  getEnv("FILEBASE_ENDPOINT", "https://s3.filebase.com"),
			GatewayURL:        getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud"),
			MockFallback:      getEnvAsBool("IPFS_MOCK_FALLBACK", false),
			DownloadTimeout:   getEnvAsInt("IPFS_DOWNLOAD_TIMEOUT", 30),
			MaxImageSizeMB:    getEnvAsInt("IPFS_MAX_IMAGE_SIZE_MB", 20),
		},
		Generation: GenerationConfig{
			MinDelayMS: getEnvAsInt("GENERATION_MIN_DELAY_MS", 2000),
			MaxDelayMS: getEnvAsInt("GENERATION_MAX_DELAY_MS", 5000),
		},
		Contracts: ContractsConfig{
			ArbitrumDerivativeNFT: getEnv("ARBITRUM_DERIVATIVE_NFT_ADDRESS", ""),
			ArbitrumMarketplace:   getEnv("ARBITRUM_MARKETPLACE_ADDRESS", ""),
			MonadDerivativeNFT:    getEnv("MONAD_DERIVATIVE_NFT_ADDRESS", ""),
			MonadMarketplace:      getEnv("MONAD_MARKETPLACE_ADDRESS", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.RequireRelayerToken && c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Generation.MinDelayMS < 0 || c.Generation.MaxDelayMS < c.Generation.MinDelayMS {
		return fmt.Errorf("invalid generation delay range %d-%d ms", c.Generation.MinDelayMS, c.Generation.MaxDelayMS)
	}

	switch c.IPFS.Backend {
	case "pinata", "filebase", "none":
	default:
		return fmt.Errorf("unsupported IPFS backend %q", c.IPFS.Backend)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
