package config

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	domainerrors "soulbound.backend/internal/domain/errors"
)

// WalletEncryptionKeyBytes is the AES-256 key size the custody cipher requires.
const WalletEncryptionKeyBytes = 32

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Security   SecurityConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// BlockchainConfig holds the single target chain and credential contract
type BlockchainConfig struct {
	RPCURL              string
	ChainID             int64 // 0 skips the network identity check
	MinterPrivateKey    string
	ContractAddress     string
	ConfirmTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	WalletEncryptionKey string // 32-bytes hex string
	WalletNonceTTL      time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	ReconcileInterval  time.Duration
	ReconcileBatchSize int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "soulbound"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Blockchain: BlockchainConfig{
			RPCURL:              getEnv("CHAIN_RPC_URL", ""),
			ChainID:             int64(getEnvAsInt("CHAIN_ID", 0)),
			MinterPrivateKey:    getEnv("MINTER_PRIVATE_KEY", ""),
			ContractAddress:     getEnv("CREDENTIAL_CONTRACT_ADDRESS", ""),
			ConfirmTimeout:      getEnvAsDuration("MINT_CONFIRM_TIMEOUT", 90*time.Second),
			ReceiptPollInterval: getEnvAsDuration("MINT_RECEIPT_POLL_INTERVAL", 2*time.Second),
		},
		Security: SecurityConfig{
			WalletEncryptionKey: getEnv("WALLET_ENCRYPTION_KEY", ""),
			WalletNonceTTL:      getEnvAsDuration("WALLET_NONCE_TTL", 10*time.Minute),
		},
		Jobs: JobsConfig{
			ReconcileInterval:  getEnvAsDuration("RECONCILE_INTERVAL", time.Minute),
			ReconcileBatchSize: getEnvAsInt("RECONCILE_BATCH_SIZE", 50),
		},
	}
}

// Validate checks the settings the process cannot run without.
// Chain settings are not checked here: a gateway that cannot initialize stays not-ready.
func (c *Config) Validate() error {
	key := strings.TrimPrefix(strings.TrimSpace(c.Security.WalletEncryptionKey), "0x")
	if key == "" {
		return domainerrors.Configuration("WALLET_ENCRYPTION_KEY is required")
	}
	raw, err := hex.DecodeString(key)
	if err != nil {
		return domainerrors.Configuration("WALLET_ENCRYPTION_KEY must be hex encoded")
	}
	if len(raw) != WalletEncryptionKeyBytes {
		return domainerrors.Configuration("WALLET_ENCRYPTION_KEY must be exactly 32 bytes (64 hex chars)")
	}
	return nil
}

// Missing lists the chain settings that are not set.
func (c BlockchainConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.RPCURL) == "" {
		missing = append(missing, "CHAIN_RPC_URL")
	}
	if strings.TrimSpace(c.MinterPrivateKey) == "" {
		missing = append(missing, "MINTER_PRIVATE_KEY")
	}
	if strings.TrimSpace(c.ContractAddress) == "" {
		missing = append(missing, "CREDENTIAL_CONTRACT_ADDRESS")
	}
	return missing
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
