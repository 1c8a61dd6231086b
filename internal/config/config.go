package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Migration MigrationConfig `mapstructure:"migration" yaml:"migration"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the HTTP boundary settings
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// DatabaseConfig holds the MySQL connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// ArtifactsConfig selects and configures the backup artifact store
type ArtifactsConfig struct {
	Provider    string            `mapstructure:"provider" yaml:"provider"` // local, s3, gcs, azure
	Local       LocalArtifacts    `mapstructure:"local" yaml:"local"`
	S3          S3Artifacts       `mapstructure:"s3" yaml:"s3"`
	GCS         GCSArtifacts      `mapstructure:"gcs" yaml:"gcs"`
	Azure       AzureArtifacts    `mapstructure:"azure" yaml:"azure"`
	Compression CompressionConfig `mapstructure:"compression" yaml:"compression"`
	Encryption  EncryptionConfig  `mapstructure:"encryption" yaml:"encryption"`
}

// LocalArtifacts configures filesystem artifact storage
type LocalArtifacts struct {
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// S3Artifacts configures S3 artifact storage
type S3Artifacts struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
}

// GCSArtifacts configures Google Cloud Storage artifact storage
type GCSArtifacts struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
}

// AzureArtifacts configures Azure Blob artifact storage
type AzureArtifacts struct {
	AccountName string `mapstructure:"account_name" yaml:"account_name"`
	AccountKey  string `mapstructure:"account_key" yaml:"account_key"`
	Container   string `mapstructure:"container" yaml:"container"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
}

// CompressionConfig configures artifact compression
type CompressionConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"` // none, gzip, zstd, lz4
	Level     int    `mapstructure:"level" yaml:"level"`
}

// EncryptionConfig configures artifact encryption
type EncryptionConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// MigrationConfig configures the historical CSV migration source
type MigrationConfig struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	ChunkSize int    `mapstructure:"chunk_size" yaml:"chunk_size"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Format  string `mapstructure:"format" yaml:"format"`
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// SetDefaults registers default values on a viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("artifacts.provider", "local")
	v.SetDefault("artifacts.local.base_path", "backups")
	v.SetDefault("artifacts.compression.algorithm", "none")
	v.SetDefault("artifacts.compression.level", 0)
	v.SetDefault("migration.prefix", "raw_data")
	v.SetDefault("migration.chunk_size", 500)
	v.SetDefault("logging.level", "normal")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration from the given file (optional) and WFI_* environment
// variables, applies defaults, and validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("WFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}

	switch c.Artifacts.Provider {
	case "local":
		if c.Artifacts.Local.BasePath == "" {
			return fmt.Errorf("artifacts.local.base_path is required for the local provider")
		}
	case "s3":
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("artifacts.s3.bucket is required for the s3 provider")
		}
		if c.Artifacts.S3.Region == "" {
			return fmt.Errorf("artifacts.s3.region is required for the s3 provider")
		}
	case "gcs":
		if c.Artifacts.GCS.Bucket == "" {
			return fmt.Errorf("artifacts.gcs.bucket is required for the gcs provider")
		}
	case "azure":
		if c.Artifacts.Azure.AccountName == "" || c.Artifacts.Azure.Container == "" {
			return fmt.Errorf("artifacts.azure.account_name and container are required for the azure provider")
		}
	default:
		return fmt.Errorf("unsupported artifacts provider: %s", c.Artifacts.Provider)
	}

	switch c.Artifacts.Compression.Algorithm {
	case "", "none", "gzip", "zstd", "lz4":
	default:
		return fmt.Errorf("unsupported compression algorithm: %s", c.Artifacts.Compression.Algorithm)
	}

	if c.Artifacts.Encryption.Enabled && c.Artifacts.Encryption.Passphrase == "" {
		return fmt.Errorf("artifacts.encryption.passphrase is required when encryption is enabled")
	}

	if c.Migration.ChunkSize <= 0 {
		return fmt.Errorf("migration.chunk_size must be positive")
	}

	return nil
}
