package helper

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	database "github.com/yishak-cs/bookstore-apriori/internal/database"
	"github.com/yishak-cs/bookstore-apriori/internal/logging"
	"github.com/yishak-cs/bookstore-apriori/internal/services"
)

// ErrInvalidConfig wraps every configuration validation or parse failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigFileEnv names the optional YAML configuration file.
const ConfigFileEnv = "APRIORI_CONFIG"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

// AprioriConfig holds mining defaults and the analysis gate.
type AprioriConfig struct {
	MinSupport      float64       `yaml:"min_support" validate:"gt=0,lte=1"`
	MinConfidence   float64       `yaml:"min_confidence" validate:"gt=0,lte=1"`
	MaxLen          int           `yaml:"max_len" validate:"min=1,max=10"`
	TopN            int           `yaml:"top_n" validate:"min=1"`
	MinTransactions int           `yaml:"min_transactions" validate:"min=0"`
	Timeout         time.Duration `yaml:"timeout" validate:"min=0"`
}

// ImportConfig controls the optional Neo4j CSV import at startup.
type ImportConfig struct {
	// BaseURL hosts data/books.csv, data/transactions.csv and
	// data/transaction_items.csv. Empty skips the import.
	BaseURL string `yaml:"base_url"`
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig         `yaml:"server"`
	Store   database.StoreConfig `yaml:"store"`
	Apriori AprioriConfig        `yaml:"apriori"`
	Logging logging.Config       `yaml:"logging"`
	Import  ImportConfig         `yaml:"import"`
}

// DefaultConfig returns a config backed by a local SQLite file.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Store: database.StoreConfig{
			Driver: database.DriverSQL,
			SQL: database.SQLConfig{
				Driver:  "sqlite",
				DSN:     "bookstore.db",
				Migrate: true,
			},
			Neo4j: database.Config{
				Username: "neo4j",
				Database: "neo4j",
			},
		},
		Apriori: AprioriConfig{
			MinSupport:      apriori.DefaultMinSupport,
			MinConfidence:   apriori.DefaultMinConfidence,
			MaxLen:          apriori.DefaultMaxLen,
			TopN:            apriori.DefaultTopN,
			MinTransactions: services.DefaultMinTransactions,
			Timeout:         30 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// APRIORI_CONFIG and then environment variables, and validates the result.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile merges the YAML file at path over cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnvOrDefault("APP_PORT", cfg.Server.Port)

	cfg.Store.Driver = getEnvOrDefault("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.SQL.Driver = getEnvOrDefault("DB_DRIVER", cfg.Store.SQL.Driver)
	cfg.Store.SQL.DSN = getEnvOrDefault("DB_DSN", cfg.Store.SQL.DSN)

	cfg.Store.Neo4j.URI = getEnvOrDefault("NEO4J_URI", cfg.Store.Neo4j.URI)
	cfg.Store.Neo4j.Username = getEnvOrDefault("NEO4J_USERNAME", cfg.Store.Neo4j.Username)
	cfg.Store.Neo4j.Password = getEnvOrDefault("NEO4J_PASSWORD", cfg.Store.Neo4j.Password)
	cfg.Store.Neo4j.Database = getEnvOrDefault("NEO4J_DATABASE", cfg.Store.Neo4j.Database)

	cfg.Import.BaseURL = getEnvOrDefault("IMPORT_BASE_URL", cfg.Import.BaseURL)
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnvOrDefault("LOG_FORMAT", cfg.Logging.Format)

	var err error
	if cfg.Store.SQL.Migrate, err = getEnvBool("DB_MIGRATE", cfg.Store.SQL.Migrate); err != nil {
		return err
	}
	if cfg.Apriori.MinSupport, err = getEnvFloat("APRIORI_MIN_SUPPORT", cfg.Apriori.MinSupport); err != nil {
		return err
	}
	if cfg.Apriori.MinConfidence, err = getEnvFloat("APRIORI_MIN_CONFIDENCE", cfg.Apriori.MinConfidence); err != nil {
		return err
	}
	if cfg.Apriori.MaxLen, err = getEnvInt("APRIORI_MAX_LEN", cfg.Apriori.MaxLen); err != nil {
		return err
	}
	if cfg.Apriori.TopN, err = getEnvInt("APRIORI_TOP_N", cfg.Apriori.TopN); err != nil {
		return err
	}
	if cfg.Apriori.MinTransactions, err = getEnvInt("APRIORI_MIN_TRANSACTIONS", cfg.Apriori.MinTransactions); err != nil {
		return err
	}
	if cfg.Apriori.Timeout, err = getEnvDuration("APRIORI_TIMEOUT", cfg.Apriori.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate checks field ranges and store-specific requirements.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Store.Driver {
	case database.DriverSQL:
		if c.Store.SQL.DSN == "" {
			return fmt.Errorf("%w: DB_DSN is required for the sql store", ErrInvalidConfig)
		}
	case database.DriverNeo4j:
		if c.Store.Neo4j.URI == "" {
			return fmt.Errorf("%w: NEO4J_URI is required for the neo4j store", ErrInvalidConfig)
		}
	}
	return nil
}

// Parameters returns the default mining thresholds.
func (c *Config) Parameters() apriori.Parameters {
	return apriori.Parameters{
		MinSupport:    c.Apriori.MinSupport,
		MinConfidence: c.Apriori.MinConfidence,
		MaxLen:        c.Apriori.MaxLen,
		TopN:          c.Apriori.TopN,
	}
}

// ServiceConfig returns the bundle service settings.
func (c *Config) ServiceConfig() services.Config {
	return services.Config{
		MinTransactions: c.Apriori.MinTransactions,
		Timeout:         c.Apriori.Timeout,
		Defaults:        c.Parameters(),
	}
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, value)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, value)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, value)
	}
	return d, nil
}
