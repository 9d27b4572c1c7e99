// Package config loads the agent's settings from the environment, with an
// optional .env file.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. HLAGENT_NETWORK.
const Prefix = "HLAGENT"

// Config contains all configuration parameters for the agent.
type Config struct {
	Network       string        `envconfig:"NETWORK" default:"testnet"`
	BaseURL       string        `envconfig:"BASE_URL"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"10s"`
	Transport     string        `envconfig:"TRANSPORT" default:"rest"`
	ExpiresAfter  time.Duration `envconfig:"EXPIRES_AFTER"`
	Storage       string        `envconfig:"STORAGE" default:"file"`
	StorageDir    string        `envconfig:"STORAGE_DIR" default:".hlagent"`
	Passphrase    string        `envconfig:"STORAGE_PASSPHRASE"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	AgentName     string        `envconfig:"AGENT_NAME"`
	AgentMaxAge   time.Duration `envconfig:"AGENT_MAX_AGE"`
	WalletKey     string        `envconfig:"WALLET_PRIVATE_KEY"`
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8787"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	CacheDisabled bool          `envconfig:"CACHE_DISABLED"`
}

// Load reads envFiles (missing files are ignored) and then the process
// environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := types.ParseNetwork(c.Network); err != nil {
		return err
	}
	switch c.Transport {
	case "rest", "ws":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Storage {
	case "memory", "file", "postgres", "disabled":
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Storage == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("%s_DATABASE_URL is required for postgres storage", Prefix)
	}
	return nil
}

// NetworkValue returns the parsed network. Validate must have passed.
func (c *Config) NetworkValue() types.Network {
	n, _ := types.ParseNetwork(c.Network)
	return n
}

// APIURL returns BaseURL, or the network default when unset.
func (c *Config) APIURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return c.NetworkValue().APIURL()
}

// WalletPrivateKey parses WALLET_PRIVATE_KEY. The key stands in for a
// browser wallet when running headless.
func (c *Config) WalletPrivateKey() (*ecdsa.PrivateKey, error) {
	if c.WalletKey == "" {
		return nil, fmt.Errorf("%s_WALLET_PRIVATE_KEY not set", Prefix)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.WalletKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return key, nil
}
