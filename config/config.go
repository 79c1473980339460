package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ChainConfig describes one supported chain.
type ChainConfig struct {
	ChainID         uint64 `mapstructure:"chain_id"`
	Name            string `mapstructure:"name"`
	Symbol          string `mapstructure:"symbol"`
	SweeperContract string `mapstructure:"sweeper_contract"`
	ExplorerURL     string `mapstructure:"explorer_url"`
	Testnet         bool   `mapstructure:"testnet"`
}

// PolicyConfig holds the fee policy knobs. These are product policy, not
// derived constants.
type PolicyConfig struct {
	ServiceFeeRate   float64 `mapstructure:"service_fee_rate"`
	MinServiceFeeUsd float64 `mapstructure:"min_service_fee_usd"`
	MaxServiceFeeUsd float64 `mapstructure:"max_service_fee_usd"`
	HighFeeRatio     float64 `mapstructure:"high_fee_ratio"`
}

// PollConfig tunes the sweep status poller.
type PollConfig struct {
	Interval               time.Duration `mapstructure:"interval"`
	BridgingInterval       time.Duration `mapstructure:"bridging_interval"`
	MaxAttempts            int           `mapstructure:"max_attempts"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"`
}

// Config holds the application configuration.
type Config struct {
	APIBaseURL    string
	PriceBaseURL  string
	PrivateKey    string
	WalletName    string
	PriceCacheTTL time.Duration
	Policy        PolicyConfig
	Poll          PollConfig
	Chains        []ChainConfig
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".zerodust")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("api_base_url", "https://api.zerodust.xyz/v1")
	viper.SetDefault("price_base_url", "")
	viper.SetDefault("wallet_name", "local-key")
	viper.SetDefault("price_cache_ttl", "10m")
	viper.SetDefault("policy.service_fee_rate", 0.05)
	viper.SetDefault("policy.min_service_fee_usd", 0.05)
	viper.SetDefault("policy.max_service_fee_usd", 0.50)
	viper.SetDefault("policy.high_fee_ratio", 0.30)
	viper.SetDefault("poll.interval", "2s")
	viper.SetDefault("poll.bridging_interval", "5s")
	viper.SetDefault("poll.max_attempts", 60)
	viper.SetDefault("poll.max_consecutive_failures", 3)

	// Read from environment variables
	viper.SetEnvPrefix("ZERODUST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		APIBaseURL:    viper.GetString("api_base_url"),
		PriceBaseURL:  viper.GetString("price_base_url"),
		PrivateKey:    viper.GetString("private_key"),
		WalletName:    viper.GetString("wallet_name"),
		PriceCacheTTL: viper.GetDuration("price_cache_ttl"),
	}

	if err := viper.UnmarshalKey("policy", &cfg.Policy); err != nil {
		return nil, fmt.Errorf("invalid policy config: %w", err)
	}
	if err := viper.UnmarshalKey("poll", &cfg.Poll); err != nil {
		return nil, fmt.Errorf("invalid poll config: %w", err)
	}
	if err := viper.UnmarshalKey("chains", &cfg.Chains); err != nil {
		return nil, fmt.Errorf("invalid chains config: %w", err)
	}

	// The price endpoint defaults to the main API host
	if cfg.PriceBaseURL == "" {
		cfg.PriceBaseURL = cfg.APIBaseURL
	}

	// Built-in registry, extended or overridden per entry by the config file
	cfg.Chains = mergeChains(defaultChains(), cfg.Chains)

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// ChainByName resolves a chain by its configured name, case-insensitively.
func (c *Config) ChainByName(name string) (ChainConfig, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, ch := range c.Chains {
		if strings.ToLower(ch.Name) == name {
			return ch, true
		}
	}
	return ChainConfig{}, false
}

// ChainByID resolves a chain by its numeric chain id.
func (c *Config) ChainByID(id uint64) (ChainConfig, bool) {
	for _, ch := range c.Chains {
		if ch.ChainID == id {
			return ch, true
		}
	}
	return ChainConfig{}, false
}

func mergeChains(base, overrides []ChainConfig) []ChainConfig {
	byID := make(map[uint64]int, len(base))
	for i, ch := range base {
		byID[ch.ChainID] = i
	}
	for _, ch := range overrides {
		if i, ok := byID[ch.ChainID]; ok {
			base[i] = ch
			continue
		}
		base = append(base, ch)
	}
	return base
}

func defaultChains() []ChainConfig {
	return []ChainConfig{
		{ChainID: 1, Name: "ethereum", Symbol: "ETH", ExplorerURL: "https://etherscan.io"},
		{ChainID: 8453, Name: "base", Symbol: "ETH", ExplorerURL: "https://basescan.org"},
		{ChainID: 10, Name: "optimism", Symbol: "ETH", ExplorerURL: "https://optimistic.etherscan.io"},
		{ChainID: 42161, Name: "arbitrum", Symbol: "ETH", ExplorerURL: "https://arbiscan.io"},
		{ChainID: 137, Name: "polygon", Symbol: "POL", ExplorerURL: "https://polygonscan.com"},
		{ChainID: 56, Name: "bnb", Symbol: "BNB", ExplorerURL: "https://bscscan.com"},
		{ChainID: 100, Name: "gnosis", Symbol: "XDAI", ExplorerURL: "https://gnosisscan.io"},
		{ChainID: 11155111, Name: "sepolia", Symbol: "ETH", ExplorerURL: "https://sepolia.etherscan.io", Testnet: true},
		{ChainID: 84532, Name: "base-sepolia", Symbol: "ETH", ExplorerURL: "https://sepolia.basescan.org", Testnet: true},
		{ChainID: 11155420, Name: "op-sepolia", Symbol: "ETH", ExplorerURL: "https://sepolia-optimism.etherscan.io", Testnet: true},
		{ChainID: 421614, Name: "arbitrum-sepolia", Symbol: "ETH", ExplorerURL: "https://sepolia.arbiscan.io", Testnet: true},
		{ChainID: 80002, Name: "polygon-amoy", Symbol: "POL", ExplorerURL: "https://amoy.polygonscan.com", Testnet: true},
		{ChainID: 97, Name: "bsc-testnet", Symbol: "TBNB", ExplorerURL: "https://testnet.bscscan.com", Testnet: true},
	}
}
