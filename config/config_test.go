package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.zerodust.xyz/v1", cfg.APIBaseURL)
	require.Equal(t, cfg.APIBaseURL, cfg.PriceBaseURL)
	require.Equal(t, 10*time.Minute, cfg.PriceCacheTTL)

	require.Equal(t, 0.05, cfg.Policy.ServiceFeeRate)
	require.Equal(t, 0.05, cfg.Policy.MinServiceFeeUsd)
	require.Equal(t, 0.50, cfg.Policy.MaxServiceFeeUsd)
	require.Equal(t, 0.30, cfg.Policy.HighFeeRatio)

	require.Equal(t, 2*time.Second, cfg.Poll.Interval)
	require.Equal(t, 5*time.Second, cfg.Poll.BridgingInterval)
	require.Equal(t, 60, cfg.Poll.MaxAttempts)
	require.Equal(t, 3, cfg.Poll.MaxConsecutiveFailures)
}

func TestChainRegistry(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	base, ok := cfg.ChainByName("base")
	require.True(t, ok)
	require.Equal(t, uint64(8453), base.ChainID)
	require.False(t, base.Testnet)

	sepolia, ok := cfg.ChainByName("  Base-Sepolia ")
	require.True(t, ok)
	require.Equal(t, uint64(84532), sepolia.ChainID)
	require.True(t, sepolia.Testnet)

	bsc, ok := cfg.ChainByID(97)
	require.True(t, ok)
	require.Equal(t, "TBNB", bsc.Symbol)

	_, ok = cfg.ChainByName("nonexistent")
	require.False(t, ok)
	_, ok = cfg.ChainByID(999999)
	require.False(t, ok)
}

func TestMergeChains(t *testing.T) {
	base := defaultChains()
	merged := mergeChains(base, []ChainConfig{
		{ChainID: 8453, Name: "base", Symbol: "ETH", SweeperContract: "0x1234"},
		{ChainID: 31337, Name: "anvil", Symbol: "ETH", Testnet: true},
	})

	require.Len(t, merged, len(defaultChains())+1)

	var baseEntry, anvilEntry *ChainConfig
	for i := range merged {
		switch merged[i].ChainID {
		case 8453:
			baseEntry = &merged[i]
		case 31337:
			anvilEntry = &merged[i]
		}
	}
	require.NotNil(t, baseEntry)
	require.Equal(t, "0x1234", baseEntry.SweeperContract)
	require.NotNil(t, anvilEntry)
	require.Equal(t, "anvil", anvilEntry.Name)
}
