package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerodust/config"
	"zerodust/pkg/client"
	"zerodust/pkg/fees"
	"zerodust/pkg/prices"
	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

var (
	quoteChain       string
	quoteToChain     string
	quoteDestination string
	previewBalance   string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Get a sweep quote or a local fee preview",
	Long: `Fetch a backend quote for sweeping the configured account, or compute a
local preview estimate from a balance before any quote exists.

Examples:
  zerodust quote --chain sepolia --destination 0x1234...abcd
  zerodust quote --chain base --destination 0x1234...abcd --to-chain optimism
  zerodust quote --chain base --preview-balance 1000000000000000`,
	Run: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteChain, "chain", "", "Chain to sweep (REQUIRED)")
	quoteCmd.Flags().StringVar(&quoteToChain, "to-chain", "", "Destination chain (defaults to the source chain)")
	quoteCmd.Flags().StringVar(&quoteDestination, "destination", "", "Destination address")
	quoteCmd.Flags().StringVar(&previewBalance, "preview-balance", "", "Balance in wei for a local preview (no backend quote)")
}

func runQuote(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	srcChain, ok := cfg.ChainByName(quoteChain)
	if !ok {
		printError(fmt.Errorf("unsupported chain: %q (see 'zerodust chains')", quoteChain))
		os.Exit(1)
	}

	log := newLogger(verbose)
	apiClient := client.NewBackend(cfg.APIBaseURL, cfg.PriceBaseURL, log)
	priceCache := prices.NewCache(apiClient, cfg.PriceCacheTTL, log)
	calc := fees.NewCalculator(fees.NewPolicy(
		cfg.Policy.ServiceFeeRate,
		cfg.Policy.MinServiceFeeUsd,
		cfg.Policy.MaxServiceFeeUsd,
		cfg.Policy.HighFeeRatio,
	))

	ctx := context.Background()

	if previewBalance != "" {
		runPreview(ctx, calc, priceCache, srcChain, jsonOutput)
		return
	}

	if quoteDestination == "" {
		printError(fmt.Errorf("either --destination or --preview-balance is required"))
		os.Exit(1)
	}
	dstChain := srcChain
	if quoteToChain != "" {
		dstChain, ok = cfg.ChainByName(quoteToChain)
		if !ok {
			printError(fmt.Errorf("unsupported destination chain: %s", quoteToChain))
			os.Exit(1)
		}
	}

	keyWallet, err := wallet.NewKeyWallet(cfg.WalletName, cfg.PrivateKey)
	if err != nil {
		printError(fmt.Errorf("wallet: %w (set ZERODUST_PRIVATE_KEY)", err))
		os.Exit(1)
	}

	dest, err := parseAddress(quoteDestination)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	quote, err := apiClient.GetQuote(ctx, srcChain.ChainID, dstChain.ChainID, keyWallet.Address(), dest)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	est := calc.FromQuote(quote)
	priceUsd, _, _ := priceCache.Get(ctx, srcChain.Symbol)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayFeeBreakdown(quote, est, srcChain, dstChain, priceUsd)
}

// runPreview computes the no-quote estimate the UI shows before the
// destination is known.
func runPreview(ctx context.Context, calc *fees.Calculator, priceCache *prices.Cache, chain config.ChainConfig, jsonOutput bool) {
	balance, ok := new(big.Int).SetString(previewBalance, 10)
	if !ok || balance.Sign() < 0 {
		printError(fmt.Errorf("invalid --preview-balance: %s", previewBalance))
		os.Exit(1)
	}

	priceUsd, known, err := priceCache.Get(ctx, chain.Symbol)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !known {
		color.Yellow("\nNo price available for %s; service fee shown as 0.\n", chain.Symbol)
	}

	est := calc.Preview(balance, priceUsd, nil)

	if jsonOutput {
		out := map[string]any{
			"serviceFee":       est.ServiceFee.String(),
			"networkFee":       est.NetworkFee.String(),
			"totalFee":         est.TotalFee.String(),
			"estimatedReceive": est.EstimatedReceive.String(),
			"warning":          est.Warning,
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Preview estimate on %s (no quote yet):\n\n", chain.Name)
	fmt.Printf("  Balance:          %s %s\n", formatWei(balance), chain.Symbol)
	fmt.Printf("  Service Fee:      -%s %s\n", formatWei(est.ServiceFee), chain.Symbol)
	fmt.Printf("  You Receive:      ~%s %s\n", color.GreenString(formatWei(est.EstimatedReceive)), chain.Symbol)
	if est.Warning != types.WarningNone {
		color.Yellow("\n  Warning: %s\n", est.Warning)
	}
	fmt.Println()
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid destination address: %s", s)
	}
	return common.HexToAddress(s), nil
}
