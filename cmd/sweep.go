package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"zerodust/config"
	"zerodust/pkg/client"
	"zerodust/pkg/fees"
	"zerodust/pkg/parser"
	"zerodust/pkg/prices"
	"zerodust/pkg/sweep"
	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

var (
	toChain   string
	noConfirm bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <chain> to <destination>",
	Short: "Sweep an account's full native balance to a destination",
	Long: `Sweep the entire native-token balance of the configured account on a
chain to a destination address. The backend sponsors the gas and the final
balance is exactly zero.

Examples:
  # Same-chain sweep
  zerodust sweep sepolia to 0x1234...abcd

  # Cross-chain sweep (bridged to the destination chain)
  zerodust sweep base to 0x1234...abcd --to-chain optimism

  # Skip the confirmation prompt
  zerodust sweep base to 0x1234...abcd --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination chain (defaults to the source chain)")
	sweepCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSweep(cmd *cobra.Command, args []string) {
	// Parse the command
	commandStr := strings.Join(args, " ")
	sweepReq, err := parser.ParseSweepCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	srcChain, ok := cfg.ChainByName(sweepReq.Chain)
	if !ok {
		printError(fmt.Errorf("unsupported chain: %s (see 'zerodust chains')", sweepReq.Chain))
		os.Exit(1)
	}
	dstChain := srcChain
	if toChain != "" {
		dstChain, ok = cfg.ChainByName(toChain)
		if !ok {
			printError(fmt.Errorf("unsupported destination chain: %s", toChain))
			os.Exit(1)
		}
	}

	log := newLogger(verbose)
	apiClient := client.NewBackend(cfg.APIBaseURL, cfg.PriceBaseURL, log)

	// Create the local signer
	keyWallet, err := wallet.NewKeyWallet(cfg.WalletName, cfg.PrivateKey)
	if err != nil {
		printError(fmt.Errorf("wallet: %w (set ZERODUST_PRIVATE_KEY)", err))
		os.Exit(1)
	}
	detector := wallet.NewDetector(keyWallet)
	printCompatibilityBanner(detector)

	ctx := context.Background()

	// Get quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := apiClient.GetQuote(ctx, srcChain.ChainID, dstChain.ChainID, keyWallet.Address(), sweepReq.Destination)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	calc := fees.NewCalculator(fees.NewPolicy(
		cfg.Policy.ServiceFeeRate,
		cfg.Policy.MinServiceFeeUsd,
		cfg.Policy.MaxServiceFeeUsd,
		cfg.Policy.HighFeeRatio,
	))
	est := calc.FromQuote(quote)

	priceCache := prices.NewCache(apiClient, cfg.PriceCacheTTL, log)
	priceUsd, _, _ := priceCache.Get(ctx, srcChain.Symbol)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayFeeBreakdown(quote, est, srcChain, dstChain, priceUsd)
	}

	// The sweep stays disabled while fees eat the whole balance
	if est.Warning == types.WarningAmountTooLow {
		printError(fmt.Errorf("balance on %s is too low to sweep: fees (%s wei) would consume all of it", srcChain.Name, est.TotalFee))
		os.Exit(1)
	}
	if est.Warning == types.WarningHighFee && !jsonOutput {
		color.Yellow("  Warning: fees are more than %.0f%% of the swept amount.\n", cfg.Policy.HighFeeRatio*100)
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput {
		if !confirmSweep() {
			fmt.Println("\nSweep cancelled.")
			os.Exit(0)
		}
	}

	orch := sweep.New(apiClient, keyWallet, detector, client.PollOptions{
		Interval:         cfg.Poll.Interval,
		BridgingInterval: cfg.Poll.BridgingInterval,
		MaxAttempts:      cfg.Poll.MaxAttempts,
		MaxFailures:      cfg.Poll.MaxConsecutiveFailures,
	}, log)

	if !jsonOutput {
		s.Suffix = " Waiting for wallet..."
		s.Start()
		orch.OnTransition = func(st sweep.State) {
			switch st {
			case sweep.StateSigning:
				s.Suffix = " Signing authorizations and intent..."
			case sweep.StateSubmitting:
				s.Suffix = " Submitting sweep..."
			case sweep.StateProcessing:
				s.Suffix = " Sweeping..."
			case sweep.StateBridging:
				s.Suffix = " Bridging to " + dstChain.Name + "..."
			}
		}
		orch.OnPoll = func(rec *types.SweepRecord) {
			if rec.TxHash != "" {
				s.Suffix = fmt.Sprintf(" Sweeping... (tx %s)", shortHash(rec.TxHash))
			}
		}
	}

	rec, err := orch.Run(ctx, quote, common.HexToAddress(srcChain.SweeperContract))
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		if types.IsKind(err, types.ErrWalletIncompatible) {
			color.Red("\nThis wallet cannot sign delegation authorizations. Try a different wallet.")
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displaySweepResult(rec, srcChain, dstChain)
}

func printCompatibilityBanner(detector *wallet.Detector) {
	name, compat := detector.Status()
	switch compat {
	case wallet.CompatPartial, wallet.CompatUnknown:
		color.Yellow("\nNote: wallet %q may not support authorization signing; the sweep will still be attempted.\n", name)
	case wallet.CompatIncompatible:
		color.Red("\nWallet %q cannot sign authorizations. The sweep will almost certainly fail.\n", name)
	}
}

func displayFeeBreakdown(q *types.Quote, est fees.Estimate, src, dst config.ChainConfig, priceUsd float64) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    SWEEP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Balance on %s: %s %s\n", src.Name, formatWei(q.UserBalance.Int()), color.YellowString(src.Symbol))
	fmt.Printf("  Service Fee:       -%s %s\n", formatWei(est.ServiceFee), src.Symbol)
	fmt.Printf("  Network Fee:       -%s %s\n", formatWei(est.NetworkFee), src.Symbol)
	fmt.Printf("  You Receive:       ~%s %s", color.GreenString(formatWei(est.EstimatedReceive)), src.Symbol)
	if priceUsd > 0 {
		feeEth := new(big.Float).Quo(new(big.Float).SetInt(est.TotalFee), big.NewFloat(params.Ether))
		feeUsd, _ := new(big.Float).Mul(feeEth, big.NewFloat(priceUsd)).Float64()
		fmt.Printf("   (fee ~$%.2f)", feeUsd)
	}
	fmt.Println()

	if dst.ChainID != src.ChainID {
		fmt.Printf("  Destination:       %s on %s\n", q.Intent.Destination.Hex(), dst.Name)
	} else {
		fmt.Printf("  Destination:       %s\n", q.Intent.Destination.Hex())
	}

	remaining := q.Deadline - time.Now().Unix()
	fmt.Printf("\n  Quote expires in %ds. Your wallet will have exactly 0 balance after sweeping.\n", remaining)
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displaySweepResult(rec *types.SweepRecord, src, dst config.ChainConfig) {
	if rec.Status == types.SweepCompleted {
		printSuccess(color.GreenString("Sweep complete! Your balance on %s is now exactly 0.", src.Name))
	} else {
		color.Yellow("\nLost contact with the backend, but the sweep transaction was broadcast.")
		fmt.Println("Verify it on-chain with the links below, or check later with 'zerodust status'.")
	}

	if rec.UserReceived != nil && rec.UserReceived.Int().Sign() > 0 {
		fmt.Printf("  Received:        %s %s\n", formatWei(rec.UserReceived.Int()), dst.Symbol)
	}
	if rec.TxHash != "" {
		fmt.Printf("  Sweep Tx:        %s\n", color.CyanString("%s/tx/%s", src.ExplorerURL, rec.TxHash))
	}
	if rec.DestinationTxHash != "" {
		fmt.Printf("  Destination Tx:  %s\n", color.CyanString("%s/tx/%s", dst.ExplorerURL, rec.DestinationTxHash))
	}

	fmt.Println("\nYou can re-check the status any time using:")
	color.Cyan("  zerodust status %s\n", rec.SweepID)
}

func confirmSweep() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with sweep? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// formatWei renders a wei amount in whole-token units with 6 decimals.
func formatWei(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 6)
}

func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-4:]
}
