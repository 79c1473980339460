package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerodust/config"
)

var testnetsOnly bool

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported chains",
	Long: `List the chains this build can sweep, including their chain ids, gas
token symbols, and whether a sweeper contract is configured.

Examples:
  zerodust chains
  zerodust chains --testnets
  zerodust chains --json`,
	Run: runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)

	chainsCmd.Flags().BoolVar(&testnetsOnly, "testnets", false, "Show testnets only")
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chains := make([]config.ChainConfig, 0, len(cfg.Chains))
	for _, ch := range cfg.Chains {
		if testnetsOnly && !ch.Testnet {
			continue
		}
		chains = append(chains, ch)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(chains, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      SUPPORTED CHAINS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  %-20s %-12s %-8s %-10s %s\n", "NAME", "CHAIN ID", "TOKEN", "NETWORK", "SWEEPER")
	fmt.Println("  " + strings.Repeat("-", 66))

	for _, ch := range chains {
		network := "mainnet"
		if ch.Testnet {
			network = "testnet"
		}
		sweeper := color.RedString("not set")
		if ch.SweeperContract != "" {
			sweeper = color.GreenString("configured")
		}
		fmt.Printf("  %-20s %-12d %-8s %-10s %s\n", ch.Name, ch.ChainID, ch.Symbol, network, sweeper)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
