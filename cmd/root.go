package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zerodust",
	Short: "A CLI for sweeping full native balances with sponsored gas",
	Long: `zerodust is a command-line tool that empties the entire native-token
balance of an account to a destination address, leaving exactly zero behind.
The ZeroDust backend sponsors the gas; the account delegates to the sweeper
contract for a single transaction slot and reverts to a plain account.

Examples:
  zerodust sweep base to 0x1234...abcd
  zerodust quote --chain sepolia --destination 0x1234...abcd
  zerodust status <sweep-id> --watch
  zerodust chains`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
