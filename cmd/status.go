package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerodust/config"
	"zerodust/pkg/client"
	"zerodust/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <sweep-id>",
	Short: "Check the status of a sweep",
	Long: `Check the execution status of a sweep by its sweep id.

Examples:
  zerodust status 6a1f9c4e
  zerodust status 6a1f9c4e --watch
  zerodust status 6a1f9c4e --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	sweepID := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.NewBackend(cfg.APIBaseURL, cfg.PriceBaseURL, newLogger(verbose))

	if watchStatus {
		watchSweepStatus(apiClient, sweepID, jsonOutput)
	} else {
		checkSweepStatus(apiClient, sweepID, jsonOutput)
	}
}

func checkSweepStatus(apiClient *client.Backend, sweepID string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking sweep status..."
		s.Start()
	}

	rec, err := apiClient.GetSweepStatus(context.Background(), sweepID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(rec)
	}
}

func watchSweepStatus(apiClient *client.Backend, sweepID string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching sweep status (Sweep ID: %s)\n", color.CyanString(sweepID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(apiClient, sweepID)

	// Then check periodically
	for range ticker.C {
		if checkAndDisplayStatus(apiClient, sweepID) {
			return
		}
	}
}

// checkAndDisplayStatus returns true once the sweep is terminal.
func checkAndDisplayStatus(apiClient *client.Backend, sweepID string) bool {
	rec, err := apiClient.GetSweepStatus(context.Background(), sweepID)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(rec)
	return rec.Status.Terminal()
}

func displayStatus(rec *types.SweepRecord) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWEEP STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Sweep ID:        %s\n", color.CyanString(rec.SweepID))
	fmt.Printf("  Status:          %s\n", getColoredStatus(rec.Status))

	if rec.TxHash != "" {
		fmt.Printf("  Sweep Tx:        %s\n", color.HiBlackString(rec.TxHash))
	}
	if rec.DestinationTxHash != "" {
		fmt.Printf("  Destination Tx:  %s\n", color.HiBlackString(rec.DestinationTxHash))
	}
	if rec.UserReceived != nil && rec.UserReceived.Int().Sign() > 0 {
		fmt.Printf("  Received:        %s\n", formatWei(rec.UserReceived.Int()))
	}
	if rec.Error != "" {
		fmt.Printf("  Error:           %s\n", color.RedString(rec.Error))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status types.SweepStatus) string {
	label := strings.ToUpper(string(status))

	switch status {
	case types.SweepCompleted:
		return color.GreenString(label)
	case types.SweepPending, types.SweepQueued, types.SweepProcessing:
		return color.YellowString(label)
	case types.SweepFailed:
		return color.RedString(label)
	case types.SweepBridging:
		return color.MagentaString(label)
	default:
		return label
	}
}
