package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SweepCommand is a parsed sweep instruction: which chain to empty and where
// the balance goes.
type SweepCommand struct {
	Chain       string
	Destination common.Address
}

var sweepPattern = regexp.MustCompile(`^([A-Z0-9\-]+)\s+TO\s+(0X[0-9A-F]{40})$`)

// ParseSweepCommand parses a natural language sweep command
// Examples:
//   - "sweep base to 0x1234...abcd"
//   - "sepolia to 0x1234...abcd"
//   - "base → 0x1234...abcd"
func ParseSweepCommand(command string) (*SweepCommand, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.ReplaceAll(command, "→", " TO ")

	// Remove the word "SWEEP" if present at the beginning
	command = strings.TrimPrefix(command, "SWEEP ")

	matches := sweepPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid sweep command format. Expected: '<chain> to <address>' (e.g., 'base to 0x1234...abcd')")
	}

	if !common.IsHexAddress(matches[2]) {
		return nil, fmt.Errorf("invalid destination address: %s", matches[2])
	}

	return &SweepCommand{
		Chain:       strings.ToLower(matches[1]),
		Destination: common.HexToAddress(matches[2]),
	}, nil
}
