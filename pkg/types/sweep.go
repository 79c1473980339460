package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SweepMode distinguishes a same-chain transfer from a cross-chain sweep
// routed through a bridge call.
type SweepMode string

const (
	ModeTransfer SweepMode = "transfer" // destination is on the source chain
	ModeCall     SweepMode = "call"     // funds are bridged to another chain
)

// Code returns the numeric discriminant used in the signed intent struct.
func (m SweepMode) Code() uint8 {
	if m == ModeCall {
		return 1
	}
	return 0
}

// QuoteFees holds the fee parameters of a backend quote, all in wei except
// the gas unit counts.
type QuoteFees struct {
	OverheadGasUnits    uint64  `json:"overheadGasUnits"`
	ProtocolFeeGasUnits uint64  `json:"protocolFeeGasUnits"`
	ExtraFeeWei         *BigInt `json:"extraFeeWei"`
	ReimbGasPriceCapWei *BigInt `json:"reimbGasPriceCapWei"`
	MaxTotalFeeWei      *BigInt `json:"maxTotalFeeWei"`
}

// QuoteIntent holds the routing half of a quote: where the balance goes and
// the floor the executor must honor.
type QuoteIntent struct {
	Destination        common.Address `json:"destination"`
	DestinationChainID uint64         `json:"destinationChainId"`
	CallTarget         common.Address `json:"callTarget"`
	RouteHash          common.Hash    `json:"routeHash"`
	MinReceive         *BigInt        `json:"minReceive"`
}

// Quote is a short-lived, backend-issued fee commitment for a specific sweep.
// It is immutable once issued; an expired quote must never be submitted.
type Quote struct {
	QuoteID          string         `json:"quoteId"`
	ChainID          uint64         `json:"chainId"`
	User             common.Address `json:"userAddress"`
	UserBalance      *BigInt        `json:"userBalance"`
	Mode             SweepMode      `json:"mode"`
	EstimatedReceive *BigInt        `json:"estimatedReceive"`
	Fees             QuoteFees      `json:"fees"`
	Intent           QuoteIntent    `json:"intent"`
	Deadline         int64          `json:"deadline"`
	Nonce            uint64         `json:"nonce"`
	AuthNonce        uint64         `json:"authNonce"`
	ValidForSeconds  int64          `json:"validForSeconds"`
}

// Expired reports whether the quote's deadline has passed.
func (q *Quote) Expired(now time.Time) bool {
	return now.Unix() >= q.Deadline
}

// Validate checks the fields a sweep submission depends on, including the
// fee invariant maxTotalFee >= gas*priceCap + extraFee.
func (q *Quote) Validate() error {
	if q.QuoteID == "" {
		return fmt.Errorf("quote is missing quoteId")
	}
	if q.ChainID == 0 {
		return fmt.Errorf("quote is missing chainId")
	}
	if q.Mode != ModeTransfer && q.Mode != ModeCall {
		return fmt.Errorf("unknown sweep mode %q", q.Mode)
	}
	if q.Intent.Destination == (common.Address{}) {
		return fmt.Errorf("quote is missing destination")
	}
	if q.Mode == ModeCall && q.Intent.CallTarget == (common.Address{}) {
		return fmt.Errorf("cross-chain quote is missing callTarget")
	}
	if q.Deadline == 0 {
		return fmt.Errorf("quote is missing deadline")
	}

	gas := new(big.Int).SetUint64(q.Fees.OverheadGasUnits + q.Fees.ProtocolFeeGasUnits)
	floor := new(big.Int).Mul(gas, q.Fees.ReimbGasPriceCapWei.Int())
	floor.Add(floor, q.Fees.ExtraFeeWei.Int())
	if q.Fees.MaxTotalFeeWei.Int().Cmp(floor) < 0 {
		return fmt.Errorf("quote fee invariant violated: maxTotalFee %s < gas floor %s",
			q.Fees.MaxTotalFeeWei, floor)
	}
	return nil
}

// Authorization is a signed chain delegation. A zero DelegateTo address
// revokes the delegation.
type Authorization struct {
	ChainID    uint64         `json:"chainId"`
	DelegateTo common.Address `json:"delegateTo"`
	Nonce      uint64         `json:"nonce"`
	YParity    uint8          `json:"yParity"`
	R          *BigInt        `json:"r"`
	S          *BigInt        `json:"s"`
}

// Revokes reports whether this authorization clears the delegation.
func (a *Authorization) Revokes() bool {
	return a.DelegateTo == (common.Address{})
}

// SweepStatus is the backend-reported execution state of a sweep.
type SweepStatus string

const (
	SweepPending    SweepStatus = "pending"
	SweepQueued     SweepStatus = "queued"
	SweepProcessing SweepStatus = "processing"
	SweepBridging   SweepStatus = "bridging"
	SweepCompleted  SweepStatus = "completed"
	SweepFailed     SweepStatus = "failed"
)

// Terminal reports whether the status will never change again.
func (s SweepStatus) Terminal() bool {
	return s == SweepCompleted || s == SweepFailed
}

// SweepRecord is the backend's view of a submitted sweep. It is created on
// submission and mutated only by poll responses.
type SweepRecord struct {
	SweepID           string      `json:"sweepId"`
	Status            SweepStatus `json:"status"`
	TxHash            string      `json:"txHash,omitempty"`
	DestinationTxHash string      `json:"destinationTxHash,omitempty"`
	UserReceived      *BigInt     `json:"userReceived,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// SubmitRequest is the signed bundle handed to the backend.
type SubmitRequest struct {
	QuoteID               string         `json:"quoteId"`
	IntentSignature       string         `json:"intentSignature"`
	DelegateAuthorization *Authorization `json:"delegateAuthorization"`
	RevokeAuthorization   *Authorization `json:"revokeAuthorization,omitempty"`
}

// SubmitResponse acknowledges an accepted sweep submission.
type SubmitResponse struct {
	SweepID   string      `json:"sweepId"`
	Status    SweepStatus `json:"status"`
	SweepType string      `json:"sweepType"`
}

// WarningLevel classifies how a computed fee relates to the swept balance.
type WarningLevel string

const (
	WarningNone         WarningLevel = "none"
	WarningAmountTooLow WarningLevel = "amount_too_low"
	WarningHighFee      WarningLevel = "high_fee"
)

// TokenPrice is a single entry of the backend price snapshot.
type TokenPrice struct {
	PriceUsd float64 `json:"priceUsd"`
}
