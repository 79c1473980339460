// Package fees computes sweep fee estimates and their warning
// classification. All functions are pure; money math runs on decimals to
// keep the USD clamp exact.
package fees

import (
	"math/big"

	"github.com/shopspring/decimal"

	"zerodust/pkg/types"
)

// nativeDecimals is the smallest-unit scale of the swept gas token.
const nativeDecimals = 18

// Policy holds the fee policy values. They are product configuration, not
// physical constraints.
type Policy struct {
	ServiceFeeRate   decimal.Decimal // share of the swept amount taken as service fee
	MinServiceFeeUsd decimal.Decimal
	MaxServiceFeeUsd decimal.Decimal
	HighFeeRatio     decimal.Decimal // totalFee/balance above this warns the user
}

// DefaultPolicy returns the shipped policy values.
func DefaultPolicy() Policy {
	return NewPolicy(0.05, 0.05, 0.50, 0.30)
}

// NewPolicy builds a Policy from plain floats, as read from configuration.
func NewPolicy(rate, minUsd, maxUsd, highRatio float64) Policy {
	return Policy{
		ServiceFeeRate:   decimal.NewFromFloat(rate),
		MinServiceFeeUsd: decimal.NewFromFloat(minUsd),
		MaxServiceFeeUsd: decimal.NewFromFloat(maxUsd),
		HighFeeRatio:     decimal.NewFromFloat(highRatio),
	}
}

// GasParams are the network fee inputs of the most recent quote, reused for
// preview estimates before a fresh quote exists.
type GasParams struct {
	OverheadGasUnits    uint64
	ProtocolFeeGasUnits uint64
	ReimbGasPriceCapWei *big.Int
}

// Estimate is a computed fee breakdown, all amounts in wei.
type Estimate struct {
	ServiceFee       *big.Int
	NetworkFee       *big.Int
	TotalFee         *big.Int
	EstimatedReceive *big.Int
	Warning          types.WarningLevel
}

// Calculator derives fee estimates from balances, prices, and quotes.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator with the given policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Preview computes a local estimate before any quote exists. The service fee
// is a clamped USD percentage converted back to wei; an unknown price
// (priceUsd <= 0) yields a zero service fee rather than a guess. gas may be
// nil when no quote parameters have been seen yet.
func (c *Calculator) Preview(balance *big.Int, priceUsd float64, gas *GasParams) Estimate {
	if balance == nil {
		balance = new(big.Int)
	}

	serviceFee := new(big.Int)
	if priceUsd > 0 && balance.Sign() > 0 {
		price := decimal.NewFromFloat(priceUsd)
		amount := decimal.NewFromBigInt(balance, -nativeDecimals)
		feeUsd := clamp(amount.Mul(price).Mul(c.policy.ServiceFeeRate),
			c.policy.MinServiceFeeUsd, c.policy.MaxServiceFeeUsd)
		serviceFee = feeUsd.DivRound(price, 30).Shift(nativeDecimals).Truncate(0).BigInt()
	}

	networkFee := new(big.Int)
	if gas != nil && gas.ReimbGasPriceCapWei != nil {
		units := new(big.Int).SetUint64(gas.OverheadGasUnits + gas.ProtocolFeeGasUnits)
		networkFee.Mul(units, gas.ReimbGasPriceCapWei)
	}

	totalFee := new(big.Int).Add(serviceFee, networkFee)
	return Estimate{
		ServiceFee:       serviceFee,
		NetworkFee:       networkFee,
		TotalFee:         totalFee,
		EstimatedReceive: receive(balance, totalFee),
		Warning:          c.classify(totalFee, balance),
	}
}

// FromQuote derives the breakdown of a backend quote. The quote's numbers
// are authoritative and are not recomputed.
func (c *Calculator) FromQuote(q *types.Quote) Estimate {
	totalFee := q.Fees.MaxTotalFeeWei.Int()
	serviceFee := q.Fees.ExtraFeeWei.Int()
	networkFee := new(big.Int).Sub(totalFee, serviceFee)
	if networkFee.Sign() < 0 {
		networkFee.SetInt64(0)
	}

	return Estimate{
		ServiceFee:       serviceFee,
		NetworkFee:       networkFee,
		TotalFee:         totalFee,
		EstimatedReceive: q.EstimatedReceive.Int(),
		Warning:          c.classify(totalFee, q.UserBalance.Int()),
	}
}

// classify applies the warning policy. The boundary totalFee/balance ==
// HighFeeRatio still counts as acceptable, so the comparison is strict.
func (c *Calculator) classify(totalFee, balance *big.Int) types.WarningLevel {
	if totalFee.Cmp(balance) >= 0 {
		return types.WarningAmountTooLow
	}
	fee := decimal.NewFromBigInt(totalFee, 0)
	ceiling := decimal.NewFromBigInt(balance, 0).Mul(c.policy.HighFeeRatio)
	if fee.GreaterThan(ceiling) {
		return types.WarningHighFee
	}
	return types.WarningNone
}

func receive(balance, totalFee *big.Int) *big.Int {
	out := new(big.Int).Sub(balance, totalFee)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}
