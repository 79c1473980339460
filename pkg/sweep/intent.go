package sweep

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"

	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

const (
	intentDomainName    = "ZeroDust"
	intentDomainVersion = "1"
	intentPrimaryType   = "SweepIntent"
)

// IntentTypedData builds the EIP-712 payload describing a sweep. Field order
// is part of the encoding and must match the executor byte for byte.
//
// The verifying contract is the user's own address: once the delegation
// takes effect the account executes sweeper code for the duration of the
// transaction, so the signature must verify against the account itself.
func IntentTypedData(q *types.Quote, user common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			intentPrimaryType: []apitypes.Type{
				{Name: "mode", Type: "uint8"},
				{Name: "user", Type: "address"},
				{Name: "destination", Type: "address"},
				{Name: "destinationChainId", Type: "uint256"},
				{Name: "callTarget", Type: "address"},
				{Name: "routeHash", Type: "bytes32"},
				{Name: "minReceive", Type: "uint256"},
				{Name: "maxTotalFeeWei", Type: "uint256"},
				{Name: "overheadGasUnits", Type: "uint256"},
				{Name: "protocolFeeGasUnits", Type: "uint256"},
				{Name: "extraFeeWei", Type: "uint256"},
				{Name: "reimbGasPriceCapWei", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: intentPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              intentDomainName,
			Version:           intentDomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(q.ChainID)),
			VerifyingContract: user.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"mode":                u256(new(big.Int).SetUint64(uint64(q.Mode.Code()))),
			"user":                user.Hex(),
			"destination":         q.Intent.Destination.Hex(),
			"destinationChainId":  u256(new(big.Int).SetUint64(q.Intent.DestinationChainID)),
			"callTarget":          q.Intent.CallTarget.Hex(),
			"routeHash":           q.Intent.RouteHash.Hex(),
			"minReceive":          u256(q.Intent.MinReceive.Int()),
			"maxTotalFeeWei":      u256(q.Fees.MaxTotalFeeWei.Int()),
			"overheadGasUnits":    u256(new(big.Int).SetUint64(q.Fees.OverheadGasUnits)),
			"protocolFeeGasUnits": u256(new(big.Int).SetUint64(q.Fees.ProtocolFeeGasUnits)),
			"extraFeeWei":         u256(q.Fees.ExtraFeeWei.Int()),
			"reimbGasPriceCapWei": u256(q.Fees.ReimbGasPriceCapWei.Int()),
			"deadline":            u256(big.NewInt(q.Deadline)),
			"nonce":               u256(new(big.Int).SetUint64(q.Nonce)),
		},
	}
}

func u256(x *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(x)
}

// IntentSigner signs sweep intents through the wallet port.
type IntentSigner struct {
	provider wallet.Provider
	log      *logrus.Logger
}

// NewIntentSigner creates an intent signer for the given provider.
func NewIntentSigner(provider wallet.Provider, log *logrus.Logger) *IntentSigner {
	if log == nil {
		log = logrus.New()
	}
	return &IntentSigner{provider: provider, log: log}
}

// Sign requests exactly one typed-data signature for the quote and returns
// it as a 0x-prefixed hex string.
func (s *IntentSigner) Sign(ctx context.Context, q *types.Quote) (string, error) {
	user := s.provider.Address()
	sig, err := s.provider.SignTypedData(ctx, IntentTypedData(q, user))
	if err != nil {
		return "", wallet.ClassifyError(err)
	}
	if len(sig) != 65 {
		return "", types.NewError(types.ErrValidationFailed, "",
			"wallet returned a %d-byte signature, expected 65", len(sig))
	}
	s.log.WithField("quoteId", q.QuoteID).Debug("sweep intent signed")
	return hexutil.Encode(sig), nil
}
