// Package wallet defines the signing port the sweep flow talks to, so the
// flow never reaches for an ambient provider and tests can inject fakes.
package wallet

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"zerodust/pkg/types"
)

// Sentinel errors providers use to describe signing failures. Everything
// else a provider returns is treated as an opaque signing error.
var (
	// ErrMethodNotSupported means the provider cannot produce delegation
	// authorizations at all. Confirming it demotes the provider for the
	// session.
	ErrMethodNotSupported = errors.New("wallet does not support authorization signing")
	// ErrUserRejected means the user declined the request in the wallet UI.
	ErrUserRejected = errors.New("signing request rejected in wallet")
)

// AuthorizationRequest asks a provider to sign one chain delegation.
type AuthorizationRequest struct {
	ChainID    uint64
	DelegateTo common.Address // zero address revokes
	Nonce      uint64
}

// Capabilities are negotiated once per session from the provider itself.
type Capabilities struct {
	CanSignAuthorization  bool
	CanBatchAuthorization bool
}

// Provider is the injected wallet port. Every call can block on user
// interaction indefinitely, so all of them take a context.
type Provider interface {
	Name() string
	Address() common.Address
	Capabilities() Capabilities

	// SignAuthorization produces a single signed delegation.
	SignAuthorization(ctx context.Context, req AuthorizationRequest) (*types.Authorization, error)

	// SignAuthorizationBatch signs several delegations in one interaction.
	// Providers without CanBatchAuthorization return ErrMethodNotSupported.
	SignAuthorizationBatch(ctx context.Context, reqs []AuthorizationRequest) ([]*types.Authorization, error)

	// SignTypedData signs an EIP-712 payload and returns the 65-byte
	// signature.
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// ClassifyError normalizes a provider error into the sweep error taxonomy.
func ClassifyError(err error) *types.Error {
	switch {
	case errors.Is(err, ErrUserRejected):
		return types.WrapError(types.ErrUserRejected, err, "signing request was rejected")
	case errors.Is(err, ErrMethodNotSupported):
		return types.WrapError(types.ErrWalletIncompatible, err, "wallet cannot sign delegation authorizations")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.WrapError(types.ErrUserRejected, err, "signing was canceled")
	default:
		return types.WrapError(types.ErrValidationFailed, err, "wallet signing failed")
	}
}
