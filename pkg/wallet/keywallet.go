package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"zerodust/pkg/types"
)

// KeyWallet is an in-process provider backed by a raw secp256k1 key. It is
// the CLI's signer and the reference implementation of the port; it supports
// both authorization signing and batching.
type KeyWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	name       string
}

// NewKeyWallet parses a hex private key, with or without 0x prefix.
func NewKeyWallet(name, hexKey string) (*KeyWallet, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if name == "" {
		name = "local-key"
	}
	return &KeyWallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		name:       name,
	}, nil
}

func (w *KeyWallet) Name() string {
	return w.name
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

func (w *KeyWallet) Capabilities() Capabilities {
	return Capabilities{CanSignAuthorization: true, CanBatchAuthorization: true}
}

// SignAuthorization signs one delegation.
func (w *KeyWallet) SignAuthorization(ctx context.Context, req AuthorizationRequest) (*types.Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signed, err := gethtypes.SignSetCode(w.privateKey, gethtypes.SetCodeAuthorization{
		ChainID: *uint256.NewInt(req.ChainID),
		Address: req.DelegateTo,
		Nonce:   req.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign authorization: %w", err)
	}

	r := signed.R
	s := signed.S
	return &types.Authorization{
		ChainID:    req.ChainID,
		DelegateTo: req.DelegateTo,
		Nonce:      req.Nonce,
		YParity:    signed.V,
		R:          types.NewBigInt(r.ToBig()),
		S:          types.NewBigInt(s.ToBig()),
	}, nil
}

// SignAuthorizationBatch signs the whole batch in one call. Results keep the
// request order.
func (w *KeyWallet) SignAuthorizationBatch(ctx context.Context, reqs []AuthorizationRequest) ([]*types.Authorization, error) {
	auths := make([]*types.Authorization, 0, len(reqs))
	for _, req := range reqs {
		auth, err := w.SignAuthorization(ctx, req)
		if err != nil {
			return nil, err
		}
		auths = append(auths, auth)
	}
	return auths, nil
}

// SignTypedData hashes the EIP-712 payload and signs it. The recovery byte
// follows the Ethereum convention (27/28).
func (w *KeyWallet) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
