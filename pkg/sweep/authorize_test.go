package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

// fakeProvider signs deterministically so the batch and sequential paths can
// be compared structurally, and fails on demand.
type fakeProvider struct {
	name        string
	addr        common.Address
	canBatch    bool
	singleCalls int
	batchCalls  int
	failAfter   int // fail the Nth single signing call (1-based), 0 disables
	failWith    error
	typedErr    error
	typedCalls  int
	lastTyped   apitypes.TypedData
}

func (f *fakeProvider) Name() string            { return f.name }
func (f *fakeProvider) Address() common.Address { return f.addr }

func (f *fakeProvider) Capabilities() wallet.Capabilities {
	return wallet.Capabilities{CanSignAuthorization: true, CanBatchAuthorization: f.canBatch}
}

func (f *fakeProvider) sign(req wallet.AuthorizationRequest) *types.Authorization {
	return &types.Authorization{
		ChainID:    req.ChainID,
		DelegateTo: req.DelegateTo,
		Nonce:      req.Nonce,
		YParity:    uint8(req.Nonce % 2),
		R:          types.NewBigInt(big.NewInt(int64(req.Nonce) + 100)),
		S:          types.NewBigInt(big.NewInt(int64(req.Nonce) + 200)),
	}
}

func (f *fakeProvider) SignAuthorization(ctx context.Context, req wallet.AuthorizationRequest) (*types.Authorization, error) {
	f.singleCalls++
	if f.failAfter > 0 && f.singleCalls >= f.failAfter {
		return nil, f.failWith
	}
	return f.sign(req), nil
}

func (f *fakeProvider) SignAuthorizationBatch(ctx context.Context, reqs []wallet.AuthorizationRequest) ([]*types.Authorization, error) {
	f.batchCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	auths := make([]*types.Authorization, 0, len(reqs))
	for _, req := range reqs {
		auths = append(auths, f.sign(req))
	}
	return auths, nil
}

func (f *fakeProvider) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	f.typedCalls++
	f.lastTyped = data
	if f.typedErr != nil {
		return nil, f.typedErr
	}
	sig := make([]byte, 65)
	sig[64] = 27
	return sig, nil
}

var testSweeper = common.HexToAddress("0x3333333333333333333333333333333333333333")

func TestSignProducesDelegateAndRevokePair(t *testing.T) {
	for _, canBatch := range []bool{true, false} {
		name := "sequential"
		if canBatch {
			name = "batched"
		}
		t.Run(name, func(t *testing.T) {
			p := &fakeProvider{name: "fake", canBatch: canBatch}
			signer := NewAuthorizationSigner(p, wallet.NewDetector(p), nil)

			delegate, revoke, err := signer.Sign(context.Background(), 84532, testSweeper, 7)
			require.NoError(t, err)

			require.Equal(t, testSweeper, delegate.DelegateTo)
			require.Equal(t, uint64(7), delegate.Nonce)
			require.False(t, delegate.Revokes())

			require.True(t, revoke.Revokes())
			require.Equal(t, delegate.Nonce+1, revoke.Nonce)
			require.Equal(t, delegate.ChainID, revoke.ChainID)
		})
	}
}

func TestSignBatchAndSequentialAreStructurallyIdentical(t *testing.T) {
	batched := &fakeProvider{name: "fake", canBatch: true}
	sequential := &fakeProvider{name: "fake", canBatch: false}

	d1, r1, err := NewAuthorizationSigner(batched, nil, nil).Sign(context.Background(), 84532, testSweeper, 7)
	require.NoError(t, err)
	d2, r2, err := NewAuthorizationSigner(sequential, nil, nil).Sign(context.Background(), 84532, testSweeper, 7)
	require.NoError(t, err)

	require.Equal(t, fmt.Sprintf("%+v", d1), fmt.Sprintf("%+v", d2))
	require.Equal(t, fmt.Sprintf("%+v", r1), fmt.Sprintf("%+v", r2))
	require.Equal(t, 1, batched.batchCalls)
	require.Equal(t, 0, batched.singleCalls)
	require.Equal(t, 2, sequential.singleCalls)
	require.Equal(t, 0, sequential.batchCalls)
}

func TestSignAbortsWhenSecondSignatureFails(t *testing.T) {
	p := &fakeProvider{name: "fake", failAfter: 2, failWith: errors.New("wallet crashed")}
	signer := NewAuthorizationSigner(p, nil, nil)

	delegate, revoke, err := signer.Sign(context.Background(), 84532, testSweeper, 7)
	require.Error(t, err)
	require.Nil(t, delegate)
	require.Nil(t, revoke)
}

func TestSignUserRejection(t *testing.T) {
	p := &fakeProvider{name: "fake", canBatch: true, failWith: wallet.ErrUserRejected}
	d := wallet.NewDetector(p)
	signer := NewAuthorizationSigner(p, d, nil)

	_, _, err := signer.Sign(context.Background(), 84532, testSweeper, 7)
	require.True(t, types.IsKind(err, types.ErrUserRejected))
	require.True(t, d.Compatible(), "a rejection is not an incompatibility")
}

func TestSignDemotesDetectorOnMethodNotSupported(t *testing.T) {
	p := &fakeProvider{name: "fake", canBatch: true, failWith: wallet.ErrMethodNotSupported}
	d := wallet.NewDetector(p)
	signer := NewAuthorizationSigner(p, d, nil)

	_, _, err := signer.Sign(context.Background(), 84532, testSweeper, 7)
	require.True(t, types.IsKind(err, types.ErrWalletIncompatible))
	require.False(t, d.Compatible())
}
