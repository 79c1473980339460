package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"zerodust/pkg/types"
)

// stubProvider is the minimal provider the detector needs.
type stubProvider struct {
	name string
	caps Capabilities
}

func (s *stubProvider) Name() string               { return s.name }
func (s *stubProvider) Address() common.Address    { return common.Address{} }
func (s *stubProvider) Capabilities() Capabilities { return s.caps }

func (s *stubProvider) SignAuthorization(ctx context.Context, req AuthorizationRequest) (*types.Authorization, error) {
	return nil, ErrMethodNotSupported
}

func (s *stubProvider) SignAuthorizationBatch(ctx context.Context, reqs []AuthorizationRequest) ([]*types.Authorization, error) {
	return nil, ErrMethodNotSupported
}

func (s *stubProvider) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	return nil, ErrMethodNotSupported
}

func fullCaps() Capabilities {
	return Capabilities{CanSignAuthorization: true, CanBatchAuthorization: true}
}

func TestNewDetectorHeuristics(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want Compatibility
	}{
		{"local-key", fullCaps(), CompatCompatible},
		{"MetaMask", fullCaps(), CompatCompatible},
		{"Rabby", fullCaps(), CompatCompatible},
		{"Coinbase Wallet", fullCaps(), CompatPartial},
		{"some-new-wallet", fullCaps(), CompatUnknown},
		{"no-auth-support", Capabilities{}, CompatPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(&stubProvider{name: tt.name, caps: tt.caps})
			name, compat := d.Status()
			require.Equal(t, tt.name, name)
			require.Equal(t, tt.want, compat)
			require.True(t, d.Compatible(), "heuristic tiers are advisory, never blocking")
		})
	}
}

func TestObserveDemotesOnConfirmedIncompatibility(t *testing.T) {
	d := NewDetector(&stubProvider{name: "MetaMask", caps: fullCaps()})

	d.Observe(ClassifyError(ErrMethodNotSupported))

	_, compat := d.Status()
	require.Equal(t, CompatIncompatible, compat)
	require.False(t, d.Compatible())
}

func TestObserveIgnoresOtherFailures(t *testing.T) {
	d := NewDetector(&stubProvider{name: "MetaMask", caps: fullCaps()})

	d.Observe(ClassifyError(ErrUserRejected))
	d.Observe(ClassifyError(errors.New("flaky rpc")))
	d.Observe(nil)

	_, compat := d.Status()
	require.Equal(t, CompatCompatible, compat)
}

func TestDemotionSticks(t *testing.T) {
	d := NewDetector(&stubProvider{name: "local-key", caps: fullCaps()})
	d.Observe(ClassifyError(ErrMethodNotSupported))

	// Later benign observations never restore the tier
	d.Observe(ClassifyError(ErrUserRejected))
	require.False(t, d.Compatible())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorKind
	}{
		{"user rejected", ErrUserRejected, types.ErrUserRejected},
		{"method not supported", ErrMethodNotSupported, types.ErrWalletIncompatible},
		{"context canceled", context.Canceled, types.ErrUserRejected},
		{"deadline exceeded", context.DeadlineExceeded, types.ErrUserRejected},
		{"opaque failure", errors.New("boom"), types.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.Equal(t, tt.want, classified.Kind)
			require.ErrorIs(t, classified, tt.err)
		})
	}
}
