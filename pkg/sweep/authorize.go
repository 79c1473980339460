package sweep

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

// AuthorizationSigner produces the delegation pair a sweep needs: one
// authorization delegating the account to the sweeper contract, and one
// revoking it again so the account is a plain account after a single
// transaction slot.
type AuthorizationSigner struct {
	provider wallet.Provider
	detector *wallet.Detector
	log      *logrus.Logger
}

// NewAuthorizationSigner wires the signer to a wallet port and its detector.
func NewAuthorizationSigner(provider wallet.Provider, detector *wallet.Detector, log *logrus.Logger) *AuthorizationSigner {
	if log == nil {
		log = logrus.New()
	}
	return &AuthorizationSigner{provider: provider, detector: detector, log: log}
}

// Sign requests both authorizations. The revoke nonce is authNonce+1 because
// it executes after the sweep transaction consumes the first nonce.
//
// Wallets that can batch get a single prompt; others get two sequential
// prompts. Either path yields structurally identical results. A failure at
// any point aborts with nothing committed, and a confirmed
// method-not-supported error demotes the provider's compatibility.
func (s *AuthorizationSigner) Sign(ctx context.Context, chainID uint64, sweeper common.Address, authNonce uint64) (delegate, revoke *types.Authorization, err error) {
	reqs := []wallet.AuthorizationRequest{
		{ChainID: chainID, DelegateTo: sweeper, Nonce: authNonce},
		{ChainID: chainID, DelegateTo: common.Address{}, Nonce: authNonce + 1},
	}

	if s.provider.Capabilities().CanBatchAuthorization {
		auths, batchErr := s.provider.SignAuthorizationBatch(ctx, reqs)
		if batchErr != nil {
			return nil, nil, s.classify(batchErr)
		}
		if len(auths) != len(reqs) {
			return nil, nil, types.NewError(types.ErrValidationFailed, "",
				"wallet returned %d authorizations, expected %d", len(auths), len(reqs))
		}
		s.log.WithField("wallet", s.provider.Name()).Debug("authorization pair signed in one prompt")
		return auths[0], auths[1], nil
	}

	delegate, err = s.provider.SignAuthorization(ctx, reqs[0])
	if err != nil {
		return nil, nil, s.classify(err)
	}
	revoke, err = s.provider.SignAuthorization(ctx, reqs[1])
	if err != nil {
		return nil, nil, s.classify(err)
	}
	s.log.WithField("wallet", s.provider.Name()).Debug("authorization pair signed sequentially")
	return delegate, revoke, nil
}

func (s *AuthorizationSigner) classify(err error) error {
	classified := wallet.ClassifyError(err)
	if s.detector != nil {
		s.detector.Observe(classified)
	}
	return classified
}
