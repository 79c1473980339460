package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"zerodust/pkg/types"
)

// Backend wraps the ZeroDust REST API.
type Backend struct {
	baseURL  string
	priceURL string
	http     *http.Client
	log      *logrus.Logger
}

// NewBackend creates a client for the ZeroDust API. priceURL may equal
// baseURL when prices are served from the same host.
func NewBackend(baseURL, priceURL string, log *logrus.Logger) *Backend {
	if log == nil {
		log = logrus.New()
	}
	return &Backend{
		baseURL:  baseURL,
		priceURL: priceURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// GetQuote requests a sweep quote for the user's full balance on the source
// chain, paid out to destination on the destination chain.
func (b *Backend) GetQuote(ctx context.Context, fromChainID, toChainID uint64, user, destination common.Address) (*types.Quote, error) {
	url := fmt.Sprintf("%s/quote?fromChainId=%d&toChainId=%d&userAddress=%s&destination=%s",
		b.baseURL, fromChainID, toChainID, user.Hex(), destination.Hex())

	var quote types.Quote
	if err := b.doJSON(ctx, http.MethodGet, url, nil, nil, &quote); err != nil {
		return nil, err
	}
	if err := quote.Validate(); err != nil {
		return nil, types.WrapError(types.ErrValidationFailed, err, "backend returned an unusable quote")
	}
	return &quote, nil
}

// SubmitSweep hands the signed bundle to the backend. The request carries a
// client-generated idempotency key so a retried POST can never double-submit
// the one-shot nonce sequence.
func (b *Backend) SubmitSweep(ctx context.Context, req *types.SubmitRequest) (*types.SubmitResponse, error) {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	var resp types.SubmitResponse
	if err := b.doJSON(ctx, http.MethodPost, b.baseURL+"/sweep", req, headers, &resp); err != nil {
		return nil, err
	}
	if resp.SweepID == "" {
		return nil, types.NewError(types.ErrBackendRejected, "", "backend accepted the sweep but returned no sweepId")
	}

	b.log.WithFields(logrus.Fields{
		"sweepId":   resp.SweepID,
		"sweepType": resp.SweepType,
	}).Info("sweep submitted")
	return &resp, nil
}

// GetSweepStatus fetches the current execution state of a sweep.
func (b *Backend) GetSweepStatus(ctx context.Context, sweepID string) (*types.SweepRecord, error) {
	var rec types.SweepRecord
	if err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/sweep/"+sweepID, nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetPrices fetches the full price-by-symbol snapshot.
func (b *Backend) GetPrices(ctx context.Context) (map[string]types.TokenPrice, error) {
	var prices map[string]types.TokenPrice
	if err := b.doJSON(ctx, http.MethodGet, b.priceURL+"/prices", nil, nil, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// apiError is the backend's structured rejection body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (b *Backend) doJSON(ctx context.Context, method, url string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return types.WrapError(types.ErrNetworkTransient, err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return types.NewError(types.ErrNetworkTransient, "", "API returned status code %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Try to extract the actual error message from the response
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(bodyBytes) > 0 {
			var rejection apiError
			if jsonErr := json.Unmarshal(bodyBytes, &rejection); jsonErr == nil && rejection.Message != "" {
				return types.NewError(types.ErrBackendRejected, rejection.Code,
					"API error (status %d): %s", resp.StatusCode, rejection.Message)
			}
			return types.NewError(types.ErrBackendRejected, "",
				"API error (status %d): %s", resp.StatusCode, string(bodyBytes))
		}
		return types.NewError(types.ErrBackendRejected, "", "API returned status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.WrapError(types.ErrNetworkTransient, err, "failed to decode response from %s", url)
	}
	return nil
}
