package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zerodust/pkg/types"
)

// pollScript serves one canned response per status poll, repeating the last
// entry once the script runs out.
type pollScript struct {
	calls     int
	responses []func(w http.ResponseWriter)
}

func (p *pollScript) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := p.calls
		p.calls++
		if i >= len(p.responses) {
			i = len(p.responses) - 1
		}
		p.responses[i](w)
	}
}

func record(rec types.SweepRecord) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(rec)
	}
}

func serverError() func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func fastPollOptions() PollOptions {
	return PollOptions{
		Interval:         time.Millisecond,
		BridgingInterval: time.Millisecond,
	}
}

func TestPollSweepStopsOnTerminalStatus(t *testing.T) {
	script := &pollScript{responses: []func(http.ResponseWriter){
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepCompleted, TxHash: "0xaa"}),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	b := NewBackend(server.URL, server.URL, nil)
	rec, err := b.PollSweep(context.Background(), "s-1", fastPollOptions())
	require.NoError(t, err)
	require.Equal(t, types.SweepCompleted, rec.Status)
	require.Equal(t, 1, script.calls)
}

func TestPollSweepReportsEveryUpdate(t *testing.T) {
	script := &pollScript{responses: []func(http.ResponseWriter){
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing}),
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing, TxHash: "0xaa"}),
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepCompleted, TxHash: "0xaa"}),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	var seen []types.SweepStatus
	opts := fastPollOptions()
	opts.OnUpdate = func(rec *types.SweepRecord) {
		seen = append(seen, rec.Status)
	}

	b := NewBackend(server.URL, server.URL, nil)
	_, err := b.PollSweep(context.Background(), "s-1", opts)
	require.NoError(t, err)
	require.Equal(t, []types.SweepStatus{
		types.SweepProcessing,
		types.SweepProcessing,
		types.SweepCompleted,
	}, seen)
}

func TestPollSweepAbsorbsTransientFailures(t *testing.T) {
	script := &pollScript{responses: []func(http.ResponseWriter){
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing, TxHash: "0xaa"}),
		serverError(),
		serverError(),
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepCompleted, TxHash: "0xaa"}),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	b := NewBackend(server.URL, server.URL, nil)
	rec, err := b.PollSweep(context.Background(), "s-1", fastPollOptions())
	require.NoError(t, err)
	require.Equal(t, types.SweepCompleted, rec.Status)
	require.Equal(t, 4, script.calls)
}

func TestPollSweepDegradesToLastKnownWithTxHash(t *testing.T) {
	// After three consecutive misses the last status that carries a tx hash
	// comes back as a degraded success.
	script := &pollScript{responses: []func(http.ResponseWriter){
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing, TxHash: "0xaa"}),
		serverError(),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	b := NewBackend(server.URL, server.URL, nil)
	rec, err := b.PollSweep(context.Background(), "s-1", fastPollOptions())
	require.NoError(t, err)
	require.Equal(t, types.SweepProcessing, rec.Status)
	require.Equal(t, "0xaa", rec.TxHash)
	require.Equal(t, 4, script.calls) // 1 success + 3 misses
}

func TestPollSweepFailsWithoutTxHash(t *testing.T) {
	script := &pollScript{responses: []func(http.ResponseWriter){
		record(types.SweepRecord{SweepID: "s-1", Status: types.SweepPending}),
		serverError(),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	b := NewBackend(server.URL, server.URL, nil)
	_, err := b.PollSweep(context.Background(), "s-1", fastPollOptions())
	require.Error(t, err)
	require.True(t, types.IsKind(err, types.ErrNetworkTransient))
}

func TestPollSweepBudgetExhaustion(t *testing.T) {
	stuck := record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing})
	script := &pollScript{responses: []func(http.ResponseWriter){stuck}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	opts := fastPollOptions()
	opts.MaxAttempts = 5

	b := NewBackend(server.URL, server.URL, nil)
	_, err := b.PollSweep(context.Background(), "s-1", opts)
	require.Error(t, err)
	require.True(t, types.IsKind(err, types.ErrTimeout))
	require.Equal(t, 5, script.calls)
}

func TestPollSweepBudgetExhaustionWithTxHash(t *testing.T) {
	stuck := record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing, TxHash: "0xaa"})
	script := &pollScript{responses: []func(http.ResponseWriter){stuck}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	opts := fastPollOptions()
	opts.MaxAttempts = 3

	b := NewBackend(server.URL, server.URL, nil)
	rec, err := b.PollSweep(context.Background(), "s-1", opts)
	require.NoError(t, err)
	require.Equal(t, "0xaa", rec.TxHash)
	require.False(t, rec.Status.Terminal())
}

func TestPollSweepHonorsContextCancellation(t *testing.T) {
	stuck := record(types.SweepRecord{SweepID: "s-1", Status: types.SweepProcessing})
	script := &pollScript{responses: []func(http.ResponseWriter){stuck}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	opts := PollOptions{Interval: time.Hour}
	b := NewBackend(server.URL, server.URL, nil)
	_, err := b.PollSweep(ctx, "s-1", opts)
	require.Error(t, err)
	require.True(t, types.IsKind(err, types.ErrNetworkTransient))
}
