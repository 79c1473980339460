package client

import (
	"context"
	"time"

	"zerodust/pkg/types"
)

const (
	DefaultPollInterval         = 2 * time.Second
	DefaultBridgingPollInterval = 5 * time.Second // bridging resolves slowly, back off
	DefaultMaxPollAttempts      = 60
	DefaultMaxPollFailures      = 3
)

// PollOptions tunes PollSweep. Zero values fall back to the defaults above.
type PollOptions struct {
	Interval         time.Duration
	BridgingInterval time.Duration
	MaxAttempts      int
	MaxFailures      int
	// OnUpdate receives every successful poll response, terminal or not, so
	// the caller can surface tx hashes and received amounts incrementally.
	OnUpdate func(*types.SweepRecord)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.BridgingInterval <= 0 {
		o.BridgingInterval = DefaultBridgingPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxPollAttempts
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = DefaultMaxPollFailures
	}
	return o
}

// PollSweep polls a sweep until it reaches a terminal state or the attempt
// budget runs out.
//
// Transient network failures are absorbed up to MaxFailures consecutive
// misses. When the ceiling is hit, or the budget is exhausted, a last known
// status that already carries a transaction hash is returned as a degraded
// result so the user can verify on-chain; without a hash the failure
// propagates.
func (b *Backend) PollSweep(ctx context.Context, sweepID string, opts PollOptions) (*types.SweepRecord, error) {
	opts = opts.withDefaults()

	var lastKnown *types.SweepRecord
	failures := 0

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		rec, err := b.GetSweepStatus(ctx, sweepID)
		if err != nil {
			if ctx.Err() != nil {
				return lastKnown, types.WrapError(types.ErrNetworkTransient, ctx.Err(), "polling canceled")
			}
			failures++
			b.log.WithField("sweepId", sweepID).WithError(err).
				Warnf("status poll failed (%d consecutive)", failures)
			if failures >= opts.MaxFailures {
				if lastKnown != nil && lastKnown.TxHash != "" {
					b.log.WithField("sweepId", sweepID).
						Warn("poll retries exhausted, returning last known status")
					return lastKnown, nil
				}
				return nil, types.WrapError(types.ErrNetworkTransient, err,
					"lost contact with the backend while polling sweep %s", sweepID)
			}
			if err := sleep(ctx, opts.Interval); err != nil {
				return lastKnown, err
			}
			continue
		}

		failures = 0
		lastKnown = rec
		if opts.OnUpdate != nil {
			opts.OnUpdate(rec)
		}
		if rec.Status.Terminal() {
			return rec, nil
		}

		interval := opts.Interval
		if rec.Status == types.SweepBridging {
			interval = opts.BridgingInterval
		}
		if err := sleep(ctx, interval); err != nil {
			return lastKnown, err
		}
	}

	if lastKnown != nil && lastKnown.TxHash != "" {
		b.log.WithField("sweepId", sweepID).
			Warn("poll budget exhausted, returning last known status")
		return lastKnown, nil
	}
	return nil, types.NewError(types.ErrTimeout, "", "sweep %s did not complete within the polling budget", sweepID)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return types.WrapError(types.ErrNetworkTransient, ctx.Err(), "polling canceled")
	case <-timer.C:
		return nil
	}
}
