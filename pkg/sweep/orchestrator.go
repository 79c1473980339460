package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"zerodust/pkg/client"
	"zerodust/pkg/types"
	"zerodust/pkg/wallet"
)

// State is the orchestrator's position in the sweep lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSigning    State = "signing"
	StateSubmitting State = "submitting"
	StateProcessing State = "processing"
	StateBridging   State = "bridging"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Terminal reports whether the state ends an attempt.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}

// validTransitions is the closed transition table. Anything not listed is a
// programming error.
var validTransitions = map[State][]State{
	StateIdle:       {StateSigning},
	StateSigning:    {StateSubmitting, StateError},
	StateSubmitting: {StateProcessing, StateError},
	StateProcessing: {StateBridging, StateSuccess, StateError},
	StateBridging:   {StateSuccess, StateError},
	StateSuccess:    {StateIdle},
	StateError:      {StateIdle},
}

// API is the backend surface the orchestrator drives. *client.Backend
// satisfies it; tests inject fakes.
type API interface {
	SubmitSweep(ctx context.Context, req *types.SubmitRequest) (*types.SubmitResponse, error)
	PollSweep(ctx context.Context, sweepID string, opts client.PollOptions) (*types.SweepRecord, error)
}

// Orchestrator runs one sweep at a time through signing, submission, and
// status polling, exposing a single status and error surface.
//
// It is stateless across sessions: a reset discards everything.
type Orchestrator struct {
	api      API
	provider wallet.Provider
	detector *wallet.Detector
	auth     *AuthorizationSigner
	intent   *IntentSigner
	poll     client.PollOptions
	log      *logrus.Logger

	// OnTransition and OnPoll let a UI observe progress. Both are invoked
	// from the goroutine running Run.
	OnTransition func(State)
	OnPoll       func(*types.SweepRecord)

	mu      sync.Mutex
	state   State
	record  *types.SweepRecord
	lastErr error
}

// New creates an orchestrator around a backend API and a wallet port.
func New(api API, provider wallet.Provider, detector *wallet.Detector, poll client.PollOptions, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	return &Orchestrator{
		api:      api,
		provider: provider,
		detector: detector,
		auth:     NewAuthorizationSigner(provider, detector, log),
		intent:   NewIntentSigner(provider, log),
		poll:     poll,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Record returns the latest known sweep record, if any.
func (o *Orchestrator) Record() *types.SweepRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record
}

// Err returns the classified error of a failed attempt.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Run executes a sweep for the given quote. sweeper is the delegation
// target contract for the quote's chain.
//
// Validation failures happen before any wallet interaction and leave the
// machine in idle. Once the submission has been accepted there is no
// cancellation: canceling the context merely stops polling.
func (o *Orchestrator) Run(ctx context.Context, q *types.Quote, sweeper common.Address) (*types.SweepRecord, error) {
	if err := o.begin(q, sweeper); err != nil {
		return nil, err
	}

	// Signing: delegate authorization, revoke authorization, then intent,
	// strictly in that order. Nothing has been submitted yet, so any
	// failure leaves the account untouched.
	delegate, revoke, err := o.auth.Sign(ctx, q.ChainID, sweeper, q.AuthNonce)
	if err != nil {
		return nil, o.fail(err)
	}
	intentSig, err := o.intent.Sign(ctx, q)
	if err != nil {
		return nil, o.fail(err)
	}

	o.transition(StateSubmitting)
	resp, err := o.api.SubmitSweep(ctx, &types.SubmitRequest{
		QuoteID:               q.QuoteID,
		IntentSignature:       intentSig,
		DelegateAuthorization: delegate,
		RevokeAuthorization:   revoke,
	})
	if err != nil {
		return nil, o.fail(err)
	}

	o.transition(StateProcessing)
	o.setRecord(&types.SweepRecord{SweepID: resp.SweepID, Status: resp.Status})

	opts := o.poll
	opts.OnUpdate = func(rec *types.SweepRecord) {
		o.setRecord(rec)
		if rec.Status == types.SweepBridging && o.State() == StateProcessing {
			o.transition(StateBridging)
		}
		if o.OnPoll != nil {
			o.OnPoll(rec)
		}
	}

	rec, err := o.api.PollSweep(ctx, resp.SweepID, opts)
	if err != nil {
		return nil, o.fail(err)
	}
	o.setRecord(rec)

	if rec.Status == types.SweepFailed {
		return rec, o.fail(types.NewError(types.ErrBackendRejected, "sweep_failed",
			"sweep failed: %s", rec.Error))
	}

	// Completed, or a degraded last-known status with a tx hash the user
	// can verify on-chain.
	o.transition(StateSuccess)
	o.log.WithFields(logrus.Fields{
		"sweepId": rec.SweepID,
		"status":  rec.Status,
		"txHash":  rec.TxHash,
	}).Info("sweep finished")
	return rec, nil
}

// Reset returns the machine to idle. It is the only user-initiated
// cancellation point and is valid only from a terminal state.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	if !o.state.Terminal() {
		o.mu.Unlock()
		return types.NewError(types.ErrValidationFailed, "", "cannot reset while a sweep is in progress")
	}
	o.state = StateIdle
	o.record = nil
	o.lastErr = nil
	o.mu.Unlock()

	o.notify(StateIdle)
	return nil
}

// begin validates the attempt and moves idle -> signing. Any rejection
// leaves the machine in idle.
func (o *Orchestrator) begin(q *types.Quote, sweeper common.Address) error {
	o.mu.Lock()

	if err := o.checkAttempt(q, sweeper); err != nil {
		o.mu.Unlock()
		return err
	}

	o.setState(StateSigning)
	o.mu.Unlock()
	o.notify(StateSigning)
	return nil
}

// checkAttempt holds every validation that must pass before the first
// wallet interaction. Callers hold the mutex.
func (o *Orchestrator) checkAttempt(q *types.Quote, sweeper common.Address) error {
	if o.state != StateIdle {
		return types.NewError(types.ErrValidationFailed, "", "a sweep attempt is already in progress")
	}
	if q == nil {
		return types.NewError(types.ErrValidationFailed, "", "no quote available")
	}
	if err := q.Validate(); err != nil {
		return types.WrapError(types.ErrValidationFailed, err, "quote is not usable")
	}
	if q.Expired(time.Now()) {
		return types.NewError(types.ErrValidationFailed, "quote_expired", "quote expired, request a new one")
	}
	if sweeper == (common.Address{}) {
		return types.NewError(types.ErrValidationFailed, "", "no sweeper contract configured for chain %d", q.ChainID)
	}
	if q.User != (common.Address{}) && q.User != o.provider.Address() {
		return types.NewError(types.ErrValidationFailed, "", "quote was issued for a different account")
	}
	return nil
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	o.setState(to)
	o.mu.Unlock()
	o.notify(to)
}

// setState enforces the transition table. Callers hold the mutex.
func (o *Orchestrator) setState(to State) {
	allowed := false
	for _, next := range validTransitions[o.state] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		o.log.WithFields(logrus.Fields{"from": o.state, "to": to}).
			Panic("invalid sweep state transition")
	}
	o.state = to
}

func (o *Orchestrator) notify(to State) {
	if o.OnTransition != nil {
		o.OnTransition(to)
	}
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.setState(StateError)
	o.lastErr = err
	o.mu.Unlock()

	o.notify(StateError)
	o.log.WithError(err).Error("sweep attempt failed")
	return err
}

func (o *Orchestrator) setRecord(rec *types.SweepRecord) {
	o.mu.Lock()
	o.record = rec
	o.mu.Unlock()
}
