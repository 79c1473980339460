package wallet

import (
	"strings"
	"sync"

	"zerodust/pkg/types"
)

// Compatibility classifies a provider's ability to sign delegation
// authorizations.
type Compatibility string

const (
	CompatUnknown      Compatibility = "unknown"
	CompatChecking     Compatibility = "checking"
	CompatCompatible   Compatibility = "compatible"
	CompatIncompatible Compatibility = "incompatible"
	CompatPartial      Compatibility = "partial"
)

// Providers known to sign delegation authorizations.
var knownCompatible = map[string]bool{
	"local-key": true,
	"metamask":  true,
	"rabby":     true,
	"ambire":    true,
}

// Providers known to support only part of the flow (no batching, or typed
// data quirks).
var knownPartial = map[string]bool{
	"coinbase wallet": true,
	"trust":           true,
	"zerion":          true,
}

// Detector tracks a provider's compatibility for the session.
//
// The initial tier is a heuristic from the provider's self-reported name and
// capabilities. It is advisory only: the sweep is always attempted, and a
// confirmed method-not-supported failure is what demotes the provider to
// incompatible. Demotion is terminal for the session.
type Detector struct {
	mu     sync.Mutex
	name   string
	compat Compatibility
}

// NewDetector classifies the provider heuristically.
func NewDetector(p Provider) *Detector {
	d := &Detector{name: p.Name(), compat: CompatUnknown}

	key := strings.ToLower(p.Name())
	switch {
	case !p.Capabilities().CanSignAuthorization:
		// Self-reported, still only advisory until a signing attempt fails
		d.compat = CompatPartial
	case knownCompatible[key]:
		d.compat = CompatCompatible
	case knownPartial[key]:
		d.compat = CompatPartial
	}
	return d
}

// Status returns the provider name and current compatibility tier.
func (d *Detector) Status() (string, Compatibility) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name, d.compat
}

// Compatible reports whether the provider has not been ruled out.
func (d *Detector) Compatible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.compat != CompatIncompatible
}

// Observe revises the classification from a signing failure. Only a
// confirmed wallet-incompatible error demotes, and the demotion sticks.
func (d *Detector) Observe(err error) {
	if !types.IsKind(err, types.ErrWalletIncompatible) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compat = CompatIncompatible
}
