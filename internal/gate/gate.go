// Package gate implements the verification state machine that bounds the
// requested token supply by the verified bank balance.
package gate

import (
	"fmt"
	"math"
	"strconv"

	"stablemint/internal/domain"
)

// State is the verification progress of one linking flow.
type State string

const (
	StateUnverified State = "unverified"
	StateVerifying  State = "verifying"
	StateVerified   State = "verified"
)

// Gate tracks one wallet's verification flow. It is held by a single
// flow at a time and is not safe for concurrent use.
type Gate struct {
	state    State
	snapshot domain.BankSnapshot
}

// New returns a gate in the unverified state.
func New() *Gate {
	return &Gate{state: StateUnverified}
}

// State returns the current verification state.
func (g *Gate) State() State { return g.state }

// Begin marks the flow as verifying. Called when a link handle is
// requested.
func (g *Gate) Begin() {
	g.state = StateVerifying
	g.snapshot = domain.BankSnapshot{}
}

// Complete records a successful exchange and moves to verified.
func (g *Gate) Complete(snapshot domain.BankSnapshot) {
	g.state = StateVerified
	g.snapshot = snapshot
}

// Fail returns the gate to unverified, discarding any snapshot.
func (g *Gate) Fail() {
	g.state = StateUnverified
	g.snapshot = domain.BankSnapshot{}
}

// Snapshot returns the verified snapshot. Zero value unless verified.
func (g *Gate) Snapshot() domain.BankSnapshot { return g.snapshot }

// CanProceed reports whether the requested supply is authorized:
// the gate is verified and supply ≤ available balance. Equality
// proceeds. Supply strings that do not parse to a positive finite
// number never proceed; the caller routes back to supply entry rather
// than clamping.
func (g *Gate) CanProceed(supply string) bool {
	if g.state != StateVerified {
		return false
	}
	v, err := parseSupply(supply)
	if err != nil {
		return false
	}
	return v <= g.snapshot.AvailableBalance
}

// UseMax returns the largest authorized supply, the available balance.
// This is the only clamping the gate offers; it is never applied
// implicitly.
func (g *Gate) UseMax() (string, error) {
	if g.state != StateVerified {
		return "", fmt.Errorf("gate: not verified")
	}
	return strconv.FormatFloat(g.snapshot.AvailableBalance, 'f', -1, 64), nil
}

func parseSupply(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("gate: parse supply %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("gate: supply %q out of range", s)
	}
	return v, nil
}
