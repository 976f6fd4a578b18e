package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const fakeValidToken = "valid-token"

// FakeGateway is an in-process gateway that accepts exactly one token.
type FakeGateway struct {
	mu                sync.Mutex
	charges           []int64
	attempts          int
	beforeFirstCharge func(*FakeGateway)
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (g *FakeGateway) ValidTestToken() string {
	return fakeValidToken
}

// Charge records the attempt, runs the before-first-charge hook once, then
// accepts or declines the token.
func (g *FakeGateway) Charge(ctx context.Context, amount int64, token string) (string, error) {
	g.mu.Lock()
	g.attempts++
	hook := g.beforeFirstCharge
	g.beforeFirstCharge = nil
	g.mu.Unlock()

	if hook != nil {
		hook(g)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if token != fakeValidToken {
		return "", fmt.Errorf("%w: invalid payment token", domain.ErrPaymentFailed)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, amount)
	return fmt.Sprintf("ch_fake_%d", len(g.charges)), nil
}

// TotalCharges sums every successful charge.
func (g *FakeGateway) TotalCharges() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	var total int64
	for _, amount := range g.charges {
		total += amount
	}
	return total
}

// Attempts counts every Charge call, successful or not.
func (g *FakeGateway) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// BeforeFirstCharge installs a hook that runs inside the first Charge call,
// after the attempt is counted and before the charge is accepted.
func (g *FakeGateway) BeforeFirstCharge(fn func(*FakeGateway)) {
	g.mu.Lock()
	g.beforeFirstCharge = fn
	g.mu.Unlock()
}

// NewChargesDuring returns the amounts of charges made while fn runs.
func (g *FakeGateway) NewChargesDuring(fn func(*FakeGateway)) []int64 {
	g.mu.Lock()
	from := len(g.charges)
	g.mu.Unlock()

	fn(g)

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int64, len(g.charges)-from)
	copy(out, g.charges[from:])
	return out
}
