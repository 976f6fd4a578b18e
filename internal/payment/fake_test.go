package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

func TestFakeGateway_ChargesWithValidToken(t *testing.T) {
	t.Parallel()

	g := NewFakeGateway()

	id, err := g.Charge(context.Background(), 2500, g.ValidTestToken())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, int64(2500), g.TotalCharges())
}

func TestFakeGateway_DeclinesInvalidToken(t *testing.T) {
	t.Parallel()

	g := NewFakeGateway()

	_, err := g.Charge(context.Background(), 2500, "invalid-payment-token")
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.Equal(t, int64(0), g.TotalCharges())
	assert.Equal(t, 1, g.Attempts())
}

func TestFakeGateway_BeforeFirstChargeRunsOnce(t *testing.T) {
	t.Parallel()

	g := NewFakeGateway()
	calls := 0
	var attemptsSeen int
	var totalSeen int64
	g.BeforeFirstCharge(func(g *FakeGateway) {
		calls++
		attemptsSeen = g.Attempts()
		totalSeen = g.TotalCharges()
	})

	_, err := g.Charge(context.Background(), 2500, g.ValidTestToken())
	require.NoError(t, err)
	_, err = g.Charge(context.Background(), 2500, g.ValidTestToken())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attemptsSeen, "hook runs after the attempt is recorded")
	assert.Equal(t, int64(0), totalSeen, "hook runs before the first charge is added")
	assert.Equal(t, int64(5000), g.TotalCharges())
}

func TestFakeGateway_HookCanChargeReentrantly(t *testing.T) {
	t.Parallel()

	g := NewFakeGateway()
	g.BeforeFirstCharge(func(g *FakeGateway) {
		_, err := g.Charge(context.Background(), 100, g.ValidTestToken())
		assert.NoError(t, err)
	})

	_, err := g.Charge(context.Background(), 200, g.ValidTestToken())
	require.NoError(t, err)
	assert.Equal(t, int64(300), g.TotalCharges())
}

func TestFakeGateway_NewChargesDuring(t *testing.T) {
	t.Parallel()

	g := NewFakeGateway()
	_, err := g.Charge(context.Background(), 2000, g.ValidTestToken())
	require.NoError(t, err)
	_, err = g.Charge(context.Background(), 3000, g.ValidTestToken())
	require.NoError(t, err)

	charges := g.NewChargesDuring(func(g *FakeGateway) {
		_, _ = g.Charge(context.Background(), 4000, g.ValidTestToken())
		_, _ = g.Charge(context.Background(), 5000, "bad-token")
		_, _ = g.Charge(context.Background(), 6000, g.ValidTestToken())
	})

	assert.Equal(t, []int64{4000, 6000}, charges)
	assert.Equal(t, int64(15000), g.TotalCharges())
}
