package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/libs/ntptime"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/settings"
	"github.com/tonclub/hypersonic/pkg/state"
)

const (
	testKey     = "contract-key"
	testCompany = proto.WalletAddress("company")
	testOwner   = proto.WalletAddress("owner")
)

var (
	user  = state.Auth{Sender: "client", Key: testKey}
	admin = state.Auth{Sender: testOwner, Key: testKey}
)

func newLedger(t *testing.T, batchSize int) (*state.Ledger, *ntptime.Stub) {
	kv, err := keyvalue.NewMemKeyVal(keyvalue.Params{
		BloomFilterParams: keyvalue.BloomFilterParams{N: 1000, FalsePositiveProbability: 0.01},
		CacheParams:       keyvalue.CacheParams{Size: 512 * 1024},
	})
	require.NoError(t, err)
	s := settings.DefaultEngineSettings()
	s.CompanyWallet = testCompany
	s.Owner = testOwner
	s.ContractKey = testKey
	s.DistributionBatchSize = batchSize
	clock := ntptime.NewStub(viewNow)
	l, err := state.NewLedger(kv, s, clock, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, l.Close())
	})
	return l, clock
}

func fastRetry() RetryParams {
	return RetryParams{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxTries: 3}
}

func register(t *testing.T, l *state.Ledger, w proto.WalletAddress, deposit uint64) {
	_, err := l.Register(user, w, string(w), nil)
	require.NoError(t, err)
	if deposit > 0 {
		_, err = l.Deposit(user, w, proto.ToNano(deposit))
		require.NoError(t, err)
	}
}

// racingLedger lets a competitor take the proposed slot right before the first commit.
type racingLedger struct {
	*state.Ledger
	competitor proto.WalletAddress
	calls      int
}

func (r *racingLedger) SubscribeToMatrix(auth state.Auth, p proto.SubscribeProposal) (*proto.Member, error) {
	r.calls++
	if r.calls == 1 {
		c := p
		c.Wallet = r.competitor
		if _, err := r.Ledger.SubscribeToMatrix(auth, c); err != nil {
			return nil, err
		}
	}
	return r.Ledger.SubscribeToMatrix(auth, p)
}

func TestPlannerSubscribeRetriesTakenSlot(t *testing.T) {
	l, clock := newLedger(t, 10)
	register(t, l, "alice", 10)
	register(t, l, "bob", 10)
	rl := &racingLedger{Ledger: l, competitor: "bob"}
	p := New(rl, clock, zaptest.NewLogger(t), fastRetry(), 2)

	m, err := p.Subscribe(context.Background(), user, "alice", proto.MonthlyWithin30Days)
	require.NoError(t, err)
	assert.Equal(t, 2, rl.calls)
	assert.Equal(t, testCompany, m.Matrix.Parent)

	c, err := l.Member(testCompany)
	require.NoError(t, err)
	assert.Equal(t, proto.WalletAddress("bob"), c.Matrix.Child(proto.Left))
	assert.Equal(t, proto.WalletAddress("alice"), c.Matrix.Child(proto.Middle))
}

func TestPlannerSubscribeDoesNotRetryOtherErrors(t *testing.T) {
	l, clock := newLedger(t, 10)
	register(t, l, "alice", 1)
	rl := &racingLedger{Ledger: l, competitor: "nobody"}
	p := New(rl, clock, nil, fastRetry(), 2)

	// the competitor is not registered, its subscription fails first and is not retried
	_, err := p.Subscribe(context.Background(), user, "alice", proto.MonthlyWithin30Days)
	assert.ErrorIs(t, err, errs.NotRegistered{})
	assert.Equal(t, 1, rl.calls)

	rl.calls = 2
	_, err = p.Subscribe(context.Background(), user, "alice", proto.MonthlyWithin30Days)
	assert.ErrorIs(t, err, errs.InsufficientBalance{})
	assert.Equal(t, 3, rl.calls)
}

func TestPlannerUpgrade(t *testing.T) {
	l, clock := newLedger(t, 10)
	register(t, l, "alice", 100)
	p := New(l, clock, nil, fastRetry(), 2)

	m, err := p.Upgrade(user, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, proto.ToNano(97), m.Balance)

	_, err = p.Upgrade(user, "alice", proto.MaxPackageLevel)
	assert.ErrorIs(t, err, errs.InvalidLevel{})
}

func TestPlannerRunMonthly(t *testing.T) {
	l, clock := newLedger(t, 1)
	register(t, l, "alice", 10)
	register(t, l, "bob", 100)
	p := New(l, clock, zaptest.NewLogger(t), fastRetry(), 2)
	ctx := context.Background()
	_, err := p.Subscribe(ctx, user, "alice", proto.MonthlyWithin30Days)
	require.NoError(t, err)
	_, err = p.Subscribe(ctx, user, "bob", proto.YearlyAfter30Days)
	require.NoError(t, err)

	_, err = p.RunMonthly(ctx, user)
	assert.ErrorIs(t, err, errs.Unauthorized{})

	entries, err := p.RunMonthly(ctx, admin)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	wallets := []proto.WalletAddress{entries[0].Distribution.Wallet, entries[1].Distribution.Wallet, entries[2].Distribution.Wallet}
	assert.Equal(t, []proto.WalletAddress{"alice", "bob", testCompany}, wallets)

	assert.Equal(t, proto.OutcomeFeeCovered, entries[0].Result.Outcome)
	assert.Equal(t, proto.ToNano(5), entries[0].Distribution.SubscriptionFee)
	assert.Equal(t, proto.OutcomeFeeCovered, entries[1].Result.Outcome)
	assert.Zero(t, entries[1].Distribution.SubscriptionFee)
	assert.Equal(t, proto.OutcomeGracePeriod, entries[2].Result.Outcome)
	assert.Equal(t, proto.PackageLevel(proto.MaxPackageLevel), entries[2].PackageLevel)

	alice, err := l.Member("alice")
	require.NoError(t, err)
	assert.Zero(t, alice.Balance)
	assert.True(t, alice.Matrix.Active)
}
