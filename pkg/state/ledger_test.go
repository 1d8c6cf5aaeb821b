package state

import (
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
)

const (
	testKey     = "contract-key"
	testCompany = proto.WalletAddress("company")
	testOwner   = proto.WalletAddress("owner")
)

var testStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func testSettings() *settings.EngineSettings {
	s := settings.DefaultEngineSettings()
	s.CompanyWallet = testCompany
	s.Owner = testOwner
	s.ContractKey = testKey
	return s
}

func testKVParams() keyvalue.Params {
	return keyvalue.Params{
		BloomFilterParams: keyvalue.BloomFilterParams{N: 1000, FalsePositiveProbability: 0.01},
		CacheParams:       keyvalue.CacheParams{Size: 512 * 1024},
	}
}

type fixture struct {
	l     *Ledger
	clock *ntptime.Stub
	user  Auth
	admin Auth
}

func newFixture(t *testing.T) *fixture {
	kv, err := keyvalue.NewMemKeyVal(testKVParams())
	require.NoError(t, err)
	clock := ntptime.NewStub(testStart)
	l, err := NewLedger(kv, testSettings(), clock, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, l.Close())
	})
	return &fixture{
		l:     l,
		clock: clock,
		user:  Auth{Sender: "client", Key: testKey},
		admin: Auth{Sender: testOwner, Key: testKey},
	}
}

func (f *fixture) member(t *testing.T, w proto.WalletAddress) *proto.Member {
	m, err := f.l.Member(w)
	require.NoError(t, err)
	return m
}

func (f *fixture) register(t *testing.T, w, sponsor proto.WalletAddress) *proto.Member {
	var u []proto.WalletAddress
	if !sponsor.Empty() {
		u = []proto.WalletAddress{sponsor}
	}
	m, err := f.l.Register(f.user, w, string(w), u)
	require.NoError(t, err)
	return m
}

func (f *fixture) deposit(t *testing.T, w proto.WalletAddress, units uint64) {
	_, err := f.l.Deposit(f.user, w, proto.ToNano(units))
	require.NoError(t, err)
}

func (f *fixture) summary(t *testing.T) Summary {
	s, err := f.l.Summary()
	require.NoError(t, err)
	return s
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)

	s := f.summary(t)
	assert.True(t, testStart.Equal(s.StartDate))
	assert.EqualValues(t, 1, s.NumberOfUsers)
	assert.EqualValues(t, 1, s.NumberOfSubscribedUsers)
	assert.Equal(t, testOwner, s.Owner)
	assert.Equal(t, testCompany, s.CompanyWallet)
	assert.Zero(t, s.CompanyBalance)
	assert.EqualValues(t, 1, s.LastSeq)

	c := f.member(t, testCompany)
	assert.Equal(t, proto.PackageLevel(proto.MaxPackageLevel), c.PackageLevel)
	require.True(t, c.Subscribed())
	assert.True(t, c.Matrix.Active)
	assert.False(t, c.Matrix.GracePeriod)
	assert.True(t, c.Matrix.Parent.Empty())
	assert.Equal(t, proto.MonthlyWithin30Days, c.Matrix.SubscriptionType)
	assert.True(t, c.Matrix.ExpirationDate.Equal(testStart.Add(settings.DefaultSubscriptionTerm)))
}

func TestNewLedgerInvalidSettings(t *testing.T) {
	kv, err := keyvalue.NewMemKeyVal(testKVParams())
	require.NoError(t, err)
	defer kv.Close()
	s := testSettings()
	s.ContractKey = ""
	_, err = NewLedger(kv, s, ntptime.NewStub(testStart), nil)
	assert.Error(t, err)
}

func TestReopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	clock := ntptime.NewStub(testStart)

	kv, err := keyvalue.NewKeyVal(dir, testKVParams())
	require.NoError(t, err)
	l, err := NewLedger(kv, testSettings(), clock, nil)
	require.NoError(t, err)
	user := Auth{Sender: "client", Key: testKey}
	_, err = l.Register(user, "alice", "alice", nil)
	require.NoError(t, err)
	_, err = l.Deposit(user, "alice", proto.ToNano(7))
	require.NoError(t, err)
	require.EqualValues(t, 3, l.LastSeq())
	require.NoError(t, l.Close())

	clock.Advance(time.Hour)
	kv, err = keyvalue.NewKeyVal(dir, testKVParams())
	require.NoError(t, err)
	l, err = NewLedger(kv, testSettings(), clock, nil)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, l.Close())
	}()
	assert.EqualValues(t, 3, l.LastSeq())
	s, err := l.Summary()
	require.NoError(t, err)
	assert.True(t, testStart.Equal(s.StartDate))
	assert.EqualValues(t, 2, s.NumberOfUsers)
	m, err := l.Member("alice")
	require.NoError(t, err)
	assert.Equal(t, proto.ToNano(7), m.Balance)
}

func TestUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "")

	_, err := f.l.Register(Auth{Sender: "client", Key: "wrong"}, "bob", "bob", nil)
	assert.ErrorIs(t, err, errs.Unauthorized{})
	_, err = f.l.Deposit(Auth{Key: ""}, "alice", proto.ToNano(1))
	assert.ErrorIs(t, err, errs.Unauthorized{})

	// a valid key is not enough for admin operations
	_, err = f.l.AdminWithdrawal(f.user, 1)
	assert.ErrorIs(t, err, errs.Unauthorized{})
	err = f.l.ChangeOwner(Auth{Sender: "alice", Key: testKey}, "alice")
	assert.ErrorIs(t, err, errs.Unauthorized{})
	_, err = f.l.MonthlyDistributionList(Auth{Sender: testOwner, Key: "wrong"}, nil)
	assert.ErrorIs(t, err, errs.Unauthorized{})

	assert.EqualValues(t, 2, f.l.LastSeq())
	assert.Equal(t, testOwner, f.summary(t).Owner)
}

func TestTransactionLog(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "")
	f.deposit(t, "alice", 10)
	_, err := f.l.Withdraw(f.user, "alice", proto.ToNano(4))
	require.NoError(t, err)
	_, err = f.l.Withdraw(f.user, "alice", proto.ToNano(40))
	require.ErrorIs(t, err, errs.InsufficientBalance{})

	snap, err := f.l.Snapshot()
	require.NoError(t, err)
	defer snap.Release()
	assert.EqualValues(t, 4, snap.LastSeq())

	txs, err := snap.Transactions(0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	kinds := make([]TxKind, 0, len(txs))
	ids := make(map[string]struct{})
	for i, tx := range txs {
		assert.EqualValues(t, i+1, tx.Seq)
		assert.NotEmpty(t, tx.ID)
		assert.True(t, tx.Timestamp.Equal(testStart))
		kinds = append(kinds, tx.Kind)
		ids[tx.ID] = struct{}{}
		id, err := tx.digestID()
		require.NoError(t, err)
		assert.Equal(t, tx.ID, id)
	}
	assert.Len(t, ids, 4)
	assert.Equal(t, []TxKind{TxBootstrap, TxRegister, TxDeposit, TxWithdraw}, kinds)
	assert.Equal(t, proto.ToNano(4), txs[3].Amount)
	assert.Equal(t, proto.WalletAddress("alice"), txs[3].Wallet)
	assert.Equal(t, proto.WalletAddress("client"), txs[3].Sender)

	page, err := snap.Transactions(3, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, TxDeposit, page[0].Kind)

	page, err = snap.Transactions(5, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestSnapshotIsolation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "")

	snap, err := f.l.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	f.deposit(t, "alice", 5)
	f.register(t, "bob", "alice")

	m, err := snap.Member("alice")
	require.NoError(t, err)
	assert.Zero(t, m.Balance)
	assert.Empty(t, m.Invited)
	_, err = snap.Member("bob")
	assert.ErrorIs(t, err, errs.NotRegistered{})

	var wallets []proto.WalletAddress
	require.NoError(t, snap.Members(func(m *proto.Member) bool {
		wallets = append(wallets, m.Wallet)
		return true
	}))
	assert.ElementsMatch(t, []proto.WalletAddress{"alice", testCompany}, wallets)

	subscribed, err := snap.SubscribedMembers()
	require.NoError(t, err)
	require.Len(t, subscribed, 1)
	assert.Equal(t, testCompany, subscribed[0].Wallet)
}
