package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/matrix"
	"github.com/tonclub/hypersonic/pkg/proto"
)

var viewNow = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

const viewRoot = proto.WalletAddress("root")

type viewBuilder struct {
	v matrix.MapView
}

func newViewBuilder() *viewBuilder {
	b := &viewBuilder{v: matrix.MapView{}}
	b.v[viewRoot] = &proto.Member{
		Wallet:       viewRoot,
		PackageLevel: proto.MaxPackageLevel,
		Matrix: &proto.MatrixNode{
			SubscriptionType: proto.MonthlyWithin30Days,
			ExpirationDate:   viewNow.AddDate(1, 0, 0),
			Active:           true,
		},
	}
	return b
}

// register adds an unsubscribed member sponsored by sponsor.
func (b *viewBuilder) register(w, sponsor proto.WalletAddress, level proto.PackageLevel) *proto.Member {
	s := b.v[sponsor]
	m := &proto.Member{Wallet: w, Username: string(w), PackageLevel: level}
	m.Upline = append([]proto.WalletAddress{sponsor}, s.Upline...)
	s.Invited = append(s.Invited, w)
	b.v[w] = m
	return m
}

func (b *viewBuilder) subscribe(w, parent proto.WalletAddress, pos proto.MatrixPosition) {
	b.v[w].Matrix = &proto.MatrixNode{
		SubscriptionType: proto.MonthlyWithin30Days,
		RegistrationDate: viewNow,
		ExpirationDate:   viewNow.AddDate(1, 0, 0),
		Parent:           parent,
		Active:           true,
	}
	b.v[parent].Matrix.Children[pos] = w
	for a := parent; !a.Empty(); a = b.v[a].Matrix.Parent {
		b.v[a].Matrix.Descendants++
	}
}

func TestProposeUpgrade(t *testing.T) {
	b := newViewBuilder()
	b.register("alice", viewRoot, 1)
	b.register("bob", "alice", 0)

	p, err := ProposeUpgrade(b.v, proto.DefaultPackageTable(), "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, proto.PackageLevel(1), p.TargetLevel)
	assert.Equal(t, proto.ToNano(3), p.TargetPrice)
	sum, err := p.Payouts.Sum()
	require.NoError(t, err)
	assert.Equal(t, p.TargetPrice, sum)
	assert.Equal(t, proto.Payouts{
		{Slot: 1, Amount: proto.ToNano(3).Percent(10), Recipient: "alice"},
		{Slot: 2, Amount: proto.ToNano(3).Percent(20), Recipient: viewRoot},
		{Slot: proto.CompanySlot, Amount: proto.ToNano(3) - proto.ToNano(3).Percent(30)},
	}, p.Payouts)

	delete(b.v, "alice")
	_, err = ProposeUpgrade(b.v, proto.DefaultPackageTable(), "bob", 1)
	assert.ErrorIs(t, err, errs.AncestorNotFound{})
	_, err = ProposeUpgrade(b.v, proto.DefaultPackageTable(), "nobody", 1)
	assert.ErrorIs(t, err, errs.NotRegistered{})
}

func TestProposeSubscription(t *testing.T) {
	b := newViewBuilder()
	b.register("alice", viewRoot, 0)
	b.register("bob", "alice", 0)
	b.register("carol", "bob", 0)
	b.subscribe("alice", viewRoot, proto.Left)
	prices := proto.DefaultSubscriptionPrices()

	// bob's sponsor alice is subscribed and has a free left slot
	p, err := ProposeSubscription(b.v, prices, viewRoot, "bob", proto.YearlyWithin30Days)
	require.NoError(t, err)
	assert.Equal(t, proto.SubscribeProposal{
		Wallet:   "bob",
		Type:     proto.YearlyWithin30Days,
		Price:    proto.ToNano(40),
		Parent:   "alice",
		Position: proto.Left,
	}, p)

	// carol's sponsor bob is not in the matrix, alice is the nearest subscribed ancestor
	p, err = ProposeSubscription(b.v, prices, viewRoot, "carol", proto.MonthlyAfter30Days)
	require.NoError(t, err)
	assert.Equal(t, proto.WalletAddress("alice"), p.Parent)
	assert.Equal(t, proto.Left, p.Position)

	_, err = ProposeSubscription(b.v, prices, viewRoot, "alice", proto.MonthlyAfter30Days)
	assert.ErrorIs(t, err, errs.AlreadySubscribed{})
	_, err = ProposeSubscription(b.v, prices, viewRoot, "bob", proto.SubscriptionType(42))
	assert.ErrorIs(t, err, errs.InvalidRequest{})
}

func TestProposeSubscriptionFullParent(t *testing.T) {
	b := newViewBuilder()
	for i, w := range []proto.WalletAddress{"a", "b", "c"} {
		b.register(w, viewRoot, 0)
		b.subscribe(w, viewRoot, proto.MatrixPosition(i))
	}
	b.register("d", "a", 0)
	b.subscribe("d", "a", proto.Left)
	b.register("e", viewRoot, 0)

	// root is full and b wins the tie with c
	p, err := ProposeSubscription(b.v, proto.DefaultSubscriptionPrices(), viewRoot, "e", proto.MonthlyWithin30Days)
	require.NoError(t, err)
	assert.Equal(t, proto.WalletAddress("b"), p.Parent)
	assert.Equal(t, proto.Left, p.Position)
}

// distributionView is root <- alice <- bob <- carol in both the referral tree and the matrix.
func distributionView(aliceLevel proto.PackageLevel) matrix.MapView {
	b := newViewBuilder()
	b.register("alice", viewRoot, aliceLevel)
	b.register("bob", "alice", 0)
	b.register("carol", "bob", 0)
	b.subscribe("alice", viewRoot, proto.Left)
	b.subscribe("bob", "alice", proto.Left)
	b.subscribe("carol", "bob", proto.Left)
	return b.v
}

func TestProposeDistribution(t *testing.T) {
	defer goleak.VerifyNone(t)
	prices := proto.DefaultSubscriptionPrices()
	fee := proto.ToNano(5)

	d, err := ProposeDistribution(context.Background(), distributionView(5), prices, 10, 2, "alice", viewNow)
	require.NoError(t, err)
	memberRevenue := fee.Percent(5)*2 + fee.Percent(2)
	assert.Equal(t, proto.Distribution{
		Wallet:          "alice",
		Username:        "alice",
		MemberRevenue:   memberRevenue,
		CompanyRevenue:  fee.Percent(20) + fee.Percent(10) + fee.Percent(50) - memberRevenue,
		SubscriptionFee: fee,
	}, d)

	// below level 5 the direct share goes to the company
	d, err = ProposeDistribution(context.Background(), distributionView(4), prices, 10, 0, "alice", viewNow)
	require.NoError(t, err)
	assert.Equal(t, fee.Percent(5)*2, d.MemberRevenue)
	assert.Equal(t, fee.Percent(20)*2+fee.Percent(10)+fee.Percent(50)-fee.Percent(5)*2, d.CompanyRevenue)

	// the depth limit cuts carol off
	d, err = ProposeDistribution(context.Background(), distributionView(4), prices, 1, 0, "alice", viewNow)
	require.NoError(t, err)
	assert.Equal(t, fee.Percent(5), d.MemberRevenue)
}

func TestProposeDistributionSecondGeneration(t *testing.T) {
	defer goleak.VerifyNone(t)
	v := distributionView(7)
	b := &viewBuilder{v: v}
	b.register("dave", "carol", 0)
	b.subscribe("dave", "carol", proto.Left)
	fee := proto.ToNano(5)

	d, err := ProposeDistribution(context.Background(), v, proto.DefaultSubscriptionPrices(), 10, 4, "alice", viewNow)
	require.NoError(t, err)
	// subtree bob, carol, dave; bob's subtree carol, dave; carol's subtree dave
	memberRevenue := fee.Percent(5)*3 + fee.Percent(2)*2 + fee.Percent(2)
	assert.Equal(t, memberRevenue, d.MemberRevenue)
	assert.Equal(t, fee.Percent(10)+fee.Percent(50)-memberRevenue, d.CompanyRevenue)
}

func TestProposeDistributionErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	v := distributionView(5)
	v["dan"] = &proto.Member{Wallet: "dan"}

	_, err := ProposeDistribution(context.Background(), v, proto.DefaultSubscriptionPrices(), 10, 2, "dan", viewNow)
	assert.ErrorIs(t, err, errs.NotSubscribed{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ProposeDistribution(ctx, v, proto.DefaultSubscriptionPrices(), 10, 2, "alice", viewNow)
	assert.ErrorIs(t, err, context.Canceled)
}
