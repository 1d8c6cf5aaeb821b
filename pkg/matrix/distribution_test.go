package matrix

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonclub/hypersonic/pkg/proto"
)

func TestFee(t *testing.T) {
	prices := proto.DefaultSubscriptionPrices()
	for _, tc := range []struct {
		st         proto.SubscriptionType
		equivalent bool
		exp        proto.Amount
	}{
		{proto.MonthlyWithin30Days, false, proto.ToNano(5)},
		{proto.MonthlyAfter30Days, true, proto.ToNano(10)},
		{proto.YearlyWithin30Days, false, 0},
		{proto.YearlyAfter30Days, false, 0},
		{proto.YearlyWithin30Days, true, 3_333_333_333},
		{proto.YearlyAfter30Days, true, 6_666_666_666},
	} {
		fee, err := Fee(prices, tc.st, tc.equivalent)
		require.NoError(t, err)
		assert.Equal(t, tc.exp, fee, "%s/%v", tc.st, tc.equivalent)
	}
}

func TestSubtreeDepthLimit(t *testing.T) {
	v := newTestView()
	parent := testRoot
	for i := 0; i < 15; i++ {
		w := proto.WalletAddress(fmt.Sprintf("d%d", i+1))
		attach(v, w, parent, proto.Left, proto.MonthlyWithin30Days)
		parent = w
	}
	st, err := Subtree(v, testRoot, 10)
	require.NoError(t, err)
	require.Len(t, st, 10)
	assert.Equal(t, proto.WalletAddress("d1"), st[0].Wallet)
	assert.Equal(t, proto.WalletAddress("d10"), st[9].Wallet)

	st, err = Subtree(v, "d15", 10)
	require.NoError(t, err)
	assert.Empty(t, st)
}

func TestSubtreeBreadthFirst(t *testing.T) {
	v := newTestView()
	attach(v, "A", testRoot, proto.Left, proto.MonthlyWithin30Days)
	attach(v, "B", testRoot, proto.Right, proto.MonthlyWithin30Days)
	attach(v, "A1", "A", proto.Middle, proto.MonthlyWithin30Days)
	st, err := Subtree(v, testRoot, 10)
	require.NoError(t, err)
	var got []proto.WalletAddress
	for _, m := range st {
		got = append(got, m.Wallet)
	}
	assert.Equal(t, []proto.WalletAddress{"A", "B", "A1"}, got)
}

func TestSubtreeSurvivesCycle(t *testing.T) {
	v := newTestView()
	attach(v, "A", testRoot, proto.Left, proto.MonthlyWithin30Days)
	v["A"].Matrix.Children[proto.Left] = testRoot
	st, err := Subtree(v, testRoot, 10)
	require.NoError(t, err)
	assert.Len(t, st, 1)
}

func TestDistributeOwnSubtreeOnly(t *testing.T) {
	prices := proto.DefaultSubscriptionPrices()
	v := newTestView()
	target := attach(v, "T", testRoot, proto.Left, proto.MonthlyAfter30Days)
	target.PackageLevel = 3
	attach(v, "c1", "T", proto.Left, proto.MonthlyWithin30Days)
	attach(v, "c2", "T", proto.Middle, proto.YearlyWithin30Days)
	inactive := attach(v, "c3", "T", proto.Right, proto.MonthlyAfter30Days)
	inactive.Matrix.Active = false
	expired := attach(v, "c11", "c1", proto.Left, proto.MonthlyAfter30Days)
	expired.Matrix.ExpirationDate = testNow

	st, err := Subtree(v, "T", 10)
	require.NoError(t, err)
	require.Len(t, st, 4)

	// level 3 members get nothing from sponsors even if they have some
	d, err := Distribute(prices, Input{
		Target:         target,
		Subtree:        st,
		DirectSponsors: [][]*proto.Member{{v["c1"]}},
		Now:            testNow,
	})
	require.NoError(t, err)
	// 5% of 5 plus 5% of 40/12
	member := proto.ToNano(5).Percent(5) + proto.Amount(3_333_333_333).Percent(5)
	assert.Equal(t, member, d.MemberRevenue)
	own := proto.ToNano(10)
	company := own.Percent(20) + own.Percent(20) + own.Percent(10) + own.Percent(50) - member
	assert.Equal(t, company, d.CompanyRevenue)
	assert.Equal(t, proto.ToNano(10), d.SubscriptionFee)
	assert.Equal(t, "T", d.Username)
}

func TestDistributeFanOutByLevel(t *testing.T) {
	prices := proto.DefaultSubscriptionPrices()
	v := newTestView()
	target := attach(v, "T", testRoot, proto.Left, proto.MonthlyWithin30Days)
	direct := [][]*proto.Member{{
		attach(v, "s1", testRoot, proto.Middle, proto.MonthlyAfter30Days),
		attach(v, "s2", "s1", proto.Left, proto.MonthlyAfter30Days),
	}}
	second := [][]*proto.Member{{
		attach(v, "g1", testRoot, proto.Right, proto.MonthlyAfter30Days),
	}}
	in := Input{Target: target, DirectSponsors: direct, SecondGenSponsors: second, Now: testNow}
	fee := proto.ToNano(5)

	for _, tc := range []struct {
		level   proto.PackageLevel
		member  proto.Amount
		company proto.Amount
	}{
		{4, 0, fee.Percent(20)*2 + fee.Percent(10) + fee.Percent(50)},
		{5, proto.ToNano(10).Percent(2) * 2, fee.Percent(20) + fee.Percent(10) + fee.Percent(50) - proto.ToNano(10).Percent(2)*2},
		{7, proto.ToNano(10).Percent(2) * 3, fee.Percent(10) + fee.Percent(50) - proto.ToNano(10).Percent(2)*3},
	} {
		target.PackageLevel = tc.level
		d, err := Distribute(prices, in)
		require.NoError(t, err)
		assert.Equal(t, tc.member, d.MemberRevenue, "level %d", tc.level)
		assert.Equal(t, tc.company, d.CompanyRevenue, "level %d", tc.level)
	}
}

func TestDistributeTargetInsideSponsorSubtree(t *testing.T) {
	prices := proto.DefaultSubscriptionPrices()
	v := newTestView()
	attach(v, "s1", testRoot, proto.Left, proto.MonthlyAfter30Days)
	target := attach(v, "T", "s1", proto.Left, proto.MonthlyWithin30Days)
	target.PackageLevel = 5
	attach(v, "s2", "s1", proto.Middle, proto.MonthlyAfter30Days)
	st, err := Subtree(v, "s1", 10)
	require.NoError(t, err)
	require.Len(t, st, 2)

	d, err := Distribute(prices, Input{Target: target, DirectSponsors: [][]*proto.Member{st}, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, proto.ToNano(5).Percent(2)+proto.ToNano(10).Percent(2), d.MemberRevenue)
}

func TestDistributeResidualClampedToZero(t *testing.T) {
	prices := proto.DefaultSubscriptionPrices()
	v := newTestView()
	target := attach(v, "T", testRoot, proto.Left, proto.YearlyWithin30Days)
	target.PackageLevel = 7
	var big []*proto.Member
	for i := 0; i < 3; i++ {
		big = append(big, attach(v, proto.WalletAddress(fmt.Sprintf("c%d", i)), "T", proto.MatrixPosition(i), proto.MonthlyAfter30Days))
	}
	st, err := Subtree(v, "T", 10)
	require.NoError(t, err)
	d, err := Distribute(prices, Input{Target: target, Subtree: st, DirectSponsors: [][]*proto.Member{big}, Now: testNow})
	require.NoError(t, err)
	own := proto.Amount(3_333_333_333)
	member := proto.ToNano(10).Percent(5)*3 + proto.ToNano(10).Percent(2)*3
	require.Greater(t, member, own.Percent(50))
	assert.Equal(t, member, d.MemberRevenue)
	assert.Equal(t, own.Percent(10), d.CompanyRevenue)
	assert.Zero(t, d.SubscriptionFee)
}

func TestDistributeRequiresMatrixNode(t *testing.T) {
	_, err := Distribute(proto.DefaultSubscriptionPrices(), Input{Target: &proto.Member{Wallet: "x"}, Now: testNow})
	assert.Error(t, err)
}
