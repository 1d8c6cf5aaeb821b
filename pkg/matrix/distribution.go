package matrix

import (
	"time"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/proto"
)

const (
	subtreeSharePercent  = 5
	fanOutSharePercent   = 2
	fanOutCompanyPercent = 20
	companyBasePercent   = 10
	memberPoolPercent    = 50
	directFanOutMinLevel = 5
	secondFanOutMinLevel = 7
	monthsInYear         = 12
)

// Fee returns the subscription fee of the given type. Yearly subscriptions cost nothing
// monthly unless monthlyEquivalent is set, then the yearly price is spread over 12 months.
func Fee(prices proto.SubscriptionPrices, t proto.SubscriptionType, monthlyEquivalent bool) (proto.Amount, error) {
	price, err := prices.Price(t)
	if err != nil {
		return 0, err
	}
	if !t.Yearly() {
		return price, nil
	}
	if !monthlyEquivalent {
		return 0, nil
	}
	return price / monthsInYear, nil
}

// Input is everything the monthly split of a single member depends on.
type Input struct {
	Target *proto.Member
	// Subtree is the matrix subtree of the target, see Subtree.
	Subtree []*proto.Member
	// DirectSponsors holds one subtree per matrix-subscribed direct referral.
	DirectSponsors [][]*proto.Member
	// SecondGenSponsors holds one subtree per matrix-subscribed referral of a direct referral.
	SecondGenSponsors [][]*proto.Member
	Now               time.Time
}

type calculator struct {
	prices proto.SubscriptionPrices
	now    time.Time
}

func (c calculator) equivalentFee(m *proto.Member) (proto.Amount, error) {
	return Fee(c.prices, m.Matrix.SubscriptionType, true)
}

// share sums pct of the monthly-equivalent fee of every contributing member except exclude.
func (c calculator) share(members []*proto.Member, exclude proto.WalletAddress, pct uint64) (proto.Amount, error) {
	var total proto.Amount
	for _, m := range members {
		if (!exclude.Empty() && m.Wallet == exclude) || !m.Subscribed() || !m.Matrix.Contributing(c.now) {
			continue
		}
		fee, err := c.equivalentFee(m)
		if err != nil {
			return 0, err
		}
		if total, err = total.Add(fee.Percent(pct)); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// fanOut counts every contributing member of the sponsor subtrees, the target included
// when it was placed under one of its referrals.
func (c calculator) fanOut(subtrees [][]*proto.Member) (proto.Amount, error) {
	var total proto.Amount
	for _, st := range subtrees {
		s, err := c.share(st, "", fanOutSharePercent)
		if err != nil {
			return 0, err
		}
		if total, err = total.Add(s); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Distribute computes the monthly member and company revenue of the target member.
func Distribute(prices proto.SubscriptionPrices, in Input) (proto.Distribution, error) {
	t := in.Target
	if t == nil || !t.Subscribed() {
		return proto.Distribution{}, errors.New("target member has no matrix node")
	}
	c := calculator{prices: prices, now: in.Now}
	fee, err := Fee(prices, t.Matrix.SubscriptionType, false)
	if err != nil {
		return proto.Distribution{}, err
	}
	ownFee, err := c.equivalentFee(t)
	if err != nil {
		return proto.Distribution{}, err
	}

	memberRevenue, err := c.share(in.Subtree, t.Wallet, subtreeSharePercent)
	if err != nil {
		return proto.Distribution{}, errors.Wrap(err, "subtree share")
	}
	var companyRevenue proto.Amount

	if t.PackageLevel >= directFanOutMinLevel {
		s, err := c.fanOut(in.DirectSponsors)
		if err != nil {
			return proto.Distribution{}, errors.Wrap(err, "direct sponsors share")
		}
		if memberRevenue, err = memberRevenue.Add(s); err != nil {
			return proto.Distribution{}, err
		}
	} else {
		companyRevenue += ownFee.Percent(fanOutCompanyPercent)
	}

	if t.PackageLevel >= secondFanOutMinLevel {
		s, err := c.fanOut(in.SecondGenSponsors)
		if err != nil {
			return proto.Distribution{}, errors.Wrap(err, "second generation sponsors share")
		}
		if memberRevenue, err = memberRevenue.Add(s); err != nil {
			return proto.Distribution{}, err
		}
	} else {
		companyRevenue += ownFee.Percent(fanOutCompanyPercent)
	}

	companyRevenue += ownFee.Percent(companyBasePercent)
	if pool := ownFee.Percent(memberPoolPercent); pool > memberRevenue {
		companyRevenue += pool - memberRevenue
	}

	return proto.Distribution{
		Wallet:          t.Wallet,
		Username:        t.Username,
		MemberRevenue:   memberRevenue,
		CompanyRevenue:  companyRevenue,
		SubscriptionFee: fee,
	}, nil
}
