// Package planner computes operation proposals from ledger snapshots and submits them.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/matrix"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/unilevel"
)

// ProposeUpgrade computes the payout table for upgrading wallet by increment levels.
func ProposeUpgrade(v matrix.View, table proto.PackageTable, wallet proto.WalletAddress, increment int) (proto.UpgradeProposal, error) {
	m, err := v.Member(wallet)
	if err != nil {
		return proto.UpgradeProposal{}, err
	}
	ancestors := make([]unilevel.Ancestor, 0, len(m.Upline))
	for _, a := range m.Upline {
		am, err := v.Member(a)
		if err != nil {
			if errors.Is(err, errs.NotRegistered{}) {
				return proto.UpgradeProposal{}, errs.NewAncestorNotFound(fmt.Sprintf("upline member %q is missing", a))
			}
			return proto.UpgradeProposal{}, err
		}
		ancestors = append(ancestors, unilevel.Ancestor{Wallet: a, Level: am.PackageLevel})
	}
	r, err := unilevel.Calculate(table, m.PackageLevel, increment, ancestors)
	if err != nil {
		return proto.UpgradeProposal{}, err
	}
	return r.Proposal(wallet), nil
}

// ProposeSubscription picks a matrix slot for wallet under its nearest subscribed ancestor.
func ProposeSubscription(v matrix.View, prices proto.SubscriptionPrices, root, wallet proto.WalletAddress, t proto.SubscriptionType) (proto.SubscribeProposal, error) {
	m, err := v.Member(wallet)
	if err != nil {
		return proto.SubscribeProposal{}, err
	}
	if m.Subscribed() {
		return proto.SubscribeProposal{}, errs.NewAlreadySubscribed(fmt.Sprintf("member %q is already in the matrix", wallet))
	}
	price, err := prices.Price(t)
	if err != nil {
		return proto.SubscribeProposal{}, errs.NewInvalidRequest(err.Error())
	}
	candidate, err := matrix.CandidateParent(v, m, root)
	if err != nil {
		return proto.SubscribeProposal{}, err
	}
	pl, err := matrix.Place(v, candidate)
	if err != nil {
		return proto.SubscribeProposal{}, err
	}
	return proto.SubscribeProposal{
		Wallet:   wallet,
		Type:     t,
		Price:    price,
		Parent:   pl.Parent,
		Position: pl.Position,
	}, nil
}

// subscribedReferrals returns the members invited by m that hold a matrix node.
func subscribedReferrals(v matrix.View, m *proto.Member) ([]*proto.Member, error) {
	out := make([]*proto.Member, 0, len(m.Invited))
	for _, w := range m.Invited {
		r, err := v.Member(w)
		if err != nil {
			return nil, errors.Wrapf(err, "referral of %q", m.Wallet)
		}
		if r.Subscribed() {
			out = append(out, r)
		}
	}
	return out, nil
}

// ProposeDistribution computes the monthly split of wallet. Subtrees of the member and of
// its subscribed referrals are walked in parallel, at most workers at a time.
func ProposeDistribution(ctx context.Context, v matrix.View, prices proto.SubscriptionPrices, depth, workers int, wallet proto.WalletAddress, now time.Time) (proto.Distribution, error) {
	target, err := v.Member(wallet)
	if err != nil {
		return proto.Distribution{}, err
	}
	if !target.Subscribed() {
		return proto.Distribution{}, errs.NewNotSubscribed(fmt.Sprintf("member %q is not in the matrix", wallet))
	}
	direct, err := subscribedReferrals(v, target)
	if err != nil {
		return proto.Distribution{}, err
	}
	var second []*proto.Member
	for _, d := range direct {
		r, err := subscribedReferrals(v, d)
		if err != nil {
			return proto.Distribution{}, err
		}
		second = append(second, r...)
	}

	in := matrix.Input{
		Target:            target,
		DirectSponsors:    make([][]*proto.Member, len(direct)),
		SecondGenSponsors: make([][]*proto.Member, len(second)),
		Now:               now,
	}
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	walk := func(root proto.WalletAddress, out *[]*proto.Member) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := matrix.Subtree(v, root, depth)
			if err != nil {
				return err
			}
			*out = st
			return nil
		})
	}
	walk(target.Wallet, &in.Subtree)
	for i, d := range direct {
		walk(d.Wallet, &in.DirectSponsors[i])
	}
	for i, s := range second {
		walk(s.Wallet, &in.SecondGenSponsors[i])
	}
	if err := g.Wait(); err != nil {
		return proto.Distribution{}, errors.Wrapf(err, "failed to collect matrix of %q", wallet)
	}
	return matrix.Distribute(prices, in)
}
