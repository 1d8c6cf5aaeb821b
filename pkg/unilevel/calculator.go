// Package unilevel computes commission payouts for package level upgrades.
package unilevel

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/proto"
)

// Ancestor is an upline entry together with its package level at the moment of the snapshot.
type Ancestor struct {
	Wallet proto.WalletAddress
	Level  proto.PackageLevel
}

type Result struct {
	TargetLevel proto.PackageLevel
	TotalPrice  proto.Amount
	Payouts     proto.Payouts
}

// Proposal turns the result into an upgrade proposal for wallet.
func (r Result) Proposal(wallet proto.WalletAddress) proto.UpgradeProposal {
	return proto.UpgradeProposal{
		Wallet:      wallet,
		TargetLevel: r.TargetLevel,
		TargetPrice: r.TotalPrice,
		Payouts:     r.Payouts,
	}
}

// Calculate computes payouts for upgrading from current by increment levels.
// An ancestor at position i receives its share of level L only if its level is at least L.
// Everything not paid to ancestors goes to the company slot.
func Calculate(table proto.PackageTable, current proto.PackageLevel, increment int, ancestors []Ancestor) (Result, error) {
	if increment < 1 {
		return Result{}, errs.NewInvalidLevel(fmt.Sprintf("invalid upgrade increment %d", increment))
	}
	if len(ancestors) > proto.UplineDepth {
		ancestors = ancestors[:proto.UplineDepth]
	}
	if increment > proto.MaxPackageLevel-int(current) {
		return Result{}, errs.NewInvalidLevel(
			fmt.Sprintf("upgrade by %d from level %d is above %d", increment, current, proto.MaxPackageLevel))
	}
	target := int(current) + increment
	var (
		slots   [proto.UplineDepth]proto.Amount
		company proto.Amount
		total   proto.Amount
	)
	for l := current + 1; l <= proto.PackageLevel(target); l++ {
		price, err := table.Price(l)
		if err != nil {
			return Result{}, err
		}
		if total, err = total.Add(price); err != nil {
			return Result{}, errors.Wrap(err, "total price")
		}
		paid := proto.Amount(0)
		for i := 0; i < proto.UplineDepth; i++ {
			if i >= len(ancestors) || ancestors[i].Level < l {
				continue
			}
			amount := price.Percent(table.Percentage(i + 1))
			slots[i] += amount
			paid += amount
		}
		// paid never exceeds price because the percentages sum up to at most 100
		company += price - paid
	}
	payouts := make(proto.Payouts, 0, proto.CompanySlot)
	for i, a := range slots {
		if a == 0 {
			continue
		}
		payouts = append(payouts, proto.Payout{Slot: uint8(i + 1), Amount: a, Recipient: ancestors[i].Wallet})
	}
	payouts = append(payouts, proto.Payout{Slot: proto.CompanySlot, Amount: company})
	return Result{TargetLevel: proto.PackageLevel(target), TotalPrice: total, Payouts: payouts}, nil
}
