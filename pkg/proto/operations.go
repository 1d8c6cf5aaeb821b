package proto

import (
	"fmt"

	"github.com/tonclub/hypersonic/pkg/errs"
)

// Payout is a single unilevel commission. Slots 1..7 are ancestors, slot 8 is the company.
type Payout struct {
	Slot      uint8         `json:"slot"`
	Amount    Amount        `json:"amount"`
	Recipient WalletAddress `json:"recipient,omitempty"`
}

type Payouts []Payout

func (p Payouts) Sum() (Amount, error) {
	var total Amount
	for _, po := range p {
		var err error
		if total, err = total.Add(po.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Company returns the amount routed to the company slot.
func (p Payouts) Company() Amount {
	for _, po := range p {
		if po.Slot == CompanySlot {
			return po.Amount
		}
	}
	return 0
}

func (p Payouts) Validate() error {
	var seen [CompanySlot + 1]bool
	for _, po := range p {
		if po.Slot == 0 || po.Slot > CompanySlot {
			return errs.NewPayoutSumMismatch(fmt.Sprintf("payout slot %d is out of range", po.Slot))
		}
		if seen[po.Slot] {
			return errs.NewPayoutSumMismatch(fmt.Sprintf("duplicate payout slot %d", po.Slot))
		}
		seen[po.Slot] = true
		if po.Slot == CompanySlot && !po.Recipient.Empty() {
			return errs.NewPayoutSumMismatch("company payout must not have a recipient")
		}
		if po.Slot != CompanySlot && po.Recipient.Empty() {
			return errs.NewAncestorNotFound(fmt.Sprintf("payout slot %d has no recipient", po.Slot))
		}
	}
	return nil
}

type UpgradeProposal struct {
	Wallet      WalletAddress `json:"wallet"`
	TargetLevel PackageLevel  `json:"targetLevel"`
	TargetPrice Amount        `json:"targetPrice"`
	Payouts     Payouts       `json:"payouts"`
}

type SubscribeProposal struct {
	Wallet   WalletAddress    `json:"wallet"`
	Type     SubscriptionType `json:"subscriptionType"`
	Price    Amount           `json:"price"`
	Parent   WalletAddress    `json:"parent"`
	Position MatrixPosition   `json:"position"`
}

type PreRegistration struct {
	Wallet           WalletAddress    `json:"wallet"`
	Username         string           `json:"username"`
	Upline           []WalletAddress  `json:"upline"`
	PackageLevel     PackageLevel     `json:"packageLevel"`
	MatrixParent     WalletAddress    `json:"matrixParent"`
	MatrixPosition   MatrixPosition   `json:"matrixPosition"`
	SubscriptionType SubscriptionType `json:"subscriptionType"`
}

// Distribution is the monthly revenue split of a single member.
type Distribution struct {
	Wallet          WalletAddress `json:"wallet"`
	Username        string        `json:"username"`
	MemberRevenue   Amount        `json:"memberRevenue"`
	CompanyRevenue  Amount        `json:"companyRevenue"`
	SubscriptionFee Amount        `json:"subscriptionFee"`
}

type DistributionOutcome uint8

const (
	OutcomeFeeCovered DistributionOutcome = iota + 1
	OutcomeGracePeriod
	OutcomeExpired
	OutcomeSkipped
	OutcomeRejected
)

var distributionOutcomeNames = map[DistributionOutcome]string{
	OutcomeFeeCovered:  "fee-covered",
	OutcomeGracePeriod: "grace-period",
	OutcomeExpired:     "expired",
	OutcomeSkipped:     "skipped",
	OutcomeRejected:    "rejected",
}

func (o DistributionOutcome) String() string {
	if n, ok := distributionOutcomeNames[o]; ok {
		return n
	}
	return "unknown"
}

func (o DistributionOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type DistributionResult struct {
	Wallet  WalletAddress       `json:"wallet"`
	Outcome DistributionOutcome `json:"outcome"`
	Error   string              `json:"error,omitempty"`
}
