package state

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/lifecycle"
	"github.com/tonclub/hypersonic/pkg/matrix"
	"github.com/tonclub/hypersonic/pkg/metrics"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/upline"
)

func (l *Ledger) mustNotExist(s *opState, wallet proto.WalletAddress) error {
	if wallet.Empty() {
		return errs.NewInvalidRequest("empty wallet address")
	}
	ok, err := s.exists(wallet)
	if err != nil {
		return errors.Wrapf(err, "failed to check member %q", wallet)
	}
	if ok {
		return errs.NewAlreadyRegistered(fmt.Sprintf("member %q is already registered", wallet))
	}
	return nil
}

// Register creates a member sponsored by uplineChain[0]. The chain may hold only the sponsor,
// otherwise it must match the sponsor's own chain. An empty chain means the company sponsors.
func (l *Ledger) Register(auth Auth, wallet proto.WalletAddress, username string, uplineChain []proto.WalletAddress) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxRegister, auth, false, func(s *opState, _ time.Time) (TxRecord, error) {
		if err := l.mustNotExist(s, wallet); err != nil {
			return TxRecord{}, err
		}
		if len(uplineChain) == 0 {
			uplineChain = []proto.WalletAddress{l.settings.CompanyWallet}
		}
		sponsor, err := s.ancestor(uplineChain[0])
		if err != nil {
			return TxRecord{}, err
		}
		resolved := upline.Resolve(sponsor.Wallet, sponsor.Upline)
		if len(uplineChain) > 1 && !upline.Equal(resolved, upline.Truncate(uplineChain)) {
			return TxRecord{}, errs.NewAncestorNotFound(fmt.Sprintf("upline of %q does not match the chain of sponsor %q", wallet, sponsor.Wallet))
		}
		m := &proto.Member{Wallet: wallet, Username: username, Upline: resolved}
		s.create(m)
		sponsor.Invited = append(sponsor.Invited, wallet)
		s.touch(sponsor)
		if err := s.incUsers(); err != nil {
			return TxRecord{}, err
		}
		out = m
		return TxRecord{Wallet: wallet}, nil
	})
	return out, err
}

// PreRegisterMember seeds a member with a given upline, package level and matrix place.
func (l *Ledger) PreRegisterMember(auth Auth, r proto.PreRegistration) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxPreRegisterMember, auth, true, func(s *opState, now time.Time) (TxRecord, error) {
		if err := l.mustNotExist(s, r.Wallet); err != nil {
			return TxRecord{}, err
		}
		if !r.PackageLevel.Valid() {
			return TxRecord{}, errs.NewInvalidLevel(fmt.Sprintf("invalid package level %d", r.PackageLevel))
		}
		if !r.SubscriptionType.Valid() {
			return TxRecord{}, errs.NewInvalidRequest(fmt.Sprintf("invalid subscription type %d", r.SubscriptionType))
		}
		if !r.MatrixPosition.Valid() {
			return TxRecord{}, errs.NewInvalidRequest(fmt.Sprintf("invalid matrix position %d", r.MatrixPosition))
		}
		chain := upline.Truncate(r.Upline)
		if len(chain) == 0 {
			chain = []proto.WalletAddress{l.settings.CompanyWallet}
		}
		for _, a := range chain {
			if _, err := s.ancestor(a); err != nil {
				return TxRecord{}, err
			}
		}
		parent, err := s.ancestor(r.MatrixParent)
		if err != nil {
			return TxRecord{}, err
		}
		if !parent.Subscribed() {
			return TxRecord{}, errs.NewAncestorNotFound(fmt.Sprintf("matrix parent %q is not subscribed", parent.Wallet))
		}
		m := &proto.Member{
			Wallet:       r.Wallet,
			Username:     r.Username,
			PackageLevel: r.PackageLevel,
			Upline:       append([]proto.WalletAddress(nil), chain...),
		}
		node := newMatrixNode(r.SubscriptionType, parent.Wallet, now, l.settings.SubscriptionTerm)
		if err := lifecycle.New(m).Subscribe(node); err != nil {
			return TxRecord{}, err
		}
		s.create(m)
		if err := s.attach(m, parent, r.MatrixPosition); err != nil {
			return TxRecord{}, err
		}
		sponsor, err := s.Member(chain[0])
		if err != nil {
			return TxRecord{}, err
		}
		sponsor.Invited = append(sponsor.Invited, r.Wallet)
		s.touch(sponsor)
		if err := s.incUsers(); err != nil {
			return TxRecord{}, err
		}
		if err := s.incSubscribed(); err != nil {
			return TxRecord{}, err
		}
		out = m
		return TxRecord{Wallet: r.Wallet}, nil
	})
	return out, err
}

func (l *Ledger) Deposit(auth Auth, wallet proto.WalletAddress, amount proto.Amount) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxDeposit, auth, false, func(s *opState, _ time.Time) (TxRecord, error) {
		if amount == 0 {
			return TxRecord{}, errs.NewInvalidRequest("zero deposit")
		}
		m, err := s.Member(wallet)
		if err != nil {
			return TxRecord{}, err
		}
		if err := s.credit(m, amount); err != nil {
			return TxRecord{}, err
		}
		out = m
		return TxRecord{Wallet: wallet, Amount: amount}, nil
	})
	return out, err
}

func (l *Ledger) Withdraw(auth Auth, wallet proto.WalletAddress, amount proto.Amount) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxWithdraw, auth, false, func(s *opState, _ time.Time) (TxRecord, error) {
		if amount == 0 {
			return TxRecord{}, errs.NewInvalidRequest("zero withdrawal")
		}
		m, err := s.Member(wallet)
		if err != nil {
			return TxRecord{}, err
		}
		if err := s.debit(m, amount); err != nil {
			return TxRecord{}, err
		}
		out = m
		return TxRecord{Wallet: wallet, Amount: amount}, nil
	})
	return out, err
}

// UpgradePlan applies a payout table computed from a snapshot. The table is checked against
// the price table and the member's upline, ancestors' package levels are not rechecked.
func (l *Ledger) UpgradePlan(auth Auth, p proto.UpgradeProposal) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxUpgradePlan, auth, false, func(s *opState, _ time.Time) (TxRecord, error) {
		m, err := s.Member(p.Wallet)
		if err != nil {
			return TxRecord{}, err
		}
		price, err := l.settings.Packages.UpgradePrice(m.PackageLevel, p.TargetLevel)
		if err != nil {
			return TxRecord{}, err
		}
		if p.TargetPrice != price {
			return TxRecord{}, errs.NewPayoutSumMismatch(fmt.Sprintf("target price %s differs from the upgrade price %s", p.TargetPrice, price))
		}
		if err := p.Payouts.Validate(); err != nil {
			return TxRecord{}, err
		}
		sum, err := p.Payouts.Sum()
		if err != nil {
			return TxRecord{}, err
		}
		if sum != price {
			return TxRecord{}, errs.NewPayoutSumMismatch(fmt.Sprintf("payouts sum up to %s instead of %s", sum, price))
		}
		if err := s.debit(m, price); err != nil {
			return TxRecord{}, err
		}
		for _, po := range p.Payouts {
			if po.Slot == proto.CompanySlot {
				if err := s.creditCompany(po.Amount); err != nil {
					return TxRecord{}, err
				}
				continue
			}
			i := int(po.Slot) - 1
			if i >= len(m.Upline) || m.Upline[i] != po.Recipient {
				return TxRecord{}, errs.NewAncestorNotFound(fmt.Sprintf("%q is not the upline member %d of %q", po.Recipient, po.Slot, m.Wallet))
			}
			r, err := s.ancestor(po.Recipient)
			if err != nil {
				return TxRecord{}, err
			}
			if err := s.credit(r, po.Amount); err != nil {
				return TxRecord{}, err
			}
		}
		m.PackageLevel = p.TargetLevel
		s.touch(m)
		out = m
		return TxRecord{Wallet: m.Wallet, Amount: price}, nil
	})
	return out, err
}

// SubscribeToMatrix places the member into the matrix. The subscription price goes to the company.
func (l *Ledger) SubscribeToMatrix(auth Auth, p proto.SubscribeProposal) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out *proto.Member
	err := l.apply(TxSubscribeToMatrix, auth, false, func(s *opState, now time.Time) (TxRecord, error) {
		m, err := s.Member(p.Wallet)
		if err != nil {
			return TxRecord{}, err
		}
		if m.Subscribed() {
			return TxRecord{}, errs.NewAlreadySubscribed(fmt.Sprintf("member %q is already in the matrix", m.Wallet))
		}
		if !p.Position.Valid() {
			return TxRecord{}, errs.NewInvalidRequest(fmt.Sprintf("invalid matrix position %d", p.Position))
		}
		price, err := l.settings.Subscriptions.Price(p.Type)
		if err != nil {
			return TxRecord{}, errs.NewInvalidRequest(err.Error())
		}
		if p.Price != price {
			return TxRecord{}, errs.NewPriceMismatch(fmt.Sprintf("price %s differs from %s for %s", p.Price, price, p.Type))
		}
		if p.Parent == m.Wallet {
			return TxRecord{}, errs.NewInvalidRequest("member can't be its own matrix parent")
		}
		if err := s.debit(m, price); err != nil {
			return TxRecord{}, err
		}
		parent, err := s.ancestor(p.Parent)
		if err != nil {
			return TxRecord{}, err
		}
		if !parent.Subscribed() {
			return TxRecord{}, errs.NewAncestorNotFound(fmt.Sprintf("matrix parent %q is not subscribed", parent.Wallet))
		}
		node := newMatrixNode(p.Type, parent.Wallet, now, l.settings.SubscriptionTerm)
		if err := lifecycle.New(m).Subscribe(node); err != nil {
			return TxRecord{}, err
		}
		if err := s.attach(m, parent, p.Position); err != nil {
			return TxRecord{}, err
		}
		if err := s.creditCompany(price); err != nil {
			return TxRecord{}, err
		}
		if err := s.incSubscribed(); err != nil {
			return TxRecord{}, err
		}
		out = m
		return TxRecord{Wallet: m.Wallet, Amount: price}, nil
	})
	return out, err
}

// MonthlyDistributionList applies every entry as a separate atomic operation. A rejected
// entry doesn't affect the others, its error is reported in the result.
func (l *Ledger) MonthlyDistributionList(auth Auth, list []proto.Distribution) ([]proto.DistributionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkAdmin(newOpState(l.kv), auth); err != nil {
		metrics.Operation(TxMonthlyDistribution.String(), err)
		return nil, errs.Extend(err, "MonthlyDistributionList")
	}
	results := make([]proto.DistributionResult, 0, len(list))
	for _, d := range list {
		res := proto.DistributionResult{Wallet: d.Wallet}
		err := l.apply(TxMonthlyDistribution, auth, true, func(s *opState, now time.Time) (TxRecord, error) {
			outcome, err := l.distribute(s, d, now)
			res.Outcome = outcome
			if err != nil {
				return TxRecord{}, err
			}
			if outcome == proto.OutcomeSkipped {
				return TxRecord{}, errNothingToCommit
			}
			return TxRecord{Wallet: d.Wallet, Amount: d.SubscriptionFee}, nil
		})
		if err != nil {
			res.Outcome = proto.OutcomeRejected
			res.Error = err.Error()
		}
		metrics.DistributionOutcome(res.Outcome.String())
		results = append(results, res)
	}
	return results, nil
}

func (l *Ledger) distribute(s *opState, d proto.Distribution, now time.Time) (proto.DistributionOutcome, error) {
	m, err := s.Member(d.Wallet)
	if err != nil {
		return proto.OutcomeRejected, err
	}
	if !m.Subscribed() {
		return proto.OutcomeRejected, errs.NewNotSubscribed(fmt.Sprintf("member %q is not in the matrix", m.Wallet))
	}
	fsm := lifecycle.New(m)
	if fsm.State() == lifecycle.Expired {
		return proto.OutcomeSkipped, nil
	}
	fee, err := matrix.Fee(l.settings.Subscriptions, m.Matrix.SubscriptionType, false)
	if err != nil {
		return proto.OutcomeRejected, err
	}
	if d.SubscriptionFee != fee {
		return proto.OutcomeRejected, errs.NewPriceMismatch(fmt.Sprintf("subscription fee %s differs from %s", d.SubscriptionFee, fee))
	}
	s.touch(m)
	if !now.Before(m.Matrix.ExpirationDate) {
		if _, err := fsm.Cycle(now, false); err != nil {
			return proto.OutcomeRejected, err
		}
		return proto.OutcomeExpired, nil
	}
	available, err := m.Balance.Add(d.MemberRevenue)
	if err != nil {
		return proto.OutcomeRejected, err
	}
	covered := available >= fee
	if covered {
		m.Balance = available - fee
		if err := s.creditCompany(d.CompanyRevenue); err != nil {
			return proto.OutcomeRejected, err
		}
	}
	st, err := fsm.Cycle(now, covered)
	if err != nil {
		return proto.OutcomeRejected, err
	}
	switch st {
	case lifecycle.Active:
		return proto.OutcomeFeeCovered, nil
	case lifecycle.GracePeriod:
		return proto.OutcomeGracePeriod, nil
	default:
		return proto.OutcomeExpired, nil
	}
}

func (l *Ledger) AdminWithdrawal(auth Auth, amount proto.Amount) (proto.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var left proto.Amount
	err := l.apply(TxAdminWithdrawal, auth, true, func(s *opState, _ time.Time) (TxRecord, error) {
		if amount == 0 {
			return TxRecord{}, errs.NewInvalidRequest("zero withdrawal")
		}
		if err := s.debitCompany(amount); err != nil {
			return TxRecord{}, err
		}
		left = *s.company
		return TxRecord{Wallet: l.settings.CompanyWallet, Amount: amount}, nil
	})
	return left, err
}

func (l *Ledger) ChangeOwner(auth Auth, newOwner proto.WalletAddress) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.apply(TxChangeOwner, auth, true, func(s *opState, _ time.Time) (TxRecord, error) {
		if newOwner.Empty() {
			return TxRecord{}, errs.NewInvalidRequest("empty owner")
		}
		s.setOwner(newOwner)
		return TxRecord{Wallet: newOwner}, nil
	})
}
