package state

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/proto"
)

// opState buffers the changes of a single operation over a reader. Nothing reaches the
// store until writeTo puts the changes into a batch.
type opState struct {
	r keyvalue.Reader

	members map[proto.WalletAddress]*proto.Member
	dirty   []proto.WalletAddress

	company        *proto.Amount
	companyChanged bool
	owner          *proto.WalletAddress
	ownerChanged   bool
	users          *uint64
	subscribed     *uint64
}

func newOpState(r keyvalue.Reader) *opState {
	return &opState{r: r, members: make(map[proto.WalletAddress]*proto.Member)}
}

func loadMember(r keyvalue.Reader, wallet proto.WalletAddress) (*proto.Member, error) {
	data, err := r.Get(memberKey{wallet: wallet}.bytes())
	if err != nil {
		if errors.Is(err, keyvalue.ErrNotFound) {
			return nil, errs.NewNotRegistered(fmt.Sprintf("member %q is not registered", wallet))
		}
		return nil, errors.Wrapf(err, "failed to load member %q", wallet)
	}
	m := new(proto.Member)
	if err := unmarshalRecord(data, m); err != nil {
		return nil, errors.Wrapf(err, "member %q", wallet)
	}
	return m, nil
}

func (s *opState) Member(wallet proto.WalletAddress) (*proto.Member, error) {
	if m, ok := s.members[wallet]; ok {
		return m, nil
	}
	m, err := loadMember(s.r, wallet)
	if err != nil {
		return nil, err
	}
	s.members[wallet] = m
	return m, nil
}

func (s *opState) exists(wallet proto.WalletAddress) (bool, error) {
	if _, ok := s.members[wallet]; ok {
		return true, nil
	}
	return s.r.Has(memberKey{wallet: wallet}.bytes())
}

// ancestor loads an upline or matrix ancestor, a missing one is reported as AncestorNotFound.
func (s *opState) ancestor(wallet proto.WalletAddress) (*proto.Member, error) {
	m, err := s.Member(wallet)
	if errors.Is(err, errs.NotRegistered{}) {
		return nil, errs.NewAncestorNotFound(fmt.Sprintf("ancestor %q is not registered", wallet))
	}
	return m, err
}

func (s *opState) create(m *proto.Member) {
	s.members[m.Wallet] = m
	s.touch(m)
}

func (s *opState) touch(m *proto.Member) {
	for _, w := range s.dirty {
		if w == m.Wallet {
			return
		}
	}
	s.dirty = append(s.dirty, m.Wallet)
}

func (s *opState) loadUint64(k singletonKey) (uint64, error) {
	data, err := s.r.Get(k.bytes())
	if errors.Is(err, keyvalue.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bytesUint64(data)
}

func (s *opState) companyBalance() (proto.Amount, error) {
	if s.company == nil {
		v, err := s.loadUint64(companyBalanceKey)
		if err != nil {
			return 0, errors.Wrap(err, "failed to load company balance")
		}
		a := proto.Amount(v)
		s.company = &a
	}
	return *s.company, nil
}

func (s *opState) creditCompany(a proto.Amount) error {
	b, err := s.companyBalance()
	if err != nil {
		return err
	}
	if b, err = b.Add(a); err != nil {
		return err
	}
	s.company, s.companyChanged = &b, true
	return nil
}

func (s *opState) debitCompany(a proto.Amount) error {
	b, err := s.companyBalance()
	if err != nil {
		return err
	}
	if b, err = b.Sub(a); err != nil {
		return errs.Extend(err, "company account")
	}
	s.company, s.companyChanged = &b, true
	return nil
}

func (s *opState) currentOwner() (proto.WalletAddress, error) {
	if s.owner == nil {
		data, err := s.r.Get(ownerKey.bytes())
		if err != nil {
			return "", errors.Wrap(err, "failed to load owner")
		}
		o := proto.WalletAddress(data)
		s.owner = &o
	}
	return *s.owner, nil
}

func (s *opState) setOwner(o proto.WalletAddress) {
	s.owner, s.ownerChanged = &o, true
}

func (s *opState) incUsers() error {
	if s.users == nil {
		v, err := s.loadUint64(usersCounterKey)
		if err != nil {
			return errors.Wrap(err, "failed to load users counter")
		}
		s.users = &v
	}
	*s.users++
	return nil
}

func (s *opState) incSubscribed() error {
	if s.subscribed == nil {
		v, err := s.loadUint64(subscribedCounterKey)
		if err != nil {
			return errors.Wrap(err, "failed to load subscribed users counter")
		}
		s.subscribed = &v
	}
	*s.subscribed++
	return nil
}

// credit adds amount to the balance of a member already loaded into the state.
func (s *opState) credit(m *proto.Member, amount proto.Amount) error {
	b, err := m.Balance.Add(amount)
	if err != nil {
		return errs.Extend(err, fmt.Sprintf("balance of %q", m.Wallet))
	}
	m.Balance = b
	s.touch(m)
	return nil
}

func (s *opState) debit(m *proto.Member, amount proto.Amount) error {
	b, err := m.Balance.Sub(amount)
	if err != nil {
		return errs.Extend(err, fmt.Sprintf("balance of %q", m.Wallet))
	}
	m.Balance = b
	s.touch(m)
	return nil
}

// attach links member under parent at pos and bumps the descendant counters of every matrix ancestor.
func (s *opState) attach(member, parent *proto.Member, pos proto.MatrixPosition) error {
	if !parent.Matrix.Child(pos).Empty() {
		return errs.NewSlotOccupied(fmt.Sprintf("%s slot of %q is taken by %q", pos, parent.Wallet, parent.Matrix.Child(pos)))
	}
	parent.Matrix.Children[pos] = member.Wallet
	s.touch(parent)
	visited := map[proto.WalletAddress]struct{}{member.Wallet: {}}
	for a := parent; ; {
		if _, ok := visited[a.Wallet]; ok {
			return errors.Errorf("matrix cycle detected at %q", a.Wallet)
		}
		visited[a.Wallet] = struct{}{}
		a.Matrix.Descendants++
		s.touch(a)
		if a.Matrix.Parent.Empty() {
			return nil
		}
		next, err := s.ancestor(a.Matrix.Parent)
		if err != nil {
			return err
		}
		if !next.Subscribed() {
			return errors.Errorf("matrix parent %q of %q has no matrix node", next.Wallet, a.Wallet)
		}
		a = next
	}
}

func newMatrixNode(t proto.SubscriptionType, parent proto.WalletAddress, now time.Time, term time.Duration) *proto.MatrixNode {
	return &proto.MatrixNode{
		SubscriptionType: t,
		RegistrationDate: now,
		ExpirationDate:   now.Add(term),
		Parent:           parent,
	}
}

func (s *opState) writeTo(b *keyvalue.Batch) error {
	for _, w := range s.dirty {
		data, err := marshalRecord(s.members[w])
		if err != nil {
			return errors.Wrapf(err, "member %q", w)
		}
		b.Put(memberKey{wallet: w}.bytes(), data)
	}
	if s.companyChanged {
		b.Put(companyBalanceKey.bytes(), uint64Bytes(uint64(*s.company)))
	}
	if s.ownerChanged {
		b.Put(ownerKey.bytes(), s.owner.Bytes())
	}
	if s.users != nil {
		b.Put(usersCounterKey.bytes(), uint64Bytes(*s.users))
	}
	if s.subscribed != nil {
		b.Put(subscribedCounterKey.bytes(), uint64Bytes(*s.subscribed))
	}
	return nil
}
