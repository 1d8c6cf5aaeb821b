package state

import (
	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/proto"
)

// Snapshot is a consistent read-only view of the ledger at LastSeq. Proposals are computed
// against a snapshot and then submitted as regular operations.
type Snapshot struct {
	snap    *keyvalue.Snapshot
	lastSeq uint64
	company proto.WalletAddress
}

func (l *Ledger) Snapshot() (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap, err := l.kv.NewSnapshot()
	if err != nil {
		return nil, errors.Wrap(err, "failed to take ledger snapshot")
	}
	return &Snapshot{snap: snap, lastSeq: l.lastSeq.Load(), company: l.settings.CompanyWallet}, nil
}

func (s *Snapshot) LastSeq() uint64 {
	return s.lastSeq
}

// Root is the company member at the top of the matrix.
func (s *Snapshot) Root() proto.WalletAddress {
	return s.company
}

func (s *Snapshot) Member(wallet proto.WalletAddress) (*proto.Member, error) {
	return loadMember(s.snap, wallet)
}

// Members calls fn for every member in key order until fn returns false.
func (s *Snapshot) Members(fn func(m *proto.Member) bool) error {
	it := s.snap.NewKeyIterator([]byte{memberKeyPrefix})
	defer it.Release()
	for it.Next() {
		m := new(proto.Member)
		if err := unmarshalRecord(it.Value(), m); err != nil {
			return errors.Wrapf(err, "member %q", walletFromMemberKey(it.Key()))
		}
		if !fn(m) {
			break
		}
	}
	return it.Error()
}

// SubscribedMembers returns the members that hold a matrix node.
func (s *Snapshot) SubscribedMembers() ([]*proto.Member, error) {
	var out []*proto.Member
	err := s.Members(func(m *proto.Member) bool {
		if m.Subscribed() {
			out = append(out, m)
		}
		return true
	})
	return out, err
}

// Transactions returns up to limit records starting with sequence number from.
func (s *Snapshot) Transactions(from uint64, limit int) ([]TxRecord, error) {
	if from == 0 {
		from = 1
	}
	it := s.snap.NewKeyIterator([]byte{txKeyPrefix})
	defer it.Release()
	var out []TxRecord
	for ok := it.Seek(txKey{seq: from}.bytes()); ok && len(out) < limit; ok = it.Next() {
		var rec TxRecord
		if err := unmarshalRecord(it.Value(), &rec); err != nil {
			return nil, errors.Wrap(err, "transaction record")
		}
		out = append(out, rec)
	}
	return out, it.Error()
}

func (s *Snapshot) Release() {
	s.snap.Release()
}
