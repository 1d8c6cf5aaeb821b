// Package matrix implements placement into the ternary matrix and the monthly revenue split.
package matrix

import (
	"github.com/tonclub/hypersonic/pkg/proto"
)

// View is a read-only source of member records, usually a ledger snapshot.
type View interface {
	// Member returns the member record or an errs.NotRegistered error.
	Member(wallet proto.WalletAddress) (*proto.Member, error)
}

// MapView is an in-memory View keyed by wallet address.
type MapView map[proto.WalletAddress]*proto.Member

func (v MapView) Member(wallet proto.WalletAddress) (*proto.Member, error) {
	m, ok := v[wallet]
	if !ok {
		return nil, notRegistered(wallet)
	}
	return m, nil
}
