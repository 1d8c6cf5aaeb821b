// Package splitter divides payments between the DAO wallets and the expenses wallet.
package splitter

import (
	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/proto"
)

const (
	DAOWallets      = 3
	daoSharePercent = 30
)

type Share struct {
	Wallet proto.WalletAddress `json:"wallet"`
	Amount proto.Amount        `json:"amount"`
}

type Splitter struct {
	dao      [DAOWallets]proto.WalletAddress
	expenses proto.WalletAddress
}

func New(dao []proto.WalletAddress, expenses proto.WalletAddress) (*Splitter, error) {
	if len(dao) != DAOWallets {
		return nil, errors.Errorf("expected %d DAO wallets, got %d", DAOWallets, len(dao))
	}
	s := &Splitter{expenses: expenses}
	for i, w := range dao {
		if w.Empty() {
			return nil, errors.Errorf("empty DAO wallet #%d", i+1)
		}
		s.dao[i] = w
	}
	if expenses.Empty() {
		return nil, errors.New("empty expenses wallet")
	}
	return s, nil
}

// Split gives 30% of a to every DAO wallet and the rest, nominally 10%, to the expenses wallet.
// Rounding leftovers end up with the expenses wallet, so the shares always sum up to a.
func (s *Splitter) Split(a proto.Amount) []Share {
	shares := make([]Share, 0, DAOWallets+1)
	rest := a
	for _, w := range s.dao {
		v := a.Percent(daoSharePercent)
		rest -= v
		shares = append(shares, Share{Wallet: w, Amount: v})
	}
	return append(shares, Share{Wallet: s.expenses, Amount: rest})
}
